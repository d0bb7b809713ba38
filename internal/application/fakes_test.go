package application

import (
	"context"
	"fmt"
	"time"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
)

// roomCall 记录一次房间操作，便于断言顺序和参数
type roomCall struct {
	Op      string // join | leave | emit | disconnect
	NS      string
	Room    string
	UserID  int64
	Event   string
	Payload any
}

type fakeRooms struct {
	calls []roomCall
	err   error
}

func (f *fakeRooms) Join(ctx context.Context, ns, roomName string, userID int64) error {
	f.calls = append(f.calls, roomCall{Op: "join", NS: ns, Room: roomName, UserID: userID})
	return f.err
}

func (f *fakeRooms) Leave(ctx context.Context, ns, roomName string, userID int64) error {
	f.calls = append(f.calls, roomCall{Op: "leave", NS: ns, Room: roomName, UserID: userID})
	return f.err
}

func (f *fakeRooms) Emit(ctx context.Context, ns, roomName, eventName string, payload any) error {
	f.calls = append(f.calls, roomCall{Op: "emit", NS: ns, Room: roomName, Event: eventName, Payload: payload})
	return f.err
}

func (f *fakeRooms) Disconnect(ctx context.Context, ns, roomName string) error {
	f.calls = append(f.calls, roomCall{Op: "disconnect", NS: ns, Room: roomName})
	return f.err
}

func (f *fakeRooms) emits() []roomCall {
	var out []roomCall
	for _, c := range f.calls {
		if c.Op == "emit" {
			out = append(out, c)
		}
	}
	return out
}

// fakeStore 内存版状态存储，保持和 Redis 实现一样的严格更新语义
type fakeStore struct {
	records map[int64]entity.PresenceRecord
	getErr  error
	setErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[int64]entity.PresenceRecord)}
}

func (f *fakeStore) Get(ctx context.Context, userID int64) (*entity.PresenceRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeStore) SetIfNewer(ctx context.Context, userID int64, status entity.UserStatus, eventTime time.Time) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	if rec, ok := f.records[userID]; ok && !eventTime.After(rec.EventTime) {
		return false, nil
	}
	f.records[userID] = entity.PresenceRecord{UserID: userID, Status: status, EventTime: eventTime}
	return true, nil
}

type fakeUsers struct {
	profiles  map[int64]entity.UserProfile
	lookupErr error
	avatars   map[int64]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		profiles: make(map[int64]entity.UserProfile),
		avatars:  make(map[int64]string),
	}
}

func (f *fakeUsers) Lookup(ctx context.Context, userID int64) (*entity.UserProfile, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("user %d not found", userID)
	}
	return &p, nil
}

func (f *fakeUsers) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	f.avatars[userID] = avatarURL
	return nil
}

type fakeFriends struct {
	friends map[int64][]entity.Friend
	err     error
}

func (f *fakeFriends) AcceptedFriends(ctx context.Context, userID int64) ([]entity.Friend, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.friends[userID], nil
}

type publishedStatus struct {
	UserID int64
	Status entity.UserStatus
	At     time.Time
}

type fakePublisher struct {
	published []publishedStatus
	err       error
}

func (f *fakePublisher) PublishStatus(ctx context.Context, userID int64, status entity.UserStatus, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedStatus{UserID: userID, Status: status, At: at})
	return nil
}

type fakeVerifier struct {
	userID int64
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (int64, error) {
	return f.userID, f.err
}

// selfEmit 直接发给单条连接的事件
type selfEmit struct {
	Event   string
	Payload any
}

type fakeConn struct {
	userID int64
	emits  []selfEmit
	err    error
}

func (f *fakeConn) UserID() int64 { return f.userID }

func (f *fakeConn) EmitSelf(eventName string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.emits = append(f.emits, selfEmit{Event: eventName, Payload: payload})
	return nil
}
