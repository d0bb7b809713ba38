package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
)

func newTestSession(rooms *fakeRooms, store *fakeStore, friends *fakeFriends, pub *fakePublisher) *Session {
	return NewSession(
		&fakeVerifier{userID: 1},
		friends,
		store,
		NewWatchRooms(rooms, store),
		rooms,
		pub,
	)
}

func TestOpenStatusSessionSeedsView(t *testing.T) {
	rooms := &fakeRooms{}
	store := newFakeStore()
	store.records[2] = entity.PresenceRecord{UserID: 2, Status: entity.StatusGame, EventTime: time.Now()}
	friends := &fakeFriends{friends: map[int64][]entity.Friend{
		1: {{FriendID: 2}, {FriendID: 3}},
	}}
	pub := &fakePublisher{}
	s := newTestSession(rooms, store, friends, pub)
	conn := &fakeConn{userID: 1}

	if err := s.OpenStatusSession(context.Background(), conn); err != nil {
		t.Fatalf("OpenStatusSession: %v", err)
	}

	// 个人房间 + 每个好友一个观察房间
	wantJoins := []struct {
		room   string
		userID int64
	}{
		{"user:1", 1},
		{"user-status-2", 1},
		{"user-status-3", 1},
	}
	var joins []roomCall
	for _, c := range rooms.calls {
		if c.Op == "join" {
			joins = append(joins, c)
		}
	}
	if len(joins) != len(wantJoins) {
		t.Fatalf("joins = %d, want %d", len(joins), len(wantJoins))
	}
	for i, w := range wantJoins {
		if joins[i].NS != "status" || joins[i].Room != w.room || joins[i].UserID != w.userID {
			t.Errorf("join[%d] = %+v, want %+v", i, joins[i], w)
		}
	}

	// 缓存状态只发给新连接本身，无记录的好友按 OFFLINE
	if len(conn.emits) != 2 {
		t.Fatalf("self emits = %d, want 2", len(conn.emits))
	}
	p0 := conn.emits[0].Payload.(FriendStatusPayload)
	if p0.FriendID != 2 || p0.Status != entity.StatusGame {
		t.Errorf("cached presence for friend 2 = %+v", p0)
	}
	p1 := conn.emits[1].Payload.(FriendStatusPayload)
	if p1.FriendID != 3 || p1.Status != entity.StatusOffline {
		t.Errorf("cached presence for friend 3 = %+v, want OFFLINE default", p1)
	}

	// 上线事件走发布路径，不直接写存储
	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	if pub.published[0].UserID != 1 || pub.published[0].Status != entity.StatusOnline {
		t.Errorf("published = %+v, want ONLINE for user 1", pub.published[0])
	}
	if len(store.records) != 1 {
		t.Error("session open must not write presence for the connecting user directly")
	}
}

func TestOpenStatusSessionFailsClosedOnFriendGraphError(t *testing.T) {
	rooms := &fakeRooms{}
	pub := &fakePublisher{}
	friends := &fakeFriends{err: fmt.Errorf("friend service down")}
	s := newTestSession(rooms, newFakeStore(), friends, pub)

	if err := s.OpenStatusSession(context.Background(), &fakeConn{userID: 1}); err == nil {
		t.Fatal("expected error when friend graph is unavailable")
	}
	if len(pub.published) != 0 {
		t.Error("a failed open must not publish an online event")
	}
}

func TestCloseStatusSessionPublishesOffline(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestSession(&fakeRooms{}, newFakeStore(), &fakeFriends{}, pub)

	before := time.Now()
	if err := s.CloseStatusSession(context.Background(), 5); err != nil {
		t.Fatalf("CloseStatusSession: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.published))
	}
	p := pub.published[0]
	if p.UserID != 5 || p.Status != entity.StatusOffline {
		t.Errorf("published = %+v, want OFFLINE for user 5", p)
	}
	if p.At.Before(before) {
		t.Errorf("offline timestamp %v predates the disconnect", p.At)
	}
}

func TestOpenFriendSessionJoinsMailboxOnly(t *testing.T) {
	rooms := &fakeRooms{}
	pub := &fakePublisher{}
	s := newTestSession(rooms, newFakeStore(), &fakeFriends{}, pub)

	if err := s.OpenFriendSession(context.Background(), &fakeConn{userID: 6}); err != nil {
		t.Fatalf("OpenFriendSession: %v", err)
	}
	if len(rooms.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(rooms.calls))
	}
	c := rooms.calls[0]
	if c.Op != "join" || c.NS != "friend" || c.Room != "user:6" {
		t.Errorf("unexpected call: %+v", c)
	}
	if len(pub.published) != 0 {
		t.Error("friend namespace must not publish status events")
	}
}

func TestAuthenticateWrapsVerifier(t *testing.T) {
	s := NewSession(&fakeVerifier{err: fmt.Errorf("bad token")}, &fakeFriends{}, newFakeStore(), nil, &fakeRooms{}, &fakePublisher{})
	if _, err := s.Authenticate(context.Background(), "x"); err == nil {
		t.Fatal("expected error from verifier")
	}

	s = NewSession(&fakeVerifier{userID: 99}, &fakeFriends{}, newFakeStore(), nil, &fakeRooms{}, &fakePublisher{})
	id, err := s.Authenticate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id != 99 {
		t.Errorf("userID = %d, want 99", id)
	}
}
