package application

import (
	"context"
	"fmt"

	"github.com/EthanQC/presence-gateway/internal/domain/event"
	"github.com/EthanQC/presence-gateway/internal/domain/room"
	"github.com/EthanQC/presence-gateway/internal/ports/in"
	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

// FriendRequestPayload friend 命名空间的点对点好友请求通知
type FriendRequestPayload struct {
	FromUserID       int64  `json:"fromUserId"`
	FromUserNickname string `json:"fromUserNickname"`
	ToUserID         int64  `json:"toUserId"`
	Timestamp        string `json:"timestamp"`
}

// FriendAcceptPayload 好友请求被接受的通知，发给当初的请求方
type FriendAcceptPayload struct {
	FromUserID     int64  `json:"fromUserId"`
	ToUserNickname string `json:"toUserNickname"`
	ToUserID       int64  `json:"toUserId"`
	Timestamp      string `json:"timestamp"`
}

// FriendHandler 消费 friend topic，维护观察房间成员并下发点对点通知
//
// BLOCK 只把被拉黑方移出拉黑方的观察房间，拉黑方仍能继续观察对方，
// 这是刻意的产品规则，不要“修”成对称移除
type FriendHandler struct {
	watch *WatchRooms
	users out.UserDirectory
	rooms out.RoomGateway
}

var _ in.TopicHandler = (*FriendHandler)(nil)

func NewFriendHandler(watch *WatchRooms, users out.UserDirectory, rooms out.RoomGateway) *FriendHandler {
	return &FriendHandler{watch: watch, users: users, rooms: rooms}
}

func (h *FriendHandler) Topic() string { return event.TopicFriend }

// ReadFromOldest 关系事件从头读，保证重启后房间成员能重建
func (h *FriendHandler) ReadFromOldest() bool { return true }

func (h *FriendHandler) Handle(ctx context.Context, value []byte) error {
	env, err := event.Decode(event.TopicFriend, value)
	if err != nil {
		return err
	}

	switch env.Kind {
	case event.KindFriendAdded:
		return h.handleAdded(ctx, env.FriendAdded)
	case event.KindFriendBlocked:
		return h.watch.LeaveWatch(ctx, env.FriendPair.ToUserID, env.FriendPair.FromUserID)
	case event.KindFriendUnblocked:
		return h.watch.JoinWatch(ctx, env.FriendPair.ToUserID, env.FriendPair.FromUserID)
	case event.KindFriendRequested:
		return h.notifyRequested(ctx, env.FriendPair)
	case event.KindFriendAccepted:
		return h.notifyAccepted(ctx, env.FriendPair)
	default:
		return nil
	}
}

// handleAdded 双向互相加入观察房间后立刻补发一次双方的缓存状态，
// 新观察者不用等到下一次状态变更才拿到值
func (h *FriendHandler) handleAdded(ctx context.Context, m *event.FriendAdded) error {
	if err := h.watch.JoinWatch(ctx, m.UserAID, m.UserBID); err != nil {
		return fmt.Errorf("join watch rooms failed: %w", err)
	}
	if err := h.watch.JoinWatch(ctx, m.UserBID, m.UserAID); err != nil {
		return fmt.Errorf("join watch rooms failed: %w", err)
	}

	for _, id := range []int64{m.UserAID, m.UserBID} {
		if err := h.watch.BroadcastPresence(ctx, id); err != nil {
			return fmt.Errorf("broadcast presence after add failed: %w", err)
		}
	}
	return nil
}

// notifyRequested 查到请求方昵称后投递到接收方个人信箱
// 查询失败则整条通知不发（fail closed），事件仍视为已消费
func (h *FriendHandler) notifyRequested(ctx context.Context, m *event.FriendPair) error {
	profile, err := h.users.Lookup(ctx, m.FromUserID)
	if err != nil {
		return fmt.Errorf("suppress friend-request notification: %w", err)
	}

	return h.rooms.Emit(ctx, room.NamespaceFriend, room.Personal(m.ToUserID),
		EventFriendRequest, FriendRequestPayload{
			FromUserID:       m.FromUserID,
			FromUserNickname: profile.Nickname,
			ToUserID:         m.ToUserID,
			Timestamp:        m.Timestamp,
		})
}

// notifyAccepted 事件方向沿用请求事件：fromUserId 是当初的请求方，
// 通知发给请求方，携带接受方（toUserId）的昵称
func (h *FriendHandler) notifyAccepted(ctx context.Context, m *event.FriendPair) error {
	profile, err := h.users.Lookup(ctx, m.ToUserID)
	if err != nil {
		return fmt.Errorf("suppress friend-accept notification: %w", err)
	}

	return h.rooms.Emit(ctx, room.NamespaceFriend, room.Personal(m.FromUserID),
		EventFriendAccept, FriendAcceptPayload{
			FromUserID:     m.FromUserID,
			ToUserNickname: profile.Nickname,
			ToUserID:       m.ToUserID,
			Timestamp:      m.Timestamp,
		})
}
