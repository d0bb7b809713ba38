package application

import (
	"context"
	"fmt"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
	"github.com/EthanQC/presence-gateway/internal/domain/room"
	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

// 下发到客户端的事件名
const (
	EventFriendStatus  = "friend-status"
	EventFriendRequest = "friend-request"
	EventFriendAccept  = "friend-accept"
)

// FriendStatusPayload 状态房间广播的内容
type FriendStatusPayload struct {
	FriendID int64             `json:"friendId"`
	Status   entity.UserStatus `json:"status"`
}

// WatchRooms 状态观察房间的能力封装
// 谁能看到谁的状态只通过这三个操作表达，
// block/unblock 的单向规则因此集中在一处、可独立测试
type WatchRooms struct {
	rooms out.RoomGateway
	store out.PresenceStore
}

func NewWatchRooms(rooms out.RoomGateway, store out.PresenceStore) *WatchRooms {
	return &WatchRooms{rooms: rooms, store: store}
}

// JoinWatch 让 userID 的连接开始观察 watchedID 的状态
func (w *WatchRooms) JoinWatch(ctx context.Context, userID, watchedID int64) error {
	return w.rooms.Join(ctx, room.NamespaceStatus, room.Watch(watchedID), userID)
}

// LeaveWatch 停止观察
func (w *WatchRooms) LeaveWatch(ctx context.Context, userID, watchedID int64) error {
	return w.rooms.Leave(ctx, room.NamespaceStatus, room.Watch(watchedID), userID)
}

// BroadcastPresence 把 userID 当前的缓存状态广播进其观察房间
// 存储无记录时按 OFFLINE 下发
func (w *WatchRooms) BroadcastPresence(ctx context.Context, userID int64) error {
	status := entity.StatusOffline
	rec, err := w.store.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("read presence for user %d failed: %w", userID, err)
	}
	if rec != nil {
		status = rec.Status
	}

	return w.rooms.Emit(ctx, room.NamespaceStatus, room.Watch(userID),
		EventFriendStatus, FriendStatusPayload{FriendID: userID, Status: status})
}
