package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/EthanQC/presence-gateway/internal/domain/event"
	"github.com/EthanQC/presence-gateway/internal/domain/room"
	"github.com/EthanQC/presence-gateway/internal/ports/in"
	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

// StatusHandler 消费 user-status topic
// 事件可能乱序、重复到达，以事件时间做最后写入者胜出：
// 不严格更新的事件直接丢弃，这是幂等分支而不是错误
type StatusHandler struct {
	store out.PresenceStore
	rooms out.RoomGateway
}

var _ in.TopicHandler = (*StatusHandler)(nil)

func NewStatusHandler(store out.PresenceStore, rooms out.RoomGateway) *StatusHandler {
	return &StatusHandler{store: store, rooms: rooms}
}

func (h *StatusHandler) Topic() string        { return event.TopicUserStatus }
func (h *StatusHandler) ReadFromOldest() bool { return false }

func (h *StatusHandler) Handle(ctx context.Context, value []byte) error {
	env, err := event.Decode(event.TopicUserStatus, value)
	if err != nil {
		return err
	}

	switch env.Kind {
	case event.KindStatusChanged:
		return h.applyStatusChange(ctx, env.StatusChanged)
	default:
		return nil
	}
}

func (h *StatusHandler) applyStatusChange(ctx context.Context, m *event.StatusChanged) error {
	applied, err := h.store.SetIfNewer(ctx, m.UserID, m.Status, m.EventTime)
	if err != nil {
		return fmt.Errorf("apply status change failed: %w", err)
	}
	if !applied {
		zap.L().Debug("drop stale status event",
			zap.Int64("userID", m.UserID),
			zap.String("status", string(m.Status)),
			zap.Time("eventTime", m.EventTime))
		return nil
	}

	return h.rooms.Emit(ctx, room.NamespaceStatus, room.Watch(m.UserID),
		EventFriendStatus, FriendStatusPayload{FriendID: m.UserID, Status: m.Status})
}
