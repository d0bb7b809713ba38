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

// AuthHandler 消费 auth topic，会话在外部被吊销时强制断开该用户的所有连接
type AuthHandler struct {
	rooms out.RoomGateway
}

var _ in.TopicHandler = (*AuthHandler)(nil)

func NewAuthHandler(rooms out.RoomGateway) *AuthHandler {
	return &AuthHandler{rooms: rooms}
}

func (h *AuthHandler) Topic() string        { return event.TopicAuth }
func (h *AuthHandler) ReadFromOldest() bool { return false }

func (h *AuthHandler) Handle(ctx context.Context, value []byte) error {
	env, err := event.Decode(event.TopicAuth, value)
	if err != nil {
		return err
	}

	switch env.Kind {
	case event.KindAuthLogout:
		return h.handleLogout(ctx, env.Logout)
	default:
		return nil
	}
}

// handleLogout 两个命名空间的个人房间都要清
func (h *AuthHandler) handleLogout(ctx context.Context, m *event.Logout) error {
	zap.L().Info("logout, disconnecting sockets", zap.Int64("userID", m.UserID))

	for _, ns := range []string{room.NamespaceStatus, room.NamespaceFriend} {
		if err := h.rooms.Disconnect(ctx, ns, room.Personal(m.UserID)); err != nil {
			return fmt.Errorf("disconnect %s sockets failed: %w", ns, err)
		}
	}
	return nil
}
