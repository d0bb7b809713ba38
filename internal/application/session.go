package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
	"github.com/EthanQC/presence-gateway/internal/domain/room"
	"github.com/EthanQC/presence-gateway/internal/ports/in"
	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

// Session 连接生命周期用例实现
// 上线/下线不直接写状态存储，只发布事件走消费路径，
// 单实例和多实例部署因此收敛到同一份状态
type Session struct {
	verifier  out.TokenVerifier
	friends   out.FriendGraph
	store     out.PresenceStore
	watch     *WatchRooms
	rooms     out.RoomGateway
	publisher out.StatusPublisher
}

var _ in.SessionUseCase = (*Session)(nil)

func NewSession(
	verifier out.TokenVerifier,
	friends out.FriendGraph,
	store out.PresenceStore,
	watch *WatchRooms,
	rooms out.RoomGateway,
	publisher out.StatusPublisher,
) *Session {
	return &Session{
		verifier:  verifier,
		friends:   friends,
		store:     store,
		watch:     watch,
		rooms:     rooms,
		publisher: publisher,
	}
}

// Authenticate 校验令牌，失败的连接不会进入任何房间
func (s *Session) Authenticate(ctx context.Context, token string) (int64, error) {
	userID, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("authenticate failed: %w", err)
	}
	return userID, nil
}

// OpenStatusSession 按关系图播种新连接的初始视图：
// 个人房间、每个未被拉黑的已接受好友的观察房间、各好友的缓存状态，
// 最后发布自己的上线事件
func (s *Session) OpenStatusSession(ctx context.Context, c in.ClientConn) error {
	userID := c.UserID()

	if err := s.rooms.Join(ctx, room.NamespaceStatus, room.Personal(userID), userID); err != nil {
		return fmt.Errorf("join personal room failed: %w", err)
	}

	friends, err := s.friends.AcceptedFriends(ctx, userID)
	if err != nil {
		return fmt.Errorf("seed watch rooms failed: %w", err)
	}

	for _, f := range friends {
		if err := s.watch.JoinWatch(ctx, userID, f.FriendID); err != nil {
			return fmt.Errorf("join watch room for friend %d failed: %w", f.FriendID, err)
		}
		if err := s.emitCachedPresence(ctx, c, f.FriendID); err != nil {
			return err
		}
	}

	if err := s.publisher.PublishStatus(ctx, userID, entity.StatusOnline, time.Now()); err != nil {
		return fmt.Errorf("publish online event failed: %w", err)
	}

	zap.L().Info("status session opened",
		zap.Int64("userID", userID),
		zap.Int("friends", len(friends)))
	return nil
}

// emitCachedPresence 只发给新连接本身，存储无记录按 OFFLINE 下发
func (s *Session) emitCachedPresence(ctx context.Context, c in.ClientConn, friendID int64) error {
	status := entity.StatusOffline
	rec, err := s.store.Get(ctx, friendID)
	if err != nil {
		return fmt.Errorf("read cached presence for friend %d failed: %w", friendID, err)
	}
	if rec != nil {
		status = rec.Status
	}
	if err := c.EmitSelf(EventFriendStatus, FriendStatusPayload{FriendID: friendID, Status: status}); err != nil {
		return fmt.Errorf("emit cached presence failed: %w", err)
	}
	return nil
}

// CloseStatusSession 断开只发布下线事件，携带断开时刻
func (s *Session) CloseStatusSession(ctx context.Context, userID int64) error {
	if err := s.publisher.PublishStatus(ctx, userID, entity.StatusOffline, time.Now()); err != nil {
		return fmt.Errorf("publish offline event failed: %w", err)
	}
	return nil
}

// OpenFriendSession friend 命名空间只当点对点信箱用，不做观察房间播种
func (s *Session) OpenFriendSession(ctx context.Context, c in.ClientConn) error {
	userID := c.UserID()
	if err := s.rooms.Join(ctx, room.NamespaceFriend, room.Personal(userID), userID); err != nil {
		return fmt.Errorf("join personal room failed: %w", err)
	}
	zap.L().Info("friend session opened", zap.Int64("userID", userID))
	return nil
}
