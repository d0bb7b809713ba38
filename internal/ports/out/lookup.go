package out

import (
	"context"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
)

// TokenVerifier 握手令牌校验，由外部认证服务实现
type TokenVerifier interface {
	// Verify 校验成功返回令牌对应的用户 ID
	Verify(ctx context.Context, token string) (int64, error)
}

// UserDirectory 只读用户目录及头像回写
type UserDirectory interface {
	// Lookup 查询用户展示信息，查不到返回错误
	Lookup(ctx context.Context, userID int64) (*entity.UserProfile, error)
	// UpdateAvatar 更新用户头像地址
	UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error
}

// FriendGraph 只读关系图查询
type FriendGraph interface {
	// AcceptedFriends 返回已接受且未把对方拉黑的好友列表
	AcceptedFriends(ctx context.Context, userID int64) ([]entity.Friend, error)
}
