package in

import "context"

// ClientConn 应用层看到的单个已认证连接
type ClientConn interface {
	UserID() int64
	// EmitSelf 只向该连接本身发送事件
	EmitSelf(eventName string, payload any) error
}

// SessionUseCase 连接生命周期用例
type SessionUseCase interface {
	// Authenticate 校验握手令牌并解析出用户 ID
	Authenticate(ctx context.Context, token string) (int64, error)
	// OpenStatusSession 连接进入 status 命名空间：
	// 加入个人房间，按关系图订阅好友状态房间并下发缓存状态，发布上线事件
	OpenStatusSession(ctx context.Context, c ClientConn) error
	// CloseStatusSession 连接断开时发布下线事件（不直接改存储）
	CloseStatusSession(ctx context.Context, userID int64) error
	// OpenFriendSession 连接进入 friend 命名空间：只加入个人房间
	OpenFriendSession(ctx context.Context, c ClientConn) error
}
