package out

import "context"

// RoomGateway 房间操作能力接口
// 实现负责把操作广播到所有实例，各实例再作用于本地持有的连接，
// 单实例与多实例部署因此行为一致
type RoomGateway interface {
	// Join 把某用户在 ns 命名空间下的所有连接加入房间
	Join(ctx context.Context, ns, roomName string, userID int64) error
	// Leave 把某用户的连接移出房间
	Leave(ctx context.Context, ns, roomName string, userID int64) error
	// Emit 向房间内所有连接发送事件
	Emit(ctx context.Context, ns, roomName, eventName string, payload any) error
	// Disconnect 强制断开房间内的所有连接
	Disconnect(ctx context.Context, ns, roomName string) error
}
