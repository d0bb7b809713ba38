package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

const (
	// 房间操作广播频道
	roomOpsChannel = "presence:room-ops"

	opJoin  = "join"
	opLeave = "leave"
	opEmit  = "emit"
	opKick  = "kick"
)

// roomOp 在实例间广播的房间操作
type roomOp struct {
	Op     string          `json:"op"`
	NS     string          `json:"ns"`
	Room   string          `json:"room"`
	UserID int64           `json:"userId,omitempty"`
	Event  string          `json:"event,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// LocalRooms 本实例的房间状态，由 ws hub 实现
// 收到广播后每个实例把操作作用在自己本地持有的连接上
type LocalRooms interface {
	Join(ns, roomName string, userID int64)
	Leave(ns, roomName string, userID int64)
	Emit(ns, roomName, eventName string, data []byte)
	DisconnectRoom(ns, roomName string)
}

// RoomRelay 基于 Redis pub/sub 的房间操作中继
// 所有房间操作先发布到共享频道，再由各实例（包括发起方自己）应用到本地，
// 单实例与水平扩展后的行为因此保持一致
type RoomRelay struct {
	client *redis.Client
	local  LocalRooms
}

var _ out.RoomGateway = (*RoomRelay)(nil)

func NewRoomRelay(client *redis.Client, local LocalRooms) *RoomRelay {
	return &RoomRelay{client: client, local: local}
}

func (r *RoomRelay) Join(ctx context.Context, ns, roomName string, userID int64) error {
	return r.publish(ctx, roomOp{Op: opJoin, NS: ns, Room: roomName, UserID: userID})
}

func (r *RoomRelay) Leave(ctx context.Context, ns, roomName string, userID int64) error {
	return r.publish(ctx, roomOp{Op: opLeave, NS: ns, Room: roomName, UserID: userID})
}

func (r *RoomRelay) Emit(ctx context.Context, ns, roomName, eventName string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal emit payload failed: %w", err)
	}
	return r.publish(ctx, roomOp{Op: opEmit, NS: ns, Room: roomName, Event: eventName, Data: data})
}

func (r *RoomRelay) Disconnect(ctx context.Context, ns, roomName string) error {
	return r.publish(ctx, roomOp{Op: opKick, NS: ns, Room: roomName})
}

func (r *RoomRelay) publish(ctx context.Context, op roomOp) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal room op failed: %w", err)
	}
	if err := r.client.Publish(ctx, roomOpsChannel, data).Err(); err != nil {
		return fmt.Errorf("publish room op failed: %w", err)
	}
	return nil
}

// Run 订阅共享频道并把收到的操作应用到本地，阻塞直到 ctx 取消
func (r *RoomRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, roomOpsChannel)
	defer pubsub.Close()

	// 确认订阅建立，失败直接返回
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe room ops failed: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.apply([]byte(msg.Payload))
		}
	}
}

func (r *RoomRelay) apply(payload []byte) {
	var op roomOp
	if err := json.Unmarshal(payload, &op); err != nil {
		zap.L().Warn("丢弃无法解析的房间操作", zap.Error(err), zap.ByteString("payload", payload))
		return
	}

	switch op.Op {
	case opJoin:
		r.local.Join(op.NS, op.Room, op.UserID)
	case opLeave:
		r.local.Leave(op.NS, op.Room, op.UserID)
	case opEmit:
		r.local.Emit(op.NS, op.Room, op.Event, op.Data)
	case opKick:
		r.local.DisconnectRoom(op.NS, op.Room)
	default:
		zap.L().Warn("未知的房间操作", zap.String("op", op.Op))
	}
}
