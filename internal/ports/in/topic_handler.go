package in

import "context"

// TopicHandler 每个 topic 一个处理器，由分发器按 topic 精确路由
// Handle 返回错误时该消息记录日志后仍视为已消费，不重试不入死信，
// 因此处理器必须对任意畸形输入保持全函数（校验后忽略，而不是抛错重试）
type TopicHandler interface {
	Topic() string
	// ReadFromOldest 订阅时是否从最早的记录读起
	ReadFromOldest() bool
	Handle(ctx context.Context, value []byte) error
}
