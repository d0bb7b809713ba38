package mq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/EthanQC/presence-gateway/internal/metrics"
	"github.com/EthanQC/presence-gateway/internal/ports/in"
)

const (
	// 单条消息处理的超时上限，防止慢的外部调用拖垮整个消费循环
	defaultHandleTimeout = 5 * time.Second
)

// TopicDispatcher 持有一个消费组，订阅所有处理器声明的 topic，
// 按 topic 精确匹配路由消息；处理器出错只记日志，消息一律视为已消费
type TopicDispatcher struct {
	consumerGroup sarama.ConsumerGroup
	topics        []string
	handlers      map[string]in.TopicHandler
	handleTimeout time.Duration
	ready         chan bool
	cancel        context.CancelFunc
}

// NewTopicDispatcher 创建分发器
// sessionTimeout 是消费组会话超时，独立于单条消息的处理耗时
func NewTopicDispatcher(brokers []string, groupID string, sessionTimeout time.Duration, handlers []in.TopicHandler) (*TopicDispatcher, error) {
	if len(handlers) == 0 {
		return nil, fmt.Errorf("no topic handlers registered")
	}

	byTopic := make(map[string]in.TopicHandler, len(handlers))
	topics := make([]string, 0, len(handlers))
	fromOldest := false
	for _, h := range handlers {
		if _, dup := byTopic[h.Topic()]; dup {
			return nil, fmt.Errorf("duplicate handler for topic %s", h.Topic())
		}
		byTopic[h.Topic()] = h
		topics = append(topics, h.Topic())
		if h.ReadFromOldest() {
			fromOldest = true
		}
	}

	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Return.Errors = true
	if sessionTimeout > 0 {
		config.Consumer.Group.Session.Timeout = sessionTimeout
	}
	// sarama 的初始偏移是消费组级别的：任一处理器要求从头读时整组从头读，
	// 处理器的时间戳幂等保证重读是安全的
	if fromOldest {
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		config.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("create consumer group failed: %w", err)
	}

	return &TopicDispatcher{
		consumerGroup: consumerGroup,
		topics:        topics,
		handlers:      byTopic,
		handleTimeout: defaultHandleTimeout,
		ready:         make(chan bool),
	}, nil
}

// Start 启动消费，阻塞直到消费组就绪
func (d *TopicDispatcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	handler := &dispatchGroupHandler{
		handlers:      d.handlers,
		handleTimeout: d.handleTimeout,
		ready:         d.ready,
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if err := d.consumerGroup.Consume(ctx, d.topics, handler); err != nil {
					zap.L().Warn("consumer group error", zap.Error(err))
				}
			}
		}
	}()

	<-d.ready
	zap.L().Info("topic dispatcher is ready", zap.Strings("topics", d.topics))
	return nil
}

// Stop 停止消费
func (d *TopicDispatcher) Stop() error {
	if d.cancel != nil {
		d.cancel()
	}
	return d.consumerGroup.Close()
}

// dispatchGroupHandler 消费组处理器
type dispatchGroupHandler struct {
	handlers      map[string]in.TopicHandler
	handleTimeout time.Duration

	// ready 只在首次 Setup 时关闭一次，rebalance 触发的后续 Setup 不再动它
	ready     chan bool
	readyOnce sync.Once
}

func (h *dispatchGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.readyOnce.Do(func() { close(h.ready) })
	return nil
}

func (h *dispatchGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *dispatchGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	// 分区内串行分发，分区间由消费组并行
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.dispatch(session.Context(), message.Topic, message.Value)
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// dispatch 路由一条消息；任何失败都只记日志，消息不回退
func (h *dispatchGroupHandler) dispatch(ctx context.Context, topic string, value []byte) {
	if len(value) == 0 {
		zap.L().Warn("skip empty message", zap.String("topic", topic))
		metrics.EventsConsumed.WithLabelValues(topic, metrics.ResultSkipped).Inc()
		return
	}

	handler, ok := h.handlers[topic]
	if !ok {
		zap.L().Warn("no handler for topic", zap.String("topic", topic))
		metrics.EventsConsumed.WithLabelValues(topic, metrics.ResultSkipped).Inc()
		return
	}

	if err := h.safeHandle(ctx, handler, value); err != nil {
		zap.L().Error("handle message failed",
			zap.String("topic", topic),
			zap.ByteString("payload", value),
			zap.Error(err))
		metrics.EventsConsumed.WithLabelValues(topic, metrics.ResultError).Inc()
		return
	}

	metrics.EventsConsumed.WithLabelValues(topic, metrics.ResultOK).Inc()
}

// safeHandle 给处理器加上超时和 panic 隔离
func (h *dispatchGroupHandler) safeHandle(ctx context.Context, handler in.TopicHandler, value []byte) (err error) {
	timeout := h.handleTimeout
	if timeout <= 0 {
		timeout = defaultHandleTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler.Handle(ctx, value)
}
