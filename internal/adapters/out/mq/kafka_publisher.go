package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/EthanQC/presence-gateway/internal/domain/entity"
	"github.com/EthanQC/presence-gateway/internal/domain/event"
	"github.com/EthanQC/presence-gateway/internal/ports/out"
)

// KafkaStatusPublisher 连接建立/断开时发布 STATUS.CHANGED 事件
type KafkaStatusPublisher struct {
	producer sarama.SyncProducer
}

var _ out.StatusPublisher = (*KafkaStatusPublisher)(nil)

// NewKafkaStatusPublisher 创建状态事件发布器
func NewKafkaStatusPublisher(brokers []string) (*KafkaStatusPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Timeout = 10 * time.Second
	// 同一用户的状态事件发到同一分区，保证分区内按发布顺序投递
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer failed: %w", err)
	}
	return &KafkaStatusPublisher{producer: producer}, nil
}

// PublishStatus 发布状态变更事件，时间戳随事件本身携带
func (p *KafkaStatusPublisher) PublishStatus(ctx context.Context, userID int64, status entity.UserStatus, at time.Time) error {
	payload := map[string]any{
		"eventType": event.TypeStatusChanged,
		"userId":    userID,
		"status":    status,
		"timestamp": at.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal status event failed: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: event.TopicUserStatus,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", userID)), // 按用户分区
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.TypeStatusChanged)},
		},
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish status event failed: %w", err)
	}
	return nil
}

// Close 关闭底层 producer
func (p *KafkaStatusPublisher) Close() error {
	return p.producer.Close()
}
