package event

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/stockhold-next/internal/config"
	"github.com/stockhold-next/internal/logger"

	"github.com/segmentio/kafka-go"
)

const kafkaWriteTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink 将预占事件投递到 Kafka，按商品分区保证同一商品事件有序
type KafkaSink struct {
	writer messageWriter
	topic  string
}

// NewKafkaSink 根据配置创建 Kafka 投递目标，未启用时返回 nil
func NewKafkaSink(cfg *config.KafkaConfig) *KafkaSink {
	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		return nil
	}
	topic := strings.TrimSpace(cfg.Topic)
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: kafkaWriteTimeout,
	}
	return &KafkaSink{writer: writer, topic: topic}
}

func newKafkaSinkWithWriter(writer messageWriter, topic string) *KafkaSink {
	return &KafkaSink{writer: writer, topic: topic}
}

// Deliver 实现 Sink
func (s *KafkaSink) Deliver(ctx context.Context, events []Event) error {
	if s == nil || s.writer == nil || len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		value, err := json.Marshal(evt)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(evt.ProductID), 10)),
			Value: value,
			Time:  evt.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event", Value: []byte(evt.Name)},
			},
		})
	}
	writeCtx, cancel := context.WithTimeout(ctx, kafkaWriteTimeout)
	defer cancel()
	if err := s.writer.WriteMessages(writeCtx, msgs...); err != nil {
		return err
	}
	logger.Debugw("kafka_events_published", "topic", s.topic, "count", len(msgs))
	return nil
}

// Close 关闭写入器
func (s *KafkaSink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
