package kafkaclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter defines the interface for a Kafka message writer.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes JSON messages to a single topic.
type KafkaProducer struct {
	writer KafkaWriter
	topic  string
}

func NewKafkaProducer(topic, broker string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: writer, topic: topic}
}

// PublishJSON encodes value as JSON and writes it under key. Messages with
// the same key land on the same partition.
func (p *KafkaProducer) PublishJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	msg := kafka.Message{Key: []byte(key), Value: payload}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", p.topic, err)
	}
	slog.Debug("message published", "topic", p.topic, "key", key)
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
