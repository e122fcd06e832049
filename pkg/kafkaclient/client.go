package kafkaclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaReader defines the interface for a Kafka message reader.
// This allows for easy mocking in unit tests.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer manages the Kafka consumer and its message loop.
type KafkaConsumer struct {
	reader KafkaReader
	// closed by Stop to end the loop.
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	// messages read from Kafka, handed to the iterator.
	messageChan chan kafka.Message
	// backoff after a failed read.
	backoff time.Duration
}

// NewKafkaConsumer creates a consumer that reads topic as part of groupID.
// Offsets are committed manually through CommitOffset.
func NewKafkaConsumer(topic, groupID, broker string) (*KafkaConsumer, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: groupID,
		// Disable auto-commit to manually control offset committing.
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return newKafkaConsumer(reader), nil
}

func newKafkaConsumer(reader KafkaReader) *KafkaConsumer {
	return &KafkaConsumer{
		reader:      reader,
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
		backoff:     time.Second,
	}
}

func (kc *KafkaConsumer) Messages() <-chan kafka.Message {
	return kc.messageChan
}

// CommitOffset manually commits the offset of a message.
func (kc *KafkaConsumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	slog.Debug("committing offset", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	return kc.reader.CommitMessages(ctx, msg)
}

// StartConsuming begins the Kafka message consumption loop in a separate goroutine.
// The message channel is closed when the loop ends.
func (kc *KafkaConsumer) StartConsuming(ctx context.Context) {
	kc.wg.Add(1)
	go func() {
		defer kc.wg.Done()
		defer close(kc.messageChan)

		slog.Info("starting kafka consumer loop")

		for {
			select {
			case <-ctx.Done():
				slog.Info("context canceled, stopping consumer loop")
				return
			case <-kc.doneChan:
				slog.Info("shutdown signal received, stopping consumer loop")
				return
			default:
			}

			msg, err := kc.reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					slog.Info("kafka reader closed, stopping consumer loop")
					return
				}
				slog.Error("error reading message", "error", err)
				// backoff to prevent a tight error loop
				select {
				case <-time.After(kc.backoff):
				case <-ctx.Done():
					return
				case <-kc.doneChan:
					return
				}
				continue
			}

			select {
			case kc.messageChan <- msg:
				slog.Debug("message received", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			case <-ctx.Done():
				slog.Info("context canceled, stopping consumer before sending message")
				return
			case <-kc.doneChan:
				slog.Info("shutdown signal received, stopping consumer before sending message")
				return
			}
		}
	}()
}

// Stop shuts down the consumer loop and closes the reader. Safe to call more than once.
func (kc *KafkaConsumer) Stop() {
	kc.stopOnce.Do(func() {
		slog.Info("stopping kafka consumer")
		close(kc.doneChan)
		// closing the reader unblocks a pending ReadMessage with io.EOF
		if err := kc.reader.Close(); err != nil {
			slog.Error("failed to close kafka reader", "error", err)
		}
		kc.wg.Wait()
		slog.Info("kafka consumer stopped")
	})
}
