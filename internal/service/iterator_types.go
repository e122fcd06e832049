package service

import (
	"context"

	"github.com/segmentio/kafka-go"

	"virtualtourist/internal/models"
)

// MessageIterator defines the contract for consuming messages from a Kafka topic.
// It is used by the service's Iterator to abstract away the details of the
// underlying Kafka consumer.
//
// Implementations are responsible for the lifecycle of the consumer connection.
type MessageIterator interface {
	// Messages returns a receive-only channel of Kafka messages. The channel
	// is closed by the implementation when the consumer is stopped.
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges that a message has been processed.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// LoaderFunc loads the data of type T a pin event refers to.
type LoaderFunc[T any] func(ctx context.Context, event models.PinEvent) (T, error)

// FetchedObject pairs the loaded data with the event that triggered the load.
type FetchedObject[T any] struct {
	Data  T
	Event models.PinEvent
}
