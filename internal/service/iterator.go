// Package service holds the map and album operations and the worker that
// fills albums of pins announced on the pin topic.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"virtualtourist/internal/models"
)

// Iterator consumes messages from a MessageIterator, decodes each one as a
// models.PinEvent, loads its data via LoaderFunc and yields FetchedObject
// items on a channel.
//
// The Iterator does not manage the lifecycle of the underlying message source;
// callers start and stop their consumer outside.
type Iterator[T any] struct {
	msgIterator MessageIterator
	loader      LoaderFunc[T]
}

func NewIterator[T any](iterator MessageIterator, loader LoaderFunc[T]) *Iterator[T] {
	return &Iterator[T]{
		msgIterator: iterator,
		loader:      loader,
	}
}

// Objects starts a goroutine that decodes every message, loads it and emits
// the result. Undecodable messages and events of other types are committed
// and skipped. A failed load is logged and skipped with its offset committed.
// The output channel is closed when the Messages channel is closed or ctx is
// done.
func (it *Iterator[T]) Objects(ctx context.Context) <-chan *FetchedObject[T] {
	out := make(chan *FetchedObject[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			var event models.PinEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				slog.Error("skipping malformed pin event", "offset", msg.Offset, "error", err)
				it.commit(ctx, msg)
				continue
			}
			if event.Type != models.EventPinDropped {
				slog.Debug("skipping event", "type", event.Type, "offset", msg.Offset)
				it.commit(ctx, msg)
				continue
			}

			data, err := it.loader(ctx, event)
			if err != nil {
				slog.Error("skipping pin event that failed to load", "pin_id", event.PinID, "offset", msg.Offset, "error", err)
				it.commit(ctx, msg)
				continue
			}

			select {
			case out <- &FetchedObject[T]{Data: data, Event: event}:
			case <-ctx.Done():
				return
			}
			it.commit(ctx, msg)
		}
	}()
	return out
}

func (it *Iterator[T]) commit(ctx context.Context, msg kafka.Message) {
	if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
		slog.Error("failed to commit offset", "offset", msg.Offset, "error", err)
	}
}
