package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"virtualtourist/internal/models"
)

// InlineNotifier fills the album of a dropped pin in a background goroutine
// of the same process.
type InlineNotifier struct {
	albums  AlbumFetcher
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewInlineNotifier returns a notifier that bounds each album fetch by
// timeout; zero means no bound.
func NewInlineNotifier(albums AlbumFetcher, timeout time.Duration) *InlineNotifier {
	return &InlineNotifier{albums: albums, timeout: timeout}
}

// PinDropped returns immediately. The fetch outlives the request context.
func (n *InlineNotifier) PinDropped(ctx context.Context, pin models.Pin) error {
	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if n.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, n.timeout)
			defer cancel()
		}
		if _, err := n.albums.FetchAlbum(ctx, pin.ID); err != nil {
			slog.Error("background album fetch failed", "pin_id", pin.ID, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every started album fetch is done.
func (n *InlineNotifier) Wait() {
	n.wg.Wait()
}

// Publisher writes a JSON message under a partition key.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, value any) error
}

// EventNotifier publishes a pin.dropped event for the worker to pick up.
type EventNotifier struct {
	publisher Publisher
}

func NewEventNotifier(publisher Publisher) *EventNotifier {
	return &EventNotifier{publisher: publisher}
}

func (n *EventNotifier) PinDropped(ctx context.Context, pin models.Pin) error {
	return n.publisher.PublishJSON(ctx, pin.ID, models.NewPinDropped(pin))
}
