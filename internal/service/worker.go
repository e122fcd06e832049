package service

import (
	"context"
	"fmt"
	"log/slog"

	"virtualtourist/internal/enrich"
	"virtualtourist/internal/models"
	"virtualtourist/internal/store"
	"virtualtourist/pkg/geo"
)

// PinItem is a pin announced on the topic, on its way through the worker pipeline.
type PinItem = FetchedObject[models.Pin]

// Worker fills the albums of pins announced by pin.dropped events.
type Worker struct {
	messages MessageIterator
	store    store.Store
	albums   *AlbumService
}

func NewWorker(messages MessageIterator, s store.Store, albums *AlbumService) *Worker {
	return &Worker{messages: messages, store: s, albums: albums}
}

// Run processes events until the message channel is closed. Events of pins
// that no longer exist, or whose coordinate differs from the stored pin, are
// skipped.
func (w *Worker) Run(ctx context.Context) {
	iterator := NewIterator(w.messages, w.loadPin)
	pipeline := enrich.NewPipeline(
		enrich.NewStage(w.fillAlbum),
	)
	pipeline.Process(ctx, iterator.Objects(ctx))
	slog.Info("worker finished")
}

func (w *Worker) loadPin(ctx context.Context, event models.PinEvent) (models.Pin, error) {
	pin, err := w.store.GetPin(ctx, event.PinID)
	if err != nil {
		return models.Pin{}, err
	}
	if !geo.Same(pin.Latitude, pin.Longitude, event.Latitude, event.Longitude) {
		return models.Pin{}, fmt.Errorf("event for pin %s does not match its stored coordinate", pin.ID)
	}
	return pin, nil
}

// fillAlbum fetches the album unless the pin already holds downloaded photos,
// so a redelivered event does not duplicate the album.
func (w *Worker) fillAlbum(ctx context.Context, item *PinItem) error {
	photos, err := w.store.ListPhotos(ctx, item.Data.ID)
	if err != nil {
		return err
	}
	for _, p := range photos {
		if !p.IsPlaceholder() {
			slog.Debug("album already filled, skipping", "pin_id", item.Data.ID)
			return nil
		}
	}
	_, err = w.albums.FetchAlbum(ctx, item.Data.ID)
	return err
}
