package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"virtualtourist/internal/download"
	"virtualtourist/internal/enrich"
	"virtualtourist/internal/imaging"
	"virtualtourist/internal/models"
	"virtualtourist/internal/storage"
	"virtualtourist/internal/store"
)

// ErrNoImage is returned when a photo has neither stored bytes nor a URL.
var ErrNoImage = errors.New("photo has no image")

type AlbumOptions struct {
	// Prefetch downloads every image before the album is saved.
	Prefetch bool
	// Placeholder inserts a placeholder photo when a listed album is empty.
	Placeholder    bool
	ThumbnailWidth int
}

// AlbumService manages the photos of a pin.
type AlbumService struct {
	store    store.Store
	images   storage.ImageStore
	searcher PhotoSearcher
	fetcher  ImageFetcher
	opts     AlbumOptions
	pipeline *enrich.Pipeline[albumJob]

	placeholderOnce sync.Once
	placeholder     []byte
	placeholderErr  error
}

// albumJob carries one album fetch through the pipeline stages.
type albumJob struct {
	pin       models.Pin
	urls      []string
	downloads []download.Result
	saved     []models.Photo
}

func NewAlbumService(s store.Store, images storage.ImageStore, searcher PhotoSearcher, fetcher ImageFetcher, opts AlbumOptions) *AlbumService {
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = 150
	}
	a := &AlbumService{
		store:    s,
		images:   images,
		searcher: searcher,
		fetcher:  fetcher,
		opts:     opts,
	}

	stages := []enrich.Stage[albumJob]{enrich.NewStage(a.search)}
	if opts.Prefetch {
		stages = append(stages, enrich.NewStage(a.prefetch))
	}
	stages = append(stages, enrich.NewStage(a.save))
	a.pipeline = enrich.NewPipeline(stages...)
	return a
}

// FetchAlbum searches photos near the pin and saves them. Given K URLs at
// most K photos are created; placeholders of the pin are replaced.
func (a *AlbumService) FetchAlbum(ctx context.Context, pinID string) ([]models.Photo, error) {
	pin, err := a.store.GetPin(ctx, pinID)
	if err != nil {
		return nil, err
	}

	job := &albumJob{pin: pin}
	if err := a.pipeline.Apply(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to fetch album of pin %s: %w", pinID, err)
	}
	slog.Info("album fetched", "pin_id", pinID, "urls", len(job.urls), "photos", len(job.saved))
	return job.saved, nil
}

func (a *AlbumService) search(ctx context.Context, job *albumJob) error {
	urls, err := a.searcher.PhotoURLs(ctx, job.pin.Latitude, job.pin.Longitude)
	if err != nil {
		return fmt.Errorf("photo search failed: %w", err)
	}
	job.urls = urls
	return nil
}

// prefetch downloads every URL and waits for all of them; failures are dropped.
func (a *AlbumService) prefetch(ctx context.Context, job *albumJob) error {
	results, err := a.fetcher.FetchAll(ctx, job.urls)
	if err != nil {
		return err
	}
	job.downloads = results
	return nil
}

// save swaps the pin's placeholders for the new batch atomically.
func (a *AlbumService) save(ctx context.Context, job *albumJob) error {
	var batch []models.Photo
	if a.opts.Prefetch {
		for _, d := range job.downloads {
			batch = append(batch, models.Photo{PinID: job.pin.ID, URL: &d.URL})
		}
	} else {
		for _, u := range job.urls {
			batch = append(batch, models.Photo{PinID: job.pin.ID, URL: &u})
		}
	}

	saved, err := a.store.ReplacePlaceholders(ctx, job.pin.ID, batch)
	if err != nil {
		return err
	}

	if a.opts.Prefetch {
		for i, photo := range saved {
			if err := a.images.Save(ctx, photo, job.downloads[i].Data); err != nil {
				slog.Error("failed to store prefetched image", "photo_id", photo.ID, "error", err)
				continue
			}
			saved[i].HasImage = true
		}
	}
	job.saved = saved
	return nil
}

// ListPhotos returns the pin's photos. An empty album gets a placeholder
// photo when placeholders are enabled. The placeholder is only inserted while
// the pin has no photos, so an album saved concurrently wins.
func (a *AlbumService) ListPhotos(ctx context.Context, pinID string) ([]models.Photo, error) {
	if _, err := a.store.GetPin(ctx, pinID); err != nil {
		return nil, err
	}
	photos, err := a.store.ListPhotos(ctx, pinID)
	if err != nil {
		return nil, err
	}
	if len(photos) > 0 || !a.opts.Placeholder {
		return photos, nil
	}

	data, err := a.placeholderImage()
	if err != nil {
		return nil, err
	}
	placeholder, created, err := a.store.CreatePlaceholder(ctx, models.Photo{PinID: pinID, Image: data})
	if err != nil {
		return nil, fmt.Errorf("failed to save placeholder: %w", err)
	}
	if !created {
		return a.store.ListPhotos(ctx, pinID)
	}
	placeholder.Image = nil
	return []models.Photo{placeholder}, nil
}

func (a *AlbumService) placeholderImage() ([]byte, error) {
	a.placeholderOnce.Do(func() {
		a.placeholder, a.placeholderErr = imaging.Placeholder(a.opts.ThumbnailWidth, a.opts.ThumbnailWidth)
	})
	return a.placeholder, a.placeholderErr
}

// PhotoImage returns the bytes of a photo, downloading and storing them on
// first access.
func (a *AlbumService) PhotoImage(ctx context.Context, photoID string) ([]byte, error) {
	photo, err := a.store.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}

	data, err := a.images.Load(ctx, photo)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, storage.ErrNotStored) {
		return nil, err
	}
	if photo.IsPlaceholder() {
		return nil, fmt.Errorf("photo %s: %w", photoID, ErrNoImage)
	}

	data, err = a.fetcher.Fetch(ctx, photo.RemoteURL())
	if err != nil {
		return nil, err
	}
	if err := a.images.Save(ctx, photo, data); err != nil {
		slog.Error("failed to store downloaded image", "photo_id", photoID, "error", err)
	}
	return data, nil
}

// Thumbnail returns the photo scaled to width; width <= 0 uses the configured width.
func (a *AlbumService) Thumbnail(ctx context.Context, photoID string, width int) ([]byte, error) {
	if width <= 0 {
		width = a.opts.ThumbnailWidth
	}
	data, err := a.PhotoImage(ctx, photoID)
	if err != nil {
		return nil, err
	}
	return imaging.Thumbnail(data, width)
}

// DeletePhoto removes one photo and returns how many photos its pin has left.
func (a *AlbumService) DeletePhoto(ctx context.Context, photoID string) (int, error) {
	photo, err := a.store.GetPhoto(ctx, photoID)
	if err != nil {
		return 0, err
	}
	if err := a.store.DeletePhoto(ctx, photoID); err != nil {
		return 0, err
	}
	if err := a.images.Delete(ctx, photo); err != nil {
		slog.Error("failed to delete stored image", "photo_id", photoID, "error", err)
	}
	return a.store.CountPhotos(ctx, photo.PinID)
}

// RefreshAlbum replaces the pin's photos with a fresh search.
func (a *AlbumService) RefreshAlbum(ctx context.Context, pinID string) ([]models.Photo, error) {
	if _, err := a.store.GetPin(ctx, pinID); err != nil {
		return nil, err
	}

	existing, err := a.store.ListPhotos(ctx, pinID)
	if err != nil {
		return nil, err
	}
	deleted, err := a.store.DeletePhotos(ctx, pinID)
	if err != nil {
		return nil, err
	}
	for _, photo := range existing {
		if err := a.images.Delete(ctx, photo); err != nil {
			slog.Error("failed to delete stored image", "photo_id", photo.ID, "error", err)
		}
	}
	slog.Info("album cleared", "pin_id", pinID, "deleted", deleted)

	if _, err := a.FetchAlbum(ctx, pinID); err != nil {
		return nil, err
	}
	return a.ListPhotos(ctx, pinID)
}
