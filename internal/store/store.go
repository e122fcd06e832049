// Package store persists pins and their photos.
package store

import (
	"context"
	"errors"

	"virtualtourist/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	// Migrate creates the schema. Safe to call multiple times.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	CreatePin(ctx context.Context, pin models.Pin) (models.Pin, error)
	GetPin(ctx context.Context, id string) (models.Pin, error)
	ListPins(ctx context.Context) ([]models.Pin, error)
	// FindPinByCoordinate returns the oldest pin within geo.Epsilon of lat/lon.
	FindPinByCoordinate(ctx context.Context, lat, lon float64) (models.Pin, error)

	// CreatePhotos inserts the batch in a single transaction, preserving
	// the order of photos in listings.
	CreatePhotos(ctx context.Context, photos []models.Photo) ([]models.Photo, error)
	// ListPhotos returns photo metadata without image bytes.
	ListPhotos(ctx context.Context, pinID string) ([]models.Photo, error)
	GetPhoto(ctx context.Context, id string) (models.Photo, error)
	SetPhotoImage(ctx context.Context, id string, image []byte) error
	SetPhotoObjectKey(ctx context.Context, id string, key string) error
	DeletePhoto(ctx context.Context, id string) error
	DeletePhotos(ctx context.Context, pinID string) (int64, error)
	// ReplacePlaceholders deletes the pin's placeholders and inserts the batch
	// in one transaction.
	ReplacePlaceholders(ctx context.Context, pinID string, photos []models.Photo) ([]models.Photo, error)
	// CreatePlaceholder inserts the placeholder only while the pin has no
	// photos at all. It reports whether a row was inserted.
	CreatePlaceholder(ctx context.Context, photo models.Photo) (models.Photo, bool, error)
	CountPhotos(ctx context.Context, pinID string) (int, error)

	// Wipe removes every photo and pin in one transaction.
	Wipe(ctx context.Context) error
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPin(row rowScanner) (models.Pin, error) {
	var p models.Pin
	err := row.Scan(&p.ID, &p.Latitude, &p.Longitude, &p.Name, &p.CreatedAt)
	return p, err
}

func scanPhotoMeta(row rowScanner) (models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.PinID, &p.URL, &p.ObjectKey, &p.HasImage, &p.CreatedAt)
	return p, err
}

func scanPhoto(row rowScanner) (models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.PinID, &p.URL, &p.Image, &p.ObjectKey, &p.CreatedAt)
	p.HasImage = p.Image != nil || p.ObjectKey != ""
	return p, err
}
