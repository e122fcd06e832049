// Package storage holds the image bytes of photos, either inline in the
// database or as objects in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"

	"virtualtourist/internal/models"
)

// ErrNotStored is returned by Load when no bytes are held for a photo.
var ErrNotStored = errors.New("image not stored")

type ImageStore interface {
	Save(ctx context.Context, photo models.Photo, data []byte) error
	// Load expects a photo as returned by store.GetPhoto.
	Load(ctx context.Context, photo models.Photo) ([]byte, error)
	Delete(ctx context.Context, photo models.Photo) error
	// Wipe removes every stored image.
	Wipe(ctx context.Context) error
}

// PhotoWriter records where a photo's bytes live.
type PhotoWriter interface {
	SetPhotoImage(ctx context.Context, id string, image []byte) error
	SetPhotoObjectKey(ctx context.Context, id string, key string) error
}

// DatabaseImages keeps image bytes in the photos table.
type DatabaseImages struct {
	photos PhotoWriter
}

func NewDatabaseImages(photos PhotoWriter) *DatabaseImages {
	return &DatabaseImages{photos: photos}
}

func (d *DatabaseImages) Save(ctx context.Context, photo models.Photo, data []byte) error {
	return d.photos.SetPhotoImage(ctx, photo.ID, data)
}

func (d *DatabaseImages) Load(_ context.Context, photo models.Photo) ([]byte, error) {
	if len(photo.Image) == 0 {
		return nil, ErrNotStored
	}
	return photo.Image, nil
}

// Delete is a no-op; the bytes go with the photo row.
func (d *DatabaseImages) Delete(context.Context, models.Photo) error {
	return nil
}

func (d *DatabaseImages) Wipe(context.Context) error {
	return nil
}
