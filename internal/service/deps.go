package service

import (
	"context"

	"virtualtourist/internal/download"
	"virtualtourist/internal/models"
	"virtualtourist/pkg/location"
)

// PhotoSearcher finds image URLs near a coordinate.
type PhotoSearcher interface {
	PhotoURLs(ctx context.Context, lat, lon float64) ([]string, error)
}

// Geocoder resolves a coordinate to a place.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*location.Place, error)
}

// ImageFetcher downloads image bytes.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchAll(ctx context.Context, urls []string) ([]download.Result, error)
}

// Notifier is told about every newly saved pin.
type Notifier interface {
	PinDropped(ctx context.Context, pin models.Pin) error
}

// AlbumFetcher fills the album of a pin.
type AlbumFetcher interface {
	FetchAlbum(ctx context.Context, pinID string) ([]models.Photo, error)
}
