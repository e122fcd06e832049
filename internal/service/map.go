package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"virtualtourist/internal/models"
	"virtualtourist/internal/storage"
	"virtualtourist/internal/store"
	"virtualtourist/pkg/geo"
	"virtualtourist/pkg/location"
)

// MapService manages pins.
type MapService struct {
	store    store.Store
	images   storage.ImageStore
	geocoder Geocoder
	notifier Notifier
}

// NewMapService wires the map operations. geocoder and notifier may be nil.
func NewMapService(s store.Store, images storage.ImageStore, geocoder Geocoder, notifier Notifier) *MapService {
	return &MapService{
		store:    s,
		images:   images,
		geocoder: geocoder,
		notifier: notifier,
	}
}

// DropPin saves exactly one pin at lat/lon and notifies that it was dropped.
// A coordinate without a named place is saved as UnnamedLocation, a failed
// reverse geocode leaves the pin without a name. A notification
// failure is logged and does not undo the pin.
func (m *MapService) DropPin(ctx context.Context, lat, lon float64) (models.Pin, error) {
	if err := geo.Validate(lat, lon); err != nil {
		return models.Pin{}, err
	}

	pin, err := m.store.CreatePin(ctx, models.Pin{
		Latitude:  lat,
		Longitude: lon,
		Name:      m.placeName(ctx, lat, lon),
	})
	if err != nil {
		return models.Pin{}, fmt.Errorf("failed to save pin: %w", err)
	}
	slog.Info("pin dropped", "pin_id", pin.ID, "lat", lat, "lon", lon, "name", pin.DisplayName())

	if m.notifier != nil {
		if err := m.notifier.PinDropped(ctx, pin); err != nil {
			slog.Error("failed to notify pin dropped", "pin_id", pin.ID, "error", err)
		}
	}
	return pin, nil
}

func (m *MapService) placeName(ctx context.Context, lat, lon float64) *string {
	if m.geocoder == nil {
		return nil
	}
	place, err := m.geocoder.Reverse(ctx, lat, lon)
	if errors.Is(err, location.ErrNoPlace) {
		name := models.UnnamedLocation
		return &name
	}
	if err != nil {
		slog.Warn("reverse geocoding failed, saving pin without a name", "lat", lat, "lon", lon, "error", err)
		return nil
	}
	name := place.Label()
	if name == "" {
		name = models.UnnamedLocation
	}
	return &name
}

func (m *MapService) ListPins(ctx context.Context) ([]models.Pin, error) {
	return m.store.ListPins(ctx)
}

func (m *MapService) GetPin(ctx context.Context, id string) (models.Pin, error) {
	return m.store.GetPin(ctx, id)
}

// FindPin returns the pin stored at exactly lat/lon.
func (m *MapService) FindPin(ctx context.Context, lat, lon float64) (models.Pin, error) {
	if err := geo.Validate(lat, lon); err != nil {
		return models.Pin{}, err
	}
	return m.store.FindPinByCoordinate(ctx, lat, lon)
}

// Wipe deletes every pin, every photo and their stored images.
func (m *MapService) Wipe(ctx context.Context) error {
	if err := m.store.Wipe(ctx); err != nil {
		return fmt.Errorf("failed to wipe database: %w", err)
	}
	if err := m.images.Wipe(ctx); err != nil {
		return fmt.Errorf("failed to wipe images: %w", err)
	}
	slog.Info("all data wiped")
	return nil
}
