package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"virtualtourist/internal/models"
)

func strPtr(s string) *string { return &s }

// runStoreTests exercises a Store implementation against a fresh, empty schema.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("pins", func(t *testing.T) { testPins(t, newStore(t)) })
	t.Run("find pin by coordinate", func(t *testing.T) { testFindPin(t, newStore(t)) })
	t.Run("photos", func(t *testing.T) { testPhotos(t, newStore(t)) })
	t.Run("placeholders", func(t *testing.T) { testPlaceholders(t, newStore(t)) })
	t.Run("not found", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("wipe", func(t *testing.T) { testWipe(t, newStore(t)) })
}

func mustCreatePin(t *testing.T, s Store, lat, lon float64) models.Pin {
	t.Helper()
	pin, err := s.CreatePin(context.Background(), models.Pin{Latitude: lat, Longitude: lon, Name: strPtr("Somewhere")})
	if err != nil {
		t.Fatalf("CreatePin error: %v", err)
	}
	return pin
}

func testPins(t *testing.T, s Store) {
	ctx := context.Background()
	first := mustCreatePin(t, s, 48.8584, 2.2945)
	if first.ID == "" {
		t.Fatal("expected CreatePin to assign an ID")
	}
	if first.CreatedAt.IsZero() {
		t.Fatal("expected CreatePin to assign CreatedAt")
	}
	unnamed, err := s.CreatePin(ctx, models.Pin{Latitude: 1, Longitude: 2, CreatedAt: first.CreatedAt.Add(time.Second)})
	if err != nil {
		t.Fatalf("CreatePin error: %v", err)
	}

	got, err := s.GetPin(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetPin error: %v", err)
	}
	if got.Latitude != 48.8584 || got.Longitude != 2.2945 || got.DisplayName() != "Somewhere" {
		t.Errorf("GetPin = %+v", got)
	}

	gotUnnamed, err := s.GetPin(ctx, unnamed.ID)
	if err != nil {
		t.Fatalf("GetPin error: %v", err)
	}
	if gotUnnamed.Name != nil {
		t.Errorf("expected nil name, got %q", *gotUnnamed.Name)
	}

	pins, err := s.ListPins(ctx)
	if err != nil {
		t.Fatalf("ListPins error: %v", err)
	}
	if len(pins) != 2 {
		t.Fatalf("expected 2 pins, got %d", len(pins))
	}
	if pins[0].ID != first.ID {
		t.Errorf("expected pins ordered by creation, first = %s", pins[0].ID)
	}
}

func testFindPin(t *testing.T, s Store) {
	ctx := context.Background()
	pin := mustCreatePin(t, s, 35.6586, 139.7454)
	mustCreatePin(t, s, 35.6587, 139.7454)

	got, err := s.FindPinByCoordinate(ctx, 35.6586, 139.7454)
	if err != nil {
		t.Fatalf("FindPinByCoordinate error: %v", err)
	}
	if got.ID != pin.ID {
		t.Errorf("found pin %s; want %s", got.ID, pin.ID)
	}

	_, err = s.FindPinByCoordinate(ctx, 35.6585, 139.7454)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for nearby coordinate, got %v", err)
	}
}

func testPhotos(t *testing.T, s Store) {
	ctx := context.Background()
	pin := mustCreatePin(t, s, 10, 20)
	other := mustCreatePin(t, s, 30, 40)

	urls := []string{"https://img/1.jpg", "https://img/2.jpg", "https://img/3.jpg"}
	batch := make([]models.Photo, 0, len(urls))
	for _, u := range urls {
		batch = append(batch, models.Photo{PinID: pin.ID, URL: strPtr(u)})
	}
	batch[1].Image = []byte{0xff, 0xd8}

	saved, err := s.CreatePhotos(ctx, batch)
	if err != nil {
		t.Fatalf("CreatePhotos error: %v", err)
	}
	if len(saved) != 3 {
		t.Fatalf("expected 3 saved photos, got %d", len(saved))
	}
	if _, err := s.CreatePhotos(ctx, []models.Photo{{PinID: other.ID, URL: strPtr("https://img/other.jpg")}}); err != nil {
		t.Fatalf("CreatePhotos error: %v", err)
	}

	listed, err := s.ListPhotos(ctx, pin.ID)
	if err != nil {
		t.Fatalf("ListPhotos error: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(listed))
	}
	for i, p := range listed {
		if p.RemoteURL() != urls[i] {
			t.Errorf("photo[%d].URL = %q; want %q", i, p.RemoteURL(), urls[i])
		}
		if p.Image != nil {
			t.Errorf("photo[%d]: ListPhotos must not load bytes", i)
		}
		if p.HasImage != (i == 1) {
			t.Errorf("photo[%d].HasImage = %v", i, p.HasImage)
		}
	}

	if err := s.SetPhotoImage(ctx, saved[0].ID, []byte{1, 2, 3}); err != nil {
		t.Fatalf("SetPhotoImage error: %v", err)
	}
	got, err := s.GetPhoto(ctx, saved[0].ID)
	if err != nil {
		t.Fatalf("GetPhoto error: %v", err)
	}
	if string(got.Image) != string([]byte{1, 2, 3}) || !got.HasImage {
		t.Errorf("GetPhoto image = %v, HasImage = %v", got.Image, got.HasImage)
	}

	if err := s.SetPhotoObjectKey(ctx, saved[2].ID, "photos/x/y.jpg"); err != nil {
		t.Fatalf("SetPhotoObjectKey error: %v", err)
	}
	got, err = s.GetPhoto(ctx, saved[2].ID)
	if err != nil {
		t.Fatalf("GetPhoto error: %v", err)
	}
	if got.ObjectKey != "photos/x/y.jpg" || !got.HasImage {
		t.Errorf("GetPhoto ObjectKey = %q, HasImage = %v", got.ObjectKey, got.HasImage)
	}

	if err := s.DeletePhoto(ctx, saved[0].ID); err != nil {
		t.Fatalf("DeletePhoto error: %v", err)
	}
	n, err := s.CountPhotos(ctx, pin.ID)
	if err != nil {
		t.Fatalf("CountPhotos error: %v", err)
	}
	if n != 2 {
		t.Errorf("CountPhotos = %d; want 2", n)
	}

	deleted, err := s.DeletePhotos(ctx, pin.ID)
	if err != nil {
		t.Fatalf("DeletePhotos error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeletePhotos = %d; want 2", deleted)
	}
	n, err = s.CountPhotos(ctx, other.ID)
	if err != nil {
		t.Fatalf("CountPhotos error: %v", err)
	}
	if n != 1 {
		t.Errorf("other pin photos = %d; want 1", n)
	}
}

func testPlaceholders(t *testing.T, s Store) {
	ctx := context.Background()
	pin := mustCreatePin(t, s, 1, 1)

	placeholder, created, err := s.CreatePlaceholder(ctx, models.Photo{PinID: pin.ID, Image: []byte{0xff}})
	if err != nil {
		t.Fatalf("CreatePlaceholder error: %v", err)
	}
	if !created || !placeholder.IsPlaceholder() || !placeholder.HasImage {
		t.Fatalf("CreatePlaceholder = %+v, %v; want a stored placeholder", placeholder, created)
	}
	if _, created, err := s.CreatePlaceholder(ctx, models.Photo{PinID: pin.ID, Image: []byte{0xff}}); err != nil || created {
		t.Errorf("second CreatePlaceholder = %v, %v; want skipped", created, err)
	}

	saved, err := s.ReplacePlaceholders(ctx, pin.ID, []models.Photo{
		{PinID: pin.ID, URL: strPtr("https://img/a.jpg")},
		{PinID: pin.ID, URL: strPtr("https://img/b.jpg")},
	})
	if err != nil {
		t.Fatalf("ReplacePlaceholders error: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("ReplacePlaceholders saved %d; want 2", len(saved))
	}
	photos, err := s.ListPhotos(ctx, pin.ID)
	if err != nil {
		t.Fatalf("ListPhotos error: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("ListPhotos = %d photos; want 2", len(photos))
	}
	for _, p := range photos {
		if p.IsPlaceholder() {
			t.Errorf("placeholder %s survived ReplacePlaceholders", p.ID)
		}
	}

	// a pin that already has photos never gets a placeholder
	if _, created, err := s.CreatePlaceholder(ctx, models.Photo{PinID: pin.ID, Image: []byte{0xff}}); err != nil || created {
		t.Errorf("CreatePlaceholder on filled album = %v, %v; want skipped", created, err)
	}

	empty, err := s.ReplacePlaceholders(ctx, pin.ID, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("ReplacePlaceholders(nil) = %v, %v", empty, err)
	}
}

func testNotFound(t *testing.T, s Store) {
	ctx := context.Background()
	if _, err := s.GetPin(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPin: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetPhoto(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPhoto: expected ErrNotFound, got %v", err)
	}
	if err := s.DeletePhoto(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeletePhoto: expected ErrNotFound, got %v", err)
	}
	if err := s.SetPhotoImage(ctx, "missing", []byte{1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetPhotoImage: expected ErrNotFound, got %v", err)
	}
	photos, err := s.CreatePhotos(ctx, nil)
	if err != nil || len(photos) != 0 {
		t.Errorf("CreatePhotos(nil) = %v, %v", photos, err)
	}
}

func testWipe(t *testing.T, s Store) {
	ctx := context.Background()
	pin := mustCreatePin(t, s, 5, 5)
	if _, err := s.CreatePhotos(ctx, []models.Photo{{PinID: pin.ID, URL: strPtr("https://img/w.jpg")}}); err != nil {
		t.Fatalf("CreatePhotos error: %v", err)
	}

	if err := s.Wipe(ctx); err != nil {
		t.Fatalf("Wipe error: %v", err)
	}
	pins, err := s.ListPins(ctx)
	if err != nil {
		t.Fatalf("ListPins error: %v", err)
	}
	if len(pins) != 0 {
		t.Errorf("expected no pins after wipe, got %d", len(pins))
	}
	n, err := s.CountPhotos(ctx, pin.ID)
	if err != nil {
		t.Fatalf("CountPhotos error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no photos after wipe, got %d", n)
	}
}
