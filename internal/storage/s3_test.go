package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"virtualtourist/internal/keys"
)

// S3 tests run only against a disposable MinIO named by TEST_MINIO_ENDPOINT.
func newTestS3Images(t *testing.T) (*S3Images, *recordingWriter) {
	t.Helper()
	endpoint := os.Getenv("TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_MINIO_ENDPOINT not set")
	}
	writer := &recordingWriter{keys: make(map[string]string)}
	images, err := NewS3Images(context.Background(), S3Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("TEST_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("TEST_MINIO_SECRET_KEY"),
		Bucket:    "virtualtourist-test-" + uuid.NewString()[:8],
	}, writer)
	if err != nil {
		t.Fatalf("NewS3Images error: %v", err)
	}
	t.Cleanup(func() {
		_ = images.Wipe(context.Background())
		_ = images.client.RemoveBucket(context.Background(), images.bucket)
	})
	return images, writer
}

type recordingWriter struct {
	keys map[string]string
}

func (w *recordingWriter) SetPhotoImage(context.Context, string, []byte) error {
	return errors.New("unexpected SetPhotoImage")
}

func (w *recordingWriter) SetPhotoObjectKey(_ context.Context, id string, key string) error {
	w.keys[id] = key
	return nil
}

func TestS3Images_RoundTrip(t *testing.T) {
	images, writer := newTestS3Images(t)
	ctx := context.Background()

	photo := newPhotoRef("pin-1", "photo-1")
	if err := images.Save(ctx, photo, []byte("jpeg-bytes")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if writer.keys[photo.ID] != keys.Photo(photo) {
		t.Fatalf("recorded key = %q; want %q", writer.keys[photo.ID], keys.Photo(photo))
	}

	// a second save of the same photo is skipped
	if err := images.Save(ctx, photo, []byte("other")); err != nil {
		t.Fatalf("second Save error: %v", err)
	}

	photo.ObjectKey = writer.keys[photo.ID]
	data, err := images.Load(ctx, photo)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("Load = %q", data)
	}

	if err := images.Delete(ctx, photo); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := images.Load(ctx, photo); !errors.Is(err, ErrNotStored) {
		t.Errorf("expected ErrNotStored after Delete, got %v", err)
	}
}

func TestS3Images_Wipe(t *testing.T) {
	images, writer := newTestS3Images(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := images.Save(ctx, newPhotoRef("pin-2", id), []byte(id)); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}
	if err := images.Wipe(ctx); err != nil {
		t.Fatalf("Wipe error: %v", err)
	}
	photo := newPhotoRef("pin-2", "a")
	photo.ObjectKey = writer.keys["a"]
	if _, err := images.Load(ctx, photo); !errors.Is(err, ErrNotStored) {
		t.Errorf("expected ErrNotStored after Wipe, got %v", err)
	}
}
