package store

import (
	"context"
	"testing"

	"virtualtourist/internal/models"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()

	s, err := NewStore(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, newTestSQLite)
}

func TestSQLite_Ping(t *testing.T) {
	s := newTestSQLite(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping error: %v", err)
	}
}

func TestSQLite_MigrateIsIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate error: %v", err)
	}
}

func TestSQLite_ForeignKey(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.CreatePhotos(context.Background(), []models.Photo{{PinID: "no-such-pin", URL: strPtr("https://img/x.jpg")}})
	if err == nil {
		t.Fatal("expected foreign key violation for photo without pin")
	}
}

func TestNewStore_Unsupported(t *testing.T) {
	if _, err := NewStore(context.Background(), "mysql", "dsn"); err == nil {
		t.Fatal("expected error for unsupported database type")
	}
}
