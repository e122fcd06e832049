package store

import (
	"context"
	"os"
	"testing"
)

// Postgres tests run only against a disposable database named by TEST_DATABASE_URL.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	runStoreTests(t, func(t *testing.T) Store {
		t.Helper()
		ctx := context.Background()
		s, err := NewStore(ctx, "postgres", dsn)
		if err != nil {
			t.Fatalf("NewStore error: %v", err)
		}
		if err := s.Wipe(ctx); err != nil {
			t.Fatalf("Wipe error: %v", err)
		}
		t.Cleanup(func() {
			_ = s.Wipe(context.Background())
			_ = s.Close()
		})
		return s
	})
}
