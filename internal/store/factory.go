package store

import (
	"context"
	"fmt"
	"log/slog"
)

// NewStore opens the database of the given type and ensures its schema exists.
func NewStore(ctx context.Context, databaseType, connectionString string) (s Store, err error) {
	switch databaseType {
	case "sqlite":
		s, err = NewSQLiteStore(connectionString)
	case "postgres":
		s, err = NewPostgresStore(ctx, connectionString)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}
	if err != nil {
		return nil, err
	}

	// idempotent, required for in-memory SQLite
	slog.Info("initializing database schema", "type", databaseType)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	return s, nil
}
