package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"virtualtourist/internal/models"
	"virtualtourist/pkg/geo"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connectionString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreatePin(ctx context.Context, pin models.Pin) (models.Pin, error) {
	if pin.ID == "" {
		pin.ID = uuid.NewString()
	}
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		"INSERT INTO pins (id, latitude, longitude, name, created_at) VALUES ($1, $2, $3, $4, $5)",
		pin.ID, pin.Latitude, pin.Longitude, pin.Name, pin.CreatedAt)
	if err != nil {
		return models.Pin{}, fmt.Errorf("failed to insert pin: %w", err)
	}
	return pin, nil
}

func (s *PostgresStore) GetPin(ctx context.Context, id string) (models.Pin, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT id, latitude, longitude, name, created_at FROM pins WHERE id = $1", id)
	pin, err := scanPin(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Pin{}, fmt.Errorf("pin %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Pin{}, fmt.Errorf("failed to get pin %s: %w", id, err)
	}
	return pin, nil
}

func (s *PostgresStore) ListPins(ctx context.Context) ([]models.Pin, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, latitude, longitude, name, created_at FROM pins ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	defer rows.Close()

	pins := []models.Pin{}
	for rows.Next() {
		pin, err := scanPin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		pins = append(pins, pin)
	}
	return pins, rows.Err()
}

func (s *PostgresStore) FindPinByCoordinate(ctx context.Context, lat, lon float64) (models.Pin, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, latitude, longitude, name, created_at FROM pins
		WHERE abs(latitude - $1) < $3 AND abs(longitude - $2) < $3
		ORDER BY created_at, id LIMIT 1`,
		lat, lon, geo.Epsilon)
	pin, err := scanPin(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Pin{}, fmt.Errorf("pin at %f,%f: %w", lat, lon, ErrNotFound)
	}
	if err != nil {
		return models.Pin{}, fmt.Errorf("failed to find pin: %w", err)
	}
	return pin, nil
}

func (s *PostgresStore) CreatePhotos(ctx context.Context, photos []models.Photo) ([]models.Photo, error) {
	if len(photos) == 0 {
		return []models.Photo{}, nil
	}

	batch, saved := photoBatch(photos)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert photos: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) ReplacePlaceholders(ctx context.Context, pinID string, photos []models.Photo) ([]models.Photo, error) {
	batch, saved := photoBatch(photos)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := lockPin(ctx, tx, pinID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "DELETE FROM photos WHERE pin_id = $1 AND url IS NULL", pinID); err != nil {
			return fmt.Errorf("failed to delete placeholders: %w", err)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace placeholders of pin %s: %w", pinID, err)
	}
	return saved, nil
}

func (s *PostgresStore) CreatePlaceholder(ctx context.Context, photo models.Photo) (models.Photo, bool, error) {
	photo.URL = nil
	photo = preparePhoto(photo, time.Now().UTC())

	var created bool
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := lockPin(ctx, tx, photo.PinID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO photos (id, pin_id, url, image, object_key, position, created_at)
			SELECT $1, $2, NULL, $3::bytea, '', 0, $4::timestamptz
			WHERE NOT EXISTS (SELECT 1 FROM photos WHERE pin_id = $2)`,
			photo.ID, photo.PinID, blob(photo.Image), photo.CreatedAt)
		if err != nil {
			return err
		}
		created = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return models.Photo{}, false, fmt.Errorf("failed to insert placeholder for pin %s: %w", photo.PinID, err)
	}
	return photo, created, nil
}

// lockPin serializes photo writes of one pin until the transaction ends.
func lockPin(ctx context.Context, tx pgx.Tx, pinID string) error {
	var id string
	err := tx.QueryRow(ctx, "SELECT id FROM pins WHERE id = $1 FOR UPDATE", pinID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("pin %s: %w", pinID, ErrNotFound)
	}
	return err
}

func photoBatch(photos []models.Photo) (*pgx.Batch, []models.Photo) {
	now := time.Now().UTC()
	saved := make([]models.Photo, 0, len(photos))
	batch := &pgx.Batch{}
	for i, photo := range photos {
		photo = preparePhoto(photo, now)
		batch.Queue(
			"INSERT INTO photos (id, pin_id, url, image, object_key, position, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
			photo.ID, photo.PinID, photo.URL, blob(photo.Image), photo.ObjectKey, i, photo.CreatedAt)
		saved = append(saved, photo)
	}
	return batch, saved
}

func (s *PostgresStore) ListPhotos(ctx context.Context, pinID string) ([]models.Photo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, pin_id, url, object_key, (image IS NOT NULL OR object_key <> ''), created_at
		FROM photos WHERE pin_id = $1 ORDER BY created_at, position`, pinID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos of pin %s: %w", pinID, err)
	}
	defer rows.Close()

	photos := []models.Photo{}
	for rows.Next() {
		photo, err := scanPhotoMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

func (s *PostgresStore) GetPhoto(ctx context.Context, id string) (models.Photo, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT id, pin_id, url, image, object_key, created_at FROM photos WHERE id = $1", id)
	photo, err := scanPhoto(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Photo{}, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Photo{}, fmt.Errorf("failed to get photo %s: %w", id, err)
	}
	return photo, nil
}

func (s *PostgresStore) SetPhotoImage(ctx context.Context, id string, image []byte) error {
	return s.updatePhoto(ctx, "UPDATE photos SET image = $1 WHERE id = $2", blob(image), id)
}

func (s *PostgresStore) SetPhotoObjectKey(ctx context.Context, id string, key string) error {
	return s.updatePhoto(ctx, "UPDATE photos SET object_key = $1 WHERE id = $2", key, id)
}

func (s *PostgresStore) updatePhoto(ctx context.Context, query string, value any, id string) error {
	tag, err := s.pool.Exec(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update photo %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeletePhoto(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM photos WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeletePhotos(ctx context.Context, pinID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM photos WHERE pin_id = $1", pinID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete photos of pin %s: %w", pinID, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) CountPhotos(ctx context.Context, pinID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM photos WHERE pin_id = $1", pinID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count photos of pin %s: %w", pinID, err)
	}
	return n, nil
}

func (s *PostgresStore) Wipe(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM photos"); err != nil {
			return fmt.Errorf("failed to delete photos: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM pins"); err != nil {
			return fmt.Errorf("failed to delete pins: %w", err)
		}
		return nil
	})
}
