package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"virtualtourist/internal/models"
	"virtualtourist/pkg/geo"
)

type SQLiteStore struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteStore(connectionString string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// every :memory: connection is its own database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteStore{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) CreatePin(ctx context.Context, pin models.Pin) (models.Pin, error) {
	if pin.ID == "" {
		pin.ID = uuid.NewString()
	}
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO pins (id, latitude, longitude, name, created_at) VALUES (?, ?, ?, ?, ?)",
		pin.ID, pin.Latitude, pin.Longitude, pin.Name, pin.CreatedAt)
	if err != nil {
		return models.Pin{}, fmt.Errorf("failed to insert pin: %w", err)
	}
	return pin, nil
}

func (s *SQLiteStore) GetPin(ctx context.Context, id string) (models.Pin, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, latitude, longitude, name, created_at FROM pins WHERE id = ?", id)
	pin, err := scanPin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Pin{}, fmt.Errorf("pin %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Pin{}, fmt.Errorf("failed to get pin %s: %w", id, err)
	}
	return pin, nil
}

func (s *SQLiteStore) ListPins(ctx context.Context) ([]models.Pin, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, latitude, longitude, name, created_at FROM pins ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

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

func (s *SQLiteStore) FindPinByCoordinate(ctx context.Context, lat, lon float64) (models.Pin, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, latitude, longitude, name, created_at FROM pins
		WHERE abs(latitude - ?) < ? AND abs(longitude - ?) < ?
		ORDER BY created_at, id LIMIT 1`,
		lat, geo.Epsilon, lon, geo.Epsilon)
	pin, err := scanPin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Pin{}, fmt.Errorf("pin at %f,%f: %w", lat, lon, ErrNotFound)
	}
	if err != nil {
		return models.Pin{}, fmt.Errorf("failed to find pin: %w", err)
	}
	return pin, nil
}

func (s *SQLiteStore) CreatePhotos(ctx context.Context, photos []models.Photo) ([]models.Photo, error) {
	if len(photos) == 0 {
		return []models.Photo{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	saved, err := insertPhotos(ctx, tx, photos)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit photos: %w", err)
	}
	return saved, nil
}

func (s *SQLiteStore) ReplacePlaceholders(ctx context.Context, pinID string, photos []models.Photo) ([]models.Photo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM photos WHERE pin_id = ? AND url IS NULL", pinID); err != nil {
		return nil, fmt.Errorf("failed to delete placeholders of pin %s: %w", pinID, err)
	}
	saved, err := insertPhotos(ctx, tx, photos)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit photos of pin %s: %w", pinID, err)
	}
	return saved, nil
}

func (s *SQLiteStore) CreatePlaceholder(ctx context.Context, photo models.Photo) (models.Photo, bool, error) {
	photo.URL = nil
	photo = preparePhoto(photo, time.Now().UTC())
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO photos (id, pin_id, url, image, object_key, position, created_at)
		SELECT ?, ?, NULL, ?, '', 0, ?
		WHERE NOT EXISTS (SELECT 1 FROM photos WHERE pin_id = ?)`,
		photo.ID, photo.PinID, blob(photo.Image), photo.CreatedAt, photo.PinID)
	if err != nil {
		return models.Photo{}, false, fmt.Errorf("failed to insert placeholder for pin %s: %w", photo.PinID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Photo{}, false, err
	}
	return photo, n > 0, nil
}

// insertPhotos inserts the batch inside tx, numbering positions in order.
func insertPhotos(ctx context.Context, tx *sql.Tx, photos []models.Photo) ([]models.Photo, error) {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO photos (id, pin_id, url, image, object_key, position, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare photo insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	now := time.Now().UTC()
	saved := make([]models.Photo, 0, len(photos))
	for i, photo := range photos {
		photo = preparePhoto(photo, now)
		if _, err := stmt.ExecContext(ctx, photo.ID, photo.PinID, photo.URL, blob(photo.Image), photo.ObjectKey, i, photo.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert photo for pin %s: %w", photo.PinID, err)
		}
		saved = append(saved, photo)
	}
	return saved, nil
}

func (s *SQLiteStore) ListPhotos(ctx context.Context, pinID string) ([]models.Photo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pin_id, url, object_key, (image IS NOT NULL OR object_key <> ''), created_at
		FROM photos WHERE pin_id = ? ORDER BY created_at, position`, pinID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos of pin %s: %w", pinID, err)
	}
	defer func() {
		_ = rows.Close()
	}()

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

func (s *SQLiteStore) GetPhoto(ctx context.Context, id string) (models.Photo, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, pin_id, url, image, object_key, created_at FROM photos WHERE id = ?", id)
	photo, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Photo{}, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Photo{}, fmt.Errorf("failed to get photo %s: %w", id, err)
	}
	return photo, nil
}

func (s *SQLiteStore) SetPhotoImage(ctx context.Context, id string, image []byte) error {
	return s.updatePhoto(ctx, "UPDATE photos SET image = ? WHERE id = ?", blob(image), id)
}

func (s *SQLiteStore) SetPhotoObjectKey(ctx context.Context, id string, key string) error {
	return s.updatePhoto(ctx, "UPDATE photos SET object_key = ? WHERE id = ?", key, id)
}

func (s *SQLiteStore) updatePhoto(ctx context.Context, query string, value any, id string) error {
	res, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update photo %s: %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("photo %s", id))
}

func (s *SQLiteStore) DeletePhoto(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM photos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete photo %s: %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("photo %s", id))
}

func (s *SQLiteStore) DeletePhotos(ctx context.Context, pinID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM photos WHERE pin_id = ?", pinID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete photos of pin %s: %w", pinID, err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) CountPhotos(ctx context.Context, pinID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos WHERE pin_id = ?", pinID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count photos of pin %s: %w", pinID, err)
	}
	return n, nil
}

func (s *SQLiteStore) Wipe(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM photos"); err != nil {
		return fmt.Errorf("failed to delete photos: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pins"); err != nil {
		return fmt.Errorf("failed to delete pins: %w", err)
	}
	return tx.Commit()
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func preparePhoto(photo models.Photo, now time.Time) models.Photo {
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	if photo.CreatedAt.IsZero() {
		photo.CreatedAt = now
	}
	photo.HasImage = len(photo.Image) > 0 || photo.ObjectKey != ""
	return photo
}

// blob maps empty image bytes to NULL so that HasImage stays false.
func blob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
