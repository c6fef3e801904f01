package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"badge-studio/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	// Badges published to the hosted gallery
	badgeTableStmt := `
	CREATE TABLE IF NOT EXISTS badges (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		image_type TEXT NOT NULL,
		image BLOB NOT NULL,
		thumbnail_type TEXT,
		thumbnail BLOB,
		created_at INTEGER NOT NULL
	);`
	if _, err = db.Exec(badgeTableStmt); err != nil {
		log.Fatalf("failed to create badges table: %v", err)
	}

	// Key-value items backing the on-device gallery
	itemTableStmt := `CREATE TABLE IF NOT EXISTS items (key TEXT PRIMARY KEY, value BLOB);`
	if _, err = db.Exec(itemTableStmt); err != nil {
		log.Fatalf("failed to create items table: %v", err)
	}

	return &sqliteStore{db}
}

func (s *sqliteStore) List(ctx context.Context) ([]*core.StoredBadge, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, first_name, last_name, image_type, thumbnail_type, created_at FROM badges ORDER BY created_at DESC, id DESC")
	if err != nil {
		logrus.WithError(err).Error("Failed to list badges")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close badge rows")
		}
	}()

	badges := []*core.StoredBadge{}
	for rows.Next() {
		var badge core.StoredBadge
		var thumbnailType sql.NullString
		var createdAt int64
		if err := rows.Scan(&badge.ID, &badge.FirstName, &badge.LastName, &badge.ImageType, &thumbnailType, &createdAt); err != nil {
			return nil, err
		}
		badge.ThumbnailType = thumbnailType.String
		badge.CreatedAt = time.Unix(0, createdAt).UTC()
		badges = append(badges, &badge)
	}
	return badges, rows.Err()
}

func (s *sqliteStore) FindID(ctx context.Context, id string) (*core.StoredBadge, error) {
	log := logrus.WithField("badge_id", id)
	log.Debug("Retrieving badge by ID")

	badge := core.StoredBadge{ID: id}
	var thumbnailType sql.NullString
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT first_name, last_name, image_type, image, thumbnail_type, thumbnail, created_at FROM badges WHERE id = ?",
		id).Scan(&badge.FirstName, &badge.LastName, &badge.ImageType, &badge.Image, &thumbnailType, &badge.Thumbnail, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Badge with specified ID not found")
			return nil, fmt.Errorf("badge with id %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve badge")
		return nil, err
	}
	badge.ThumbnailType = thumbnailType.String
	badge.CreatedAt = time.Unix(0, createdAt).UTC()

	log.Debug("Badge retrieved successfully")
	return &badge, nil
}

func (s *sqliteStore) Create(ctx context.Context, badge *core.StoredBadge) (string, error) {
	if badge.ID == "" {
		badge.ID = ulid.Make().String()
	}
	if badge.CreatedAt.IsZero() {
		badge.CreatedAt = time.Now().UTC()
	}
	log := logrus.WithFields(logrus.Fields{
		"badge_id":    badge.ID,
		"data_length": len(badge.Image),
	})

	var thumbnailType sql.NullString
	if badge.HasThumbnail() {
		thumbnailType = sql.NullString{String: badge.ThumbnailType, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO badges (id, first_name, last_name, image_type, image, thumbnail_type, thumbnail, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		badge.ID, badge.FirstName, badge.LastName, badge.ImageType, badge.Image, thumbnailType, badge.Thumbnail, badge.CreatedAt.UnixNano())
	if err != nil {
		log.WithError(err).Error("Failed to create badge")
		return "", err
	}
	log.Info("Badge created successfully")
	return badge.ID, nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM badges WHERE id = ?", id)
	if err != nil {
		logrus.WithField("badge_id", id).WithError(err).Error("Failed to delete badge")
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("badge with id %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) GetItem(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM items WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return value, err
}

func (s *sqliteStore) SetItem(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO items (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

func (s *sqliteStore) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE key = ?", key)
	return err
}

// Close releases the database handle.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}
