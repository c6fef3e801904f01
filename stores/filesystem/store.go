package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"badge-studio/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	badgesDir = "badges"
	itemsDir  = "items"

	metaExt      = ".json"
	imageExt     = ".image"
	thumbnailExt = ".thumb"
)

type fsStore struct {
	basePath string
}

// NewStore creates a filesystem-based store rooted at basePath. Each badge is a JSON
// metadata file next to its raw image files.
func NewStore(basePath string) *fsStore {
	for _, dir := range []string{badgesDir, itemsDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			log.Fatalf("failed to create storage directory: %v", err)
		}
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) badgePath(id, ext string) (string, error) {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("invalid badge id %q", id)
	}
	return filepath.Join(s.basePath, badgesDir, id+ext), nil
}

func (s *fsStore) List(ctx context.Context) ([]*core.StoredBadge, error) {
	dir := filepath.Join(s.basePath, badgesDir)
	log := logrus.WithField("path", dir)

	files, err := os.ReadDir(dir)
	if err != nil {
		log.WithError(err).Error("Failed to read badge directory")
		return nil, err
	}

	badges := make([]*core.StoredBadge, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != metaExt {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read badge file %s, skipping", file.Name())
			continue
		}
		var badge core.StoredBadge
		if err := json.Unmarshal(data, &badge); err != nil {
			log.WithError(err).Warnf("Failed to unmarshal badge file %s, skipping", file.Name())
			continue
		}
		badges = append(badges, &badge)
	}

	sort.Slice(badges, func(i, j int) bool {
		if badges[i].CreatedAt.Equal(badges[j].CreatedAt) {
			return badges[i].ID > badges[j].ID
		}
		return badges[i].CreatedAt.After(badges[j].CreatedAt)
	})
	log.Debugf("Listed %d badges", len(badges))
	return badges, nil
}

func (s *fsStore) FindID(ctx context.Context, id string) (*core.StoredBadge, error) {
	metaPath, err := s.badgePath(id, metaExt)
	if err != nil {
		return nil, fmt.Errorf("badge with id %s: %w", id, core.ErrNotFound)
	}
	log := logrus.WithFields(logrus.Fields{"badge_id": id, "file_path": metaPath})

	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Badge with specified ID not found")
			return nil, fmt.Errorf("badge with id %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read badge")
		return nil, err
	}

	var badge core.StoredBadge
	if err := json.Unmarshal(data, &badge); err != nil {
		log.WithError(err).Error("Failed to unmarshal badge")
		return nil, err
	}

	imagePath, _ := s.badgePath(id, imageExt)
	if badge.Image, err = os.ReadFile(imagePath); err != nil {
		log.WithError(err).Error("Failed to read badge image")
		return nil, err
	}
	if badge.HasThumbnail() {
		thumbPath, _ := s.badgePath(id, thumbnailExt)
		if badge.Thumbnail, err = os.ReadFile(thumbPath); err != nil {
			log.WithError(err).Error("Failed to read badge thumbnail")
			return nil, err
		}
	}

	log.Debug("Badge retrieved successfully")
	return &badge, nil
}

func (s *fsStore) Create(ctx context.Context, badge *core.StoredBadge) (string, error) {
	if badge.ID == "" {
		badge.ID = ulid.Make().String()
	}
	if badge.CreatedAt.IsZero() {
		badge.CreatedAt = time.Now().UTC()
	}

	metaPath, err := s.badgePath(badge.ID, metaExt)
	if err != nil {
		return "", err
	}
	imagePath, _ := s.badgePath(badge.ID, imageExt)
	log := logrus.WithFields(logrus.Fields{
		"badge_id":    badge.ID,
		"file_path":   metaPath,
		"data_length": len(badge.Image),
	})

	if err := os.WriteFile(imagePath, badge.Image, 0644); err != nil {
		log.WithError(err).Error("Failed to write badge image")
		return "", err
	}
	if badge.HasThumbnail() {
		thumbPath, _ := s.badgePath(badge.ID, thumbnailExt)
		if err := os.WriteFile(thumbPath, badge.Thumbnail, 0644); err != nil {
			log.WithError(err).Error("Failed to write badge thumbnail")
			return "", err
		}
	}

	// Metadata goes last so List never sees a badge without its image.
	data, err := json.Marshal(badge)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write badge metadata")
		return "", err
	}

	log.Info("Badge created successfully")
	return badge.ID, nil
}

func (s *fsStore) Delete(ctx context.Context, id string) error {
	metaPath, err := s.badgePath(id, metaExt)
	if err != nil {
		return err
	}
	log := logrus.WithField("badge_id", id)

	if err := os.Remove(metaPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("badge with id %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to delete badge metadata")
		return err
	}
	for _, ext := range []string{imageExt, thumbnailExt} {
		p, _ := s.badgePath(id, ext)
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warn("Failed to delete badge file")
		}
	}

	log.Info("Badge deleted successfully")
	return nil
}

func (s *fsStore) itemPath(key string) (string, error) {
	if key == "" || key == "." || key == ".." || filepath.Base(key) != key || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid item key %q", key)
	}
	return filepath.Join(s.basePath, itemsDir, key), nil
}

func (s *fsStore) GetItem(ctx context.Context, key string) ([]byte, error) {
	p, err := s.itemPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, core.ErrNotFound
	}
	return data, err
}

func (s *fsStore) SetItem(ctx context.Context, key string, value []byte) error {
	p, err := s.itemPath(key)
	if err != nil {
		return err
	}
	// Write then rename so a crash never leaves a truncated collection behind.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (s *fsStore) RemoveItem(ctx context.Context, key string) error {
	p, err := s.itemPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
