package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"badge-studio/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type memStore struct {
	mu     sync.RWMutex
	badges map[string]core.StoredBadge
	items  map[string][]byte
}

// NewStore creates a store that keeps badges and key-value items in process memory.
func NewStore() *memStore {
	return &memStore{
		badges: make(map[string]core.StoredBadge),
		items:  make(map[string][]byte),
	}
}

func (s *memStore) List(ctx context.Context) ([]*core.StoredBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	badges := make([]*core.StoredBadge, 0, len(s.badges))
	for _, b := range s.badges {
		// Listing never carries image bytes.
		badges = append(badges, &core.StoredBadge{
			ID:            b.ID,
			FirstName:     b.FirstName,
			LastName:      b.LastName,
			ImageType:     b.ImageType,
			ThumbnailType: b.ThumbnailType,
			CreatedAt:     b.CreatedAt,
		})
	}
	sortNewestFirst(badges)

	logrus.WithField("count", len(badges)).Debug("Listed badges")
	return badges, nil
}

func (s *memStore) FindID(ctx context.Context, id string) (*core.StoredBadge, error) {
	log := logrus.WithField("badge_id", id)

	s.mu.RLock()
	b, ok := s.badges[id]
	s.mu.RUnlock()

	if !ok {
		log.Warn("Badge with specified ID not found")
		return nil, fmt.Errorf("badge with id %s: %w", id, core.ErrNotFound)
	}
	b.Image = append([]byte(nil), b.Image...)
	b.Thumbnail = append([]byte(nil), b.Thumbnail...)
	log.Debug("Badge retrieved successfully")
	return &b, nil
}

func (s *memStore) Create(ctx context.Context, badge *core.StoredBadge) (string, error) {
	if badge.ID == "" {
		badge.ID = ulid.Make().String()
	}
	if badge.CreatedAt.IsZero() {
		badge.CreatedAt = time.Now().UTC()
	}

	stored := *badge
	stored.Image = append([]byte(nil), badge.Image...)
	stored.Thumbnail = append([]byte(nil), badge.Thumbnail...)

	s.mu.Lock()
	s.badges[badge.ID] = stored
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"badge_id":    badge.ID,
		"data_length": len(badge.Image),
	}).Info("Badge created successfully")
	return badge.ID, nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.badges[id]; !ok {
		return fmt.Errorf("badge with id %s: %w", id, core.ErrNotFound)
	}
	delete(s.badges, id)
	logrus.WithField("badge_id", id).Info("Badge deleted successfully")
	return nil
}

func (s *memStore) GetItem(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *memStore) SetItem(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.items[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

func (s *memStore) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

func sortNewestFirst(badges []*core.StoredBadge) {
	sort.Slice(badges, func(i, j int) bool {
		if badges[i].CreatedAt.Equal(badges[j].CreatedAt) {
			return badges[i].ID > badges[j].ID
		}
		return badges[i].CreatedAt.After(badges[j].CreatedAt)
	})
}
