package stores

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"badge-studio/core"
)

type quotaStore struct {
	core.KeyValueStore

	mu    sync.Mutex
	limit int
	sizes map[string]int
}

// WithQuota caps the total bytes held by kv, the way a browser caps its storage.
// Writes beyond the limit fail with core.ErrQuotaExceeded and leave the old value.
func WithQuota(kv core.KeyValueStore, limit int) core.KeyValueStore {
	if limit <= 0 {
		return kv
	}
	return &quotaStore{KeyValueStore: kv, limit: limit, sizes: make(map[string]int)}
}

func (q *quotaStore) GetItem(ctx context.Context, key string) ([]byte, error) {
	value, err := q.KeyValueStore.GetItem(ctx, key)
	if err == nil {
		q.mu.Lock()
		q.sizes[key] = len(key) + len(value)
		q.mu.Unlock()
	}
	return value, err
}

func (q *quotaStore) SetItem(ctx context.Context, key string, value []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	used := 0
	for k, n := range q.sizes {
		if k != key {
			used += n
		}
	}
	if used+len(key)+len(value) > q.limit {
		return fmt.Errorf("writing %d bytes to %s: %w", len(value), key, core.ErrQuotaExceeded)
	}
	if err := q.KeyValueStore.SetItem(ctx, key, value); err != nil {
		return err
	}
	q.sizes[key] = len(key) + len(value)
	return nil
}

func (q *quotaStore) RemoveItem(ctx context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.KeyValueStore.RemoveItem(ctx, key); err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	delete(q.sizes, key)
	return nil
}
