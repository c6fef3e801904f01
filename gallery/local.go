package gallery

import (
	"context"
	"errors"
	"sync"

	"badge-studio/core"

	"github.com/sirupsen/logrus"
)

// StorageKey is the single key holding the persisted local collection.
const StorageKey = "badgeGallery"

// BackupKey receives a persisted collection that could not be read, before the
// first write replaces it.
const BackupKey = StorageKey + ".unreadable"

// Local is the on-device gallery tier: a newest-first collection mirrored to a
// key-value store. Every mutation rewrites the whole persisted array.
type Local struct {
	mu      sync.Mutex
	kv      core.KeyValueStore
	limit   int
	entries []core.GalleryEntry

	// unreadable holds a blob Load could not decode and has not yet backed up.
	unreadable []byte
}

func NewLocal(kv core.KeyValueStore) *Local {
	return &Local{kv: kv, limit: core.LocalGalleryLimit, entries: []core.GalleryEntry{}}
}

// Load replaces the in-memory collection with the persisted one. On failure the
// collection is left empty and a PersistenceError is returned.
func (l *Local) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = []core.GalleryEntry{}
	l.unreadable = nil

	data, err := l.kv.GetItem(ctx, StorageKey)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return &core.PersistenceError{Err: err}
	}

	entries, err := DecodeEntries(data)
	if err != nil {
		logrus.WithError(err).Warn("Local gallery is unreadable, starting empty")
		l.unreadable = data
		if berr := l.backup(ctx); berr != nil {
			logrus.WithError(berr).Warn("Failed to back up unreadable local gallery")
		}
		return &core.PersistenceError{Err: err}
	}
	for i := range entries {
		entries[i].IsLocal = true
	}
	if len(entries) > l.limit {
		entries = entries[:l.limit]
	}
	l.entries = entries

	logrus.WithField("count", len(entries)).Debug("Loaded local gallery")
	return nil
}

// List returns a copy of the collection, newest first.
func (l *Local) List() []core.GalleryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.GalleryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Add prepends an entry and evicts from the tail beyond the limit.
func (l *Local) Add(ctx context.Context, entry core.GalleryEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.IsLocal = true
	entries := make([]core.GalleryEntry, 0, len(l.entries)+1)
	entries = append(entries, entry)
	entries = append(entries, l.entries...)

	if evicted := len(entries) - l.limit; evicted > 0 {
		logrus.WithFields(logrus.Fields{
			"evicted": evicted,
			"limit":   l.limit,
		}).Debug("Evicting oldest local gallery entries")
		entries = entries[:l.limit]
	}
	l.entries = entries
	return l.persist(ctx)
}

// Remove drops the entry with the given id.
func (l *Local) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]core.GalleryEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(l.entries) {
		return core.ErrNotFound
	}
	l.entries = kept
	return l.persist(ctx)
}

// Clear drops the whole collection.
func (l *Local) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = []core.GalleryEntry{}
	if err := l.backup(ctx); err != nil {
		return &core.PersistenceError{Err: err}
	}
	if err := l.kv.RemoveItem(ctx, StorageKey); err != nil && !errors.Is(err, core.ErrNotFound) {
		return &core.PersistenceError{Err: err}
	}
	return nil
}

// backup copies an unreadable collection to BackupKey.
func (l *Local) backup(ctx context.Context) error {
	if l.unreadable == nil {
		return nil
	}
	if err := l.kv.SetItem(ctx, BackupKey, l.unreadable); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"key":   BackupKey,
		"bytes": len(l.unreadable),
	}).Info("Backed up unreadable local gallery")
	l.unreadable = nil
	return nil
}

// persist rewrites the whole collection. It refuses to overwrite an unreadable
// collection that has not been backed up.
func (l *Local) persist(ctx context.Context) error {
	if err := l.backup(ctx); err != nil {
		return &core.PersistenceError{Err: err}
	}
	data, err := EncodeEntries(l.entries)
	if err != nil {
		return &core.PersistenceError{Err: err}
	}
	if err := l.kv.SetItem(ctx, StorageKey, data); err != nil {
		logrus.WithFields(logrus.Fields{
			"key":   StorageKey,
			"bytes": len(data),
		}).WithError(err).Warn("Failed to persist local gallery")
		return &core.PersistenceError{Err: err}
	}
	return nil
}
