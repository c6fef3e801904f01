// Package gallery persists published badges: a hosted collection reached over HTTP,
// with an on-device collection used whenever the hosted one is not configured or
// cannot be reached.
package gallery

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"badge-studio/compositor"
	"badge-studio/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type Mode int

const (
	ModeLocal Mode = iota
	ModeRemote
)

func (m Mode) String() string {
	if m == ModeRemote {
		return "remote"
	}
	return "local"
}

// ErrCurationUnsupported is returned by Remove and Clear when a hosted gallery is
// configured. Curation of the hosted collection is not offered.
var ErrCurationUnsupported = errors.New("gallery curation is only available in local mode")

// RemoteGallery is the hosted tier.
type RemoteGallery interface {
	List(ctx context.Context) ([]core.GalleryEntry, error)
	Create(ctx context.Context, req core.PublishRequest) (*core.GalleryEntry, error)
}

// Store is the two-tier gallery. Reads and writes go to the remote tier first and
// fall back to the local tier; the two are never merged.
type Store struct {
	remote RemoteGallery
	local  *Local

	now       func() time.Time
	thumbnail func(png []byte) ([]byte, error)
}

// NewStore combines the tiers. A nil remote means local mode.
func NewStore(remote RemoteGallery, local *Local) *Store {
	return &Store{
		remote: remote,
		local:  local,
		now:    time.Now,
		thumbnail: func(png []byte) ([]byte, error) {
			return compositor.Thumbnail(png, compositor.ThumbnailMaxSize, compositor.ThumbnailQuality)
		},
	}
}

// Open builds a store for endpoint over kv. An empty or placeholder endpoint selects
// local mode. Failing to load the local collection is logged; the store starts empty.
func Open(ctx context.Context, endpoint string, kv core.KeyValueStore, client *http.Client) (*Store, error) {
	local := NewLocal(kv)
	if err := local.Load(ctx); err != nil {
		logrus.WithError(err).Warn("Starting with an empty local gallery")
	}

	if !EndpointConfigured(endpoint) {
		logrus.Info("No remote gallery configured, using local gallery")
		return NewStore(nil, local), nil
	}

	remote, err := NewRemote(endpoint, client)
	if err != nil {
		return nil, err
	}
	logrus.WithField("endpoint", remote.Endpoint()).Info("Using remote gallery")
	return NewStore(remote, local), nil
}

// EndpointConfigured reports whether endpoint names a real hosted gallery rather than
// being empty or left as a template placeholder.
func EndpointConfigured(endpoint string) bool {
	e := strings.TrimSpace(endpoint)
	if e == "" {
		return false
	}
	upper := strings.ToUpper(e)
	return !strings.Contains(upper, "YOUR_") && !strings.Contains(e, "<") && !strings.Contains(e, "{{")
}

func (s *Store) Mode() Mode {
	if s.remote != nil {
		return ModeRemote
	}
	return ModeLocal
}

// List returns the remote collection, or the local one when the remote tier is absent
// or unavailable.
func (s *Store) List(ctx context.Context) ([]core.GalleryEntry, error) {
	if s.remote != nil {
		entries, err := s.remote.List(ctx)
		if err == nil {
			return entries, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logrus.WithError(err).Warn("Remote gallery unavailable, listing local gallery")
	}
	return s.local.List(), nil
}

// Publish stores a rendered badge and returns the new entry. When the remote tier
// fails the entry is added to the local collection instead. A PersistenceError is
// returned together with the entry when the local collection could not be saved.
func (s *Store) Publish(ctx context.Context, artifact *core.RasterArtifact, firstName, lastName string) (*core.GalleryEntry, error) {
	if artifact == nil || len(artifact.PNG) == 0 {
		return nil, errors.New("nothing to publish: badge has not been rendered")
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	log := logrus.WithFields(logrus.Fields{
		"first_name": firstName,
		"last_name":  lastName,
		"mode":       s.Mode().String(),
	})

	fullImage := artifact.DataURL()
	thumbnail := fullImage
	if jpeg, err := s.thumbnail(artifact.PNG); err != nil {
		log.WithError(err).Warn("Failed to create thumbnail, using full image")
	} else {
		thumbnail = core.EncodeDataURL("image/jpeg", jpeg)
	}

	if s.remote != nil {
		entry, err := s.remote.Create(ctx, core.PublishRequest{
			FirstName:    firstName,
			LastName:     lastName,
			ImageURL:     fullImage,
			ThumbnailURL: thumbnail,
		})
		if err == nil {
			if entry.ID == "" {
				entry.ID = ulid.Make().String()
			}
			return entry, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.WithError(err).Warn("Remote publish failed, saving badge locally")
	}

	entry := core.GalleryEntry{
		ID:        ulid.Make().String(),
		FirstName: firstName,
		LastName:  lastName,
		Thumbnail: thumbnail,
		FullImage: fullImage,
		CreatedAt: s.now().UTC(),
		IsLocal:   true,
	}
	if err := s.local.Add(ctx, entry); err != nil {
		return &entry, err
	}
	log.WithField("entry_id", entry.ID).Info("Badge saved to local gallery")
	return &entry, nil
}

// Remove deletes a local entry. Only available in local mode.
func (s *Store) Remove(ctx context.Context, id string) error {
	if s.Mode() != ModeLocal {
		return ErrCurationUnsupported
	}
	return s.local.Remove(ctx, id)
}

// Clear drops the local collection. Only available in local mode.
func (s *Store) Clear(ctx context.Context) error {
	if s.Mode() != ModeLocal {
		return ErrCurationUnsupported
	}
	return s.local.Clear(ctx)
}
