package core

import (
	"context"
	"time"
)

// LocalGalleryLimit caps the on-device collection.
const LocalGalleryLimit = 20

type (
	// GalleryEntry is the canonical form of a published badge on the client side.
	GalleryEntry struct {
		ID        string    `json:"id"`
		FirstName string    `json:"firstName"`
		LastName  string    `json:"lastName"`
		Thumbnail string    `json:"thumbnail"`
		FullImage string    `json:"fullImage"`
		CreatedAt time.Time `json:"createdAt"`
		IsLocal   bool      `json:"isLocal"`
	}

	// WireEntry is the hosted gallery's JSON representation of a badge.
	WireEntry struct {
		ID           string    `json:"id"`
		FirstName    string    `json:"prenom"`
		LastName     string    `json:"nom"`
		ImageURL     string    `json:"imageUrl"`
		ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// PublishRequest is the body sent to the hosted gallery. Images are data URLs.
	PublishRequest struct {
		FirstName    string `json:"prenom"`
		LastName     string `json:"nom"`
		ImageURL     string `json:"imageUrl"`
		ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	}

	// StoredBadge is a badge persisted by the hosted gallery. Image bytes are kept
	// exactly as uploaded.
	StoredBadge struct {
		ID            string    `json:"id"`
		FirstName     string    `json:"firstName"`
		LastName      string    `json:"lastName"`
		ImageType     string    `json:"imageType"`
		Image         []byte    `json:"-"`
		ThumbnailType string    `json:"thumbnailType,omitempty"`
		Thumbnail     []byte    `json:"-"`
		CreatedAt     time.Time `json:"createdAt"`
	}

	// BadgeRepository defines the persistence layer of the hosted gallery.
	BadgeRepository interface {
		// List returns badges newest first, without image bytes.
		List(ctx context.Context) ([]*StoredBadge, error)

		// FindID returns a single badge including its image bytes.
		FindID(ctx context.Context, id string) (*StoredBadge, error)

		// Create stores a new badge and returns its id. CreatedAt is set when zero.
		Create(ctx context.Context, badge *StoredBadge) (string, error)

		// Delete removes a badge; used for retention only.
		Delete(ctx context.Context, id string) error
	}

	// KeyValueStore is the on-device storage backing the local gallery tier.
	KeyValueStore interface {
		// GetItem returns ErrNotFound when the key was never written.
		GetItem(ctx context.Context, key string) ([]byte, error)
		SetItem(ctx context.Context, key string, value []byte) error
		RemoveItem(ctx context.Context, key string) error
	}
)

func (e GalleryEntry) DisplayName() string {
	return DisplayName(e.FirstName, e.LastName)
}

func (b *StoredBadge) HasThumbnail() bool {
	return b != nil && b.ThumbnailType != ""
}
