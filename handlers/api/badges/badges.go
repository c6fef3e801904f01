package badges

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"badge-studio/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// bodyOverhead covers base64 expansion of the images plus the JSON envelope.
const bodyOverhead = 64 << 10

type (
	// Notifier is told about every badge accepted by HandleCreate.
	Notifier interface {
		BadgeCreated(entry core.WireEntry)
	}

	Options struct {
		// MaxEntries bounds the hosted gallery; the oldest badges are dropped first.
		MaxEntries int
		// MaxUploadBytes bounds each decoded image.
		MaxUploadBytes int64
		Notifier       Notifier
	}
)

// ImagePath is where the full badge of id is served.
func ImagePath(id string) string { return "/api/gallery/" + id + "/image" }

// ThumbnailPath is where the thumbnail of id is served.
func ThumbnailPath(id string) string { return "/api/gallery/" + id + "/thumbnail" }

// ToWire converts a stored badge to its JSON representation.
func ToWire(b *core.StoredBadge) core.WireEntry {
	entry := core.WireEntry{
		ID:        b.ID,
		FirstName: b.FirstName,
		LastName:  b.LastName,
		ImageURL:  ImagePath(b.ID),
		CreatedAt: b.CreatedAt,
	}
	if b.HasThumbnail() {
		entry.ThumbnailURL = ThumbnailPath(b.ID)
	}
	return entry
}

// HandleList lists the hosted gallery, newest first.
func HandleList(store core.BadgeRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		badges, err := store.List(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list badges")
			http.Error(w, "Failed to list badges", http.StatusInternalServerError)
			return
		}

		entries := make([]core.WireEntry, 0, len(badges))
		for _, b := range badges {
			entries = append(entries, ToWire(b))
		}
		render.JSON(w, r, entries)
	}
}

// HandleCreate accepts a published badge.
func HandleCreate(store core.BadgeRepository, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if opts.MaxUploadBytes > 0 {
			limit := opts.MaxUploadBytes*8/3 + bodyOverhead
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}

		var req core.PublishRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "Badge too large", http.StatusRequestEntityTooLarge)
				return
			}
			logrus.WithError(err).Warn("Failed to decode badge request")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		badge, status, err := decodeBadge(req, opts.MaxUploadBytes)
		if err != nil {
			logrus.WithError(err).Warn("Rejected badge")
			http.Error(w, err.Error(), status)
			return
		}

		if _, err := store.Create(r.Context(), badge); err != nil {
			logrus.WithError(err).Error("Failed to create badge")
			http.Error(w, "Failed to create badge", http.StatusInternalServerError)
			return
		}
		enforceRetention(r, store, opts.MaxEntries)

		entry := ToWire(badge)
		if opts.Notifier != nil {
			opts.Notifier.BadgeCreated(entry)
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, entry)
	}
}

// HandleImage serves the full badge.
func HandleImage(store core.BadgeRepository) http.HandlerFunc {
	return serveBytes(store, func(b *core.StoredBadge) (string, []byte) {
		return b.ImageType, b.Image
	})
}

// HandleThumbnail serves the thumbnail, or the full badge when none was uploaded.
func HandleThumbnail(store core.BadgeRepository) http.HandlerFunc {
	return serveBytes(store, func(b *core.StoredBadge) (string, []byte) {
		if b.HasThumbnail() {
			return b.ThumbnailType, b.Thumbnail
		}
		return b.ImageType, b.Image
	})
}

func serveBytes(store core.BadgeRepository, pick func(*core.StoredBadge) (string, []byte)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		badge, err := store.FindID(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				http.Error(w, "Badge not found", http.StatusNotFound)
				return
			}
			logrus.WithField("badge_id", id).WithError(err).Error("Failed to get badge")
			http.Error(w, "Failed to get badge", http.StatusInternalServerError)
			return
		}

		mimeType, data := pick(badge)
		w.Header().Set("Content-Type", mimeType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		if _, err := w.Write(data); err != nil {
			logrus.WithError(err).Warn("Failed to write badge")
		}
	}
}

func decodeBadge(req core.PublishRequest, maxBytes int64) (*core.StoredBadge, int, error) {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return nil, http.StatusBadRequest, core.ErrMissingName
	}

	imageType, image, err := decodeImage(req.ImageURL, maxBytes)
	if err != nil {
		return nil, statusFor(err), fmt.Errorf("image: %w", err)
	}
	badge := &core.StoredBadge{
		FirstName: first,
		LastName:  last,
		ImageType: imageType,
		Image:     image,
	}

	if req.ThumbnailURL != "" {
		thumbType, thumb, err := decodeImage(req.ThumbnailURL, maxBytes)
		if err != nil {
			return nil, statusFor(err), fmt.Errorf("thumbnail: %w", err)
		}
		badge.ThumbnailType = thumbType
		badge.Thumbnail = thumb
	}
	return badge, 0, nil
}

func decodeImage(dataURL string, maxBytes int64) (string, []byte, error) {
	mimeType, data, err := core.ParseDataURL(dataURL)
	if err != nil {
		return "", nil, err
	}
	if !strings.HasPrefix(mimeType, "image/") || len(data) == 0 {
		return "", nil, core.ErrInvalidType
	}
	if sniffed := http.DetectContentType(data); !strings.HasPrefix(sniffed, "image/") {
		return "", nil, core.ErrInvalidType
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", nil, core.ErrTooLarge
	}
	return mimeType, data, nil
}

func statusFor(err error) int {
	if errors.Is(err, core.ErrTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// enforceRetention drops the oldest badges beyond maxEntries. Failures are logged only.
func enforceRetention(r *http.Request, store core.BadgeRepository, maxEntries int) {
	if maxEntries <= 0 {
		return
	}
	badges, err := store.List(r.Context())
	if err != nil {
		logrus.WithError(err).Warn("Failed to list badges for retention")
		return
	}
	for _, b := range badges[min(maxEntries, len(badges)):] {
		if err := store.Delete(r.Context(), b.ID); err != nil {
			logrus.WithField("badge_id", b.ID).WithError(err).Warn("Failed to delete old badge")
			continue
		}
		logrus.WithField("badge_id", b.ID).Debug("Deleted badge beyond retention")
	}
}
