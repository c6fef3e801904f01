package badges

import (
	"context"
	"net/http"

	"badge-studio/core"
	"badge-studio/gallery"
	"badge-studio/galleryview"

	"github.com/sirupsen/logrus"
)

// repositorySource exposes the hosted repository to a gallery view. Images are
// referenced by their API paths.
type repositorySource struct {
	store core.BadgeRepository
}

func (s repositorySource) List(ctx context.Context) ([]core.GalleryEntry, error) {
	badges, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]core.GalleryEntry, 0, len(badges))
	for _, b := range badges {
		w := ToWire(b)
		thumb := w.ThumbnailURL
		if thumb == "" {
			thumb = w.ImageURL
		}
		entries = append(entries, core.GalleryEntry{
			ID:        w.ID,
			FirstName: w.FirstName,
			LastName:  w.LastName,
			Thumbnail: thumb,
			FullImage: w.ImageURL,
			CreatedAt: w.CreatedAt,
		})
	}
	return entries, nil
}

func (repositorySource) Remove(ctx context.Context, id string) error {
	return gallery.ErrCurationUnsupported
}

func (repositorySource) Mode() gallery.Mode { return gallery.ModeRemote }

// HandlePage renders the hosted gallery. ?grid=1 opens the full grid and
// ?badge=<id> the detail of one badge.
func HandlePage(store core.BadgeRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := galleryview.New(repositorySource{store: store}, nil)
		if err := view.Refresh(r.Context()); err != nil {
			logrus.WithError(err).Error("Failed to load gallery")
			http.Error(w, "Failed to load gallery", http.StatusInternalServerError)
			return
		}

		query := r.URL.Query()
		if query.Get("grid") != "" {
			view.OpenGrid()
		}
		if id := query.Get("badge"); id != "" {
			if _, err := view.OpenDetail(id); err != nil {
				logrus.WithField("badge_id", id).Debug("Requested badge is not in the gallery")
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := view.Render(w); err != nil {
			logrus.WithError(err).Error("Failed to render gallery")
		}
	}
}
