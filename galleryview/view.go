// Package galleryview presents a gallery: a short preview strip, the full grid in
// an overlay and a single detail modal.
package galleryview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"badge-studio/core"
	"badge-studio/gallery"
	"badge-studio/share"

	"github.com/sirupsen/logrus"
)

// PreviewSize is the number of entries shown in the preview strip.
const PreviewSize = 10

const deletePrompt = "Voulez-vous vraiment supprimer ce badge ?"

// Source is the gallery a view reads from.
type Source interface {
	List(ctx context.Context) ([]core.GalleryEntry, error)
	Remove(ctx context.Context, id string) error
	Mode() gallery.Mode
}

// Fetcher downloads images referenced by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Modal is the detail view of one entry. Only one exists at a time.
type Modal struct {
	Entry     core.GalleryEntry
	Title     string
	Date      string
	CanDelete bool
}

type View struct {
	src      Source
	fetcher  Fetcher
	location *time.Location

	entries  []core.GalleryEntry
	gridOpen bool
	modal    *Modal
}

// New creates a view. A nil fetcher downloads over HTTP with a bounded client.
func New(src Source, fetcher Fetcher) *View {
	if fetcher == nil {
		fetcher = HTTPFetcher{}
	}
	return &View{src: src, fetcher: fetcher, location: time.Local}
}

// SetLocation selects the time zone dates are shown in.
func (v *View) SetLocation(loc *time.Location) {
	if loc != nil {
		v.location = loc
	}
}

// Refresh reloads the entries from the source.
func (v *View) Refresh(ctx context.Context) error {
	entries, err := v.src.List(ctx)
	if err != nil {
		return err
	}
	v.entries = entries
	if v.modal != nil {
		if _, ok := v.find(v.modal.Entry.ID); !ok {
			v.modal = nil
		}
	}
	return nil
}

func (v *View) Preview() []core.GalleryEntry {
	if len(v.entries) <= PreviewSize {
		return v.entries
	}
	return v.entries[:PreviewSize]
}

func (v *View) Grid() []core.GalleryEntry {
	return v.entries
}

func (v *View) Empty() bool {
	return len(v.entries) == 0
}

func (v *View) OpenGrid()      { v.gridOpen = true }
func (v *View) CloseGrid()     { v.gridOpen = false }
func (v *View) GridOpen() bool { return v.gridOpen }

// CanDelete reports whether entries may be removed, which is only the case for the
// on-device gallery.
func (v *View) CanDelete() bool {
	return v.src.Mode() == gallery.ModeLocal
}

// OpenDetail builds the modal for id, replacing any open one.
func (v *View) OpenDetail(id string) (*Modal, error) {
	entry, ok := v.find(id)
	if !ok {
		return nil, core.ErrNotFound
	}
	v.modal = &Modal{
		Entry:     entry,
		Title:     entry.DisplayName(),
		Date:      FormatDate(entry.CreatedAt, v.location),
		CanDelete: v.CanDelete() && entry.IsLocal,
	}
	return v.modal, nil
}

// Modal returns the open modal, or nil.
func (v *View) Modal() *Modal {
	return v.modal
}

// HandleKey closes the modal on Escape and reports whether the key was consumed.
func (v *View) HandleKey(key string) bool {
	if key != "Escape" || v.modal == nil {
		return false
	}
	v.modal = nil
	return true
}

func (v *View) ClickBackdrop() { v.modal = nil }
func (v *View) ClickClose()    { v.modal = nil }

// Download returns the export file name and the full-resolution image of an entry.
func (v *View) Download(ctx context.Context, id string) (string, []byte, error) {
	entry, ok := v.find(id)
	if !ok {
		return "", nil, core.ErrNotFound
	}
	name := share.Filename(entry.FirstName, entry.LastName)

	if core.IsDataURL(entry.FullImage) {
		_, data, err := core.ParseDataURL(entry.FullImage)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read badge %s: %w", id, err)
		}
		return name, data, nil
	}

	data, err := v.fetcher.Fetch(ctx, entry.FullImage)
	if err != nil {
		return "", nil, fmt.Errorf("failed to download badge %s: %w", id, err)
	}
	return name, data, nil
}

// Delete removes an entry after the user confirms. It reports whether the entry was
// removed.
func (v *View) Delete(ctx context.Context, id string, confirm func(message string) bool) (bool, error) {
	if !v.CanDelete() {
		return false, gallery.ErrCurationUnsupported
	}
	if _, ok := v.find(id); !ok {
		return false, core.ErrNotFound
	}
	if confirm != nil && !confirm(deletePrompt) {
		return false, nil
	}

	removeErr := v.src.Remove(ctx, id)
	var perr *core.PersistenceError
	if removeErr != nil && !errors.As(removeErr, &perr) {
		return false, removeErr
	}

	if v.modal != nil && v.modal.Entry.ID == id {
		v.modal = nil
	}
	if err := v.Refresh(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to refresh gallery after delete")
	}
	return true, removeErr
}

func (v *View) find(id string) (core.GalleryEntry, bool) {
	for _, e := range v.entries {
		if e.ID == id {
			return e, true
		}
	}
	return core.GalleryEntry{}, false
}

const (
	fetchTimeout = 30 * time.Second
	// maxDownloadBytes bounds one fetched badge image.
	maxDownloadBytes = 32 << 20
)

// HTTPFetcher fetches images over HTTP. A nil Client times out after 30 seconds and
// a zero MaxBytes allows 32 MiB.
type HTTPFetcher struct {
	Client   *http.Client
	MaxBytes int64
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = maxDownloadBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image larger than %d bytes: %w", limit, core.ErrTooLarge)
	}
	return data, nil
}
