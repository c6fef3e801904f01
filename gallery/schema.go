package gallery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"badge-studio/core"

	"github.com/sirupsen/logrus"
)

// storedEntry accepts both field spellings seen in persisted collections and remote
// responses. Only the canonical spelling is ever written.
type storedEntry struct {
	ID string `json:"id"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Prenom    string `json:"prenom"`
	Nom       string `json:"nom"`

	Thumbnail    string `json:"thumbnail"`
	ThumbnailURL string `json:"thumbnailUrl"`
	FullImage    string `json:"fullImage"`
	ImageURL     string `json:"imageUrl"`

	CreatedAt json.RawMessage `json:"createdAt"`
	IsLocal   bool            `json:"isLocal"`
}

// canonical maps either spelling onto a GalleryEntry. An unreadable createdAt
// becomes the zero time so one bad entry never hides the rest of the collection.
func (s storedEntry) canonical() core.GalleryEntry {
	createdAt, err := parseTimestamp(s.CreatedAt)
	if err != nil {
		logrus.WithField("entry_id", s.ID).WithError(err).Warn("Ignoring unreadable gallery timestamp")
		createdAt = time.Time{}
	}
	e := core.GalleryEntry{
		ID:        s.ID,
		FirstName: firstNonEmpty(s.FirstName, s.Prenom),
		LastName:  firstNonEmpty(s.LastName, s.Nom),
		Thumbnail: firstNonEmpty(s.Thumbnail, s.ThumbnailURL),
		FullImage: firstNonEmpty(s.FullImage, s.ImageURL),
		CreatedAt: createdAt,
		IsLocal:   s.IsLocal,
	}
	if e.Thumbnail == "" {
		e.Thumbnail = e.FullImage
	}
	return e
}

// DecodeEntries reads a JSON array of gallery entries in either schema.
func DecodeEntries(data []byte) ([]core.GalleryEntry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []core.GalleryEntry{}, nil
	}

	var raw []storedEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode gallery entries: %w", err)
	}

	entries := make([]core.GalleryEntry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, r.canonical())
	}
	return entries, nil
}

// EncodeEntries writes entries in the canonical schema.
func EncodeEntries(entries []core.GalleryEntry) ([]byte, error) {
	if entries == nil {
		entries = []core.GalleryEntry{}
	}
	return json.Marshal(entries)
}

// parseTimestamp accepts an RFC 3339 string, epoch milliseconds (number or numeric
// string) or a {seconds, nanoseconds} object. A missing value is the zero time.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid createdAt %q: %w", s, err)
		}
		return t, nil

	case '{':
		var ts struct {
			Seconds       *int64 `json:"seconds"`
			Nanoseconds   int64  `json:"nanoseconds"`
			LegacySeconds *int64 `json:"_seconds"`
			LegacyNanos   int64  `json:"_nanoseconds"`
		}
		if err := json.Unmarshal(raw, &ts); err != nil {
			return time.Time{}, fmt.Errorf("invalid createdAt object: %w", err)
		}
		switch {
		case ts.Seconds != nil:
			return time.Unix(*ts.Seconds, ts.Nanoseconds).UTC(), nil
		case ts.LegacySeconds != nil:
			return time.Unix(*ts.LegacySeconds, ts.LegacyNanos).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("createdAt object has no seconds")

	default:
		ms, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid createdAt %s: %w", raw, err)
		}
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
