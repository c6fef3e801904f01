package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"badge-studio/core"

	"github.com/sirupsen/logrus"
)

const maxRemoteResponse = 64 << 20

// Remote talks to the hosted gallery API.
type Remote struct {
	endpoint *url.URL
	client   *http.Client
}

// NewRemote creates a client for the gallery collection at endpoint. A nil client
// selects one with a 30 second timeout.
func NewRemote(endpoint string, client *http.Client) (*Remote, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("invalid gallery endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid gallery endpoint %q: scheme must be http or https", endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Remote{endpoint: u, client: client}, nil
}

func (r *Remote) Endpoint() string {
	return r.endpoint.String()
}

// List fetches the hosted collection, newest first.
func (r *Remote) List(ctx context.Context) ([]core.GalleryEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.Endpoint(), http.NoBody)
	if err != nil {
		return nil, r.unavailable(0, err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := r.do(req)
	if err != nil {
		return nil, err
	}

	entries, err := DecodeEntries(body)
	if err != nil {
		return nil, r.unavailable(0, err)
	}
	for i := range entries {
		r.resolve(&entries[i])
	}

	logrus.WithFields(logrus.Fields{
		"endpoint": r.Endpoint(),
		"count":    len(entries),
	}).Debug("Fetched remote gallery")
	return entries, nil
}

// Create publishes a badge. When the response carries no entry one is derived from
// the request.
func (r *Remote) Create(ctx context.Context, publish core.PublishRequest) (*core.GalleryEntry, error) {
	payload, err := json.Marshal(publish)
	if err != nil {
		return nil, fmt.Errorf("failed to encode publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, r.unavailable(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := r.do(req)
	if err != nil {
		return nil, err
	}

	entry := core.GalleryEntry{
		FirstName: publish.FirstName,
		LastName:  publish.LastName,
		Thumbnail: firstNonEmpty(publish.ThumbnailURL, publish.ImageURL),
		FullImage: publish.ImageURL,
		CreatedAt: time.Now().UTC(),
	}

	var created storedEntry
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &created) == nil && created.ID != "" {
		e := created.canonical()
		if e.CreatedAt.IsZero() {
			e.CreatedAt = entry.CreatedAt
		}
		entry = e
		r.resolve(&entry)
	}

	logrus.WithFields(logrus.Fields{
		"endpoint": r.Endpoint(),
		"entry_id": entry.ID,
	}).Info("Badge published to remote gallery")
	return &entry, nil
}

func (r *Remote) do(req *http.Request) ([]byte, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, r.unavailable(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteResponse))
	if err != nil {
		return nil, r.unavailable(0, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, r.unavailable(resp.StatusCode, errors.New(http.StatusText(resp.StatusCode)))
	}
	return body, nil
}

// resolve makes image references absolute against the endpoint.
func (r *Remote) resolve(e *core.GalleryEntry) {
	e.IsLocal = false
	e.FullImage = r.absolute(e.FullImage)
	e.Thumbnail = r.absolute(e.Thumbnail)
}

func (r *Remote) absolute(ref string) string {
	if ref == "" || core.IsDataURL(ref) {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return r.endpoint.ResolveReference(u).String()
}

func (r *Remote) unavailable(status int, err error) error {
	return &core.RemoteUnavailableError{Endpoint: r.Endpoint(), StatusCode: status, Err: err}
}
