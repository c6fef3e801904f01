package gallery

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"badge-studio/core"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	entries   []core.GalleryEntry
	listErr   error
	createErr error
	created   []core.PublishRequest
}

func (f *fakeRemote) List(ctx context.Context) ([]core.GalleryEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entries, nil
}

func (f *fakeRemote) Create(ctx context.Context, req core.PublishRequest) (*core.GalleryEntry, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	e := core.GalleryEntry{
		ID:        "remote-id",
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Thumbnail: req.ThumbnailURL,
		FullImage: req.ImageURL,
		CreatedAt: time.Now(),
	}
	f.entries = append([]core.GalleryEntry{e}, f.entries...)
	return &e, nil
}

func testArtifact(t *testing.T) *core.RasterArtifact {
	t.Helper()
	img := imaging.New(64, 64, color.NRGBA{R: 26, G: 95, B: 42, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return &core.RasterArtifact{PNG: buf.Bytes(), Width: 64, Height: 64, RenderedAt: time.Now()}
}

func TestEndpointConfigured(t *testing.T) {
	assert.False(t, EndpointConfigured(""))
	assert.False(t, EndpointConfigured("   "))
	assert.False(t, EndpointConfigured("https://YOUR_API_ENDPOINT/gallery"))
	assert.False(t, EndpointConfigured("https://<your-host>/gallery"))
	assert.True(t, EndpointConfigured("https://badges.example.org/api/gallery"))
}

func TestOpen_SelectsMode(t *testing.T) {
	ctx := context.Background()

	local, err := Open(ctx, "", newMemKV(), nil)
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, local.Mode())

	remote, err := Open(ctx, "http://127.0.0.1:1/api/gallery", newMemKV(), nil)
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, remote.Mode())

	_, err = Open(ctx, "ftp://host/gallery", newMemKV(), nil)
	assert.Error(t, err)
}

func TestStore_LocalModePublishes21(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, NewLocal(newMemKV()))

	var first, last *core.GalleryEntry
	for i := 1; i <= 21; i++ {
		entry, err := store.Publish(ctx, testArtifact(t), "Awa", "Kone")
		require.NoError(t, err)
		if i == 1 {
			first = entry
		}
		last = entry
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, core.LocalGalleryLimit)
	assert.Equal(t, last.ID, entries[0].ID)
	for _, e := range entries {
		assert.NotEqual(t, first.ID, e.ID)
	}
}

func TestStore_PublishLocalEntryShape(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, NewLocal(newMemKV()))
	fixed := time.Date(2026, 10, 17, 14, 5, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	art := testArtifact(t)
	entry, err := store.Publish(ctx, art, "  Awa ", "kone")
	require.NoError(t, err)

	assert.Len(t, entry.ID, 26)
	assert.Equal(t, "Awa", entry.FirstName)
	assert.Equal(t, "kone", entry.LastName)
	assert.True(t, entry.IsLocal)
	assert.Equal(t, fixed, entry.CreatedAt)
	assert.Equal(t, art.DataURL(), entry.FullImage)

	mimeType, thumb, err := core.ParseDataURL(entry.Thumbnail)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	img, _, err := image.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 300)
}

func TestStore_RemoteSuccess(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	kv := newMemKV()
	store := NewStore(remote, NewLocal(kv))

	entry, err := store.Publish(ctx, testArtifact(t), "Awa", "Kone")
	require.NoError(t, err)
	assert.Equal(t, "remote-id", entry.ID)
	require.Len(t, remote.created, 1)
	assert.NotEmpty(t, remote.created[0].ThumbnailURL)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, entries[0].ID)

	// Nothing was written locally.
	assert.Zero(t, kv.writes)
}

func TestStore_RemoteFailureFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	unavailable := &core.RemoteUnavailableError{Endpoint: "http://gallery", StatusCode: http.StatusServiceUnavailable}
	remote := &fakeRemote{listErr: unavailable, createErr: unavailable}
	store := NewStore(remote, NewLocal(newMemKV()))

	entry, err := store.Publish(ctx, testArtifact(t), "Awa", "Kone")
	require.NoError(t, err)
	assert.True(t, entry.IsLocal)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestStore_ListDoesNotMerge(t *testing.T) {
	ctx := context.Background()
	local := NewLocal(newMemKV())
	require.NoError(t, local.Add(ctx, localEntry(1)))

	remote := &fakeRemote{entries: []core.GalleryEntry{{ID: "r1"}}}
	store := NewStore(remote, local)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "r1", entries[0].ID)
}

func TestStore_FallbackAgainstRealServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx := context.Background()
	store, err := Open(ctx, srv.URL, newMemKV(), srv.Client())
	require.NoError(t, err)

	entry, err := store.Publish(ctx, testArtifact(t), "Jean", "Dossou")
	require.NoError(t, err)
	assert.True(t, entry.IsLocal)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestStore_QuotaFailureIsReportedButKept(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	kv.setErr = core.ErrQuotaExceeded
	store := NewStore(nil, NewLocal(kv))

	entry, err := store.Publish(ctx, testArtifact(t), "Awa", "Kone")
	var perr *core.PersistenceError
	require.True(t, errors.As(err, &perr))
	require.NotNil(t, entry)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestStore_CurationIsLocalOnly(t *testing.T) {
	ctx := context.Background()
	remote := NewStore(&fakeRemote{}, NewLocal(newMemKV()))
	assert.ErrorIs(t, remote.Remove(ctx, "x"), ErrCurationUnsupported)
	assert.ErrorIs(t, remote.Clear(ctx), ErrCurationUnsupported)

	local := NewStore(nil, NewLocal(newMemKV()))
	entry, err := local.Publish(ctx, testArtifact(t), "Awa", "Kone")
	require.NoError(t, err)
	require.NoError(t, local.Remove(ctx, entry.ID))

	entries, err := local.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = local.Publish(ctx, testArtifact(t), "Awa", "Kone")
	require.NoError(t, err)
	require.NoError(t, local.Clear(ctx))
	entries, err = local.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_PublishWithoutArtifact(t *testing.T) {
	store := NewStore(nil, NewLocal(newMemKV()))
	_, err := store.Publish(context.Background(), nil, "Awa", "Kone")
	assert.Error(t, err)
}
