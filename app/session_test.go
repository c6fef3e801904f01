package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"badge-studio/compositor"
	"badge-studio/core"
	"badge-studio/gallery"
	"badge-studio/photo"
	"badge-studio/share"
	"badge-studio/stores"
	"badge-studio/stores/memory"
	"badge-studio/transform"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	alerts []string
	warns  []string
}

func (n *recordingNotifier) Alert(message string) { n.alerts = append(n.alerts, message) }
func (n *recordingNotifier) Warn(message string)  { n.warns = append(n.warns, message) }

// switchableSurface measures like the default layout until broken is set.
type switchableSurface struct {
	broken bool
}

func (s *switchableSurface) Measure() (compositor.Layout, error) {
	if s.broken {
		return compositor.Layout{}, errors.New("badge element detached")
	}
	return compositor.DefaultLayout(400), nil
}

func jpegFile(t *testing.T, size int) photo.File {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 300, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 300; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / 300), G: uint8(y * 255 / 400), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	data := buf.Bytes()
	if len(data) < size {
		// Bytes after the end-of-image marker are ignored by decoders.
		data = append(data, make([]byte, size-len(data))...)
	}
	return photo.File{Name: "portrait.jpg", Type: "image/jpeg", Size: int64(len(data)), Data: data}
}

func newTestSession(t *testing.T, kv core.KeyValueStore) (*Session, *recordingNotifier, *gallery.Store, *switchableSurface) {
	t.Helper()
	if kv == nil {
		kv = memory.NewStore()
	}
	store := gallery.NewStore(nil, gallery.NewLocal(kv))
	notifier := &recordingNotifier{}
	surface := &switchableSurface{}
	s := NewSession(Options{
		Surface:   surface,
		Publisher: store,
		Notifier:  notifier,
		PageURL:   "https://badge.example",
	})
	return s, notifier, store, surface
}

func TestSession_HappyPath(t *testing.T) {
	ctx := context.Background()
	s, notifier, store, _ := newTestSession(t, nil)

	assert.True(t, s.PlaceholderVisible())
	assert.False(t, s.CanSubmit("Awa", "kone"))

	require.NoError(t, s.SelectPhoto(ctx, jpegFile(t, 2*1024*1024)))
	assert.True(t, s.PreviewVisible())
	assert.False(t, s.PlaceholderVisible())
	assert.True(t, s.CanSubmit("Awa", "kone"))

	artifact, err := s.Submit(ctx, "Awa", "kone")
	require.NoError(t, err)
	assert.Equal(t, ScreenBadge, s.Screen())
	assert.Equal(t, 1080, artifact.Width)
	assert.Equal(t, 1080, artifact.Height)
	assert.Equal(t, core.IdentityTransform, artifact.Transform)

	img, err := imaging.Decode(bytes.NewReader(artifact.PNG))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1080, 1080), img.Bounds())

	published := s.Published()
	require.NotNil(t, published)
	assert.Equal(t, "Awa KONE", published.DisplayName())
	assert.True(t, published.IsLocal)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, published.ID, entries[0].ID)

	name, exported, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "badge_UP_Awa_kone.png", name)
	assert.Equal(t, artifact.PNG, exported.PNG)

	assert.Empty(t, notifier.alerts)
	assert.Empty(t, notifier.warns)
}

func TestSession_RejectsNonImage(t *testing.T) {
	ctx := context.Background()
	s, notifier, _, _ := newTestSession(t, nil)

	pdf := photo.File{Name: "cv.pdf", Type: "application/pdf", Size: 8, Data: []byte("%PDF-1.4")}
	err := s.SelectPhoto(ctx, pdf)

	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{MsgInvalidImage}, notifier.alerts)
	assert.Nil(t, s.Photo())
	assert.True(t, s.PlaceholderVisible())
	assert.False(t, s.CanSubmit("Awa", "Kone"))

	_, err = s.Submit(ctx, "Awa", "Kone")
	assert.ErrorIs(t, err, core.ErrMissingPhoto)
	assert.Equal(t, MsgMissingPhoto, notifier.alerts[len(notifier.alerts)-1])
	assert.Equal(t, ScreenForm, s.Screen())
}

func TestSession_RejectedFileKeepsPreviousPhoto(t *testing.T) {
	ctx := context.Background()
	s, notifier, _, _ := newTestSession(t, nil)

	require.NoError(t, s.SelectPhoto(ctx, jpegFile(t, 0)))
	before := s.Photo()

	tooBig := jpegFile(t, photo.DefaultMaxBytes+1)
	assert.ErrorIs(t, s.SelectPhoto(ctx, tooBig), core.ErrTooLarge)
	assert.Same(t, before, s.Photo())

	corrupt := photo.File{Name: "x.png", Type: "image/png", Size: 4, Data: []byte("nope")}
	var derr *core.DecodeError
	assert.True(t, errors.As(s.SelectPhoto(ctx, corrupt), &derr))
	assert.Same(t, before, s.Photo())

	assert.Equal(t, []string{MsgTooLarge, MsgUnreadable}, notifier.alerts)
}

func TestSession_MissingNames(t *testing.T) {
	ctx := context.Background()
	s, notifier, _, _ := newTestSession(t, nil)
	require.NoError(t, s.SelectPhoto(ctx, jpegFile(t, 0)))

	_, err := s.Submit(ctx, "   ", "Kone")
	assert.ErrorIs(t, err, core.ErrMissingName)
	assert.Equal(t, []string{MsgMissingFields}, notifier.alerts)
	assert.Equal(t, ScreenForm, s.Screen())
}

func TestSession_LocalGalleryKeepsNewestTwenty(t *testing.T) {
	ctx := context.Background()
	s, _, store, _ := newTestSession(t, nil)
	require.NoError(t, s.SelectPhoto(ctx, jpegFile(t, 0)))

	var ids []string
	for i := 0; i < 21; i++ {
		_, err := s.Submit(ctx, "Awa", "Kone")
		require.NoError(t, err)
		ids = append(ids, s.Published().ID)
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, core.LocalGalleryLimit)
	assert.Equal(t, ids[20], entries[0].ID)
	for _, e := range entries {
		assert.NotEqual(t, ids[0], e.ID)
	}
}

func TestSession_ExportFollowsLiveTransform(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestSession(t, nil)
	require.NoError(t, s.SelectPhoto(ctx, jpegFile(t, 0)))

	first, err := s.Submit(ctx, "Awa", "Kone")
	require.NoError(t, err)

	s.Engine().ZoomIn()
	s.Engine().ZoomIn()
	_, exported, err := s.Export(ctx)
	require.NoError(t, err)

	assert.InDelta(t, 1.2, exported.Transform.Scale, 1e-9)
	assert.NotEqual(t, first.PNG, exported.PNG)
	assert.Same(t, exported, s.Artifact())
}

func TestSession_RenderFailureKeepsPreviousArtifact(t *testing.T) {
	ctx := context.Background()
	s, notifier, _, surface := newTestSession(t, nil)
	require.NoError(t, s.SelectPhoto(ctx, jpegFile(t, 0)))

	artifact, err := s.Submit(ctx, "Awa", "Kone")
	require.NoError(t, err)

	surface.broken = true
	_, _, err = s.Export(ctx)

	var rerr *core.RenderError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, []string{MsgRenderFailed}, notifier.alerts)
	assert.Same(t, artifact, s.Artifact())
}

func TestSession_StorageFullWarns(t *testing.T) {
	ctx := context.Background()
	s, notifier, store, _ := newTestSession(t, stores.WithQuota(memory.NewStore(), 64))
	require.NoError(t, s.SelectPhoto(ctx, jpegFile(t, 0)))

	artifact, err := s.Submit(ctx, "Awa", "Kone")
	require.NoError(t, err)
	require.NotNil(t, artifact)

	assert.Equal(t, []string{MsgStorageFull}, notifier.warns)
	assert.Empty(t, notifier.alerts)

	// The in-memory gallery still shows the badge.
	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSession_ExportBeforeSubmit(t *testing.T) {
	s, _, _, _ := newTestSession(t, nil)
	_, _, err := s.Export(context.Background())
	assert.Error(t, err)
}

func TestSession_Reset(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestSession(t, nil)
	require.NoError(t, s.SelectPhoto(ctx, jpegFile(t, 0)))
	_, err := s.Submit(ctx, "Awa", "Kone")
	require.NoError(t, err)

	s.Reset()
	assert.Nil(t, s.Photo())
	assert.Nil(t, s.Artifact())
	assert.True(t, s.PlaceholderVisible())
	assert.Equal(t, ScreenForm, s.Screen())
	assert.Equal(t, core.IdentityTransform, s.Engine().State())
}

type fakeShareHost struct {
	native  bool
	shared  []share.File
	opened  []string
	confirm bool
}

func (h *fakeShareHost) CanShareFiles() bool { return h.native }

func (h *fakeShareHost) ShareFile(ctx context.Context, file share.File, title, text string) error {
	h.shared = append(h.shared, file)
	return nil
}

func (h *fakeShareHost) OpenURL(ctx context.Context, rawURL string) error {
	h.opened = append(h.opened, rawURL)
	return nil
}

func (h *fakeShareHost) Download(ctx context.Context, file share.File) error { return nil }

func (h *fakeShareHost) Confirm(message string) bool { return h.confirm }

func TestSession_GesturesFlowIntoExportAndShare(t *testing.T) {
	ctx := context.Background()
	s, notifier, _, _ := newTestSession(t, nil)
	require.NoError(t, s.SelectPhoto(ctx, jpegFile(t, 4096)))
	submitted, err := s.Submit(ctx, "Awa", "kone")
	require.NoError(t, err)

	// One-finger drag, then a two-finger pinch that widens the fingers by half.
	assert.False(t, s.HandlePointer(transform.Event{Type: transform.TouchStart, Touches: []transform.Point{{X: 100, Y: 100}}}))
	assert.True(t, s.HandlePointer(transform.Event{Type: transform.TouchMove, Touches: []transform.Point{{X: 130, Y: 90}}}))
	s.HandlePointer(transform.Event{Type: transform.TouchEnd})
	s.HandlePointer(transform.Event{Type: transform.TouchStart, Touches: []transform.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}})
	assert.True(t, s.HandlePointer(transform.Event{Type: transform.TouchMove, Touches: []transform.Point{{X: 0, Y: 0}, {X: 150, Y: 0}}}))
	s.HandlePointer(transform.Event{Type: transform.TouchEnd})

	want := core.TransformState{Scale: 1.5, OffsetX: 30, OffsetY: -10}
	assert.InDelta(t, want.Scale, s.Engine().State().Scale, 1e-9)
	assert.Equal(t, want.OffsetX, s.Engine().State().OffsetX)
	assert.Equal(t, want.OffsetY, s.Engine().State().OffsetY)

	name, exported, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "badge_UP_Awa_kone.png", name)
	assert.InDelta(t, want.Scale, exported.Transform.Scale, 1e-9)
	assert.Equal(t, want.OffsetX, exported.Transform.OffsetX)
	assert.False(t, bytes.Equal(submitted.PNG, exported.PNG))

	native := &fakeShareHost{native: true}
	require.NoError(t, s.Share(ctx, native, share.WhatsApp))
	require.Len(t, native.shared, 1)
	assert.Equal(t, name, native.shared[0].Name)
	assert.Equal(t, exported.PNG, native.shared[0].Data)
	assert.Empty(t, native.opened)

	fallback := &fakeShareHost{}
	require.NoError(t, s.Share(ctx, fallback, share.WhatsApp))
	require.Len(t, fallback.opened, 1)
	assert.Contains(t, fallback.opened[0], "https://api.whatsapp.com/send")
	assert.Empty(t, notifier.alerts)
}

func TestSession_SetSurfaceUsedOnNextRender(t *testing.T) {
	ctx := context.Background()
	s, notifier, _, _ := newTestSession(t, nil)
	require.NoError(t, s.SelectPhoto(ctx, jpegFile(t, 4096)))
	_, err := s.Submit(ctx, "Awa", "kone")
	require.NoError(t, err)
	s.Engine().SetState(core.TransformState{Scale: 1, OffsetX: 40})

	_, before, err := s.Export(ctx)
	require.NoError(t, err)

	// The same on-screen offset is a smaller share of a wider badge.
	s.SetSurface(compositor.StaticSurface(compositor.DefaultLayout(800)))
	_, after, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1080, after.Width)
	assert.False(t, bytes.Equal(before.PNG, after.PNG))

	s.SetSurface(compositor.StaticSurface(compositor.DefaultLayout(0)))
	_, _, err = s.Export(ctx)
	var rerr *core.RenderError
	assert.True(t, errors.As(err, &rerr))
	assert.Equal(t, []string{MsgRenderFailed}, notifier.alerts)
}
