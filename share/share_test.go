package share

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"badge-studio/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	canShare   bool
	shareErr   error
	confirm    bool
	shared     []File
	opened     []string
	downloaded []File
	prompts    []string
}

func (h *fakeHost) CanShareFiles() bool { return h.canShare }

func (h *fakeHost) ShareFile(ctx context.Context, file File, title, text string) error {
	if h.shareErr != nil {
		return h.shareErr
	}
	h.shared = append(h.shared, file)
	return nil
}

func (h *fakeHost) OpenURL(ctx context.Context, rawURL string) error {
	h.opened = append(h.opened, rawURL)
	return nil
}

func (h *fakeHost) Download(ctx context.Context, file File) error {
	h.downloaded = append(h.downloaded, file)
	return nil
}

func (h *fakeHost) Confirm(message string) bool {
	h.prompts = append(h.prompts, message)
	return h.confirm
}

func TestFilename(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Awa", "kone", "badge_UP_Awa_kone.png"},
		{"Jean Marc", "de  la Fontaine", "badge_UP_Jean_Marc_de_la_Fontaine.png"},
		{" Awa ", "\tKone ", "badge_UP_Awa_Kone.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(tt.first, tt.last))
	}
}

func TestCaption(t *testing.T) {
	wa := Caption(WhatsApp, "Awa", "kone")
	assert.True(t, strings.HasPrefix(wa, "🗳️ *Moi Awa KONE, je maintiens le CAP !*"))
	assert.Contains(t, wa, "#Benin")

	fb := Caption(Facebook, "Awa", "kone")
	assert.True(t, strings.HasPrefix(fb, "🗳️ Moi Awa KONE, je maintiens le CAP !"))
	assert.NotContains(t, fb, "#Benin")
}

func TestURL(t *testing.T) {
	wa, err := url.Parse(URL(WhatsApp, "Salut tout le monde", "https://badge.example.org/"))
	require.NoError(t, err)
	assert.Equal(t, "api.whatsapp.com", wa.Host)
	assert.Equal(t, "Salut tout le monde\n\n📲 Créez votre badge : https://badge.example.org/", wa.Query().Get("text"))
	assert.NotContains(t, wa.RawQuery, "+")

	fb, err := url.Parse(URL(Facebook, "Moi", "https://badge.example.org/"))
	require.NoError(t, err)
	assert.Equal(t, "/sharer/sharer.php", fb.Path)
	assert.Equal(t, "https://badge.example.org/", fb.Query().Get("u"))
	assert.Equal(t, "Moi", fb.Query().Get("quote"))
}

func artifact() *core.RasterArtifact {
	return &core.RasterArtifact{PNG: []byte{0x89, 'P', 'N', 'G'}, Width: 1080, Height: 1080}
}

func TestShare_NativeFileShare(t *testing.T) {
	host := &fakeHost{canShare: true}
	err := Share(context.Background(), host, Request{Channel: WhatsApp, FirstName: "Awa", LastName: "kone", Artifact: artifact()})
	require.NoError(t, err)

	require.Len(t, host.shared, 1)
	assert.Equal(t, "badge_UP_Awa_kone.png", host.shared[0].Name)
	assert.Equal(t, "image/png", host.shared[0].MIMEType)
	assert.Empty(t, host.opened)
}

func TestShare_WhatsAppFallback(t *testing.T) {
	host := &fakeHost{canShare: true, shareErr: errors.New("not allowed")}
	err := Share(context.Background(), host, Request{Channel: WhatsApp, FirstName: "Awa", LastName: "kone", Artifact: artifact(), PageURL: "https://badge.example.org"})
	require.NoError(t, err)

	require.Len(t, host.opened, 1)
	assert.True(t, strings.HasPrefix(host.opened[0], "https://api.whatsapp.com/send?text="))
	assert.Empty(t, host.downloaded)
	assert.Empty(t, host.prompts)
}

func TestShare_FacebookFallbackAlsoDownloads(t *testing.T) {
	host := &fakeHost{confirm: true}
	err := Share(context.Background(), host, Request{Channel: Facebook, FirstName: "Awa", LastName: "kone", Artifact: artifact(), PageURL: "https://badge.example.org"})
	require.NoError(t, err)

	require.Len(t, host.opened, 1)
	assert.True(t, strings.HasPrefix(host.opened[0], "https://www.facebook.com/sharer/sharer.php?"))
	require.Len(t, host.downloaded, 1)
	assert.Equal(t, "badge_UP_Awa_kone.png", host.downloaded[0].Name)
	require.Len(t, host.prompts, 1)
}

func TestShare_FacebookDownloadDeclined(t *testing.T) {
	host := &fakeHost{confirm: false}
	err := Share(context.Background(), host, Request{Channel: Facebook, FirstName: "Awa", LastName: "kone", Artifact: artifact()})
	require.NoError(t, err)
	assert.Len(t, host.opened, 1)
	assert.Empty(t, host.downloaded)
}
