// Package share names exported badges and hands them to the host's sharing
// primitives, falling back to pre-filled share links.
package share

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"badge-studio/core"

	"github.com/sirupsen/logrus"
)

type Channel int

const (
	WhatsApp Channel = iota
	Facebook
)

func (c Channel) String() string {
	switch c {
	case WhatsApp:
		return "whatsapp"
	case Facebook:
		return "facebook"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Title accompanies natively shared files.
const Title = "Mon badge UP – Le Renouveau"

const (
	createPrompt      = "📲 Créez votre badge : "
	facebookReminder  = "Votre badge a été téléchargé.\n\nSur Facebook, cliquez sur \"Photo/Vidéo\" pour ajouter votre badge à la publication."
	whatsAppShareBase = "https://api.whatsapp.com/send"
	facebookShareBase = "https://www.facebook.com/sharer/sharer.php"
)

var whitespace = regexp.MustCompile(`\s+`)

// Filename is the download name of a badge, e.g. badge_UP_Awa_kone.png.
func Filename(firstName, lastName string) string {
	name := fmt.Sprintf("badge_UP_%s_%s.png", strings.TrimSpace(firstName), strings.TrimSpace(lastName))
	return whitespace.ReplaceAllString(name, "_")
}

// Caption is the promotional text shared alongside the badge.
func Caption(channel Channel, firstName, lastName string) string {
	name := core.DisplayName(firstName, lastName)
	switch channel {
	case WhatsApp:
		return "🗳️ *Moi " + name + ", je maintiens le CAP !*\n\n" +
			"✅ Je soutiens UP – Le Renouveau pour les élections législatives et communales 2025.\n\n" +
			"💚 Rejoignez le mouvement !\n\n" +
			"#UPLeRenouveau #JeMaintiensLeCap #Elections2025 #Benin"
	default:
		return "🗳️ Moi " + name + ", je maintiens le CAP !\n\n" +
			"✅ Je soutiens UP – Le Renouveau pour les élections législatives et communales 2025.\n\n" +
			"💚 Rejoignez le mouvement !\n\n" +
			"#UPLeRenouveau #JeMaintiensLeCap #Elections2025"
	}
}

// URL is the pre-filled share link used when the host cannot share files.
func URL(channel Channel, caption, pageURL string) string {
	switch channel {
	case WhatsApp:
		q := url.Values{}
		q.Set("text", caption+"\n\n"+createPrompt+pageURL)
		return whatsAppShareBase + "?" + encode(q)
	default:
		q := url.Values{}
		q.Set("u", pageURL)
		q.Set("quote", caption)
		return facebookShareBase + "?" + encode(q)
	}
}

// encode escapes spaces as %20 like encodeURIComponent, which share targets expect.
func encode(q url.Values) string {
	return strings.ReplaceAll(q.Encode(), "+", "%20")
}

// File is a badge ready to hand to the host.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Host is the platform's share and download surface.
type Host interface {
	CanShareFiles() bool
	ShareFile(ctx context.Context, file File, title, text string) error
	OpenURL(ctx context.Context, rawURL string) error
	Download(ctx context.Context, file File) error
	Confirm(message string) bool
}

// Request describes one share action.
type Request struct {
	Channel   Channel
	FirstName string
	LastName  string
	Artifact  *core.RasterArtifact
	PageURL   string
}

// Share sends the badge through the native file share when available. Otherwise it
// opens the channel's share link; for Facebook the badge is also offered as a
// download so it can be attached by hand.
func Share(ctx context.Context, host Host, req Request) error {
	caption := Caption(req.Channel, req.FirstName, req.LastName)
	log := logrus.WithField("channel", req.Channel.String())

	var file File
	if req.Artifact != nil {
		file = File{
			Name:     Filename(req.FirstName, req.LastName),
			MIMEType: "image/png",
			Data:     req.Artifact.PNG,
		}
	}

	if req.Artifact != nil && host.CanShareFiles() {
		err := host.ShareFile(ctx, file, Title, caption)
		if err == nil {
			log.Debug("Badge shared natively")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Info("Native share failed, using share link")
	}

	if err := host.OpenURL(ctx, URL(req.Channel, caption, req.PageURL)); err != nil {
		return fmt.Errorf("failed to open %s share link: %w", req.Channel, err)
	}

	if req.Channel == Facebook && req.Artifact != nil && host.Confirm(facebookReminder) {
		if err := host.Download(ctx, file); err != nil {
			return fmt.Errorf("failed to download badge: %w", err)
		}
	}
	return nil
}
