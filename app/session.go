// Package app holds the badge session: the single owner of the current photo,
// transform and rendered badge, driven by a UI host one event at a time.
package app

import (
	"context"
	"errors"
	"strings"

	"badge-studio/compositor"
	"badge-studio/core"
	"badge-studio/photo"
	"badge-studio/share"
	"badge-studio/transform"

	"github.com/sirupsen/logrus"
)

// User-facing notices.
const (
	MsgInvalidImage  = "Veuillez sélectionner une image valide."
	MsgTooLarge      = "L'image est trop volumineuse. Taille maximale : 10 Mo."
	MsgUnreadable    = "Impossible de lire cette image. Veuillez en choisir une autre."
	MsgMissingFields = "Veuillez remplir tous les champs."
	MsgMissingPhoto  = "Veuillez ajouter une photo."
	MsgRenderFailed  = "Une erreur est survenue lors de la génération du badge."
	MsgStorageFull   = "Votre badge n'a pas pu être enregistré dans la galerie : l'espace de stockage est plein."
)

// Notifier shows notices to the user. Alert is blocking, Warn is not.
type Notifier interface {
	Alert(message string)
	Warn(message string)
}

// Publisher receives every badge produced by Submit.
type Publisher interface {
	Publish(ctx context.Context, artifact *core.RasterArtifact, firstName, lastName string) (*core.GalleryEntry, error)
}

type Screen int

const (
	ScreenForm Screen = iota
	ScreenBadge
)

type Options struct {
	Ingestor   *photo.Ingestor
	Compositor *compositor.Compositor
	Surface    compositor.Surface
	Publisher  Publisher
	Notifier   Notifier
	Bounds     transform.Bounds

	// PageURL is advertised in share links.
	PageURL string
}

type Session struct {
	ingestor   *photo.Ingestor
	compositor *compositor.Compositor
	surface    compositor.Surface
	publisher  Publisher
	notifier   Notifier
	pageURL    string

	engine     *transform.Engine
	dispatcher *transform.Dispatcher

	photo              *core.PhotoSource
	previewVisible     bool
	placeholderVisible bool

	screen    Screen
	firstName string
	lastName  string
	artifact  *core.RasterArtifact
	published *core.GalleryEntry
}

func NewSession(opts Options) *Session {
	if opts.Ingestor == nil {
		opts.Ingestor = photo.NewIngestor()
	}
	if opts.Compositor == nil {
		opts.Compositor = compositor.New(nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = logNotifier{}
	}
	if opts.Bounds == (transform.Bounds{}) {
		opts.Bounds = transform.DefaultBounds
	}
	engine := transform.NewEngine(opts.Bounds)
	return &Session{
		ingestor:           opts.Ingestor,
		compositor:         opts.Compositor,
		surface:            opts.Surface,
		publisher:          opts.Publisher,
		notifier:           opts.Notifier,
		pageURL:            opts.PageURL,
		engine:             engine,
		dispatcher:         transform.NewDispatcher(engine),
		placeholderVisible: true,
	}
}

func (s *Session) Engine() *transform.Engine      { return s.engine }
func (s *Session) Photo() *core.PhotoSource       { return s.photo }
func (s *Session) PreviewVisible() bool           { return s.previewVisible }
func (s *Session) PlaceholderVisible() bool       { return s.placeholderVisible }
func (s *Session) Screen() Screen                 { return s.screen }
func (s *Session) Artifact() *core.RasterArtifact { return s.artifact }
func (s *Session) Published() *core.GalleryEntry  { return s.published }

// SetSurface replaces the capture surface, e.g. after a layout change.
func (s *Session) SetSurface(surface compositor.Surface) { s.surface = surface }

// HandlePointer feeds a pointer event to the transform engine.
func (s *Session) HandlePointer(ev transform.Event) bool {
	return s.dispatcher.Handle(ev)
}

// SelectPhoto validates and decodes a chosen file. On failure the user is alerted and
// the current photo is kept.
func (s *Session) SelectPhoto(ctx context.Context, f photo.File) error {
	src, err := s.ingestor.Accept(ctx, f)
	if err != nil {
		if msg := photoMessage(err); msg != "" {
			s.notifier.Alert(msg)
		}
		return err
	}

	s.photo = src
	s.previewVisible = true
	s.placeholderVisible = false
	s.engine.Reset()
	return nil
}

// CanSubmit reports whether the form holds everything a badge needs.
func (s *Session) CanSubmit(firstName, lastName string) bool {
	return s.model(firstName, lastName).Validate() == nil
}

// Submit produces the badge: validate, switch to the badge screen, reset the
// transform, measure, render, then publish. Each step waits for the previous one.
func (s *Session) Submit(ctx context.Context, firstName, lastName string) (*core.RasterArtifact, error) {
	model := s.model(firstName, lastName)
	if err := model.Validate(); err != nil {
		s.notifier.Alert(validationMessage(err))
		return nil, err
	}

	s.firstName = strings.TrimSpace(firstName)
	s.lastName = strings.TrimSpace(lastName)
	s.screen = ScreenBadge
	s.engine.Reset()

	artifact, err := s.render(ctx)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		entry, err := s.publisher.Publish(ctx, artifact, s.firstName, s.lastName)
		var perr *core.PersistenceError
		switch {
		case errors.As(err, &perr):
			s.notifier.Warn(MsgStorageFull)
		case err != nil:
			logrus.WithError(err).Warn("Failed to publish badge")
		}
		s.published = entry
	}
	return artifact, nil
}

// Export renders the badge again with the live transform and returns it with its
// download name.
func (s *Session) Export(ctx context.Context) (string, *core.RasterArtifact, error) {
	if s.screen != ScreenBadge {
		return "", nil, errors.New("no badge to export")
	}
	artifact, err := s.render(ctx)
	if err != nil {
		return "", nil, err
	}
	return share.Filename(s.firstName, s.lastName), artifact, nil
}

// Share renders the badge again and hands it to the host.
func (s *Session) Share(ctx context.Context, host share.Host, channel share.Channel) error {
	_, artifact, err := s.Export(ctx)
	if err != nil {
		return err
	}
	return share.Share(ctx, host, share.Request{
		Channel:   channel,
		FirstName: s.firstName,
		LastName:  s.lastName,
		Artifact:  artifact,
		PageURL:   s.pageURL,
	})
}

// Reset returns to an empty form.
func (s *Session) Reset() {
	s.photo = nil
	s.previewVisible = false
	s.placeholderVisible = true
	s.screen = ScreenForm
	s.firstName, s.lastName = "", ""
	s.artifact = nil
	s.published = nil
	s.engine.Reset()
}

func (s *Session) model(firstName, lastName string) core.BadgeModel {
	return core.BadgeModel{
		FirstName: firstName,
		LastName:  lastName,
		Photo:     s.photo,
		Transform: s.engine.State(),
	}
}

// render rasterises with the current transform. A failure alerts the user and keeps
// the previous artifact.
func (s *Session) render(ctx context.Context) (*core.RasterArtifact, error) {
	if s.surface == nil {
		err := &core.RenderError{Err: errors.New("no capture surface")}
		s.notifier.Alert(MsgRenderFailed)
		return nil, err
	}

	model := s.model(s.firstName, s.lastName)
	artifact, err := s.compositor.Render(ctx, model, model.Transform, s.surface)
	if err != nil {
		logrus.WithError(err).Error("Error generating badge")
		if ctx.Err() == nil {
			s.notifier.Alert(MsgRenderFailed)
		}
		return nil, err
	}
	s.artifact = artifact
	return artifact, nil
}

func photoMessage(err error) string {
	var decodeErr *core.DecodeError
	switch {
	case errors.Is(err, core.ErrInvalidType):
		return MsgInvalidImage
	case errors.Is(err, core.ErrTooLarge):
		return MsgTooLarge
	case errors.As(err, &decodeErr):
		return MsgUnreadable
	}
	return ""
}

func validationMessage(err error) string {
	if errors.Is(err, core.ErrMissingPhoto) {
		return MsgMissingPhoto
	}
	return MsgMissingFields
}

// logNotifier writes notices to the log when no UI is attached.
type logNotifier struct{}

func (logNotifier) Alert(message string) { logrus.Error(message) }
func (logNotifier) Warn(message string)  { logrus.Warn(message) }
