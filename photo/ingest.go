// Package photo validates and decodes user supplied pictures.
package photo

import (
	"bytes"
	"context"
	"strings"

	"badge-studio/core"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// DefaultMaxBytes is the largest accepted upload (10 MiB).
const DefaultMaxBytes = 10 * 1024 * 1024

const (
	portraitFocus = 1.0 / 3.0
	centerFocus   = 0.5
)

// File is a picked or dropped file as reported by the host.
type File struct {
	Name string
	Type string
	Size int64
	Data []byte
}

type Ingestor struct {
	MaxBytes int64
}

func NewIngestor() *Ingestor {
	return &Ingestor{MaxBytes: DefaultMaxBytes}
}

// Accept validates the file and decodes it. Nothing is returned on failure, so the
// caller's previous photo stays in place.
func (in *Ingestor) Accept(ctx context.Context, f File) (*core.PhotoSource, error) {
	log := logrus.WithFields(logrus.Fields{
		"file_name": f.Name,
		"file_type": f.Type,
	})

	if err := in.validate(f); err != nil {
		log.WithError(err).Info("Photo rejected")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		log.WithError(err).Warn("Failed to decode photo")
		return nil, &core.DecodeError{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, &core.DecodeError{Err: errEmptyImage}
	}

	src := &core.PhotoSource{
		Name:     f.Name,
		MIMEType: f.Type,
		Data:     f.Data,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Image:    img,
		FocusY:   centerFocus,
	}
	if src.Portrait() {
		src.FocusY = portraitFocus
	}

	log.WithFields(logrus.Fields{
		"width":  src.Width,
		"height": src.Height,
	}).Debug("Photo decoded")
	return src, nil
}

func (in *Ingestor) validate(f File) error {
	if !strings.HasPrefix(f.Type, "image/") {
		return &core.ValidationError{Field: "photo", Reason: core.ErrInvalidType}
	}
	size := f.Size
	if n := int64(len(f.Data)); n > size {
		size = n
	}
	limit := in.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if size > limit {
		return &core.ValidationError{Field: "photo", Reason: core.ErrTooLarge}
	}
	return nil
}
