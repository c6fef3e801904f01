package core

import (
	"image"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OutputSize is the edge length, in pixels, of every exported badge.
const OutputSize = 1080

type (
	// PhotoSource is a validated and decoded user photo.
	PhotoSource struct {
		Name     string
		MIMEType string
		Data     []byte
		Width    int
		Height   int
		Image    image.Image
		// FocusY is the vertical point (0 top, 1 bottom) kept visible when the
		// cover-fit overflows vertically.
		FocusY float64
	}

	// TransformState is the pan/zoom applied to the photo inside the zone.
	TransformState struct {
		Scale   float64 `json:"scale"`
		OffsetX float64 `json:"offsetX"`
		OffsetY float64 `json:"offsetY"`
	}

	BadgeModel struct {
		FirstName string
		LastName  string
		Photo     *PhotoSource
		Transform TransformState
	}

	// RasterArtifact is an encoded badge. It is regenerated on every export.
	RasterArtifact struct {
		PNG        []byte
		Width      int
		Height     int
		Transform  TransformState
		RenderedAt time.Time
	}
)

// IdentityTransform is the state every new badge starts from.
var IdentityTransform = TransformState{Scale: 1}

func (p *PhotoSource) DataURL() string {
	if p == nil {
		return ""
	}
	return EncodeDataURL(p.MIMEType, p.Data)
}

func (p *PhotoSource) Portrait() bool {
	return p != nil && p.Height > p.Width
}

func (a *RasterArtifact) DataURL() string {
	if a == nil {
		return ""
	}
	return EncodeDataURL("image/png", a.PNG)
}

// Validate checks that a badge can be produced from the model.
func (m BadgeModel) Validate() error {
	if strings.TrimSpace(m.FirstName) == "" {
		return &ValidationError{Field: "firstName", Reason: ErrMissingName}
	}
	if strings.TrimSpace(m.LastName) == "" {
		return &ValidationError{Field: "lastName", Reason: ErrMissingName}
	}
	if m.Photo == nil || m.Photo.Image == nil {
		return &ValidationError{Field: "photo", Reason: ErrMissingPhoto}
	}
	return nil
}

// DisplayName is the label printed on the badge, e.g. "Awa KONE".
func (m BadgeModel) DisplayName() string {
	return DisplayName(m.FirstName, m.LastName)
}

func DisplayName(firstName, lastName string) string {
	first := strings.TrimSpace(firstName)
	last := cases.Upper(language.French).String(strings.TrimSpace(lastName))
	return strings.TrimSpace(first + " " + last)
}
