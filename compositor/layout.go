package compositor

import (
	"errors"
	"image"
	"image/color"
	"math"

	"badge-studio/transform"
)

type Shape int

const (
	Circle Shape = iota
	Square
)

// Layout describes the badge as laid out on screen. All geometry is in on-screen
// pixels relative to the badge's top-left corner; the badge is square.
type Layout struct {
	Width float64

	Zone      transform.Rect
	Shape     Shape
	ZoneFill  color.NRGBA
	RingWidth float64
	RingColor color.NRGBA

	Label           transform.Rect
	LabelColor      color.NRGBA
	LabelBackground color.NRGBA
	FontSize        float64

	Caption         string
	CaptionRect     transform.Rect
	CaptionColor    color.NRGBA
	CaptionFontSize float64

	QRText string
	QRRect transform.Rect
}

// Surface reports the live layout of the badge element at capture time.
type Surface interface {
	Measure() (Layout, error)
}

// StaticSurface is a Surface whose layout never changes.
type StaticSurface Layout

func (s StaticSurface) Measure() (Layout, error) {
	l := Layout(s)
	if l.Width <= 0 || math.IsNaN(l.Width) || math.IsInf(l.Width, 0) {
		return l, errNotLaidOut
	}
	return l, nil
}

var errNotLaidOut = errors.New("badge element has no on-screen width")

var (
	campaignGreen  = color.NRGBA{R: 0x1a, G: 0x5f, B: 0x2a, A: 0xff}
	campaignDark   = color.NRGBA{R: 0x0d, G: 0x33, B: 0x16, A: 0xff}
	campaignYellow = color.NRGBA{R: 0xf4, G: 0xc2, B: 0x0d, A: 0xff}
	white          = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	placeholder    = color.NRGBA{R: 0xe8, G: 0xe8, B: 0xe8, A: 0xff}
)

// DefaultCaption is printed under the name.
const DefaultCaption = "JE MAINTIENS LE CAP !"

// DefaultLayout is the campaign badge at the given on-screen width.
func DefaultLayout(width float64) Layout {
	return Layout{
		Width:     width,
		Zone:      transform.Rect{X: 0.22 * width, Y: 0.12 * width, W: 0.56 * width, H: 0.56 * width},
		Shape:     Circle,
		ZoneFill:  placeholder,
		RingWidth: 0.012 * width,
		RingColor: white,

		Label:           transform.Rect{X: 0.08 * width, Y: 0.73 * width, W: 0.84 * width, H: 0.11 * width},
		LabelColor:      campaignGreen,
		LabelBackground: campaignYellow,
		FontSize:        0.065 * width,

		Caption:         DefaultCaption,
		CaptionRect:     transform.Rect{X: 0.08 * width, Y: 0.86 * width, W: 0.84 * width, H: 0.08 * width},
		CaptionColor:    white,
		CaptionFontSize: 0.045 * width,

		QRRect: transform.Rect{X: 0.86 * width, Y: 0.02 * width, W: 0.12 * width, H: 0.12 * width},
	}
}

// toOutput converts an on-screen rect to output pixels.
func toOutput(r transform.Rect, scale float64) image.Rectangle {
	x0 := int(math.Round(r.X * scale))
	y0 := int(math.Round(r.Y * scale))
	x1 := int(math.Round((r.X + r.W) * scale))
	y1 := int(math.Round((r.Y + r.H) * scale))
	return image.Rect(x0, y0, x1, y1)
}
