package compositor

import (
	"image"
	"image/color"
	"math"
)

// ellipseMask is an anti-aliased ellipse inscribed in its bounds. When inner > 0 only
// the ring between the outer edge and inner pixels inwards is opaque.
type ellipseMask struct {
	rect  image.Rectangle
	inner float64
}

func (m ellipseMask) ColorModel() color.Model { return color.AlphaModel }

func (m ellipseMask) Bounds() image.Rectangle { return m.rect }

func (m ellipseMask) At(x, y int) color.Color {
	rx := float64(m.rect.Dx()) / 2
	ry := float64(m.rect.Dy()) / 2
	if rx <= 0 || ry <= 0 {
		return color.Alpha{}
	}
	cx := float64(m.rect.Min.X) + rx
	cy := float64(m.rect.Min.Y) + ry

	// Distance from the edge, measured in pixels along the smaller radius.
	dx := (float64(x) + 0.5 - cx) / rx
	dy := (float64(y) + 0.5 - cy) / ry
	r := math.Min(rx, ry)
	d := (1 - math.Hypot(dx, dy)) * r

	coverage := clamp01(d + 0.5)
	if m.inner > 0 {
		coverage = math.Min(coverage, clamp01(m.inner-d+0.5))
	}
	return color.Alpha{A: uint8(math.Round(coverage * 255))}
}

// frameMask is the border of a rectangle, width pixels thick.
type frameMask struct {
	rect  image.Rectangle
	width int
}

func (m frameMask) ColorModel() color.Model { return color.AlphaModel }

func (m frameMask) Bounds() image.Rectangle { return m.rect }

func (m frameMask) At(x, y int) color.Color {
	p := image.Pt(x, y)
	if !p.In(m.rect) {
		return color.Alpha{}
	}
	if p.In(m.rect.Inset(m.width)) {
		return color.Alpha{}
	}
	return color.Alpha{A: 0xff}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
