package transform

import "badge-studio/core"

type Size struct {
	W float64
	H float64
}

type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

type Axis int

const (
	AxisNone Axis = iota
	AxisX
	AxisY
)

// Fit is the cover-fitted photo size and the axis left overflowing the zone.
type Fit struct {
	Size     Size
	Overflow Axis
}

// FitToZone scales the photo so that it covers the whole zone. One axis matches the
// zone exactly and the other may overflow; clipping is left to the caller.
func FitToZone(zone, photo Size) Fit {
	if zone.W <= 0 || zone.H <= 0 || photo.W <= 0 || photo.H <= 0 {
		return Fit{Size: zone}
	}
	zoneRatio := zone.W / zone.H
	photoRatio := photo.W / photo.H

	switch {
	case photoRatio > zoneRatio:
		return Fit{Size: Size{W: zone.H * photoRatio, H: zone.H}, Overflow: AxisX}
	case photoRatio < zoneRatio:
		return Fit{Size: Size{W: zone.W, H: zone.W / photoRatio}, Overflow: AxisY}
	default:
		return Fit{Size: zone}
	}
}

// Place computes where the photo lands inside the zone, in zone coordinates. The
// cover-fitted photo is centred horizontally and positioned vertically at focusY; the
// transform then scales it about its own centre and translates it.
func Place(zone, photo Size, focusY float64, t core.TransformState) Rect {
	fit := FitToZone(zone, photo).Size
	if focusY < 0 || focusY > 1 {
		focusY = 0.5
	}

	left := (zone.W - fit.W) * 0.5
	top := (zone.H - fit.H) * focusY
	cx := left + fit.W/2 + t.OffsetX
	cy := top + fit.H/2 + t.OffsetY

	w := fit.W * t.Scale
	h := fit.H * t.Scale
	return Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}
}
