// Package transform turns pointer gestures into the pan/zoom applied to the photo
// inside the badge zone.
package transform

import (
	"math"

	"badge-studio/core"
)

// ZoomStep is the scale change of one zoom button press.
const ZoomStep = 0.1

// Bounds limits the photo scale.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds keeps a face legible while still allowing a tight crop.
var DefaultBounds = Bounds{Min: 0.5, Max: 3}

func (b Bounds) Clamp(scale float64) float64 {
	if math.IsNaN(scale) {
		return b.Min
	}
	return math.Min(b.Max, math.Max(b.Min, scale))
}

type Phase int

const (
	Idle Phase = iota
	Dragging
	Pinching
)

func (p Phase) String() string {
	switch p {
	case Dragging:
		return "dragging"
	case Pinching:
		return "pinching"
	default:
		return "idle"
	}
}

type Point struct {
	X float64
	Y float64
}

func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Engine owns the TransformState of one badge. It is driven from a single event loop
// and is not safe for concurrent use.
type Engine struct {
	bounds Bounds
	state  core.TransformState
	phase  Phase

	dragAnchor Point

	pinchDistance float64
	pinchScale    float64
}

func NewEngine(bounds Bounds) *Engine {
	if bounds.Min <= 0 || bounds.Max < bounds.Min {
		bounds = DefaultBounds
	}
	return &Engine{
		bounds: bounds,
		state:  core.IdentityTransform,
	}
}

func (e *Engine) State() core.TransformState { return e.state }

func (e *Engine) Phase() Phase { return e.phase }

func (e *Engine) Bounds() Bounds { return e.bounds }

// Reset returns to {1, 0, 0} and drops any gesture in progress.
func (e *Engine) Reset() {
	e.state = core.IdentityTransform
	e.phase = Idle
	e.pinchDistance = 0
	e.pinchScale = 0
}

// BeginDrag starts panning. A pinch in progress is abandoned.
func (e *Engine) BeginDrag(p Point) {
	e.dragAnchor = Point{X: p.X - e.state.OffsetX, Y: p.Y - e.state.OffsetY}
	e.pinchDistance = 0
	e.phase = Dragging
}

// UpdateDrag moves the photo while dragging and reports whether the state changed.
// Offsets are not clamped: the photo may be moved fully out of the frame.
func (e *Engine) UpdateDrag(p Point) bool {
	if e.phase != Dragging {
		return false
	}
	e.state.OffsetX = p.X - e.dragAnchor.X
	e.state.OffsetY = p.Y - e.dragAnchor.Y
	return true
}

func (e *Engine) EndDrag() {
	if e.phase == Dragging {
		e.phase = Idle
	}
}

// BeginPinch anchors a two-finger zoom. An active drag is cancelled.
func (e *Engine) BeginPinch(a, b Point) {
	e.pinchDistance = Distance(a, b)
	e.pinchScale = e.state.Scale
	e.phase = Pinching
}

func (e *Engine) UpdatePinch(a, b Point) bool {
	if e.phase != Pinching || e.pinchDistance == 0 {
		return false
	}
	e.state.Scale = e.bounds.Clamp(e.pinchScale * (Distance(a, b) / e.pinchDistance))
	return true
}

func (e *Engine) EndPinch() {
	if e.phase == Pinching {
		e.phase = Idle
	}
	e.pinchDistance = 0
}

// ZoomBy applies a discrete zoom and clamps the result.
func (e *Engine) ZoomBy(delta float64) float64 {
	e.state.Scale = e.bounds.Clamp(e.state.Scale + delta)
	return e.state.Scale
}

func (e *Engine) ZoomIn() float64 { return e.ZoomBy(ZoomStep) }

func (e *Engine) ZoomOut() float64 { return e.ZoomBy(-ZoomStep) }

// SetState replaces the transform, clamping the scale.
func (e *Engine) SetState(s core.TransformState) {
	s.Scale = e.bounds.Clamp(s.Scale)
	e.state = s
}
