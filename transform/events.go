package transform

type EventType int

const (
	MouseDown EventType = iota
	MouseMove
	MouseUp
	MouseLeave
	TouchStart
	TouchMove
	TouchEnd
	Wheel
)

// Event is a pointer event as delivered by the host. Touches lists the active touch
// points; DeltaY is the wheel delta (negative zooms in).
type Event struct {
	Type    EventType
	Point   Point
	Touches []Point
	DeltaY  float64
}

// wheelFactor converts one notch of wheel delta into scale.
const wheelFactor = 0.001

// Dispatcher routes raw pointer events to the engine.
type Dispatcher struct {
	engine *Engine
}

func NewDispatcher(e *Engine) *Dispatcher {
	return &Dispatcher{engine: e}
}

// Handle applies the event and reports whether the transform changed.
func (d *Dispatcher) Handle(ev Event) bool {
	e := d.engine
	before := e.State()

	switch ev.Type {
	case MouseDown:
		e.BeginDrag(ev.Point)
	case MouseMove:
		e.UpdateDrag(ev.Point)
	case MouseUp, MouseLeave:
		e.EndDrag()
	case TouchStart:
		switch len(ev.Touches) {
		case 1:
			e.BeginDrag(ev.Touches[0])
		case 2:
			e.BeginPinch(ev.Touches[0], ev.Touches[1])
		}
	case TouchMove:
		switch {
		case len(ev.Touches) == 2 && e.Phase() == Pinching:
			e.UpdatePinch(ev.Touches[0], ev.Touches[1])
		case len(ev.Touches) == 1:
			e.UpdateDrag(ev.Touches[0])
		}
	case TouchEnd:
		// Lifting one finger of a pinch ends the pinch; the remaining finger does not
		// resume a drag until a new touch starts.
		if len(ev.Touches) < 2 {
			e.EndPinch()
		}
		if len(ev.Touches) == 0 {
			e.EndDrag()
		}
	case Wheel:
		e.ZoomBy(-ev.DeltaY * wheelFactor)
	}

	return e.State() != before
}
