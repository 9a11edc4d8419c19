// Package gesture classifies raw pointer, wheel, touch and keyboard input
// into zoom, pan, click and search actions on a viewport.
package gesture

import (
	"math"
	"strings"

	"github.com/inamate/svgview/internal/viewport"
)

const (
	// DragThreshold is the Manhattan distance in pixels a press must travel
	// before it pans, and after which the trailing click is swallowed.
	DragThreshold = 5.0

	// WheelSensitivity converts wheel pixels to a scale delta.
	WheelSensitivity = 0.002

	// minWheelFactor keeps very large wheel deltas from producing a
	// non-positive scale factor.
	minWheelFactor = 0.1
)

// Viewport is the transform the router drives.
type Viewport interface {
	ZoomAt(p viewport.Point, factor float64)
	PanBy(dx, dy float64)
	ResetToFit()
	IsZoomedIn() bool
	Viewport() viewport.Size
}

// Finder is the search affordance toggled by the find chord and Escape.
type Finder interface {
	Open()
	Close()
	IsOpen() bool
}

// Links resolves and opens link targets under the pointer.
type Links interface {
	// LinkAt returns the href of the topmost link element at p, if any.
	LinkAt(p viewport.Point) (string, bool)
	// OpenLink opens href in a new browsing context.
	OpenLink(href string)
}

// State is the active interaction.
type State int

const (
	Idle State = iota
	Dragging
	TouchPan
	TouchPinch
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case TouchPan:
		return "touchPan"
	case TouchPinch:
		return "touchPinch"
	default:
		return "unknown"
	}
}

// Router is the gesture state machine for one viewport. It is not safe for
// concurrent use; hosts call Handle from their single event loop.
type Router struct {
	vp     Viewport
	finder Finder
	links  Links

	state State

	// start is where the current press began, last where the previous
	// move was applied.
	start viewport.Point
	last  viewport.Point

	// moved records whether the drag threshold was crossed since the last
	// press. A click that follows is the end of a drag, not a link click.
	moved bool

	lastDist     float64
	lastCentroid viewport.Point
}

// NewRouter creates a router in the idle state. finder and links may be nil.
func NewRouter(vp Viewport, finder Finder, links Links) *Router {
	return &Router{
		vp:     vp,
		finder: finder,
		links:  links,
	}
}

// State returns the active interaction.
func (r *Router) State() State {
	return r.state
}

// Dragging reports whether a mouse drag is in progress.
func (r *Router) Dragging() bool {
	return r.state == Dragging
}

// Handle dispatches one event and reports how the host should treat the
// originating DOM event.
func (r *Router) Handle(ev Event) Result {
	switch e := ev.(type) {
	case Wheel:
		return r.wheel(e)
	case MouseDown:
		return r.mouseDown(e)
	case MouseMove:
		return r.mouseMove(e)
	case MouseUp:
		return r.mouseUp(e)
	case Click:
		return r.click(e)
	case DoubleClick:
		r.vp.ResetToFit()
		return Result{PreventDefault: true}
	case TouchStart:
		return r.touchStart(e)
	case TouchMove:
		return r.touchMove(e)
	case TouchEnd:
		return r.touchEnd(e)
	case Key:
		return r.key(e)
	}
	return Result{}
}

func (r *Router) wheel(e Wheel) Result {
	dy := e.DeltaY
	switch e.Mode {
	case DeltaLine:
		dy *= LineHeight
	case DeltaPage:
		dy *= r.vp.Viewport().H
	}

	factor := math.Max(1-dy*WheelSensitivity, minWheelFactor)
	r.vp.ZoomAt(e.At, factor)
	return Result{PreventDefault: true}
}

func (r *Router) mouseDown(e MouseDown) Result {
	r.moved = false
	if e.Button != ButtonLeft || !r.vp.IsZoomedIn() {
		return Result{}
	}
	r.state = Dragging
	r.start = e.At
	r.last = e.At
	return Result{PreventDefault: true}
}

func (r *Router) mouseMove(e MouseMove) Result {
	if r.state != Dragging {
		return Result{}
	}
	r.follow(e.At)
	return Result{PreventDefault: true}
}

func (r *Router) mouseUp(MouseUp) Result {
	if r.state == Dragging {
		r.state = Idle
	}
	return Result{}
}

// follow pans toward p once the press has travelled past the threshold.
// The first pan applies the whole displacement since the press.
func (r *Router) follow(p viewport.Point) {
	if !r.moved {
		d := p.Sub(r.start)
		if math.Abs(d.X)+math.Abs(d.Y) < DragThreshold {
			return
		}
		r.moved = true
	}
	d := p.Sub(r.last)
	r.last = p
	r.vp.PanBy(d.X, d.Y)
}

func (r *Router) click(e Click) Result {
	if r.moved {
		r.moved = false
		return Result{PreventDefault: true}
	}
	if r.links == nil {
		return Result{}
	}
	href, ok := r.links.LinkAt(e.At)
	if !ok {
		return Result{}
	}
	r.links.OpenLink(href)
	return Result{PreventDefault: true}
}

func (r *Router) touchStart(e TouchStart) Result {
	switch len(e.Touches) {
	case 1:
		r.moved = false
		r.armPan(e.Touches[0])
		return Result{}
	case 2:
		r.armPinch(e.Touches[0], e.Touches[1])
		return Result{PreventDefault: true}
	default:
		r.state = Idle
		return Result{}
	}
}

func (r *Router) touchMove(e TouchMove) Result {
	switch {
	case r.state == TouchPinch && len(e.Touches) == 2:
		r.pinch(e.Touches[0], e.Touches[1])
		return Result{PreventDefault: true}
	case r.state == TouchPan && len(e.Touches) == 1:
		r.follow(e.Touches[0])
		return Result{PreventDefault: true}
	}
	return Result{}
}

func (r *Router) touchEnd(e TouchEnd) Result {
	switch len(e.Touches) {
	case 1:
		// Re-anchor on the remaining finger so the next move continues
		// from where it is rather than jumping.
		r.armPan(e.Touches[0])
	case 2:
		r.armPinch(e.Touches[0], e.Touches[1])
	default:
		r.state = Idle
	}
	return Result{}
}

func (r *Router) armPan(p viewport.Point) {
	if !r.vp.IsZoomedIn() {
		r.state = Idle
		return
	}
	r.state = TouchPan
	r.start = p
	r.last = p
}

func (r *Router) armPinch(a, b viewport.Point) {
	r.state = TouchPinch
	r.lastDist = viewport.Dist(a, b)
	r.lastCentroid = viewport.Midpoint(a, b)
}

// pinch zooms by the change in finger spread around the centroid and pans
// by the centroid's drift, so the content tracks both fingers.
func (r *Router) pinch(a, b viewport.Point) {
	dist := viewport.Dist(a, b)
	c := viewport.Midpoint(a, b)

	if r.lastDist > 0 && dist > 0 {
		r.vp.ZoomAt(c, dist/r.lastDist)
	}
	drift := c.Sub(r.lastCentroid)
	r.vp.PanBy(drift.X, drift.Y)

	r.moved = true
	r.lastDist = dist
	r.lastCentroid = c
}

func (r *Router) key(e Key) Result {
	if r.finder == nil {
		return Result{}
	}
	if (e.Ctrl || e.Meta) && strings.EqualFold(e.Key, "f") {
		r.finder.Open()
		return Result{PreventDefault: true}
	}
	if e.Key == "Escape" && r.finder.IsOpen() {
		r.finder.Close()
		return Result{PreventDefault: true}
	}
	return Result{}
}
