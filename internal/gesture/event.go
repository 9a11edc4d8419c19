package gesture

import "github.com/inamate/svgview/internal/viewport"

// Event is a synthetic input event. Hosts translate DOM events into these;
// tests construct them directly.
type Event interface {
	isEvent()
}

// DeltaMode mirrors WheelEvent.deltaMode.
type DeltaMode int

const (
	DeltaPixel DeltaMode = iota
	DeltaLine
	DeltaPage
)

// LineHeight is the pixel size assumed for one line of wheel scroll.
const LineHeight = 16.0

// Wheel is a mouse wheel or trackpad scroll at a viewport position.
type Wheel struct {
	At     viewport.Point
	DeltaY float64
	Mode   DeltaMode
}

// MouseButton identifies a mouse button, numbered as in MouseEvent.button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota
	ButtonMiddle
	ButtonRight
)

// MouseDown is a mouse button press.
type MouseDown struct {
	At     viewport.Point
	Button MouseButton
}

// MouseMove is a pointer movement.
type MouseMove struct {
	At viewport.Point
}

// MouseUp is a mouse button release.
type MouseUp struct {
	At viewport.Point
}

// Click is a completed click.
type Click struct {
	At viewport.Point
}

// DoubleClick is a completed double click.
type DoubleClick struct {
	At viewport.Point
}

// TouchStart, TouchMove and TouchEnd carry every touch still active after
// the event, as TouchEvent.touches does.
type TouchStart struct {
	Touches []viewport.Point
}

type TouchMove struct {
	Touches []viewport.Point
}

type TouchEnd struct {
	Touches []viewport.Point
}

// Key is a key press. Key holds KeyboardEvent.key.
type Key struct {
	Key  string
	Ctrl bool
	Meta bool
}

func (Wheel) isEvent()       {}
func (MouseDown) isEvent()   {}
func (MouseMove) isEvent()   {}
func (MouseUp) isEvent()     {}
func (Click) isEvent()       {}
func (DoubleClick) isEvent() {}
func (TouchStart) isEvent()  {}
func (TouchMove) isEvent()   {}
func (TouchEnd) isEvent()    {}
func (Key) isEvent()         {}

// Result tells the host what to do with the originating DOM event.
type Result struct {
	// PreventDefault asks the host to suppress the browser's default action
	// (page scroll, native find, link navigation, text selection).
	PreventDefault bool
}
