// Package viewport holds the zoom/pan transform that maps diagram (document)
// coordinates onto the on-screen viewport, and keeps it inside valid bounds.
package viewport

import "math"

const (
	// MaxScale is the largest zoom factor allowed.
	MaxScale = 20.0

	// FitMargin leaves a 5% border around the document at fit scale.
	FitMargin = 0.95

	// ZoomEpsilon absorbs floating-point noise around the fit boundary.
	ZoomEpsilon = 0.001
)

// Transform maps document coordinates to screen coordinates:
// screen = document*Scale + (TX, TY).
type Transform struct {
	Scale float64
	TX    float64
	TY    float64
}

// Matrix returns the transform as an affine matrix.
func (t Transform) Matrix() Matrix2D {
	return Translate(t.TX, t.TY).Multiply(Scale(t.Scale, t.Scale))
}

// Cursor is the pointer affordance shown over the viewport.
type Cursor string

// Cursor values, named as the CSS cursor keywords.
const (
	CursorDefault  Cursor = "default"
	CursorGrab     Cursor = "grab"
	CursorGrabbing Cursor = "grabbing"
)

// FitScale returns the largest scale at which content fits entirely inside
// the viewport, with FitMargin applied. Degenerate sizes yield 1.
func FitScale(vp, content Size) float64 {
	if vp.IsEmpty() || content.IsEmpty() {
		return 1
	}
	return math.Min(vp.W/content.W, vp.H/content.H) * FitMargin
}

// State is the transform state of one viewport instance. Every mutating
// method re-establishes the clamp/center invariant before returning.
type State struct {
	viewport Size
	content  Size
	t        Transform
}

// NewState creates a state for content of the given size shown in a viewport
// of the given size. The transform starts at identity scale; callers
// normally follow up with ResetToFit.
func NewState(vp, content Size) *State {
	return &State{
		viewport: vp,
		content:  content,
		t:        Transform{Scale: 1},
	}
}

// Transform returns the current transform.
func (s *State) Transform() Transform {
	return s.t
}

// Viewport returns the current viewport size.
func (s *State) Viewport() Size {
	return s.viewport
}

// Content returns the document size.
func (s *State) Content() Size {
	return s.content
}

// FitScale returns the fit scale for the current viewport and content.
func (s *State) FitScale() float64 {
	return FitScale(s.viewport, s.content)
}

// ResetToFit sets the scale to the fit scale and centers the content.
func (s *State) ResetToFit() {
	s.t.Scale = s.FitScale()
	s.clamp()
}

// Resize records a new viewport size and resets to fit.
func (s *State) Resize(vp Size) {
	s.viewport = vp
	s.ResetToFit()
}

// ZoomAt multiplies the scale by factor, keeping the document point under
// screen point p fixed. A result at or below the fit scale snaps back to
// ResetToFit instead.
func (s *State) ZoomAt(p Point, factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}

	fit := s.FitScale()
	next := math.Min(s.t.Scale*factor, MaxScale)
	if next <= fit {
		s.ResetToFit()
		return
	}

	ratio := next / s.t.Scale
	s.t.TX = p.X - ratio*(p.X-s.t.TX)
	s.t.TY = p.Y - ratio*(p.Y-s.t.TY)
	s.t.Scale = next
	s.clamp()
}

// PanBy shifts the translation by (dx, dy). At fit scale the clamp
// immediately re-centers, so this is effectively a no-op there.
func (s *State) PanBy(dx, dy float64) {
	s.t.TX += dx
	s.t.TY += dy
	s.clamp()
}

// IsZoomedIn reports whether the scale is meaningfully above fit scale.
// Panning is only permitted when this is true.
func (s *State) IsZoomedIn() bool {
	return s.t.Scale > s.FitScale()+ZoomEpsilon
}

// Cursor returns the affordance for the current transform.
func (s *State) Cursor(dragging bool) Cursor {
	if !s.IsZoomedIn() {
		return CursorDefault
	}
	if dragging {
		return CursorGrabbing
	}
	return CursorGrab
}

// FocusRect zooms so that document rect r fills the viewport, scaling no
// higher than limit, and centers r as far as the clamp allows. A target at
// or below the fit scale resets to fit.
func (s *State) FocusRect(r Rect, limit float64) {
	scale := limit
	if !r.IsEmpty() {
		scale = math.Min(FitScale(s.viewport, r.Size()), limit)
	}
	scale = math.Min(scale, MaxScale)
	if scale <= s.FitScale()+ZoomEpsilon {
		s.ResetToFit()
		return
	}

	s.t.Scale = scale
	at := s.DocumentToScreen(r.Center())
	s.t.TX += s.viewport.W/2 - at.X
	s.t.TY += s.viewport.H/2 - at.Y
	s.clamp()
}

// ScreenToDocument maps a viewport point back into document space.
func (s *State) ScreenToDocument(p Point) Point {
	return s.t.Matrix().Invert().TransformPoint(p)
}

// DocumentToScreen maps a document point into viewport space.
func (s *State) DocumentToScreen(p Point) Point {
	return s.t.Matrix().TransformPoint(p)
}

// clamp keeps the content against the viewport edges on axes where it
// overflows, and centers it on axes where it does not.
func (s *State) clamp() {
	s.t.TX = clampAxis(s.t.TX, s.viewport.W, s.content.W*s.t.Scale)
	s.t.TY = clampAxis(s.t.TY, s.viewport.H, s.content.H*s.t.Scale)
}

func clampAxis(t, vp, scaled float64) float64 {
	if scaled > vp {
		return math.Max(vp-scaled, math.Min(0, t))
	}
	return (vp - scaled) / 2
}
