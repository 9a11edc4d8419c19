package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/svgview/internal/viewport"
)

type fakeFinder struct {
	open   bool
	opens  int
	closes int
}

func (f *fakeFinder) Open()        { f.open = true; f.opens++ }
func (f *fakeFinder) Close()       { f.open = false; f.closes++ }
func (f *fakeFinder) IsOpen() bool { return f.open }

type fakeLinks struct {
	href   string
	opened []string
}

func (l *fakeLinks) LinkAt(viewport.Point) (string, bool) {
	return l.href, l.href != ""
}

func (l *fakeLinks) OpenLink(href string) {
	l.opened = append(l.opened, href)
}

type fixture struct {
	vp     *viewport.State
	finder *fakeFinder
	links  *fakeLinks
	router *Router
}

func newFixture() *fixture {
	// fit = 0.76, centered at (20, 110)
	vp := viewport.NewState(viewport.Size{W: 800, H: 600}, viewport.Size{W: 1000, H: 500})
	vp.ResetToFit()
	f := &fixture{
		vp:     vp,
		finder: &fakeFinder{},
		links:  &fakeLinks{href: "https://example.com/target"},
	}
	f.router = NewRouter(vp, f.finder, f.links)
	return f
}

// zoomed returns a fixture at scale 3.04 with translation (-1120, -460),
// well inside the clamp range on both axes.
func zoomed(t *testing.T) *fixture {
	t.Helper()
	f := newFixture()
	f.vp.ZoomAt(pt(400, 300), 4)
	require.True(t, f.vp.IsZoomedIn())
	return f
}

func pt(x, y float64) viewport.Point {
	return viewport.Point{X: x, Y: y}
}

func TestWheelZoomsInOnScrollUp(t *testing.T) {
	f := newFixture()

	res := f.router.Handle(Wheel{At: pt(400, 300), DeltaY: -100})

	assert.True(t, res.PreventDefault)
	assert.InDelta(t, 0.76*1.2, f.vp.Transform().Scale, 1e-9)
	assert.Equal(t, Idle, f.router.State())
}

func TestWheelScrollDownAtFitStaysAtFit(t *testing.T) {
	f := newFixture()
	before := f.vp.Transform()

	f.router.Handle(Wheel{At: pt(100, 100), DeltaY: 120})

	assert.Equal(t, before, f.vp.Transform())
}

func TestWheelDeltaModes(t *testing.T) {
	f := newFixture()
	f.router.Handle(Wheel{At: pt(400, 300), DeltaY: -3, Mode: DeltaLine})
	assert.InDelta(t, 0.76*(1+48*WheelSensitivity), f.vp.Transform().Scale, 1e-9)

	f = newFixture()
	f.router.Handle(Wheel{At: pt(400, 300), DeltaY: -0.5, Mode: DeltaPage})
	assert.InDelta(t, 0.76*(1+300*WheelSensitivity), f.vp.Transform().Scale, 1e-9)
}

func TestWheelHugeDeltaDoesNotInvert(t *testing.T) {
	f := zoomed(t)
	f.vp.ZoomAt(pt(400, 300), 5) // 15.2

	f.router.Handle(Wheel{At: pt(400, 300), DeltaY: 100000})

	assert.InDelta(t, 15.2*minWheelFactor, f.vp.Transform().Scale, 1e-9)
}

func TestMouseDownAtFitDoesNotDrag(t *testing.T) {
	f := newFixture()
	before := f.vp.Transform()

	f.router.Handle(MouseDown{At: pt(100, 100)})
	f.router.Handle(MouseMove{At: pt(300, 300)})

	assert.Equal(t, Idle, f.router.State())
	assert.Equal(t, before, f.vp.Transform())
}

func TestRightButtonDoesNotDrag(t *testing.T) {
	f := zoomed(t)

	f.router.Handle(MouseDown{At: pt(100, 100), Button: ButtonRight})

	assert.Equal(t, Idle, f.router.State())
}

func TestDragBelowThresholdDoesNotPan(t *testing.T) {
	f := zoomed(t)
	before := f.vp.Transform()

	f.router.Handle(MouseDown{At: pt(400, 300)})
	require.Equal(t, Dragging, f.router.State())
	f.router.Handle(MouseMove{At: pt(402, 302)})

	assert.Equal(t, before, f.vp.Transform())
}

func TestDragAtThresholdPansByFullDisplacement(t *testing.T) {
	f := zoomed(t)
	before := f.vp.Transform()

	f.router.Handle(MouseDown{At: pt(400, 300)})
	f.router.Handle(MouseMove{At: pt(402, 302)})
	f.router.Handle(MouseMove{At: pt(403, 302)})

	after := f.vp.Transform()
	assert.InDelta(t, before.TX+3, after.TX, 1e-9)
	assert.InDelta(t, before.TY+2, after.TY, 1e-9)

	f.router.Handle(MouseMove{At: pt(413, 282)})
	after = f.vp.Transform()
	assert.InDelta(t, before.TX+13, after.TX, 1e-9)
	assert.InDelta(t, before.TY-18, after.TY, 1e-9)
}

func TestClickAfterDragIsSuppressed(t *testing.T) {
	f := zoomed(t)

	f.router.Handle(MouseDown{At: pt(400, 300)})
	f.router.Handle(MouseMove{At: pt(420, 300)})
	f.router.Handle(MouseUp{At: pt(420, 300)})
	assert.Equal(t, Idle, f.router.State())

	res := f.router.Handle(Click{At: pt(420, 300)})
	assert.True(t, res.PreventDefault)
	assert.Empty(t, f.links.opened)
}

func TestClickAfterSmallWiggleOpensLink(t *testing.T) {
	f := zoomed(t)

	f.router.Handle(MouseDown{At: pt(400, 300)})
	f.router.Handle(MouseMove{At: pt(401, 301)})
	f.router.Handle(MouseUp{At: pt(401, 301)})
	res := f.router.Handle(Click{At: pt(401, 301)})

	assert.True(t, res.PreventDefault)
	assert.Equal(t, []string{"https://example.com/target"}, f.links.opened)
}

func TestClickWithoutLinkLetsDefaultThrough(t *testing.T) {
	f := newFixture()
	f.links.href = ""

	f.router.Handle(MouseDown{At: pt(10, 10)})
	f.router.Handle(MouseUp{At: pt(10, 10)})
	res := f.router.Handle(Click{At: pt(10, 10)})

	assert.False(t, res.PreventDefault)
	assert.Empty(t, f.links.opened)
}

func TestNextPressClearsDragFlag(t *testing.T) {
	f := zoomed(t)

	f.router.Handle(MouseDown{At: pt(400, 300)})
	f.router.Handle(MouseMove{At: pt(450, 300)})
	f.router.Handle(MouseUp{At: pt(450, 300)})

	f.router.Handle(MouseDown{At: pt(450, 300)})
	f.router.Handle(MouseUp{At: pt(450, 300)})
	f.router.Handle(Click{At: pt(450, 300)})

	assert.Len(t, f.links.opened, 1)
}

func TestDoubleClickAlwaysResetsToFit(t *testing.T) {
	fit := newFixture().vp.Transform()

	f := zoomed(t)
	f.router.Handle(MouseDown{At: pt(400, 300)})
	f.router.Handle(MouseMove{At: pt(480, 350)})

	res := f.router.Handle(DoubleClick{At: pt(480, 350)})

	assert.True(t, res.PreventDefault)
	assert.Equal(t, fit, f.vp.Transform())
}

func TestSingleTouchAtFitStaysIdle(t *testing.T) {
	f := newFixture()

	f.router.Handle(TouchStart{Touches: []viewport.Point{pt(100, 100)}})

	assert.Equal(t, Idle, f.router.State())
}

func TestTouchPanRespectsThreshold(t *testing.T) {
	f := zoomed(t)
	before := f.vp.Transform()

	f.router.Handle(TouchStart{Touches: []viewport.Point{pt(200, 200)}})
	require.Equal(t, TouchPan, f.router.State())

	f.router.Handle(TouchMove{Touches: []viewport.Point{pt(202, 201)}})
	assert.Equal(t, before, f.vp.Transform())

	res := f.router.Handle(TouchMove{Touches: []viewport.Point{pt(210, 205)}})
	assert.True(t, res.PreventDefault)
	after := f.vp.Transform()
	assert.InDelta(t, before.TX+10, after.TX, 1e-9)
	assert.InDelta(t, before.TY+5, after.TY, 1e-9)

	f.router.Handle(TouchEnd{})
	assert.Equal(t, Idle, f.router.State())
}

func TestPinchApartZoomsIn(t *testing.T) {
	f := newFixture()

	f.router.Handle(TouchStart{Touches: []viewport.Point{pt(300, 300), pt(500, 300)}})
	require.Equal(t, TouchPinch, f.router.State())

	f.router.Handle(TouchMove{Touches: []viewport.Point{pt(250, 300), pt(550, 300)}})

	assert.InDelta(t, 0.76*1.5, f.vp.Transform().Scale, 1e-9)
	assert.Equal(t, TouchPinch, f.router.State())
}

func TestPinchCentroidDriftPans(t *testing.T) {
	f := zoomed(t)
	before := f.vp.Transform()

	f.router.Handle(TouchStart{Touches: []viewport.Point{pt(300, 300), pt(500, 300)}})
	f.router.Handle(TouchMove{Touches: []viewport.Point{pt(310, 320), pt(510, 320)}})

	after := f.vp.Transform()
	assert.InDelta(t, before.Scale, after.Scale, 1e-9)
	assert.InDelta(t, before.TX+10, after.TX, 1e-9)
	assert.InDelta(t, before.TY+20, after.TY, 1e-9)
}

func TestPinchReleaseToOneFingerContinuesPanning(t *testing.T) {
	f := zoomed(t)

	f.router.Handle(TouchStart{Touches: []viewport.Point{pt(300, 300), pt(500, 300)}})
	f.router.Handle(TouchMove{Touches: []viewport.Point{pt(290, 300), pt(510, 300)}})
	atRelease := f.vp.Transform()

	f.router.Handle(TouchEnd{Touches: []viewport.Point{pt(510, 300)}})
	assert.Equal(t, TouchPan, f.router.State())
	assert.Equal(t, atRelease, f.vp.Transform())

	// The pinch already moved, so panning resumes without a new threshold.
	f.router.Handle(TouchMove{Touches: []viewport.Point{pt(512, 301)}})
	after := f.vp.Transform()
	assert.InDelta(t, atRelease.TX+2, after.TX, 1e-9)
	assert.InDelta(t, atRelease.TY+1, after.TY, 1e-9)
}

func TestClickAfterPinchIsSuppressed(t *testing.T) {
	f := newFixture()

	f.router.Handle(TouchStart{Touches: []viewport.Point{pt(300, 300), pt(500, 300)}})
	f.router.Handle(TouchMove{Touches: []viewport.Point{pt(280, 300), pt(520, 300)}})
	f.router.Handle(TouchEnd{})
	f.router.Handle(Click{At: pt(400, 300)})

	assert.Empty(t, f.links.opened)
}

func TestThirdFingerDropsToIdle(t *testing.T) {
	f := zoomed(t)

	f.router.Handle(TouchStart{Touches: []viewport.Point{pt(1, 1), pt(2, 2), pt(3, 3)}})
	assert.Equal(t, Idle, f.router.State())

	f.router.Handle(TouchEnd{Touches: []viewport.Point{pt(1, 1), pt(2, 2)}})
	assert.Equal(t, TouchPinch, f.router.State())
}

func TestFindChordOpensSearch(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want bool
	}{
		{"ctrl+f", Key{Key: "f", Ctrl: true}, true},
		{"meta+F", Key{Key: "F", Meta: true}, true},
		{"plain f", Key{Key: "f"}, false},
		{"ctrl+g", Key{Key: "g", Ctrl: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			res := f.router.Handle(tt.key)
			assert.Equal(t, tt.want, res.PreventDefault)
			assert.Equal(t, tt.want, f.finder.IsOpen())
		})
	}
}

func TestEscapeClosesOpenSearch(t *testing.T) {
	f := newFixture()

	res := f.router.Handle(Key{Key: "Escape"})
	assert.False(t, res.PreventDefault)
	assert.Zero(t, f.finder.closes)

	f.router.Handle(Key{Key: "f", Ctrl: true})
	res = f.router.Handle(Key{Key: "Escape"})
	assert.True(t, res.PreventDefault)
	assert.False(t, f.finder.IsOpen())
	assert.Equal(t, 1, f.finder.closes)
}

func TestNilCollaborators(t *testing.T) {
	vp := viewport.NewState(viewport.Size{W: 100, H: 100}, viewport.Size{W: 100, H: 100})
	vp.ResetToFit()
	r := NewRouter(vp, nil, nil)

	assert.False(t, r.Handle(Key{Key: "f", Ctrl: true}).PreventDefault)
	assert.False(t, r.Handle(Click{}).PreventDefault)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "dragging", Dragging.String())
	assert.Equal(t, "touchPan", TouchPan.String())
	assert.Equal(t, "touchPinch", TouchPinch.String())
}
