//go:build js && wasm

package main

import (
	"errors"
	"fmt"
	"syscall/js"
	"time"

	"github.com/inamate/svgview/internal/document"
	"github.com/inamate/svgview/internal/gesture"
	"github.com/inamate/svgview/internal/search"
	"github.com/inamate/svgview/internal/viewer"
	"github.com/inamate/svgview/internal/viewport"
)

const (
	svgNS   = "http://www.w3.org/2000/svg"
	xlinkNS = "http://www.w3.org/1999/xlink"
)

var errNoContainer = errors.New("container element not found")

// domHost renders one viewer into a container element.
type domHost struct {
	opts      viewer.Options
	doc       js.Value
	container js.Value

	svg   js.Value
	layer *svgLayer

	bar   js.Value
	input js.Value
	label js.Value

	// funcs keeps registered callbacks reachable for the page lifetime.
	funcs []js.Func
}

func newDOMHost(opts viewer.Options) (*domHost, error) {
	doc := js.Global().Get("document")
	container := doc.Call("getElementById", opts.ContainerID)
	if container.IsNull() || container.IsUndefined() {
		return nil, fmt.Errorf("%w: #%s", errNoContainer, opts.ContainerID)
	}
	return &domHost{opts: opts, doc: doc, container: container}, nil
}

func (h *domHost) ViewportSize() viewport.Size {
	return viewport.Size{
		W: h.container.Get("clientWidth").Float(),
		H: h.container.Get("clientHeight").Float(),
	}
}

func (h *domHost) Mount(id string, d *document.Document) error {
	parsed := js.Global().Get("DOMParser").New().Call("parseFromString", string(d.Markup()), "image/svg+xml")
	if parsed.Call("getElementsByTagName", "parsererror").Get("length").Int() > 0 {
		return errors.New("browser rejected normalized svg")
	}
	h.svg = h.doc.Call("importNode", parsed.Get("documentElement"), true)

	style := h.container.Get("style")
	style.Set("position", "relative")
	style.Set("overflow", "hidden")
	style.Set("touchAction", "none")
	h.container.Call("replaceChildren", h.svg)

	g := h.doc.Call("createElementNS", svgNS, "g")
	g.Call("setAttribute", "id", id+"-highlights")
	g.Call("setAttribute", "pointer-events", "none")
	h.svg.Call("appendChild", g)
	h.layer = &svgLayer{doc: h.doc, svg: h.svg, g: g}

	h.mountSearchBar(id)
	return nil
}

func (h *domHost) mountSearchBar(id string) {
	h.bar = h.doc.Call("createElement", "div")
	h.bar.Call("setAttribute", "id", id+"-search")
	h.bar.Call("setAttribute", "class", "svgview-search")
	h.bar.Get("style").Set("display", "none")

	h.input = h.doc.Call("createElement", "input")
	h.input.Set("type", "search")
	h.input.Set("placeholder", "Search diagram")
	h.input.Call("setAttribute", "aria-label", "Search diagram")

	h.label = h.doc.Call("createElement", "span")
	h.label.Call("setAttribute", "class", "svgview-search-count")
	h.label.Call("setAttribute", "aria-live", "polite")

	closeBtn := h.doc.Call("createElement", "button")
	closeBtn.Set("type", "button")
	closeBtn.Set("textContent", "×")
	closeBtn.Call("setAttribute", "aria-label", "Close search")
	closeBtn.Call("setAttribute", "class", "svgview-search-close")

	h.bar.Call("append", h.input, h.label, closeBtn)
	h.container.Get("parentNode").Call("insertBefore", h.bar, h.container.Get("nextSibling"))
}

func (h *domHost) Layer() search.Layer {
	return h.layer
}

func (h *domHost) Scheduler() search.Scheduler {
	return jsScheduler{}
}

func (h *domHost) Apply(t viewport.Transform, c viewport.Cursor) {
	h.svg.Get("style").Set("transform", t.Matrix().CSS())
	h.container.Get("style").Set("cursor", string(c))
}

func (h *domHost) ShowSearch(v viewer.SearchView) {
	if !v.Open {
		h.bar.Get("style").Set("display", "none")
		h.input.Set("value", "")
		h.label.Set("textContent", "")
		return
	}

	wasHidden := h.bar.Get("style").Get("display").String() == "none"
	h.bar.Get("style").Set("display", "flex")
	h.label.Set("textContent", v.Label)
	// Queries issued through the API show up in the box; typing is never
	// overwritten.
	if !h.doc.Get("activeElement").Equal(h.input) && h.input.Get("value").String() != v.Query {
		h.input.Set("value", v.Query)
	}
	if wasHidden {
		h.input.Call("focus")
	}
}

func (h *domHost) HideLoading() {
	if h.opts.LoadingID == "" {
		return
	}
	el := h.doc.Call("getElementById", h.opts.LoadingID)
	if !el.IsNull() {
		el.Get("style").Set("display", "none")
	}
}

func (h *domHost) ShowError(v viewer.ErrorView) {
	box := h.doc.Call("createElement", "div")
	box.Call("setAttribute", "class", "svgview-error")

	msg := h.doc.Call("createElement", "p")
	msg.Set("textContent", v.Message)
	box.Call("appendChild", msg)

	if v.FallbackURL != "" {
		a := h.doc.Call("createElement", "a")
		a.Set("href", v.FallbackURL)
		a.Set("target", "_blank")
		a.Set("rel", "noopener noreferrer")
		a.Set("textContent", v.LinkText)
		box.Call("appendChild", a)
	}
	h.container.Call("replaceChildren", box)
}

func (h *domHost) LinkAt(p viewport.Point) (string, bool) {
	rect := h.container.Call("getBoundingClientRect")
	el := h.doc.Call("elementFromPoint", rect.Get("left").Float()+p.X, rect.Get("top").Float()+p.Y)
	if el.IsNull() || el.IsUndefined() {
		return "", false
	}
	a := el.Call("closest", "a")
	if a.IsNull() {
		return "", false
	}
	if href := a.Call("getAttribute", "href"); !href.IsNull() && href.String() != "" {
		return href.String(), true
	}
	if href := a.Call("getAttributeNS", xlinkNS, "href"); !href.IsNull() && href.String() != "" {
		return href.String(), true
	}
	return "", false
}

func (h *domHost) OpenLink(href string) {
	js.Global().Call("open", href, "_blank", "noopener,noreferrer")
}

// Listen registers DOM listeners that translate browser events into
// gesture events for v.
func (h *domHost) Listen(v *viewer.Viewer) {
	active := js.ValueOf(map[string]interface{}{"passive": false})
	window := js.Global()

	dispatch := func(e js.Value, ev gesture.Event) {
		if v.Dispatch(ev).PreventDefault {
			e.Call("preventDefault")
		}
	}

	h.on(h.container, "wheel", active, func(e js.Value) {
		dispatch(e, gesture.Wheel{
			At:     h.local(e),
			DeltaY: e.Get("deltaY").Float(),
			Mode:   gesture.DeltaMode(e.Get("deltaMode").Int()),
		})
	})
	h.on(h.container, "mousedown", js.Undefined(), func(e js.Value) {
		dispatch(e, gesture.MouseDown{At: h.local(e), Button: gesture.MouseButton(e.Get("button").Int())})
	})
	// Moves and releases are tracked on the window so a drag survives
	// leaving the container.
	h.on(window, "mousemove", js.Undefined(), func(e js.Value) {
		dispatch(e, gesture.MouseMove{At: h.local(e)})
	})
	h.on(window, "mouseup", js.Undefined(), func(e js.Value) {
		dispatch(e, gesture.MouseUp{At: h.local(e)})
	})
	h.on(h.container, "click", js.Undefined(), func(e js.Value) {
		dispatch(e, gesture.Click{At: h.local(e)})
	})
	h.on(h.container, "dblclick", js.Undefined(), func(e js.Value) {
		dispatch(e, gesture.DoubleClick{At: h.local(e)})
	})

	h.on(h.container, "touchstart", active, func(e js.Value) {
		dispatch(e, gesture.TouchStart{Touches: h.touches(e)})
	})
	h.on(h.container, "touchmove", active, func(e js.Value) {
		dispatch(e, gesture.TouchMove{Touches: h.touches(e)})
	})
	for _, name := range []string{"touchend", "touchcancel"} {
		h.on(h.container, name, js.Undefined(), func(e js.Value) {
			dispatch(e, gesture.TouchEnd{Touches: h.touches(e)})
		})
	}

	h.on(window, "keydown", js.Undefined(), func(e js.Value) {
		dispatch(e, gesture.Key{
			Key:  e.Get("key").String(),
			Ctrl: e.Get("ctrlKey").Bool(),
			Meta: e.Get("metaKey").Bool(),
		})
	})
	h.on(window, "resize", js.Undefined(), func(js.Value) {
		v.Resize(h.ViewportSize())
	})

	h.on(h.input, "input", js.Undefined(), func(js.Value) {
		v.SearchInput(h.input.Get("value").String())
	})
	h.on(h.input, "keydown", js.Undefined(), func(e js.Value) {
		if e.Get("key").String() == "Enter" && v.FocusMatches(h.input.Get("value").String()) {
			e.Call("preventDefault")
		}
	})
	h.on(h.bar.Call("querySelector", ".svgview-search-close"), "click", js.Undefined(), func(js.Value) {
		v.CloseSearch()
	})
}

func (h *domHost) on(target js.Value, event string, opts js.Value, fn func(js.Value)) {
	f := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		fn(args[0])
		return nil
	})
	h.funcs = append(h.funcs, f)
	if opts.IsUndefined() {
		target.Call("addEventListener", event, f)
		return
	}
	target.Call("addEventListener", event, f, opts)
}

// local converts an event's client coordinates to container coordinates.
func (h *domHost) local(e js.Value) viewport.Point {
	rect := h.container.Call("getBoundingClientRect")
	return viewport.Point{
		X: e.Get("clientX").Float() - rect.Get("left").Float(),
		Y: e.Get("clientY").Float() - rect.Get("top").Float(),
	}
}

func (h *domHost) touches(e js.Value) []viewport.Point {
	list := e.Get("touches")
	n := list.Get("length").Int()
	rect := h.container.Call("getBoundingClientRect")
	left, top := rect.Get("left").Float(), rect.Get("top").Float()

	pts := make([]viewport.Point, 0, n)
	for i := 0; i < n; i++ {
		t := list.Call("item", i)
		pts = append(pts, viewport.Point{
			X: t.Get("clientX").Float() - left,
			Y: t.Get("clientY").Float() - top,
		})
	}
	return pts
}

// svgLayer draws search highlights into a group kept as the last child of
// the diagram root so it paints above the content.
type svgLayer struct {
	doc js.Value
	svg js.Value
	g   js.Value
}

func (l *svgLayer) Clear() {
	l.g.Call("replaceChildren")
}

func (l *svgLayer) Draw(hs []search.Highlight) {
	for _, hl := range hs {
		r := l.doc.Call("createElementNS", svgNS, "rect")
		r.Call("setAttribute", "x", hl.X)
		r.Call("setAttribute", "y", hl.Y)
		r.Call("setAttribute", "width", hl.W)
		r.Call("setAttribute", "height", hl.H)
		r.Call("setAttribute", "rx", hl.Radius)
		r.Call("setAttribute", "ry", hl.Radius)
		r.Call("setAttribute", "fill", search.HighlightFill)
		r.Call("setAttribute", "stroke", search.HighlightStroke)
		r.Call("setAttribute", "stroke-width", search.HighlightStrokeWidth)
		l.g.Call("appendChild", r)
	}
	l.svg.Call("appendChild", l.g)
}

// jsScheduler runs callbacks on the browser event loop via setTimeout.
type jsScheduler struct{}

func (jsScheduler) AfterFunc(d time.Duration, f func()) search.Timer {
	t := &jsTimer{}
	t.fn = js.FuncOf(func(js.Value, []js.Value) interface{} {
		t.fn.Release()
		t.done = true
		f()
		return nil
	})
	t.id = js.Global().Call("setTimeout", t.fn, d.Milliseconds())
	return t
}

type jsTimer struct {
	id   js.Value
	fn   js.Func
	done bool
}

func (t *jsTimer) Stop() bool {
	if t.done {
		return false
	}
	js.Global().Call("clearTimeout", t.id)
	t.fn.Release()
	t.done = true
	return true
}
