package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/inamate/svgview/internal/viewport"
)

const (
	// DebounceDelay is the input quiescence required before a query runs.
	DebounceDelay = 80 * time.Millisecond

	// HighlightPadding pads each match box on every side, in document units.
	HighlightPadding = 3.0

	// HighlightRadius is the corner radius of a highlight box.
	HighlightRadius = 3.0

	HighlightFill        = "rgba(255, 200, 0, 0.35)"
	HighlightStroke      = "rgba(230, 150, 0, 0.9)"
	HighlightStrokeWidth = 1.0
)

// Timer is a pending scheduled call.
type Timer interface {
	// Stop cancels the call. It reports whether the call was still pending.
	Stop() bool
}

// Scheduler runs f once after d. Implementations must invoke f on the same
// event loop that drives the Engine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Highlight is one rounded box drawn over a match, in document coordinates.
// Because it lives in document space it follows pan and zoom for free.
type Highlight struct {
	X      float64
	Y      float64
	W      float64
	H      float64
	Radius float64
}

// Layer is the overlay that renders highlights above the diagram.
type Layer interface {
	Clear()
	Draw(hs []Highlight)
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce overrides DebounceDelay.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithOnChange registers a callback fired after every evaluated query and
// every open/close, so hosts can refresh the search bar.
func WithOnChange(fn func()) Option {
	return func(e *Engine) { e.onChange = fn }
}

// Engine owns search state for one viewer: the query, its matches and
// whether the search bar is shown.
type Engine struct {
	index    Index
	sched    Scheduler
	layer    Layer
	debounce time.Duration
	onChange func()

	pending Timer
	query   string
	matches []int
	open    bool
}

// NewEngine creates an engine over idx. With a nil scheduler, Input
// evaluates synchronously. layer may be nil.
func NewEngine(idx Index, sched Scheduler, layer Layer, opts ...Option) *Engine {
	e := &Engine{
		index:    idx,
		sched:    sched,
		layer:    layer,
		debounce: DebounceDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index returns the engine's word index.
func (e *Engine) Index() Index {
	return e.index
}

// Input records a keystroke's worth of query text. Evaluation is deferred
// until no further input arrives for the debounce delay; each call cancels
// the previous pending evaluation.
func (e *Engine) Input(text string) {
	e.cancelPending()
	if e.sched == nil {
		e.run(text)
		return
	}
	e.pending = e.sched.AfterFunc(e.debounce, func() {
		e.pending = nil
		e.run(text)
	})
}

// Pending reports whether an evaluation is scheduled.
func (e *Engine) Pending() bool {
	return e.pending != nil
}

// Query evaluates text immediately, cancelling any pending evaluation, and
// returns the matching entry indices.
func (e *Engine) Query(text string) []int {
	e.cancelPending()
	e.run(text)
	return e.Matches()
}

func (e *Engine) run(text string) {
	e.query = text
	e.matches = e.index.Match(text)
	e.render()
	e.changed()
}

// render clears the layer and draws one highlight per match.
func (e *Engine) render() {
	if e.layer == nil {
		return
	}
	e.layer.Clear()
	if hs := e.Highlights(); len(hs) > 0 {
		e.layer.Draw(hs)
	}
}

// Highlights returns the padded boxes for the current matches.
func (e *Engine) Highlights() []Highlight {
	if len(e.matches) == 0 {
		return nil
	}
	hs := make([]Highlight, 0, len(e.matches))
	for _, i := range e.matches {
		r := e.index.Entry(i).Bounds().Inset(HighlightPadding)
		hs = append(hs, Highlight{
			X:      r.X,
			Y:      r.Y,
			W:      r.Width,
			H:      r.Height,
			Radius: HighlightRadius,
		})
	}
	return hs
}

// MatchBounds returns the union of the current matches' bounding boxes.
// ok is false when there are no matches.
func (e *Engine) MatchBounds() (r viewport.Rect, ok bool) {
	for _, i := range e.matches {
		b := e.index.Entry(i).Bounds()
		if !ok {
			r, ok = b, true
			continue
		}
		minX, minY := min(r.X, b.X), min(r.Y, b.Y)
		maxX := max(r.X+r.Width, b.X+b.Width)
		maxY := max(r.Y+r.Height, b.Y+b.Height)
		r = viewport.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	}
	return r, ok
}

// Text returns the last evaluated query text.
func (e *Engine) Text() string {
	return e.query
}

// Matches returns the indices of the current matches in index order.
func (e *Engine) Matches() []int {
	out := make([]int, len(e.matches))
	copy(out, e.matches)
	return out
}

// Label returns the result-count feedback for the search bar.
func (e *Engine) Label() string {
	if strings.TrimSpace(e.query) == "" {
		return ""
	}
	if len(e.matches) == 0 {
		return "No matches"
	}
	return fmt.Sprintf("%d found", len(e.matches))
}

// Open shows the search affordance.
func (e *Engine) Open() {
	e.open = true
	e.changed()
}

// Close hides the search affordance and clears the query, the matches and
// every highlight.
func (e *Engine) Close() {
	e.cancelPending()
	e.open = false
	e.query = ""
	e.matches = nil
	if e.layer != nil {
		e.layer.Clear()
	}
	e.changed()
}

// IsOpen reports whether the search affordance is shown.
func (e *Engine) IsOpen() bool {
	return e.open
}

func (e *Engine) cancelPending() {
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}
