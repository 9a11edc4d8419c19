// Package viewer wires one diagram viewport: it fetches and normalizes the
// document, then owns the transform, gesture and search state for it.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/inamate/svgview/internal/document"
	"github.com/inamate/svgview/internal/gesture"
	"github.com/inamate/svgview/internal/search"
	"github.com/inamate/svgview/internal/typeid"
	"github.com/inamate/svgview/internal/viewport"
)

// maxDocumentSize bounds the diagram download.
const maxDocumentSize = 64 << 20 // 64MB

// FocusZoom caps FocusMatches at this multiple of the fit scale.
const FocusZoom = 4.0

// Options configures a viewer instance.
type Options struct {
	// DiagramURL is the absolute URL of the annotated SVG.
	DiagramURL string `json:"diagramUrl"`

	// FallbackURL is an externally hosted view of the same diagram, linked
	// from the error view. Optional.
	FallbackURL string `json:"fallbackUrl,omitempty"`

	// ContainerID is the DOM id of the element hosting the diagram.
	ContainerID string `json:"containerId"`

	// LoadingID is the DOM id of a loading indicator to hide. Optional.
	LoadingID string `json:"loadingId,omitempty"`

	// RedirectHosts overrides document.DefaultRedirectHosts when set.
	RedirectHosts []string `json:"redirectHosts,omitempty"`
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

var ErrNoDiagramURL = errors.New("no diagram url configured")

// SearchView is the state the host's search bar should display.
type SearchView struct {
	Open  bool
	Query string
	Label string
}

// ErrorView is the static message shown in place of the diagram when it
// cannot be loaded.
type ErrorView struct {
	Message     string
	LinkText    string
	FallbackURL string
}

// NewErrorView builds the error view. The fallback link is omitted when no
// fallback URL is configured.
func NewErrorView(fallbackURL string) ErrorView {
	v := ErrorView{Message: "Could not load the diagram."}
	if fallbackURL != "" {
		v.LinkText = "Open the diagram in a new tab"
		v.FallbackURL = fallbackURL
	}
	return v
}

// Host is the page environment a viewer renders into. The WASM build
// implements it against the DOM; tests use a fake.
type Host interface {
	gesture.Links

	// ViewportSize returns the container's current size in screen pixels.
	ViewportSize() viewport.Size

	// Mount replaces the container contents with the normalized document
	// and appends the search bar next to the container.
	Mount(id string, doc *document.Document) error

	// Layer returns the highlight overlay inside the mounted document.
	Layer() search.Layer

	// Scheduler returns the event-loop timer used to debounce search input.
	Scheduler() search.Scheduler

	// Apply writes the transform and cursor to the mounted document.
	Apply(t viewport.Transform, c viewport.Cursor)

	// ShowSearch refreshes the search bar.
	ShowSearch(v SearchView)

	// Listen registers input handlers that feed the viewer.
	Listen(v *Viewer)

	HideLoading()
	ShowError(v ErrorView)
}

// Viewer is one live viewport. Like the host event loop that drives it, it
// is single-threaded.
type Viewer struct {
	id     string
	host   Host
	doc    *document.Document
	state  *viewport.State
	search *search.Engine
	router *gesture.Router
}

// Fetch downloads the diagram once. There is no retry.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrNoDiagramURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

// Load fetches and normalizes the diagram, mounts it, fits it to the
// viewport and starts listening for input. On any failure the host shows
// the error view instead and no handlers are registered.
func Load(ctx context.Context, client *http.Client, host Host, opts Options) (*Viewer, error) {
	v, err := load(ctx, client, host, opts)
	if err != nil {
		slog.Error("load diagram", "url", opts.DiagramURL, "error", err)
		host.HideLoading()
		host.ShowError(NewErrorView(opts.FallbackURL))
		return nil, err
	}

	host.HideLoading()
	host.Listen(v)
	slog.Info("diagram loaded",
		"viewer", v.id,
		"width", v.doc.ViewBox.Width,
		"height", v.doc.ViewBox.Height,
		"words", v.doc.Index.Len(),
		"links", v.doc.Links)
	return v, nil
}

func load(ctx context.Context, client *http.Client, host Host, opts Options) (*Viewer, error) {
	data, err := Fetch(ctx, client, opts.DiagramURL)
	if err != nil {
		return nil, err
	}

	doc, err := document.Normalize(data, document.NormalizeOptions{RedirectHosts: opts.RedirectHosts})
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", opts.DiagramURL, err)
	}

	v := &Viewer{
		id:   typeid.NewViewerID(),
		host: host,
		doc:  doc,
	}
	if err := host.Mount(v.id, doc); err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}

	v.state = viewport.NewState(host.ViewportSize(), doc.Size())
	v.search = search.NewEngine(doc.Index, host.Scheduler(), host.Layer(),
		search.WithOnChange(v.searchChanged))
	v.router = gesture.NewRouter(v.state, v.search, host)

	v.state.ResetToFit()
	v.apply()
	return v, nil
}

// ID returns the viewer's instance id.
func (v *Viewer) ID() string {
	return v.id
}

// Document returns the normalized document.
func (v *Viewer) Document() *document.Document {
	return v.doc
}

// Transform returns the current transform.
func (v *Viewer) Transform() viewport.Transform {
	return v.state.Transform()
}

// GestureState returns the router's active interaction.
func (v *Viewer) GestureState() gesture.State {
	return v.router.State()
}

// Search returns the viewer's search engine.
func (v *Viewer) Search() *search.Engine {
	return v.search
}

// Dispatch routes one input event and re-applies the transform and cursor.
func (v *Viewer) Dispatch(ev gesture.Event) gesture.Result {
	res := v.router.Handle(ev)
	v.apply()
	return res
}

// Resize reacts to a viewport size change by fitting the document again.
func (v *Viewer) Resize(size viewport.Size) {
	v.state.Resize(size)
	v.apply()
}

// ResetToFit returns to the fit transform.
func (v *Viewer) ResetToFit() {
	v.state.ResetToFit()
	v.apply()
}

// FocusMatches zooms to the bounds of the current search matches, settling
// a pending query for text first. It reports whether there was anything to
// focus.
func (v *Viewer) FocusMatches(text string) bool {
	if v.search.Pending() {
		v.search.Query(text)
	}
	r, ok := v.search.MatchBounds()
	if !ok {
		return false
	}
	// Word boxes are in viewBox units; the viewport measures from its origin.
	r.X -= v.doc.ViewBox.X
	r.Y -= v.doc.ViewBox.Y

	v.state.FocusRect(r, v.state.FitScale()*FocusZoom)
	v.apply()
	return true
}

// SearchInput feeds search bar keystrokes to the debounced query.
func (v *Viewer) SearchInput(text string) {
	v.search.Input(text)
}

// CloseSearch hides the search bar and clears highlights.
func (v *Viewer) CloseSearch() {
	v.search.Close()
}

func (v *Viewer) apply() {
	v.host.Apply(v.state.Transform(), v.state.Cursor(v.router.Dragging()))
}

func (v *Viewer) searchChanged() {
	v.host.ShowSearch(SearchView{
		Open:  v.search.IsOpen(),
		Query: v.search.Text(),
		Label: v.search.Label(),
	})
}
