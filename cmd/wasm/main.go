//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"syscall/js"

	"github.com/inamate/svgview/internal/document"
	"github.com/inamate/svgview/internal/typeid"
	"github.com/inamate/svgview/internal/viewer"
)

// viewers holds every mounted viewer by instance id.
var viewers = map[string]*viewer.Viewer{}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// Create the viewer API object
	svgview := js.Global().Get("Object").New()

	// --- Commands (page → viewer) ---
	svgview.Set("mount", js.FuncOf(mount))
	svgview.Set("resetToFit", js.FuncOf(resetToFit))
	svgview.Set("search", js.FuncOf(searchQuery))

	// --- Queries (page ← viewer) ---
	svgview.Set("getTransform", js.FuncOf(getTransform))

	// Register on global scope
	js.Global().Set("svgview", svgview)

	// Signal that WASM is ready
	js.Global().Set("svgviewReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

// mount(options) loads a diagram into the page and returns a promise that
// resolves with the viewer id or rejects with the load error.
func mount(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return js.ValueOf(map[string]interface{}{"error": "missing options"})
	}

	opts, err := parseOptions(args[0])
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	host, err := newDOMHost(opts)
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	var executor js.Func
	executor = js.FuncOf(func(this js.Value, p []js.Value) interface{} {
		resolve, reject := p[0], p[1]
		// Fetching blocks, so it cannot run on the callback goroutine.
		go func() {
			defer executor.Release()
			v, err := viewer.Load(context.Background(), http.DefaultClient, host, opts)
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			viewers[v.ID()] = v
			resolve.Invoke(v.ID())
		}()
		return nil
	})
	return js.Global().Get("Promise").New(executor)
}

func parseOptions(v js.Value) (viewer.Options, error) {
	raw := js.Global().Get("JSON").Call("stringify", v).String()

	var opts viewer.Options
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return opts, err
	}
	if opts.ContainerID == "" {
		opts.ContainerID = "diagram"
	}
	if opts.RedirectHosts == nil {
		opts.RedirectHosts = document.DefaultRedirectHosts
	}
	if opts.DiagramURL != "" {
		base := js.Global().Get("location").Get("href")
		opts.DiagramURL = js.Global().Get("URL").New(opts.DiagramURL, base).Call("toString").String()
	}
	return opts, nil
}

func lookup(args []js.Value) (*viewer.Viewer, bool) {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return nil, false
	}
	id := args[0].String()
	if err := typeid.Validate(id, typeid.PrefixViewer); err != nil {
		slog.Warn("bad viewer id", "error", err)
		return nil, false
	}
	v, ok := viewers[id]
	return v, ok
}

func resetToFit(this js.Value, args []js.Value) interface{} {
	v, ok := lookup(args)
	if !ok {
		return js.ValueOf(map[string]interface{}{"error": "unknown viewer"})
	}
	v.ResetToFit()
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// search(id, text) evaluates a query immediately, bypassing the debounce.
func searchQuery(this js.Value, args []js.Value) interface{} {
	v, ok := lookup(args)
	if !ok {
		return js.ValueOf(map[string]interface{}{"error": "unknown viewer"})
	}
	text := ""
	if len(args) > 1 {
		text = args[1].String()
	}

	s := v.Search()
	s.Open()
	matches := s.Query(text)
	return js.ValueOf(map[string]interface{}{
		"count": len(matches),
		"label": s.Label(),
	})
}

// --- Query Handlers ---

func getTransform(this js.Value, args []js.Value) interface{} {
	v, ok := lookup(args)
	if !ok {
		return js.Null()
	}
	t := v.Transform()
	return js.ValueOf(map[string]interface{}{
		"scale": t.Scale,
		"tx":    t.TX,
		"ty":    t.TY,
		"css":   t.Matrix().CSS(),
	})
}
