// Package diagram serves the annotated diagram file over HTTP and reloads it
// when the file changes on disk.
package diagram

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inamate/svgview/internal/document"
)

const maxDiagramSize = 64 << 20 // 64MB

// reloadDelay coalesces the bursts of events editors emit for one save.
const reloadDelay = 100 * time.Millisecond

var ErrNotLoaded = errors.New("diagram not loaded")

// Handler serves one diagram file from memory.
type Handler struct {
	path string

	mu      sync.RWMutex
	data    []byte
	etag    string
	modTime time.Time

	watcher  *fsnotify.Watcher
	onChange []func()
}

// NewHandler creates a handler for the diagram at path. Call Reload to read
// it; until then, and whenever the file is missing, requests get a 404.
func NewHandler(path string) *Handler {
	return &Handler{path: path}
}

// Reload reads the file again. A file that is not an SVG with a usable
// viewable area is rejected and the previous contents keep being served. A
// missing file stops serving.
func (h *Handler) Reload() error {
	info, err := os.Stat(h.path)
	if errors.Is(err, os.ErrNotExist) {
		h.mu.Lock()
		had := h.data != nil
		h.data, h.etag, h.modTime = nil, "", time.Time{}
		h.mu.Unlock()
		if had {
			h.notify()
		}
		return fmt.Errorf("read diagram %s: %w", h.path, err)
	}
	if err != nil {
		return fmt.Errorf("stat diagram %s: %w", h.path, err)
	}
	if info.Size() > maxDiagramSize {
		return fmt.Errorf("diagram %s too large (%d bytes)", h.path, info.Size())
	}

	data, err := os.ReadFile(h.path)
	if err != nil {
		return fmt.Errorf("read diagram %s: %w", h.path, err)
	}
	box, err := document.ViewBoxOf(data)
	if err != nil {
		return fmt.Errorf("validate diagram %s: %w", h.path, err)
	}

	sum := sha256.Sum256(data)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	h.mu.Lock()
	h.data, h.etag, h.modTime = data, etag, info.ModTime()
	h.mu.Unlock()

	slog.Info("diagram loaded", "path", h.path, "bytes", len(data), "width", box.Width, "height", box.Height, "etag", etag)
	h.notify()
	return nil
}

// OnChange registers a callback invoked after every successful reload and
// when a served diagram disappears. Register callbacks before calling Watch.
func (h *Handler) OnChange(cb func()) {
	h.onChange = append(h.onChange, cb)
}

func (h *Handler) notify() {
	for _, cb := range h.onChange {
		cb()
	}
}

// ETag returns the entity tag of the contents being served, or "" when
// nothing is loaded.
func (h *Handler) ETag() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.etag
}

// Bytes returns the contents being served.
func (h *Handler) Bytes() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.data == nil {
		return nil, ErrNotLoaded
	}
	return h.data, nil
}

// ServeHTTP answers GET and HEAD with the cached diagram. Clients revalidate
// on every load and get a 304 while the ETag still matches.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	data, etag, modTime := h.data, h.etag, h.modTime
	h.mu.RUnlock()

	if data == nil {
		http.Error(w, "diagram not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)
	http.ServeContent(w, r, filepath.Base(h.path), modTime, bytes.NewReader(data))
}

// Watch reloads the diagram whenever it is written or replaced, until ctx
// is done or Close is called.
func (h *Handler) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// The directory, not the file: editors replace files by rename.
	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher

	go h.watchLoop(ctx, watcher)
	return nil
}

func (h *Handler) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(h.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() {
				if err := h.Reload(); err != nil {
					slog.Warn("reload diagram", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("diagram watcher", "error", err)
		}
	}
}

// Close stops watching.
func (h *Handler) Close() error {
	if h.watcher != nil {
		return h.watcher.Close()
	}
	return nil
}
