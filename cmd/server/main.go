package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/svgview/internal/config"
	"github.com/inamate/svgview/internal/diagram"
	"github.com/inamate/svgview/internal/live"
	mw "github.com/inamate/svgview/internal/middleware"
	"github.com/inamate/svgview/internal/viewer"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A missing diagram is not fatal: the page shows its error view until
	// the file appears.
	diagramHandler := diagram.NewHandler(cfg.DiagramPath)

	// Open pages reload when the diagram changes on disk.
	hub := live.NewHub(diagramHandler.ETag)
	go hub.Run()
	diagramHandler.OnChange(hub.DiagramChanged)

	if err := diagramHandler.Reload(); err != nil {
		slog.Warn("initial diagram load", "error", err)
	}
	if err := diagramHandler.Watch(ctx); err != nil {
		slog.Warn("watch diagram", "error", err)
	}
	defer diagramHandler.Close()

	r := newRouter(cfg, diagramHandler, live.NewHandler(hub, cfg.Origins()))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		cancel()
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "diagram", cfg.DiagramPath, "web", cfg.WebDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newRouter builds the routes. CORS wraps the router rather than being mux
// middleware, since mux skips middleware on method mismatches and preflight
// OPTIONS requests would get a bare 405.
func newRouter(cfg *config.Config, diagramHandler, liveHandler http.Handler) http.Handler {
	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.Handle("/diagram.svg", diagramHandler).Methods("GET", "HEAD")

	// WebSocket endpoint
	r.Handle("/live", liveHandler)

	// Viewer options for the page; the wasm module resolves the relative
	// diagram URL against the page location.
	opts := viewer.Options{
		DiagramURL:    "/diagram.svg",
		FallbackURL:   cfg.FallbackURL,
		ContainerID:   "diagram",
		LoadingID:     "loading",
		RedirectHosts: cfg.Redirects(),
	}
	r.HandleFunc("/config.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(opts)
	}).Methods("GET")

	// Page, wasm_exec.js and svgview.wasm
	r.PathPrefix("/").Handler(staticHandler(cfg.WebDir)).Methods("GET", "HEAD")

	return mw.CORS(cfg.Origins())(r)
}

func staticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	})
}
