package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/svgview/internal/config"
	"github.com/inamate/svgview/internal/diagram"
	"github.com/inamate/svgview/internal/live"
	"github.com/inamate/svgview/internal/viewer"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	web := filepath.Join(dir, "web")
	require.NoError(t, os.MkdirAll(web, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(web, "index.html"), []byte("<html>viewer</html>"), 0o644))

	path := filepath.Join(dir, "diagram.svg")
	require.NoError(t, os.WriteFile(path, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"/>`), 0o644))
	d := diagram.NewHandler(path)
	require.NoError(t, d.Reload())

	cfg := &config.Config{
		WebDir:         web,
		FallbackURL:    "https://example.com/diagram.pdf",
		AllowedOrigins: "http://localhost:5173",
		RedirectHosts:  "google.com",
	}
	hub := live.NewHub(d.ETag)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(newRouter(cfg, d, live.NewHandler(hub, cfg.Origins())))
	t.Cleanup(srv.Close)
	return srv
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t)

	for _, path := range []string{"/diagram.svg", "/config.json"} {
		t.Run(path, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodOptions, srv.URL+path, nil)
			require.NoError(t, err)
			req.Header.Set("Origin", "http://localhost:5173")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			req.Header.Set("Access-Control-Request-Headers", "if-none-match")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Less(t, resp.StatusCode, 300)
			assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
			assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodGet)
		})
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	srv := testServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/config.json", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.example")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestConfigJSON(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/config.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	var opts viewer.Options
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&opts))
	assert.Equal(t, viewer.Options{
		DiagramURL:    "/diagram.svg",
		FallbackURL:   "https://example.com/diagram.pdf",
		ContainerID:   "diagram",
		LoadingID:     "loading",
		RedirectHosts: []string{"google.com"},
	}, opts)
}

func TestDiagramAndPage(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/diagram.svg")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
