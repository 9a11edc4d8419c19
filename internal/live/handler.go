package live

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Handler upgrades page connections and attaches them to a hub.
type Handler struct {
	hub      *Hub
	patterns []string
}

// NewHandler accepts connections from the given origins (full URLs, as in
// the CORS configuration) in addition to same-origin pages.
func NewHandler(hub *Hub, origins []string) *Handler {
	return &Handler{hub: hub, patterns: originPatterns(origins)}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.patterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, uuid.NewString())
	h.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns reduces origins to the host[:port] patterns websocket
// matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			patterns = append(patterns, o)
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
