package live

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type etagSource struct {
	mu   sync.Mutex
	etag string
}

func (s *etagSource) get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.etag
}

func (s *etagSource) set(v string) {
	s.mu.Lock()
	s.etag = v
	s.mu.Unlock()
}

func startHub(t *testing.T, src *etagSource) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(src.get)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(NewHandler(hub, nil))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHelloCarriesCurrentETag(t *testing.T) {
	src := &etagSource{etag: `"abc"`}
	_, srv := startHub(t, src)

	conn := dial(t, srv)

	assert.Equal(t, Message{Type: TypeHello, ETag: `"abc"`}, readMessage(t, conn))
}

func TestDiagramChangedBroadcasts(t *testing.T) {
	src := &etagSource{etag: `"v1"`}
	hub, srv := startHub(t, src)

	a, b := dial(t, srv), dial(t, srv)
	readMessage(t, a)
	readMessage(t, b)
	require.Eventually(t, func() bool { return hub.Len() == 2 }, 5*time.Second, 10*time.Millisecond)

	src.set(`"v2"`)
	hub.DiagramChanged()

	want := Message{Type: TypeDiagramUpdated, ETag: `"v2"`}
	assert.Equal(t, want, readMessage(t, a))
	assert.Equal(t, want, readMessage(t, b))

	src.set("")
	hub.DiagramChanged()
	assert.Equal(t, Message{Type: TypeDiagramRemoved}, readMessage(t, a))
}

func TestClientLeavesOnClose(t *testing.T) {
	src := &etagSource{}
	hub, srv := startHub(t, src)

	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 5*time.Second, 10*time.Millisecond)

	conn.Close(websocket.StatusNormalClosure, "")

	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestOriginPatterns(t *testing.T) {
	got := originPatterns([]string{"http://localhost:5173", "https://diagrams.example.com", "*.example.org"})
	assert.Equal(t, []string{"localhost:5173", "diagrams.example.com", "*.example.org"}, got)
}
