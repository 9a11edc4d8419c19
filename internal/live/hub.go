// Package live notifies open viewer pages when the served diagram changes,
// so they can reload it.
package live

import (
	"log/slog"
	"sync"
)

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // clientID -> client
	current func() string

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a hub. current reports the ETag being served; it is sent
// to every client on connect.
func NewHub(current func() string) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		current:    current,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and closes every client's send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	client.Send(&Message{Type: TypeHello, ETag: h.current()})
	slog.Debug("live client joined", "client", client.ID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	close(client.send)
	h.mu.Unlock()

	slog.Debug("live client left", "client", client.ID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
}

// DiagramChanged broadcasts the new state of the diagram: updated with its
// ETag, or removed when etag is empty.
func (h *Hub) DiagramChanged() {
	etag := h.current()
	msg := &Message{Type: TypeDiagramUpdated, ETag: etag}
	if etag == "" {
		msg.Type = TypeDiagramRemoved
	}
	h.Broadcast(msg)
}

// Broadcast sends msg to every client. The read lock is held while sending
// so no send channel is closed underneath it; Send never blocks.
func (h *Hub) Broadcast(msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.Send(msg)
	}
}
