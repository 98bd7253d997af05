// Package notify pushes governance events to connected clients over
// WebSocket: progress roll-ups, gate and phase changes, deadlock alerts, and
// AI actions waiting for approval.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/harborview/governor/pkg/domain/events"
)

// Hub fans governance events out to WebSocket clients. It registers itself
// as a wildcard handler on the dispatcher, so every emitted event reaches
// every subscribed connection that wants its type.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	filters map[string]bool
}

// wireEvent is the frame pushed to clients.
type wireEvent struct {
	Type        string                 `json:"type"`
	AggregateID string                 `json:"aggregate_id"`
	Timestamp   string                 `json:"timestamp"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

// NewHub creates a hub and subscribes it to the dispatcher.
func NewHub(dispatcher *events.Dispatcher) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	dispatcher.RegisterWildcard("notify-hub", func(ctx context.Context, e events.DomainEvent) error {
		h.broadcast(e)
		return nil
	})
	return h
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects. The optional "types" query parameter narrows delivery to a
// comma-separated set of event types.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan []byte, 64),
		filters: parseTypeFilter(r.URL.Query().Get("types")),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(e events.DomainEvent) {
	frame := wireEvent{
		Type:        e.EventType(),
		AggregateID: e.AggregateID(),
		Timestamp:   e.OccurredAt().Format("2006-01-02T15:04:05.999999999Z07:00"),
	}
	if base, ok := e.(events.BaseEvent); ok {
		frame.Payload = base.Payload
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if len(c.filters) > 0 && !c.filters[frame.Type] {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow client; drop rather than block the dispatcher.
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
	c.conn.Close()
}

func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func parseTypeFilter(raw string) map[string]bool {
	filters := make(map[string]bool)
	if raw == "" {
		return filters
	}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			filters[t] = true
		}
	}
	return filters
}
