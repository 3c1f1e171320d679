// Package ws fans notifications out to live websocket connections.
// Delivery is best effort; the persistent notification feed is the
// source of truth and a dropped socket write is not an error.
package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client wraps one connection with its own write lock. The websocket
// protocol allows a single writer per connection, and Push runs from
// concurrent request goroutines.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*websocket.Conn]*client
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: map[int64]map[*websocket.Conn]*client{},
		log:     log,
	}
}

// Add registers a connection for a user. One user may hold several
// connections (multiple tabs or devices).
func (h *Hub) Add(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[userID]
	if !ok {
		set = map[*websocket.Conn]*client{}
		h.clients[userID] = set
	}
	set[conn] = &client{conn: conn}
}

func (h *Hub) Remove(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[userID]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// Push writes v as JSON to every live connection of the user. A failed
// write leaves the connection in an unusable state, so the connection
// is dropped and closed instead of staying registered.
func (h *Hub) Push(userID int64, v any) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for _, c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(v); err != nil {
			h.log.Debug("websocket push failed, dropping connection",
				zap.Int64("user_id", userID),
				zap.Error(err))
			h.Remove(userID, c.conn)
			_ = c.conn.Close()
		}
	}
}

// Connections reports the number of live connections for a user.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
