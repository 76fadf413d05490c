package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is the envelope written to a client for every emitted event.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// NewMessage wraps payload in an envelope tagged with event.
func NewMessage(event string, payload any) Message {
	return Message{Type: event, Data: payload}
}

// Hub tracks connected clients in per-user rooms.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client to its user's room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.userID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.userID]; ok {
		if _, ok := room[c]; ok {
			delete(room, c)
			close(c.send)
		}
		if len(room) == 0 {
			delete(h.rooms, c.userID)
		}
	}
	h.mu.Unlock()
}

// EmitToUser sends event to every connection the user has open. A user
// with no open connection is not an error.
func (h *Hub) EmitToUser(userID int64, event string, payload any) error {
	data, err := json.Marshal(NewMessage(event, payload))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.rooms[userID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop message to avoid blocking
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("dropped message for slow client", "user_id", userID, "event", event, "clients", dropped)
	}
	return nil
}

// EmitToUsers sends the same event to several users.
func (h *Hub) EmitToUsers(userIDs []int64, event string, payload any) {
	for _, id := range userIDs {
		if err := h.EmitToUser(id, event, payload); err != nil {
			h.logger.Error("emit", "user_id", id, "event", event, "error", err)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// Online reports whether the user has at least one open connection.
func (h *Hub) Online(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID]) > 0
}
