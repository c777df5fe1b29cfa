package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"messaging_go/internal/delivery"
)

// Envelope is the frame written to clients.
type Envelope struct {
	Channel string `json:"channel"`
	Payload any    `json:"payload"`
}

// Hub tracks live clients keyed by user ID. A user may hold several
// sessions at once, one per device or tab.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
	}
}

var _ delivery.SessionRegistry = (*Hub)(nil)

// Register adds a client for its user.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
}

// SessionCount returns the number of live clients of userID.
func (h *Hub) SessionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Deliver writes payload on channel to every client of userID and returns
// how many clients accepted it. No clients is not an error.
func (h *Hub) Deliver(userID int64, channel string, payload any) (int, error) {
	frame, err := json.Marshal(Envelope{Channel: channel, Payload: payload})
	if err != nil {
		return 0, fmt.Errorf("marshal %s frame: %w", channel, err)
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var errs []error
	sent := 0
	for _, c := range targets {
		if err := c.Send(frame); err != nil {
			errs = append(errs, fmt.Errorf("client %s: %w", c.ID, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}
