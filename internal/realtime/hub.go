// Package realtime pushes named JSON events to connected dashboards over
// websockets. Delivery is best effort: a slow or dead subscriber is dropped,
// never waited on, so publishing can never stall a sale.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// DashboardRoom is the room dashboard clients join for live updates.
const DashboardRoom = "dashboard"

// envelope is the wire format for a broadcast event.
type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Hub tracks room membership and fans events out to subscribers.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Publish broadcasts a named event to every subscriber of the room. It never
// blocks: clients whose send buffers are full miss the event.
func (h *Hub) Publish(room, event string, payload any) {
	data, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		select {
		case client.send <- data:
		default:
			h.logger.Debug("dropping event for slow subscriber", zap.String("event", event))
		}
	}
}

// Join subscribes a client to a room.
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
}

// Leave removes a client from every room it joined.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize reports the current subscriber count of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
