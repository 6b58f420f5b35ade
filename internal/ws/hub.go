// Package ws pushes restaurant events to connected staff boards.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const broadcastQueue = 256

// Event is one message pushed to boards.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomEvent struct {
	restaurantID uuid.UUID
	event        Event
}

// room is the set of boards watching one restaurant.
type room map[*Client]struct{}

// Hub owns every board connection. All room mutation happens on the Run
// goroutine; mu only guards reads from outside it.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]room

	register   chan *Client
	unregister chan *Client
	broadcast  chan roomEvent
	done       chan struct{} // closed when Run returns
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomEvent, broadcastQueue),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every board.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.join(c)
		case c := <-h.unregister:
			h.mu.Lock()
			h.leave(c)
			h.mu.Unlock()
		case ev := <-h.broadcast:
			h.fanOut(ev)
		}
	}
}

// BroadcastToRestaurant queues an event for the restaurant's boards. It never
// blocks; when the queue is full the event is dropped and logged.
func (h *Hub) BroadcastToRestaurant(restaurantID uuid.UUID, event Event) {
	select {
	case h.broadcast <- roomEvent{restaurantID: restaurantID, event: event}:
	default:
		log.Warn().
			Str("restaurant_id", restaurantID.String()).
			Str("type", event.Type).
			Msg("ws: broadcast queue full, dropping event")
	}
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.rooms[c.restaurantID]
	if r == nil {
		r = make(room)
		h.rooms[c.restaurantID] = r
	}
	r[c] = struct{}{}
}

// leave drops a board and closes its send channel. Caller holds h.mu.
func (h *Hub) leave(c *Client) {
	r := h.rooms[c.restaurantID]
	if _, ok := r[c]; !ok {
		return
	}
	delete(r, c)
	close(c.send)
	if len(r) == 0 {
		delete(h.rooms, c.restaurantID)
	}
}

func (h *Hub) fanOut(ev roomEvent) {
	msg, err := json.Marshal(ev.event)
	if err != nil {
		log.Error().Err(err).Str("type", ev.event.Type).Msg("ws: marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[ev.restaurantID] {
		if !c.topics.accepts(ev.event.Type) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			log.Warn().Str("restaurant_id", ev.restaurantID.String()).Msg("ws: board too slow, disconnecting")
			h.leave(c)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.rooms {
		for c := range r {
			close(c.send)
		}
	}
	clear(h.rooms)
}
