package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/items/backend/internal/model/item"
)

// Type names the kind of change an Event describes.
type Type string

const (
	TypeCreated Type = "created"
	TypeUpdated Type = "updated"
	TypeDeleted Type = "deleted"
)

// Event describes one committed change to the item collection.
type Event struct {
	ID        string     `json:"id"`
	Type      Type       `json:"type"`
	ItemID    int        `json:"itemId"`
	Item      *item.Item `json:"item,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewEvent stamps a change with a fresh id and the current time.
func NewEvent(kind Type, itemID int, it *item.Item) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      kind,
		ItemID:    itemID,
		Item:      it,
		Timestamp: time.Now().UTC(),
	}
}

const defaultBuffer = 16

// Hub fans events out to every active subscriber.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	buffer int
	closed bool
}

// NewHub creates a hub whose subscriber channels hold up to buffer pending events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a new listener. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)
	id := uuid.NewString()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers evt to every subscriber without blocking. Subscribers whose
// buffer is full miss the event.
func (h *Hub) Publish(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			slog.Warn("dropping item event for slow subscriber", "subscriber", id, "event", evt.ID)
		}
	}
}

// Subscribers reports how many listeners are registered.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later Subscribe calls get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
