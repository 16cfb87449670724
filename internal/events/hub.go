package events

import (
	"sync"
	"sync/atomic"
	"time"
)

const clientBuffer = 16

// Hub broadcasts to every subscriber. Slow subscribers miss events rather
// than block the publisher; Dropped counts what they missed.
type Hub struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]struct{})}
}

func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it. Unknown channels are ignored.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; !ok {
		return
	}
	delete(h.clients, ch)
	close(ch)
}

func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
}

// Emit builds an event from data and publishes it.
func (h *Hub) Emit(reqID, typ string, data any) error {
	e, err := New(reqID, typ, data, time.Now())
	if err != nil {
		return err
	}
	h.Publish(e)
	return nil
}

// Clients is the number of live subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
