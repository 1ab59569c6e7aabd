package browser

import (
	"sync"
)

// Hub fans out response events from a backend to any number of subscribers.
// thread-safe for concurrent subscribe/unsubscribe/broadcast operations.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan ResponseEvent]struct{}
	closed  bool
}

// NewHub creates an empty response hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[chan ResponseEvent]struct{}),
	}
}

// Subscribe adds a subscriber and returns its channel.
// the channel is buffered (256) to absorb bursts of poll responses.
// subscribing to a closed hub returns an already closed channel.
func (h *Hub) Subscribe() chan ResponseEvent {
	ch := make(chan ResponseEvent, 256)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
// safe to call multiple times with the same channel.
func (h *Hub) Unsubscribe(ch chan ResponseEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Broadcast sends an event to all subscribers without blocking. a subscriber whose
// buffer is full loses its oldest pending event, so the latest activity always gets
// through. backends call this from their own callback goroutines.
func (h *Hub) Broadcast(e ResponseEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- e:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- e:
		default:
		}
	}
}

// Close unsubscribes everybody and rejects later subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}
