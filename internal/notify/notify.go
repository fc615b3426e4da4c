// Package notify distributes the payload-free "storage changed" signal to
// every open view, within one process or across server instances.
package notify

import (
	"context"
	"sync"
)

// Signal is the message body published on shared transports
const Signal = "STORAGE_CHANGED"

// Notifier publishes and fans out storage change signals
type Notifier interface {
	// Publish announces that the stored list changed
	Publish(ctx context.Context) error
	// Subscribe returns a channel that receives one value per coalesced
	// change and a function that cancels the subscription
	Subscribe() (<-chan struct{}, func())
	// Close stops delivery and closes all subscriber channels
	Close() error
}

// Hub is the in-process fan-out shared by every notifier. Each subscriber
// channel holds at most one pending signal; a slow reader sees several
// changes as one, which is enough because readers reload everything.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan struct{}
	nextID int
	closed bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan struct{})}
}

// Publish delivers the signal locally
func (h *Hub) Publish(_ context.Context) error {
	h.Broadcast()
	return nil
}

// Broadcast signals every subscriber without blocking
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe registers a subscriber
func (h *Hub) Subscribe() (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan struct{}, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers returns the current subscriber count
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	return nil
}
