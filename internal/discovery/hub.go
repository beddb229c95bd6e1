// Package discovery implements the engine's discovery fanout: a bounded,
// multi-subscriber broadcast of wire.DeviceAddress values, plus an optional
// etcd-backed cache of recently-discovered devices.
//
// Each subscriber gets a read-only channel fed by a background writer; the
// Hub supports many concurrent subscribers rather than a single watcher.
package discovery

import (
	"sync"

	"github.com/lifx/lifxd/wire"
)

// DefaultBacklog is the per-subscriber channel capacity used when the
// caller doesn't specify one.
const DefaultBacklog = 10

// Hub fans discovered wire.DeviceAddress values out to any number of
// subscribers. Only the engine publishes; subscribers never block a
// publish — a subscriber that falls behind loses its oldest buffered
// event to make room for the newest one, rather than stalling discovery
// for everyone else.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]chan wire.DeviceAddress
	nextID  int
	backlog int
}

// NewHub creates a Hub with the given per-subscriber backlog capacity. A
// backlog of zero or less falls back to DefaultBacklog.
func NewHub(backlog int) *Hub {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	return &Hub{subs: make(map[int]chan wire.DeviceAddress), backlog: backlog}
}

// Subscribe registers a new listener and returns its channel along with an
// unsubscribe function the caller must invoke when done listening.
func (h *Hub) Subscribe() (<-chan wire.DeviceAddress, func()) {
	ch := make(chan wire.DeviceAddress, h.backlog)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish delivers addr to every current subscriber. Never blocks.
func (h *Hub) Publish(addr wire.DeviceAddress) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- addr:
		default:
			// Subscriber is behind: drop the oldest buffered event to make
			// room, then retry once. If a concurrent receive already
			// cleared space, the first send below succeeds instead.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- addr:
			default:
			}
		}
	}
}

// Subscribers reports the current subscriber count, for tests and metrics.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
