// Package notify fans out entity change notifications to in-process
// subscribers. Services publish after a successful mutation; interested
// components (reminder scheduling, UI push, cache invalidation) consume
// the stream. Delivery is best-effort: no core logic may depend on a
// notification arriving.
package notify

import (
	"sync"
	"time"
)

// Change describes one entity mutation.
type Change struct {
	Entity string
	ID     string
	Action string
	At     time.Time
}

// Actions published on the bus.
const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionAssigned   = "assigned"
	ActionUnassigned = "unassigned"
)

// Bus is a single-writer, multi-reader broadcast. Publish never blocks:
// a subscriber that falls behind its buffer misses changes rather than
// stalling the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Change)}
}

// Publish delivers the change to every subscriber.
func (b *Bus) Publish(change Change) {
	if change.At.IsZero() {
		change.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// Subscribe registers a reader with the given buffer size and returns
// the channel plus a cancel function. Cancel closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Change, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}
