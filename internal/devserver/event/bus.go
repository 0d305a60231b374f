package event

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const subscriberBuffer = 100

type subscriber struct {
	ch      chan Event
	dropped atomic.Int64
}

// InMemoryBus fans events out to every subscriber. A full subscriber
// misses the event; the loss is counted, never waited on.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*subscriber
	closed      bool
}

func NewBus() *InMemoryBus {
	return &InMemoryBus{subscribers: map[uuid.UUID]*subscriber{}}
}

// Publish stamps the event with an id and time when they are missing.
func (b *InMemoryBus) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscribe returns a buffered feed and its cancel func. After Close the
// feed comes back already closed.
func (b *InMemoryBus) Subscribe() (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	id := uuid.New()
	b.subscribers[id] = sub

	return sub.ch, func() { b.remove(id) }
}

func (b *InMemoryBus) remove(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

// Dropped totals the events live subscribers have missed.
func (b *InMemoryBus) Dropped() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var total int64
	for _, sub := range b.subscribers {
		total += sub.dropped.Load()
	}
	return total
}

// Close ends every subscription. Later publishes are no-ops.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}
