// Package broadcast propagates logout signals between running dashboard
// instances of the same user: when one instance logs out, the rest clear
// their sessions too. Events never carry token values, only the signal.
package broadcast

import (
	"context"
	"sync"
)

// EventLogout tells every listening instance to clear its local session.
const EventLogout = "logout"

// Event is the only payload carried on the bus.
type Event struct {
	Type string `json:"type"`
}

// Bus delivers events best-effort to all subscribers, including the
// publisher's own subscription.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe runs fn for every received event until cancel is called or
	// ctx is done.
	Subscribe(ctx context.Context, fn func(Event)) (cancel func(), err error)
}

// MemoryBus is an in-process Bus for single-process frontends and tests.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]func(Event))}
}

func (b *MemoryBus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	listeners := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		listeners = append(listeners, fn)
	}
	b.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, fn func(Event)) (func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}, nil
}
