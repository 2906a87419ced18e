package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind is the type of identity change
type Kind string

const (
	SignedIn  Kind = "signed_in"
	SignedOut Kind = "signed_out"
)

// Event reports a change in an identity's authentication state
type Event struct {
	Kind       Kind      `json:"kind"`
	IdentityID string    `json:"identity_id"`
	At         time.Time `json:"at"`
}

// Bus delivers identity events to interested subscribers.
// The release func returned by Subscribe closes the channel and may be called more than once.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(identityID string) (<-chan Event, func())
}

type subscription struct {
	ch   chan Event
	once sync.Once
}

// MemoryBus fans events out inside one process.
// A subscriber whose buffer is full misses events rather than blocking publishers.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	buffer int
	logger *zap.Logger
}

// NewMemoryBus creates a bus with the given per-subscriber buffer
func NewMemoryBus(buffer int, logger *zap.Logger) *MemoryBus {
	if buffer < 1 {
		buffer = 1
	}
	return &MemoryBus{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Publish delivers e to every subscriber of e.IdentityID
func (b *MemoryBus) Publish(_ context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.deliver(e)
	return nil
}

// Subscribe registers interest in one identity's events
func (b *MemoryBus) Subscribe(identityID string) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, b.buffer)}

	b.mu.Lock()
	if b.subs[identityID] == nil {
		b.subs[identityID] = make(map[*subscription]struct{})
	}
	b.subs[identityID][sub] = struct{}{}
	b.mu.Unlock()

	release := func() {
		sub.once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[identityID], sub)
			if len(b.subs[identityID]) == 0 {
				delete(b.subs, identityID)
			}
			close(sub.ch)
		})
	}
	return sub.ch, release
}

// Subscribers returns the number of live subscriptions for an identity
func (b *MemoryBus) Subscribers(identityID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[identityID])
}

func (b *MemoryBus) deliver(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[e.IdentityID] {
		select {
		case sub.ch <- e:
		default:
			b.logger.Warn("Dropping identity event for slow subscriber",
				zap.String("identity_id", e.IdentityID),
				zap.String("kind", string(e.Kind)),
			)
		}
	}
}
