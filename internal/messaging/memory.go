package messaging

import (
	"context"
	"sync"
)

// MemoryBus is an in-process bus. Every published envelope is delivered to
// Envelopes() and recorded for inspection.
type MemoryBus struct {
	ch chan Envelope

	mu        sync.Mutex
	published []Envelope
	closed    bool
}

// NewMemoryBus creates a bus with the given queue depth.
func NewMemoryBus(size int) *MemoryBus {
	if size <= 0 {
		size = 1
	}
	return &MemoryBus{ch: make(chan Envelope, size)}
}

// Envelopes implements Source.
func (b *MemoryBus) Envelopes() <-chan Envelope {
	return b.ch
}

// Send queues env for the consumer, blocking while the queue is full.
func (b *MemoryBus) Send(ctx context.Context, env Envelope) error {
	select {
	case b.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish implements Publisher by recording env.
func (b *MemoryBus) Publish(_ context.Context, env Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, env)
	return nil
}

// Published returns a copy of every envelope passed to Publish.
func (b *MemoryBus) Published() []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Envelope(nil), b.published...)
}

// Close closes the inbound channel. It is safe to call more than once.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}

// Run blocks until ctx is cancelled. It lets MemoryBus stand in for a
// network transport.
func (b *MemoryBus) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
