package events

import "context"

// busCapacity bounds how far a fast producer can run ahead of the consumer
// before it starts blocking (or dropping, via TrySend).
const busCapacity = 10

// Bus is a bounded multi-producer, single-consumer channel of Events.
// Per-producer ordering is preserved because each producer owns its own
// send call sites and a Go channel is FIFO; nothing here reorders across
// sends from the same goroutine.
type Bus struct {
	ch chan Event
}

// NewBus allocates a bus at its default capacity.
func NewBus() *Bus {
	return &Bus{ch: make(chan Event, busCapacity)}
}

// Send delivers an event, blocking if the bus is full (back-pressure is
// acceptable here) or returning early if ctx is done.
func (b *Bus) Send(ctx context.Context, e Event) error {
	select {
	case b.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend delivers an event without blocking, dropping it if the bus is
// full. Used by producers (e.g. the tick driver) for which a dropped event
// is harmless because the next tick will re-evaluate the same condition.
func (b *Bus) TrySend(e Event) bool {
	select {
	case b.ch <- e:
		return true
	default:
		return false
	}
}

// Recv returns the channel for the single consumer's select loop.
func (b *Bus) Recv() <-chan Event {
	return b.ch
}
