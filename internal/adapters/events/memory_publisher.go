package events

import (
	"context"
	"sync"

	"agrimandi-auction-service/internal/ports/outbound"
)

// MemoryPublisher records published events in order. It backs tests and
// single-process deployments that have no Redis.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []outbound.Event
}

// NewMemoryPublisher creates a new in-memory event publisher
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish records the event
func (p *MemoryPublisher) Publish(ctx context.Context, event outbound.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of all published events in publish order
func (p *MemoryPublisher) Events() []outbound.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]outbound.Event, len(p.events))
	copy(out, p.events)
	return out
}

// EventsOfType returns published events matching the given type
func (p *MemoryPublisher) EventsOfType(eventType outbound.EventType) []outbound.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []outbound.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
