package memory

import (
	"context"
	"sync"

	"storycanvas/application/ports"
	"storycanvas/domain/events"
)

// EventRecorder is an EventPublisher that keeps published events in memory
type EventRecorder struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

var _ ports.EventPublisher = (*EventRecorder)(nil)

// NewEventRecorder creates an empty recorder
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Publish records the events
func (r *EventRecorder) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, domainEvents...)
	return nil
}

// Events returns a copy of everything published so far
func (r *EventRecorder) Events() []events.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.DomainEvent(nil), r.events...)
}

// Types returns the event types in publish order
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.GetEventType()
	}
	return out
}
