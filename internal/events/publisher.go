// Package events defines how engine facts reach clients. The concrete Redis
// publisher lives in internal/infrastructure/events.
package events

import (
	"context"
	"sync"

	"github.com/emberapp/ember-backend/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// NopPublisher drops events; used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event domain.Event) error { return nil }

// Recorder collects published events in memory for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *Recorder) Publish(ctx context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// ByType returns the recorded events of the given type.
func (r *Recorder) ByType(eventType string) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// All returns every recorded event in publish order.
func (r *Recorder) All() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}
