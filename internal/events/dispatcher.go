package events

import (
	"context"
	"errors"
	"sync"
)

// Handler consumes a published commerce event.
type Handler func(context.Context, Event) error

// Dispatcher routes events to their subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler)
}

// inMemoryDispatcher delivers synchronously inside the publishing
// request. A failing subscriber never blocks the remaining ones; the
// joined failures surface to the publisher, which treats delivery as
// best-effort.
type inMemoryDispatcher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Handler
}

// NewInMemoryDispatcher creates an in-process dispatcher.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		subscribers: make(map[EventType][]Handler),
	}
}

func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.subscribers[event.Type]...)
	d.mu.RUnlock()

	var failures []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[eventType] = append(d.subscribers[eventType], handler)
}
