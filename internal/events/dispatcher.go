package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Handler consumes published events.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Publisher is what producers depend on.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Dispatcher delivers events synchronously to in-process handlers, in
// subscription order. Every handler runs even if an earlier one fails.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers h for eventType.
func (d *Dispatcher) Subscribe(eventType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

// SubscribeAll registers h for every event type.
func (d *Dispatcher) SubscribeAll(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.all = append(d.all, h)
}

func (d *Dispatcher) Publish(ctx context.Context, ev Event) error {
	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.handlers[ev.EventType()])+len(d.all))
	handlers = append(handlers, d.handlers[ev.EventType()]...)
	handlers = append(handlers, d.all...)
	d.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", ev.EventType(), err))
		}
	}
	return errors.Join(errs...)
}
