package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// EventHandlerFunc is a function that handles a domain event.
type EventHandlerFunc func(ctx context.Context, event DomainEvent) error

// namedHandler wraps a handler with its name for debugging
type namedHandler struct {
	name    string
	handler EventHandlerFunc
}

// Dispatcher dispatches domain events to registered handlers synchronously,
// in registration order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	// ContinueOnError determines if dispatch should continue when a handler fails
	ContinueOnError bool
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]namedHandler),
	}
}

// Register registers a handler for specific event types.
func (d *Dispatcher) Register(name string, handler EventHandlerFunc, eventTypes ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	nh := namedHandler{name: name, handler: handler}
	for _, eventType := range eventTypes {
		d.handlers[eventType] = append(d.handlers[eventType], nh)
	}
}

// RegisterWildcard registers a handler for all events (wildcard "*").
func (d *Dispatcher) RegisterWildcard(name string, handler EventHandlerFunc) {
	d.Register(name, handler, "*")
}

// Dispatch dispatches an event to all registered handlers.
// If ContinueOnError is false, dispatch stops at the first error.
// If ContinueOnError is true, all handlers run and errors are collected.
func (d *Dispatcher) Dispatch(ctx context.Context, event DomainEvent) error {
	d.mu.RLock()
	handlers := make([]namedHandler, 0)
	handlers = append(handlers, d.handlers[event.EventType()]...)
	handlers = append(handlers, d.handlers["*"]...)
	d.mu.RUnlock()

	var errs []string
	for _, nh := range handlers {
		if err := nh.handler(ctx, event); err != nil {
			if !d.ContinueOnError {
				return fmt.Errorf("handler %s: %w", nh.name, err)
			}
			errs = append(errs, fmt.Sprintf("%s: %v", nh.name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("dispatch errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// HandlerCount returns the number of handlers registered for a type.
func (d *Dispatcher) HandlerCount(eventType string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[eventType])
}
