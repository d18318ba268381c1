package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans auth events out to subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// DispatcherOption customizes the in-memory dispatcher.
type DispatcherOption func(*inMemoryDispatcher)

// WithFailureHook is called once per failed handler invocation, e.g. to count failures.
func WithFailureHook(hook func(EventType)) DispatcherOption {
	return func(d *inMemoryDispatcher) {
		d.onFailure = hook
	}
}

type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
	onFailure func(EventType)
}

// NewInMemoryDispatcher creates a synchronous dispatcher. Publish returns only after
// every subscriber has run, so login audit rows exist once the login request ends.
func NewInMemoryDispatcher(logger *zap.Logger, opts ...DispatcherOption) Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Publish never fails: handler errors are logged and the remaining handlers still run.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := d.listeners[event.Type]
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("subject", event.Subject),
				zap.Error(err))
			if d.onFailure != nil {
				d.onFailure(event.Type)
			}
		}
	}
	return nil
}

func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// copy-on-write so Publish can iterate a snapshot without holding the lock
	current := d.listeners[eventType]
	next := make([]EventHandler, len(current), len(current)+1)
	copy(next, current)
	d.listeners[eventType] = append(next, handler)
}

// SubscribeAll registers handler for each of the given event types.
func SubscribeAll(d Dispatcher, handler EventHandler, types ...EventType) {
	for _, t := range types {
		d.Subscribe(t, handler)
	}
}
