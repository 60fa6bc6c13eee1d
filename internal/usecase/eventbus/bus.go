// Package eventbus fans advisory lifecycle events out to in-process
// subscribers such as the history recorder and the CLI progress log.
package eventbus

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ruvenwang/mindponics/internal/domain"
)

type subscription struct {
	id      uint64
	handler domain.EventHandler
}

// Bus is an in-process, goroutine-safe event bus.
type Bus struct {
	mu       sync.RWMutex
	byType   map[domain.EventType][]subscription
	wildcard []subscription
	nextID   atomic.Uint64
	logger   *slog.Logger
	inflight sync.WaitGroup
	closed   atomic.Bool
}

var _ domain.EventBus = (*Bus)(nil)

// New creates an event bus. A nil logger discards handler panics.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{
		byType: make(map[domain.EventType][]subscription),
		logger: logger,
	}
}

// Publish hands the event to every matching subscriber on its own goroutine.
// Panicking handlers are recovered and logged. Events published after Close
// are dropped.
func (b *Bus) Publish(ctx context.Context, event domain.Event) {
	if b.closed.Load() {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	targets := make([]subscription, 0, len(b.byType[event.Type])+len(b.wildcard))
	targets = append(targets, b.byType[event.Type]...)
	targets = append(targets, b.wildcard...)
	b.mu.RUnlock()

	for _, sub := range targets {
		b.inflight.Add(1)
		go b.deliver(ctx, event, sub)
	}
}

// Emit marshals payload and publishes it as an event of type t.
func (b *Bus) Emit(ctx context.Context, t domain.EventType, requestID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.logger.Warn("event payload not serializable", "event", string(t), "error", err)
		return
	}
	b.Publish(ctx, domain.Event{Type: t, Timestamp: time.Now(), RequestID: requestID, Payload: raw})
}

func (b *Bus) deliver(ctx context.Context, event domain.Event, sub subscription) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", string(event.Type),
				"request_id", event.RequestID,
				"panic", r,
			)
		}
	}()
	sub.handler(ctx, event)
}

// Subscribe registers a handler for one event type and returns its
// unsubscribe function.
func (b *Bus) Subscribe(eventType domain.EventType, handler domain.EventHandler) func() {
	sub := subscription{id: b.nextID.Add(1), handler: handler}

	b.mu.Lock()
	b.byType[eventType] = append(b.byType[eventType], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.byType[eventType] = without(b.byType[eventType], sub.id)
	}
}

// SubscribeAll registers a handler for every event and returns its
// unsubscribe function.
func (b *Bus) SubscribeAll(handler domain.EventHandler) func() {
	sub := subscription{id: b.nextID.Add(1), handler: handler}

	b.mu.Lock()
	b.wildcard = append(b.wildcard, sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.wildcard = without(b.wildcard, sub.id)
	}
}

func without(subs []subscription, id uint64) []subscription {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}

// Close stops accepting events and waits for in-flight handlers.
// It is safe to call more than once.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.inflight.Wait()
}
