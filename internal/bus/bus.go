package bus

import (
	"context"
	"log"
	"slices"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples the editor and toolbar from their UI
// ─────────────────────────────────────────────────────────────

// EventEmitter is the outbound half of the bus. The editor and toolbar receive this
// interface instead of a concrete transport, which keeps them testable with MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Handler receives one event payload.
type Handler func(ctx context.Context, data any)

// AnyHandler receives every event together with its name.
type AnyHandler func(ctx context.Context, event string, data any)

type subscription struct {
	id    int
	event string // empty for catch-all subscriptions
	fn    AnyHandler
}

// Bus is an in-process pub/sub channel passed by reference to every component that
// needs it. Handlers run synchronously on the emitting goroutine, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID int
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers fn for event and returns a function that removes it.
func (b *Bus) Subscribe(event string, fn Handler) func() {
	return b.add(event, func(ctx context.Context, _ string, data any) { fn(ctx, data) })
}

// SubscribeAll registers fn for every event. Transports use it to forward the bus.
func (b *Bus) SubscribeAll(fn AnyHandler) func() {
	return b.add("", fn)
}

func (b *Bus) add(event string, fn AnyHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, event: event, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
	}
}

// Emit delivers data to every matching handler. A panicking handler is logged and
// does not stop delivery to the others.
func (b *Bus) Emit(ctx context.Context, event string, data any) {
	b.mu.RLock()
	var targets []AnyHandler
	for _, s := range b.subs {
		if s.event == "" || s.event == event {
			targets = append(targets, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		deliver(ctx, event, data, fn)
	}
}

func deliver(ctx context.Context, event string, data any, fn AnyHandler) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Bus] handler for %s panicked: %v", event, r)
		}
	}()
	fn(ctx, event, data)
}
