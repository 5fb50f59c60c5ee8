package event

import (
	"context"
	"log"
)

// Handler reacts to a single event. Handlers must tolerate redelivery: the
// bus gives at-least-once semantics, so every mutation a handler performs
// has to be idempotent or merge-based.
type Handler interface {
	Name() string
	Handle(ctx context.Context, ev Event) error
}

// Publisher is the write side of the bus. Components that only need to emit
// events depend on this rather than on the full Bus.
type Publisher interface {
	Publish(ev Event)
}

// Bus fans events out to subscribed handlers through a pool of workers.
// Each event is delivered to every handler; a failing handler is logged and
// never blocks its siblings.
type Bus struct {
	size     int
	jobs     chan Event
	handlers []Handler
}

// NewBus creates a bus backed by the given number of worker goroutines.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = 1
	}
	return &Bus{
		size: size,
		jobs: make(chan Event, size*16),
	}
}

// Subscribe registers a handler. Not safe to call after Start.
func (b *Bus) Subscribe(h Handler) {
	b.handlers = append(b.handlers, h)
}

// Start launches the worker goroutines.
func (b *Bus) Start(ctx context.Context) {
	for i := 0; i < b.size; i++ {
		go b.worker(ctx, i)
	}
}

func (b *Bus) worker(ctx context.Context, id int) {
	for {
		select {
		case ev := <-b.jobs:
			b.deliver(ctx, ev)
		case <-ctx.Done():
			log.Printf("event worker %d shutting down", id)
			return
		}
	}
}

func (b *Bus) deliver(ctx context.Context, ev Event) {
	for _, h := range b.handlers {
		if err := b.handleOne(ctx, h, ev); err != nil {
			log.Printf("handler %s failed on %T: %v", h.Name(), ev, err)
		}
	}
}

// handleOne isolates a single handler invocation so a panic in one handler
// cannot take down the worker or skip the remaining handlers.
func (b *Bus) handleOne(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("handler %s panicked on %T: %v", h.Name(), ev, r)
		}
	}()
	return h.Handle(ctx, ev)
}

// Publish enqueues an event for delivery.
func (b *Bus) Publish(ev Event) {
	b.jobs <- ev
}
