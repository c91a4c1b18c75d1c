package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/delarosa-dev/shopdeck-backend/pkg/logger"
)

// Kind identifies an event type on the bus.
type Kind string

const (
	KindMediaCreated   Kind = "media.created"
	KindMediaDeleted   Kind = "media.deleted"
	KindProductCreated Kind = "product.created"
	KindProductUpdated Kind = "product.updated"
	KindProductDeleted Kind = "product.deleted"
	KindPageCreated    Kind = "page.created"
	KindPageUpdated    Kind = "page.updated"
	KindPageDeleted    Kind = "page.deleted"
	KindNavChanged     Kind = "navigation.changed"
)

// Event carries a kind plus an arbitrary payload.
type Event struct {
	Kind       Kind
	OccurredAt time.Time
	Payload    any
}

// Handler consumes a published event.
type Handler func(ctx context.Context, evt Event)

// Publisher is the write-side surface services depend on.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Bus is an in-process event dispatcher. Delivery is synchronous and
// best-effort: a panicking subscriber never affects the publisher or
// its sibling subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	logg     *logger.Logger
}

// NewBus constructs an empty bus.
func NewBus(logg *logger.Logger) *Bus {
	return &Bus{
		handlers: map[Kind][]Handler{},
		logg:     logg,
	}
}

// Subscribe registers a handler for the given kind.
func (b *Bus) Subscribe(kind Kind, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], handler)
}

// Publish delivers the event to every subscriber of its kind.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	subscribers := make([]Handler, len(b.handlers[evt.Kind]))
	copy(subscribers, b.handlers[evt.Kind])
	b.mu.RUnlock()

	for _, handler := range subscribers {
		b.deliver(ctx, evt, handler)
	}
}

func (b *Bus) deliver(ctx context.Context, evt Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil && b.logg != nil {
			b.logg.Error(ctx, "event subscriber panicked", fmt.Errorf("kind %s: %v", evt.Kind, r))
		}
	}()
	handler(ctx, evt)
}
