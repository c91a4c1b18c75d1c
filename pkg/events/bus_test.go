package events

import (
	"context"
	"testing"
	"time"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	var got []Event

	bus.Subscribe(KindProductCreated, func(_ context.Context, evt Event) {
		got = append(got, evt)
	})
	bus.Subscribe(KindProductCreated, func(_ context.Context, evt Event) {
		got = append(got, evt)
	})
	bus.Subscribe(KindProductDeleted, func(_ context.Context, evt Event) {
		t.Error("wrong kind delivered")
	})

	bus.Publish(context.Background(), Event{Kind: KindProductCreated, Payload: "p-1"})

	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0].Payload != "p-1" {
		t.Fatalf("unexpected payload %v", got[0].Payload)
	}
	if got[0].OccurredAt.IsZero() {
		t.Fatal("expected OccurredAt to be stamped")
	}
}

func TestPublishIsolatesPanickingSubscriber(t *testing.T) {
	bus := NewBus(nil)
	var delivered bool

	bus.Subscribe(KindMediaCreated, func(context.Context, Event) {
		panic("subscriber bug")
	})
	bus.Subscribe(KindMediaCreated, func(context.Context, Event) {
		delivered = true
	})

	bus.Publish(context.Background(), Event{Kind: KindMediaCreated})

	if !delivered {
		t.Fatal("expected second subscriber to run after the first panicked")
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus(nil)
	bus.Publish(context.Background(), Event{Kind: KindNavChanged, OccurredAt: time.Now()})
}

func TestSubscribeIgnoresNilHandler(t *testing.T) {
	bus := NewBus(nil)
	bus.Subscribe(KindPageCreated, nil)
	bus.Publish(context.Background(), Event{Kind: KindPageCreated})
}
