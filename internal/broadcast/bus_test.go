package broadcast

import (
	"context"
	"testing"
	"time"
)

func TestMemoryBusDelivers(t *testing.T) {
	bus := NewMemoryBus()
	received := make(chan Event, 1)
	cancel, err := bus.Subscribe(context.Background(), func(ev Event) {
		received <- ev
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := bus.Publish(context.Background(), Event{Type: EventLogout}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case ev := <-received:
		if ev.Type != EventLogout {
			t.Errorf("expected logout event, got %q", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestMemoryBusCancel(t *testing.T) {
	bus := NewMemoryBus()
	calls := 0
	cancel, _ := bus.Subscribe(context.Background(), func(Event) { calls++ })
	_ = bus.Publish(context.Background(), Event{Type: EventLogout})
	cancel()
	_ = bus.Publish(context.Background(), Event{Type: EventLogout})
	if calls != 1 {
		t.Fatalf("expected 1 delivery after cancel, got %d", calls)
	}
}

func TestMemoryBusMultipleSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	got := make(chan string, 2)
	_, _ = bus.Subscribe(context.Background(), func(ev Event) { got <- "a" })
	_, _ = bus.Subscribe(context.Background(), func(ev Event) { got <- "b" })
	_ = bus.Publish(context.Background(), Event{Type: EventLogout})
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case name := <-got:
			seen[name] = true
		case <-time.After(time.Second):
			t.Fatal("missing delivery")
		}
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("expected both subscribers, got %v", seen)
	}
}

func TestNoopBusIsSilent(t *testing.T) {
	bus := NewNoopBus(nil)
	if err := bus.Publish(context.Background(), Event{Type: EventLogout}); err != nil {
		t.Fatalf("noop publish must not error: %v", err)
	}
	cancel, err := bus.Subscribe(context.Background(), func(Event) {
		t.Fatal("noop bus must never deliver")
	})
	if err != nil {
		t.Fatalf("noop subscribe must not error: %v", err)
	}
	cancel()
	_ = bus.Publish(context.Background(), Event{Type: EventLogout})
}
