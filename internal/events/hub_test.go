package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub(Options{BufferSize: 4}, zerolog.Nop())

	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	defer cancelA()
	defer cancelB()

	hub.Publish(Event{Signature: "sig1", Slot: 100})

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.Signature != "sig1" {
				t.Fatalf("subscriber %s got wrong event: %+v", name, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s never received the event", name)
		}
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	var dropped int
	hub := NewHub(Options{BufferSize: 2, DropHook: func() { dropped++ }}, zerolog.Nop())

	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		hub.Publish(Event{Slot: uint64(i)})
	}

	if dropped != 3 {
		t.Fatalf("expected 3 drops past a buffer of 2, got %d", dropped)
	}
	// The retained events are the oldest two.
	first := <-ch
	if first.Slot != 0 {
		t.Fatalf("expected oldest event first, got slot %d", first.Slot)
	}
	second := <-ch
	if second.Slot != 1 {
		t.Fatalf("expected second-oldest event, got slot %d", second.Slot)
	}
	select {
	case ev := <-ch:
		t.Fatalf("no further events expected, got %+v", ev)
	default:
	}
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(Options{BufferSize: 1}, zerolog.Nop())

	slow, cancelSlow := hub.Subscribe()
	fast, cancelFast := hub.Subscribe()
	defer cancelSlow()
	defer cancelFast()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(Event{Slot: uint64(i)})
			// Drain the fast subscriber so it never fills.
			<-fast
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	_ = slow
}

func TestCancelClosesChannelAndUnregisters(t *testing.T) {
	hub := NewHub(Options{BufferSize: 1}, zerolog.Nop())

	ch, cancel := hub.Subscribe()
	if hub.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount())
	}

	cancel()
	cancel() // idempotent

	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after cancel, got %d", hub.SubscriberCount())
	}
	if _, open := <-ch; open {
		t.Fatal("channel must be closed after cancel")
	}

	// Publishing after cancel must not panic.
	hub.Publish(Event{Slot: 1})
}
