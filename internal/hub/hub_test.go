package hub

import (
	"sync"
	"testing"
	"time"
)

func TestPublish_ReachesAllSubscribers(t *testing.T) {
	h := New()
	a := h.Subscribe()
	b := h.Subscribe()
	defer a.Close()
	defer b.Close()

	if a.ID() == b.ID() {
		t.Fatal("subscriptions share an id")
	}

	h.Publish(CardCreated("id-1"))

	for _, sub := range []*Subscription{a, b} {
		ev, ok := sub.Next()
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		if ev.Name != "card-created:id-1" || ev.Data != "id-1" {
			t.Errorf("got %+v", ev)
		}
	}
}

func TestPublish_PreservesOrder(t *testing.T) {
	h := New()
	s := h.Subscribe()
	defer s.Close()

	h.Publish(CardCreated("1"))
	h.Publish(CardArchived("1"))
	h.Publish(CardsUpdated())

	want := []string{"card-created:1", "card-archived:1", EventCardsUpdated}
	for _, name := range want {
		ev, ok := s.Next()
		if !ok || ev.Name != name {
			t.Fatalf("got %v/%v, want %s", ev, ok, name)
		}
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	h := New()
	s := h.Subscribe()

	s.Close()
	s.Close()
	h.Unsubscribe(s.ID())

	if h.Subscribers() != 0 {
		t.Errorf("Subscribers = %d, want 0", h.Subscribers())
	}

	if _, ok := s.Next(); ok {
		t.Error("Next on closed subscription should report closed")
	}
}

func TestNext_DrainsQueueAfterClose(t *testing.T) {
	h := New()
	s := h.Subscribe()

	h.Publish(CardCreated("1"))
	s.Close()

	ev, ok := s.Next()
	if !ok || ev.Data != "1" {
		t.Errorf("queued event lost on close: %v/%v", ev, ok)
	}
	if _, ok := s.Next(); ok {
		t.Error("drained closed subscription should report closed")
	}
}

func TestPublish_DoesNotBlockOnSlowSubscriber(t *testing.T) {
	h := New()
	slow := h.Subscribe() // never reads
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			h.Publish(CardsUpdated())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a subscriber that never reads")
	}
}

func TestUnsubscribe_ConcurrentWithBroadcast(t *testing.T) {
	h := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		s := h.Subscribe()
		wg.Add(2)
		go func() {
			defer wg.Done()
			for {
				if _, ok := s.Next(); !ok {
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}

	for i := 0; i < 1000; i++ {
		h.Publish(CardsUpdated())
	}
	wg.Wait()

	if h.Subscribers() != 0 {
		t.Errorf("Subscribers = %d, want 0", h.Subscribers())
	}
}
