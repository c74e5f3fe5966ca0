// Package hub broadcasts committed-change events to any number of in-process
// observers. The hub holds no durable state: events raised while nobody is
// subscribed are gone, and a reconnecting observer resynchronizes with a
// full-state query instead of replay.
package hub

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event names on the live-update stream.
const (
	EventConnected    = "connected"
	EventCardsUpdated = "cards-updated"
)

// Event is a discrete notification of a committed change.
type Event struct {
	Name string
	Data string
}

// CardsUpdated signals that the collection changed in some way.
func CardsUpdated() Event {
	return Event{Name: EventCardsUpdated}
}

// CardCreated signals a new card.
func CardCreated(id string) Event {
	return Event{Name: "card-created:" + id, Data: id}
}

// CardArchived signals a card moving to the archive.
func CardArchived(id string) Event {
	return Event{Name: "card-archived:" + id, Data: id}
}

// Hub fans events out to all current subscriptions. Publish never blocks:
// each subscription owns an unbounded queue, so a slow or gone observer
// cannot stall the store or the merge engine.
type Hub struct {
	mu   sync.Mutex
	subs map[string]*Subscription
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[string]*Subscription)}
}

// Subscribe registers a new observer and returns its subscription.
func (h *Hub) Subscribe() *Subscription {
	s := &Subscription{
		id:  ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		hub: h,
	}
	s.cond = sync.NewCond(&s.mu)

	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()
	return s
}

// Unsubscribe removes a subscription. Idempotent and safe to call while a
// broadcast is in flight.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	s, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()

	if ok {
		s.close()
	}
}

// Publish delivers ev to every current subscription. Fire and forget.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.enqueue(ev)
	}
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Subscription is one observer's connection to the hub.
type Subscription struct {
	id  string
	hub *Hub

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
}

// ID returns the unique connection identity.
func (s *Subscription) ID() string { return s.id }

// Next blocks until an event is available and returns it. The second return
// is false once the subscription has been closed and its queue drained.
func (s *Subscription) Next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return Event{}, false
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev, true
}

// Close detaches the subscription from its hub. Idempotent.
func (s *Subscription) Close() {
	s.hub.Unsubscribe(s.id)
}

func (s *Subscription) enqueue(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, ev)
	s.cond.Signal()
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
}
