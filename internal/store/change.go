package store

import (
	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/hub"
)

// Change is a batch of mutation instructions, typically emitted by the
// merge engine. Upserted cards are stored verbatim, timestamps included,
// because they describe state that was already committed on another
// replica.
type Change struct {
	Upserts []card.Card
	Deletes []string
}

// Empty reports whether the change contains no instructions.
func (ch Change) Empty() bool {
	return len(ch.Upserts) == 0 && len(ch.Deletes) == 0
}

// Apply commits the whole change as one atomic step relative to every
// other store operation, then publishes a single cards-updated event.
// Applying the same change twice converges to the same state.
func (s *Store) Apply(ch Change) {
	if ch.Empty() {
		return
	}

	s.mu.Lock()
	for _, c := range ch.Upserts {
		s.cards[c.ID] = c.Clone()
	}
	for _, id := range ch.Deletes {
		delete(s.cards, id)
	}
	s.version++
	s.mu.Unlock()

	s.publish(hub.CardsUpdated())
}
