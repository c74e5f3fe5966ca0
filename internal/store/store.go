// Package store holds one replica's authoritative, in-memory card
// collection. A single mutex serializes every operation, so callers always
// observe the collection at a consistent point: there are no torn reads and
// a merge's whole batch of upserts and deletes lands as one atomic step.
// Durability is the snapshot codec's job, not the store's.
package store

import (
	"strings"
	"sync"

	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/clock"
	"github.com/mjbernaski/word-card/internal/errors"
	"github.com/mjbernaski/word-card/internal/hub"
)

// Store is the canonical single-writer card collection for one replica.
type Store struct {
	mu       sync.Mutex
	cards    map[string]card.Card
	version  uint64
	clk      clock.Clock
	events   *hub.Hub
	maxNotes int
}

// Option configures a Store.
type Option func(*Store)

// WithMaxNotesChars overrides the notes length bound enforced at the
// editing boundary.
func WithMaxNotesChars(n int) Option {
	return func(s *Store) { s.maxNotes = n }
}

// New creates an empty store. Committed changes are published to events.
func New(clk clock.Clock, events *hub.Hub, opts ...Option) *Store {
	s := &Store{
		cards:    make(map[string]card.Card),
		clk:      clk,
		events:   events,
		maxNotes: card.MaxNotesChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput contains parameters for Create.
type CreateInput struct {
	Text     string
	Category card.Category
	Notes    string
}

// Create assigns identity and timestamps to a new card and stores it.
// Text must not be blank; that is a user-facing rule, not a merge rule.
func (s *Store) Create(in CreateInput) (card.Card, error) {
	if strings.TrimSpace(in.Text) == "" {
		return card.Card{}, errors.NewInvalidRequest("text must not be blank")
	}
	if in.Category != "" && !card.ValidCategory(in.Category) {
		return card.Card{}, errors.NewInvalidRequest("category must be one of: idea, readings, miscellaneous")
	}
	if err := s.checkNotes(in.Notes); err != nil {
		return card.Card{}, err
	}
	if in.Category == "" {
		in.Category = card.CategoryIdea
	}

	c := card.New(in.Text, in.Category, s.clk.Now())
	c.Notes = in.Notes

	s.mu.Lock()
	s.cards[c.ID] = c
	s.version++
	s.mu.Unlock()

	s.publish(hub.CardCreated(c.ID), hub.CardsUpdated())
	return c.Clone(), nil
}

// UpdateInput carries the intended new values; nil fields stay unchanged.
type UpdateInput struct {
	Text            *string
	Notes           *string
	BackgroundColor *string
	TextColor       *string
	FontStyle       *card.FontStyle
	Category        *card.Category
	CornerRadius    *int
	BorderColor     *string
	RemoveBorder    bool
	BorderWidth     *int
	DPI             *int
}

// Update applies the supplied field values to the card and stamps UpdatedAt
// with the mutation's wall-clock time.
func (s *Store) Update(id string, in UpdateInput) (card.Card, error) {
	if in.Text != nil && strings.TrimSpace(*in.Text) == "" {
		return card.Card{}, errors.NewInvalidRequest("text must not be blank")
	}
	if in.Notes != nil {
		if err := s.checkNotes(*in.Notes); err != nil {
			return card.Card{}, err
		}
	}
	if in.FontStyle != nil && !card.ValidFontStyle(*in.FontStyle) {
		return card.Card{}, errors.NewInvalidRequest("fontStyle must be one of: elegant, book, apple")
	}
	if in.Category != nil && !card.ValidCategory(*in.Category) {
		return card.Card{}, errors.NewInvalidRequest("category must be one of: idea, readings, miscellaneous")
	}

	s.mu.Lock()
	c, ok := s.cards[id]
	if !ok {
		s.mu.Unlock()
		return card.Card{}, errors.NewNotFound(id)
	}

	if in.Text != nil {
		c.Text = *in.Text
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	if in.BackgroundColor != nil {
		c.BackgroundColor = *in.BackgroundColor
	}
	if in.TextColor != nil {
		c.TextColor = *in.TextColor
	}
	if in.FontStyle != nil {
		c.FontStyle = *in.FontStyle
	}
	if in.Category != nil {
		c.Category = *in.Category
	}
	if in.CornerRadius != nil {
		c.CornerRadius = *in.CornerRadius
	}
	if in.RemoveBorder {
		c.BorderColor = nil
	} else if in.BorderColor != nil {
		v := *in.BorderColor
		c.BorderColor = &v
	}
	if in.BorderWidth != nil {
		c.BorderWidth = *in.BorderWidth
	}
	if in.DPI != nil {
		c.DPI = *in.DPI
	}
	c.UpdatedAt = s.clk.Now()

	s.cards[id] = c
	s.version++
	s.mu.Unlock()

	s.publish(hub.CardsUpdated())
	return c.Clone(), nil
}

// Archive soft-deletes a card. It keeps replicating and can be restored.
func (s *Store) Archive(id string) (card.Card, error) {
	s.mu.Lock()
	c, ok := s.cards[id]
	if !ok {
		s.mu.Unlock()
		return card.Card{}, errors.NewNotFound(id)
	}
	now := s.clk.Now()
	c.IsArchived = true
	c.ArchivedAt = &now
	c.UpdatedAt = now
	s.cards[id] = c
	s.version++
	s.mu.Unlock()

	s.publish(hub.CardArchived(id), hub.CardsUpdated())
	return c.Clone(), nil
}

// Restore clears the archive flag.
func (s *Store) Restore(id string) (card.Card, error) {
	s.mu.Lock()
	c, ok := s.cards[id]
	if !ok {
		s.mu.Unlock()
		return card.Card{}, errors.NewNotFound(id)
	}
	c.IsArchived = false
	c.ArchivedAt = nil
	c.UpdatedAt = s.clk.Now()
	s.cards[id] = c
	s.version++
	s.mu.Unlock()

	s.publish(hub.CardsUpdated())
	return c.Clone(), nil
}

// Delete removes a card permanently.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.cards[id]; !ok {
		s.mu.Unlock()
		return errors.NewNotFound(id)
	}
	delete(s.cards, id)
	s.version++
	s.mu.Unlock()

	s.publish(hub.CardsUpdated())
	return nil
}

// Get returns a copy of the card with the given id.
func (s *Store) Get(id string) (card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return card.Card{}, errors.NewNotFound(id)
	}
	return c.Clone(), nil
}

// All returns a copy of every card, archived included, in no particular
// order.
func (s *Store) All() []card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allLocked()
}

// Snapshot returns the store version together with a copy of every card,
// taken under one lock hold so the pair is consistent.
func (s *Store) Snapshot() (uint64, []card.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, s.allLocked()
}

// Version returns a counter that increments on every committed mutation.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Len returns the number of cards, archived included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// ReplaceAll swaps the whole collection, used by maintenance passes and
// local snapshot loading. Cards are stored verbatim; no timestamps change.
func (s *Store) ReplaceAll(cards []card.Card) {
	s.mu.Lock()
	next := make(map[string]card.Card, len(cards))
	for _, c := range cards {
		next[c.ID] = c.Clone()
	}
	s.cards = next
	s.version++
	s.mu.Unlock()

	s.publish(hub.CardsUpdated())
}

func (s *Store) allLocked() []card.Card {
	out := make([]card.Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c.Clone())
	}
	return out
}

func (s *Store) checkNotes(notes string) error {
	if card.CountChars(notes) > s.maxNotes {
		return errors.NewInvalidRequest("notes exceed maximum length")
	}
	return nil
}

// publish emits events after the lock is released so observers can call
// back into the store.
func (s *Store) publish(events ...hub.Event) {
	if s.events == nil {
		return
	}
	for _, ev := range events {
		s.events.Publish(ev)
	}
}
