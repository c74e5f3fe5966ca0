// Package snapshot implements the versioned whole-collection document that
// replicas exchange through the shared file, plus its codec and file helpers.
package snapshot

import (
	"sort"
	"time"

	"github.com/mjbernaski/word-card/internal/card"
)

// Version is the current schema revision embedded in every export.
const Version = 1

// Snapshot is the wire and durable format: the entire card collection plus
// the producer's export time, which doubles as the logical clock for
// deletion inference during merge.
type Snapshot struct {
	Version    int         `json:"version"`
	ExportDate time.Time   `json:"exportDate"`
	AppName    string      `json:"appName,omitempty"`
	Cards      []card.Card `json:"cards"`
}

// New builds a snapshot of cards produced at now. Cards are deep-copied and
// sorted so the snapshot never aliases caller state and encodes
// deterministically.
func New(cards []card.Card, appName string, now time.Time) Snapshot {
	out := make([]card.Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	sortCards(out)
	return Snapshot{
		Version:    Version,
		ExportDate: now,
		AppName:    appName,
		Cards:      out,
	}
}

// sortCards orders by creation time, then id, so identical collections
// always serialize identically regardless of map iteration order.
func sortCards(cards []card.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if !cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].CreatedAt.Before(cards[j].CreatedAt)
		}
		return cards[i].ID < cards[j].ID
	})
}

// Find returns the card with the given id, if present.
func (s Snapshot) Find(id string) (card.Card, bool) {
	for _, c := range s.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return card.Card{}, false
}
