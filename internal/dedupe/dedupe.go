// Package dedupe removes duplicate cards from a collection. Duplicates
// arise when the same backup file is imported twice, or when two replicas
// independently write down the same idea.
package dedupe

import (
	"sort"

	"github.com/mjbernaski/word-card/internal/card"
)

// Result summarizes a dedupe pass.
type Result struct {
	Examined  int `json:"examined"`
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

// ByID collapses cards that share an id, keeping the most recently updated
// copy of each. Input order does not affect the outcome.
func ByID(cards []card.Card) ([]card.Card, Result) {
	return collapse(cards, func(c card.Card) string { return c.ID })
}

// ByContent collapses cards whose text normalizes to the same content key
// (case, leading/trailing space, and runs of whitespace are ignored).
// The most recently updated card in each group survives; on a timestamp tie
// the smallest id survives, so the pass is deterministic. Cards whose text
// normalizes to nothing at all are dropped unconditionally.
func ByContent(cards []card.Card) ([]card.Card, Result) {
	return collapse(cards, func(c card.Card) string { return card.ContentKey(c.Text) })
}

func collapse(cards []card.Card, key func(card.Card) string) ([]card.Card, Result) {
	winners := make(map[string]card.Card, len(cards))
	for _, c := range cards {
		k := key(c)
		if k == "" {
			continue
		}
		w, seen := winners[k]
		if !seen || wins(c, w) {
			winners[k] = c
		}
	}

	out := make([]card.Card, 0, len(winners))
	for _, c := range winners {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, Result{
		Examined:  len(cards),
		Removed:   len(cards) - len(out),
		Remaining: len(out),
	}
}

func wins(challenger, incumbent card.Card) bool {
	if !challenger.UpdatedAt.Equal(incumbent.UpdatedAt) {
		return challenger.UpdatedAt.After(incumbent.UpdatedAt)
	}
	return challenger.ID < incumbent.ID
}
