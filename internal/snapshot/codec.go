package snapshot

import (
	"encoding/json"

	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/errors"
)

// Encode serializes a snapshot. Field order is fixed by the struct
// definition and cards are pre-sorted by New, so repeated encodes of the
// same snapshot are byte-identical; change detection can compare content as
// well as file metadata.
func Encode(s Snapshot) ([]byte, error) {
	if s.Cards == nil {
		s.Cards = []card.Card{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return append(data, '\n'), nil
}

// Decode parses a snapshot document. It fails with CORRUPT_SNAPSHOT only
// when the bytes are not parseable at all. Missing optional fields get
// documented defaults and unknown extra fields are ignored, so documents
// from both older and newer producers round-trip.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, errors.NewCorruptSnapshot(err)
	}
	for i := range s.Cards {
		applyDefaults(&s.Cards[i])
	}
	return s, nil
}

// applyDefaults substitutes defaults for optional fields an older producer
// may not have written. Notes already defaults to "" by omission.
func applyDefaults(c *card.Card) {
	if c.Category == "" {
		c.Category = card.CategoryIdea
	}
}
