package merge

import (
	"github.com/google/uuid"

	"github.com/mjbernaski/word-card/internal/clock"
	"github.com/mjbernaski/word-card/internal/errors"
	"github.com/mjbernaski/word-card/internal/snapshot"
	"github.com/mjbernaski/word-card/internal/store"
)

// ImportMode controls collision behavior during a user-directed file
// import. This is a manual backup/restore operation: unlike the continuous
// merge it never consults timestamps or infers deletions.
type ImportMode string

const (
	// ImportModeSkip leaves existing ids untouched.
	ImportModeSkip ImportMode = "skip"
	// ImportModeUpdate overwrites existing ids unconditionally.
	ImportModeUpdate ImportMode = "update"
	// ImportModeDuplicate inserts every card under a fresh id.
	ImportModeDuplicate ImportMode = "duplicate"
)

// ImportInput contains parameters for ImportFile.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: skip
}

// ImportResult summarizes a manual import.
type ImportResult struct {
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// ImportFile loads a snapshot file and applies it to the store under the
// chosen collision mode.
func ImportFile(s *store.Store, clk clock.Clock, in ImportInput) (*ImportResult, error) {
	if in.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if in.Mode == "" {
		in.Mode = ImportModeSkip
	}
	switch in.Mode {
	case ImportModeSkip, ImportModeUpdate, ImportModeDuplicate:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: skip, update, duplicate")
	}

	snap, exists, err := snapshot.ReadFile(in.Path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewNotFound(in.Path)
	}

	existing := make(map[string]bool)
	for _, c := range s.All() {
		existing[c.ID] = true
	}

	var ch store.Change
	result := &ImportResult{}

	for _, rc := range snap.Cards {
		switch in.Mode {
		case ImportModeSkip:
			if existing[rc.ID] {
				result.Skipped++
				continue
			}
			ch.Upserts = append(ch.Upserts, rc.Clone())
			result.Imported++

		case ImportModeUpdate:
			if existing[rc.ID] {
				result.Updated++
			} else {
				result.Imported++
			}
			ch.Upserts = append(ch.Upserts, rc.Clone())

		case ImportModeDuplicate:
			// A duplicate is a new card authored now; it gets a fresh
			// identity and fresh timestamps so it replicates as a creation.
			dup := rc.Clone()
			dup.ID = uuid.NewString()
			now := clk.Now()
			dup.CreatedAt = now
			dup.UpdatedAt = now
			ch.Upserts = append(ch.Upserts, dup)
			result.Imported++
		}
	}

	s.Apply(ch)
	return result, nil
}
