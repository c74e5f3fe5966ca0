// Package merge reconciles a freshly read remote snapshot against the
// canonical store: identity-keyed, last-writer-wins by updatedAt, with
// tombstone-free deletion inferred from the remote export date.
package merge

import (
	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/snapshot"
	"github.com/mjbernaski/word-card/internal/store"
)

// Counts summarizes what a merge did.
type Counts struct {
	Imported int `json:"imported"` // remote cards absent locally
	Updated  int `json:"updated"`  // remote cards that overwrote local state
	Deleted  int `json:"deleted"`  // local cards removed by deletion inference
}

// Changed reports whether the merge altered local state at all.
func (c Counts) Changed() bool {
	return c.Imported > 0 || c.Updated > 0 || c.Deleted > 0
}

// Plan computes the mutation instructions that reconcile local state with a
// remote snapshot. It never mutates its inputs, and it is idempotent:
// planning against the already-merged result yields an empty change.
//
// Rules, in order:
//  1. Remote card also present locally: overwrite every field from remote,
//     archive state included, only if remote.updatedAt is strictly newer.
//     Ties go to local.
//  2. Remote card absent locally: insert verbatim; it was created elsewhere.
//  3. Local card absent from remote: delete only when the remote producer's
//     exportDate is newer than the card's last local edit. Absence from a
//     snapshot older than the card proves nothing (the snapshot may be
//     stale or partial), so the card survives. A local edit made after the
//     remote export therefore resurrects the card.
//
// Rule 3 deliberately guards the empty-snapshot case: a zero-card snapshot
// with an old exportDate cannot wipe a populated store.
//
// The exportDate comparison trusts wall clocks. A replica whose clock runs
// far ahead of the others can resurrect legitimate remote deletions or lose
// legitimate local edits; the format carries nothing to compensate with.
func Plan(local []card.Card, remote snapshot.Snapshot) (store.Change, Counts) {
	var ch store.Change
	var counts Counts

	localByID := make(map[string]card.Card, len(local))
	for _, c := range local {
		localByID[c.ID] = c
	}
	remoteIDs := make(map[string]bool, len(remote.Cards))

	for _, rc := range remote.Cards {
		remoteIDs[rc.ID] = true
		lc, exists := localByID[rc.ID]
		if !exists {
			ch.Upserts = append(ch.Upserts, rc.Clone())
			counts.Imported++
			continue
		}
		if rc.UpdatedAt.After(lc.UpdatedAt) {
			merged := rc.Clone()
			merged.ID = lc.ID // identity is immutable; everything else follows remote
			ch.Upserts = append(ch.Upserts, merged)
			counts.Updated++
		}
	}

	for _, lc := range local {
		if remoteIDs[lc.ID] {
			continue
		}
		if remote.ExportDate.After(lc.UpdatedAt) {
			ch.Deletes = append(ch.Deletes, lc.ID)
			counts.Deleted++
		}
	}

	return ch, counts
}

// MergeSnapshot plans against the store's current contents and applies the
// result as one atomic batch.
func MergeSnapshot(s *store.Store, remote snapshot.Snapshot) Counts {
	ch, counts := Plan(s.All(), remote)
	s.Apply(ch)
	return counts
}
