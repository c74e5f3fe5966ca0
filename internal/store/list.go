package store

import (
	"sort"
	"strings"

	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/errors"
)

// SortOrder selects the list ordering.
type SortOrder string

const (
	SortCreated SortOrder = "created" // newest creation first
	SortUpdated SortOrder = "updated" // most recently updated first
	SortAlpha   SortOrder = "alpha"   // card text, case-insensitive
)

// ArchiveFilter selects which cards a list includes.
type ArchiveFilter string

const (
	FilterActive   ArchiveFilter = "active"
	FilterArchived ArchiveFilter = "archived"
	FilterAll      ArchiveFilter = "all"
)

// ListInput contains parameters for List.
type ListInput struct {
	Sort     SortOrder     // default: created
	Archived ArchiveFilter // default: active
	Query    string        // optional substring match over text and notes
}

// List returns a filtered, ordered copy of the collection.
func (s *Store) List(in ListInput) ([]card.Card, error) {
	if in.Sort == "" {
		in.Sort = SortCreated
	}
	if in.Archived == "" {
		in.Archived = FilterActive
	}
	switch in.Sort {
	case SortCreated, SortUpdated, SortAlpha:
	default:
		return nil, errors.NewInvalidRequest("sort must be one of: created, updated, alpha")
	}
	switch in.Archived {
	case FilterActive, FilterArchived, FilterAll:
	default:
		return nil, errors.NewInvalidRequest("archived must be one of: active, archived, all")
	}

	query := strings.ToLower(strings.TrimSpace(in.Query))

	cards := s.All()
	out := cards[:0]
	for _, c := range cards {
		if in.Archived == FilterActive && c.IsArchived {
			continue
		}
		if in.Archived == FilterArchived && !c.IsArchived {
			continue
		}
		if query != "" && !matches(c, query) {
			continue
		}
		out = append(out, c)
	}

	switch in.Sort {
	case SortUpdated:
		sort.Slice(out, func(i, j int) bool {
			if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
				return out[i].UpdatedAt.After(out[j].UpdatedAt)
			}
			return out[i].ID < out[j].ID
		})
	case SortAlpha:
		sort.Slice(out, func(i, j int) bool {
			a, b := strings.ToLower(out[i].Text), strings.ToLower(out[j].Text)
			if a != b {
				return a < b
			}
			return out[i].ID < out[j].ID
		})
	default:
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID < out[j].ID
		})
	}

	return out, nil
}

// matches reports whether the query appears in the card's text or notes.
func matches(c card.Card, query string) bool {
	return strings.Contains(strings.ToLower(c.Text), query) ||
		strings.Contains(strings.ToLower(c.Notes), query)
}
