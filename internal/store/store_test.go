package store

import (
	"testing"
	"time"

	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/clock"
	"github.com/mjbernaski/word-card/internal/errors"
	"github.com/mjbernaski/word-card/internal/hub"
)

func newTestStore(t *testing.T) (*Store, *clock.Fake, *hub.Hub) {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))
	h := hub.New()
	return New(clk, h), clk, h
}

func TestCreate(t *testing.T) {
	s, clk, _ := newTestStore(t)

	c, err := s.Create(CreateInput{Text: "buy milk", Category: card.CategoryIdea, Notes: "today"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.ID == "" {
		t.Error("id not assigned")
	}
	if !c.CreatedAt.Equal(clk.Now()) || !c.UpdatedAt.Equal(clk.Now()) {
		t.Error("timestamps not stamped from clock")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestCreate_BlankTextRejected(t *testing.T) {
	s, _, _ := newTestStore(t)
	_, err := s.Create(CreateInput{Text: "   "})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestCreate_NotesTooLong(t *testing.T) {
	s, _, _ := newTestStore(t)
	long := make([]rune, card.MaxNotesChars+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err := s.Create(CreateInput{Text: "ok", Notes: string(long)})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestUpdate_StampsUpdatedAt(t *testing.T) {
	s, clk, _ := newTestStore(t)
	c, _ := s.Create(CreateInput{Text: "v1"})
	created := c.UpdatedAt

	clk.Advance(time.Minute)
	text := "v2"
	updated, err := s.Update(c.ID, UpdateInput{Text: &text})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Text != "v2" {
		t.Errorf("Text = %q", updated.Text)
	}
	if !updated.UpdatedAt.After(created) {
		t.Error("UpdatedAt did not advance")
	}
	if !updated.CreatedAt.Equal(c.CreatedAt) {
		t.Error("CreatedAt must never change")
	}
}

func TestUpdate_BorderHandling(t *testing.T) {
	s, _, _ := newTestStore(t)
	c, _ := s.Create(CreateInput{Text: "x"})

	border := "#FF0000"
	width := 3
	got, err := s.Update(c.ID, UpdateInput{BorderColor: &border, BorderWidth: &width})
	if err != nil {
		t.Fatal(err)
	}
	if got.BorderColor == nil || *got.BorderColor != "#FF0000" || got.BorderWidth != 3 {
		t.Errorf("border not applied: %+v", got)
	}

	got, err = s.Update(c.ID, UpdateInput{RemoveBorder: true})
	if err != nil {
		t.Fatal(err)
	}
	if got.BorderColor != nil {
		t.Error("RemoveBorder did not clear the border")
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	s, _, _ := newTestStore(t)
	text := "x"
	_, err := s.Update("missing", UpdateInput{Text: &text})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestArchiveRestore(t *testing.T) {
	s, clk, _ := newTestStore(t)
	c, _ := s.Create(CreateInput{Text: "x"})

	clk.Advance(time.Minute)
	archived, err := s.Archive(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !archived.IsArchived || archived.ArchivedAt == nil {
		t.Error("Archive did not set flag and timestamp")
	}
	if !archived.UpdatedAt.Equal(*archived.ArchivedAt) {
		t.Error("Archive should stamp UpdatedAt alongside ArchivedAt")
	}

	clk.Advance(time.Minute)
	restored, err := s.Restore(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.IsArchived || restored.ArchivedAt != nil {
		t.Error("Restore did not clear archive state")
	}
	if !restored.UpdatedAt.After(archived.UpdatedAt) {
		t.Error("Restore should advance UpdatedAt")
	}
}

func TestDelete(t *testing.T) {
	s, _, _ := newTestStore(t)
	c, _ := s.Create(CreateInput{Text: "x"})

	if err := s.Delete(c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(c.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Error("card still present after delete")
	}
	if err := s.Delete(c.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete = %v, want NOT_FOUND", err)
	}
}

func TestList_SortAndFilter(t *testing.T) {
	s, clk, _ := newTestStore(t)

	a, _ := s.Create(CreateInput{Text: "banana", Notes: "yellow fruit"})
	clk.Advance(time.Second)
	b, _ := s.Create(CreateInput{Text: "apple"})
	clk.Advance(time.Second)
	c, _ := s.Create(CreateInput{Text: "cherry"})
	if _, err := s.Archive(c.ID); err != nil {
		t.Fatal(err)
	}

	// Default: active only, newest creation first.
	got, err := s.List(ListInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("default list order wrong: %v", ids(got))
	}

	// Alphabetical.
	got, _ = s.List(ListInput{Sort: SortAlpha})
	if got[0].Text != "apple" || got[1].Text != "banana" {
		t.Errorf("alpha order wrong: %v", ids(got))
	}

	// Most recently updated first: touch a.
	clk.Advance(time.Second)
	text := "banana bread"
	if _, err := s.Update(a.ID, UpdateInput{Text: &text}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.List(ListInput{Sort: SortUpdated})
	if got[0].ID != a.ID {
		t.Errorf("updated order wrong: %v", ids(got))
	}

	// Archived filter.
	got, _ = s.List(ListInput{Archived: FilterArchived})
	if len(got) != 1 || got[0].ID != c.ID {
		t.Errorf("archived filter wrong: %v", ids(got))
	}
	got, _ = s.List(ListInput{Archived: FilterAll})
	if len(got) != 3 {
		t.Errorf("all filter returned %d", len(got))
	}

	// Substring query over text and notes.
	got, _ = s.List(ListInput{Query: "YELLOW"})
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("query over notes wrong: %v", ids(got))
	}
}

func TestList_InvalidSort(t *testing.T) {
	s, _, _ := newTestStore(t)
	if _, err := s.List(ListInput{Sort: "bogus"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestEvents_Published(t *testing.T) {
	s, _, h := newTestStore(t)
	sub := h.Subscribe()
	defer sub.Close()

	c, _ := s.Create(CreateInput{Text: "x"})

	ev, _ := sub.Next()
	if ev.Name != "card-created:"+c.ID {
		t.Errorf("first event = %q", ev.Name)
	}
	ev, _ = sub.Next()
	if ev.Name != hub.EventCardsUpdated {
		t.Errorf("second event = %q", ev.Name)
	}

	if _, err := s.Archive(c.ID); err != nil {
		t.Fatal(err)
	}
	ev, _ = sub.Next()
	if ev.Name != "card-archived:"+c.ID {
		t.Errorf("archive event = %q", ev.Name)
	}
}

func TestApply_AtomicAndIdempotent(t *testing.T) {
	s, clk, _ := newTestStore(t)
	keep, _ := s.Create(CreateInput{Text: "keep"})
	gone, _ := s.Create(CreateInput{Text: "gone"})

	incoming := card.New("from elsewhere", card.CategoryIdea, clk.Now())
	ch := Change{
		Upserts: []card.Card{incoming},
		Deletes: []string{gone.ID},
	}

	s.Apply(ch)
	s.Apply(ch) // applying twice converges to the same state

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if _, err := s.Get(keep.ID); err != nil {
		t.Error("untouched card lost")
	}
	got, err := s.Get(incoming.ID)
	if err != nil {
		t.Fatal("upserted card missing")
	}
	if !got.Equal(incoming) {
		t.Error("upsert must store the card verbatim")
	}
	if _, err := s.Get(gone.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Error("deleted card still present")
	}
}

func TestApply_EmptyChangeDoesNotBumpVersion(t *testing.T) {
	s, _, _ := newTestStore(t)
	before := s.Version()
	s.Apply(Change{})
	if s.Version() != before {
		t.Error("empty change must not bump the version")
	}
}

func TestSnapshot_ReturnsClones(t *testing.T) {
	s, _, _ := newTestStore(t)
	c, _ := s.Create(CreateInput{Text: "x"})

	_, cards := s.Snapshot()
	cards[0].Text = "mutated"

	got, _ := s.Get(c.ID)
	if got.Text != "x" {
		t.Error("Snapshot leaked store-owned state")
	}
}

func ids(cards []card.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID + "/" + c.Text
	}
	return out
}
