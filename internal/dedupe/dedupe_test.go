package dedupe

import (
	"testing"
	"time"

	"github.com/mjbernaski/word-card/internal/card"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func mk(id, text string, updated time.Time) card.Card {
	c := card.New(text, card.CategoryIdea, base)
	c.ID = id
	c.UpdatedAt = updated
	return c
}

func TestByID(t *testing.T) {
	cards := []card.Card{
		mk("a", "first write", base),
		mk("a", "second write", base.Add(time.Hour)),
		mk("b", "untouched", base),
	}

	out, res := ByID(cards)
	if res.Examined != 3 || res.Removed != 1 || res.Remaining != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(out) != 2 {
		t.Fatalf("got %d cards", len(out))
	}
	for _, c := range out {
		if c.ID == "a" && c.Text != "second write" {
			t.Errorf("kept the stale copy of a: %q", c.Text)
		}
	}
}

func TestByID_OrderIndependent(t *testing.T) {
	newer := mk("a", "newer", base.Add(time.Hour))
	older := mk("a", "older", base)

	out1, _ := ByID([]card.Card{older, newer})
	out2, _ := ByID([]card.Card{newer, older})
	if out1[0].Text != "newer" || out2[0].Text != "newer" {
		t.Error("winner depends on input order")
	}
}

func TestByContent(t *testing.T) {
	cards := []card.Card{
		mk("a", "Hello", base),
		mk("b", "hello ", base.Add(time.Minute)),
		mk("c", "HELLO", base.Add(2*time.Minute)),
	}

	out, res := ByContent(cards)
	if res.Removed != 2 || res.Remaining != 1 {
		t.Fatalf("result = %+v", res)
	}
	if out[0].ID != "c" {
		t.Errorf("survivor = %s, want the most recently updated", out[0].ID)
	}
}

func TestByContent_WhitespaceCollapsed(t *testing.T) {
	cards := []card.Card{
		mk("a", "two  words", base),
		mk("b", "two words", base.Add(time.Minute)),
		mk("c", "different card", base),
	}

	out, res := ByContent(cards)
	if res.Remaining != 2 {
		t.Fatalf("result = %+v, out = %v", res, out)
	}
}

func TestByContent_BlankTextDropped(t *testing.T) {
	cards := []card.Card{
		mk("a", "   ", base),
		mk("b", "keep me", base),
	}

	out, res := ByContent(cards)
	if res.Remaining != 1 || out[0].ID != "b" {
		t.Errorf("blank-text card should always be removed: %+v", res)
	}
}

func TestTieBreakDeterministic(t *testing.T) {
	cards := []card.Card{
		mk("z", "same", base),
		mk("a", "same", base), // equal updatedAt, smaller id wins
	}

	out, _ := ByContent(cards)
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("tie-break wrong: %+v", out)
	}
}

func TestEmptyInput(t *testing.T) {
	out, res := ByID(nil)
	if len(out) != 0 || res.Examined != 0 || res.Removed != 0 {
		t.Errorf("nil input: out=%v res=%+v", out, res)
	}
}
