package merge

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/errors"
	"github.com/mjbernaski/word-card/internal/snapshot"
	"github.com/mjbernaski/word-card/internal/store"
)

func writeBackup(t *testing.T, cards ...card.Card) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backup.json")
	if err := snapshot.WriteFile(path, snapshot.New(cards, "backup", t0)); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportFile_Skip(t *testing.T) {
	s, clk := newStore(t0)
	existing, err := s.Create(store.CreateInput{Text: "local version"})
	if err != nil {
		t.Fatal(err)
	}

	conflicting := existing.Clone()
	conflicting.Text = "backup version"
	conflicting.UpdatedAt = t0.Add(time.Hour) // newer, but skip ignores timestamps
	fresh := card.New("new from backup", card.CategoryIdea, t0)

	path := writeBackup(t, conflicting, fresh)
	result, err := ImportFile(s, clk, ImportInput{Path: path, Mode: ImportModeSkip})
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 || result.Updated != 0 {
		t.Errorf("result = %+v", result)
	}

	got, _ := s.Get(existing.ID)
	if got.Text != "local version" {
		t.Error("skip mode must not touch existing ids")
	}
	if _, err := s.Get(fresh.ID); err != nil {
		t.Error("new card not imported")
	}
}

func TestImportFile_UpdateIgnoresTimestamps(t *testing.T) {
	s, clk := newStore(t0)
	clk.Advance(time.Hour)
	existing, err := s.Create(store.CreateInput{Text: "newer local version"})
	if err != nil {
		t.Fatal(err)
	}

	older := existing.Clone()
	older.Text = "older backup version"
	older.UpdatedAt = t0 // older than local; update mode overwrites anyway

	path := writeBackup(t, older)
	result, err := ImportFile(s, clk, ImportInput{Path: path, Mode: ImportModeUpdate})
	if err != nil {
		t.Fatal(err)
	}
	if result.Updated != 1 || result.Imported != 0 {
		t.Errorf("result = %+v", result)
	}

	got, _ := s.Get(existing.ID)
	if got.Text != "older backup version" {
		t.Error("update mode must overwrite unconditionally")
	}
}

func TestImportFile_Duplicate(t *testing.T) {
	s, clk := newStore(t0)
	existing, err := s.Create(store.CreateInput{Text: "original"})
	if err != nil {
		t.Fatal(err)
	}

	path := writeBackup(t, existing.Clone())
	result, err := ImportFile(s, clk, ImportInput{Path: path, Mode: ImportModeDuplicate})
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 {
		t.Errorf("result = %+v", result)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (original plus duplicate)", s.Len())
	}

	for _, c := range s.All() {
		if c.ID == existing.ID {
			continue
		}
		if c.Text != "original" {
			t.Error("duplicate lost its content")
		}
		if !c.CreatedAt.Equal(clk.Now()) || !c.UpdatedAt.Equal(clk.Now()) {
			t.Error("duplicate should carry fresh timestamps")
		}
	}
}

func TestImportFile_DefaultsToSkip(t *testing.T) {
	s, clk := newStore(t0)
	existing, err := s.Create(store.CreateInput{Text: "local"})
	if err != nil {
		t.Fatal(err)
	}
	path := writeBackup(t, existing.Clone())

	result, err := ImportFile(s, clk, ImportInput{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped != 1 {
		t.Errorf("result = %+v, want default skip mode", result)
	}
}

func TestImportFile_Errors(t *testing.T) {
	s, clk := newStore(t0)

	if _, err := ImportFile(s, clk, ImportInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing path: err = %v", err)
	}
	if _, err := ImportFile(s, clk, ImportInput{Path: "x", Mode: "merge"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad mode: err = %v", err)
	}
	missing := filepath.Join(t.TempDir(), "nope.json")
	if _, err := ImportFile(s, clk, ImportInput{Path: missing}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing file: err = %v", err)
	}
}
