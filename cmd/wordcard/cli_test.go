package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/mjbernaski/word-card/internal/card"
	"github.com/mjbernaski/word-card/internal/config"
	"github.com/mjbernaski/word-card/internal/logging"
	"github.com/mjbernaski/word-card/internal/snapshot"
)

func testEnv(t *testing.T) *env {
	t.Helper()
	return &env{
		baseDir: t.TempDir(),
		cfg:     config.DefaultConfig(),
		log:     logging.NewNop(),
	}
}

func run(t *testing.T, e *env, args ...string) error {
	t.Helper()
	app := newCLIApp(e)
	return app.Run(append([]string{"wordcard"}, args...))
}

// localCards reads back the persisted collection.
func localCards(t *testing.T, e *env) []card.Card {
	t.Helper()
	snap, exists, err := snapshot.ReadFile(filepath.Join(e.baseDir, "cards.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		return nil
	}
	return snap.Cards
}

func TestCreatePersists(t *testing.T) {
	e := testEnv(t)

	if err := run(t, e, "create", "hello", "world", "--category", "readings", "--notes", "a note"); err != nil {
		t.Fatalf("create: %v", err)
	}

	cards := localCards(t, e)
	if len(cards) != 1 {
		t.Fatalf("persisted %d cards, want 1", len(cards))
	}
	c := cards[0]
	if c.Text != "hello world" || c.Category != card.CategoryReadings || c.Notes != "a note" {
		t.Errorf("card = %+v", c)
	}
	if c.BackgroundColor != "#E3F2FD" {
		t.Errorf("BackgroundColor = %q, want the readings default", c.BackgroundColor)
	}
}

func TestCreate_BlankTextFails(t *testing.T) {
	e := testEnv(t)

	err := run(t, e, "create")
	if err == nil || !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
	if len(localCards(t, e)) != 0 {
		t.Error("nothing should be persisted")
	}
}

func TestUpdateArchiveRestoreDelete(t *testing.T) {
	e := testEnv(t)
	if err := run(t, e, "create", "lifecycle"); err != nil {
		t.Fatal(err)
	}
	id := localCards(t, e)[0].ID

	if err := run(t, e, "update", "--text", "renamed", "--border-color", "#FF0000", "--border-width", "2", id); err != nil {
		t.Fatalf("update: %v", err)
	}
	c := localCards(t, e)[0]
	if c.Text != "renamed" || c.BorderColor == nil || c.BorderWidth != 2 {
		t.Errorf("update not persisted: %+v", c)
	}

	if err := run(t, e, "archive", id); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if c = localCards(t, e)[0]; !c.IsArchived || c.ArchivedAt == nil {
		t.Error("archive not persisted")
	}

	if err := run(t, e, "restore", id); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if c = localCards(t, e)[0]; c.IsArchived {
		t.Error("restore not persisted")
	}

	if err := run(t, e, "delete", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(localCards(t, e)) != 0 {
		t.Error("delete not persisted")
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	e := testEnv(t)

	err := run(t, e, "update", "--text", "x", "no-such-id")
	if err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestDedupeCommand(t *testing.T) {
	e := testEnv(t)
	for _, text := range []string{"Hello", "hello ", "HELLO"} {
		if err := run(t, e, "create", text); err != nil {
			t.Fatal(err)
		}
	}

	if err := run(t, e, "dedupe", "--mode", "content"); err != nil {
		t.Fatalf("dedupe: %v", err)
	}
	if got := localCards(t, e); len(got) != 1 {
		t.Errorf("persisted %d cards after dedupe, want 1", len(got))
	}
}

func TestExportImport(t *testing.T) {
	a := testEnv(t)
	if err := run(t, a, "create", "travels between replicas"); err != nil {
		t.Fatal(err)
	}

	backup := filepath.Join(t.TempDir(), "backup.json")
	if err := run(t, a, "export", "--path", backup); err != nil {
		t.Fatalf("export: %v", err)
	}

	b := testEnv(t)
	if err := run(t, b, "import", "--path", backup); err != nil {
		t.Fatalf("import: %v", err)
	}
	cards := localCards(t, b)
	if len(cards) != 1 || cards[0].Text != "travels between replicas" {
		t.Errorf("imported cards = %+v", cards)
	}

	// Re-import with skip mode is a no-op.
	if err := run(t, b, "import", "--path", backup); err != nil {
		t.Fatal(err)
	}
	if len(localCards(t, b)) != 1 {
		t.Error("skip-mode re-import duplicated cards")
	}
}

func TestSyncCommand_TwoReplicasConverge(t *testing.T) {
	shared := filepath.Join(t.TempDir(), "shared", "cards.json")

	a := testEnv(t)
	a.cfg.SharedPath = shared
	b := testEnv(t)
	b.cfg.SharedPath = shared

	// A publishes first; B edits after that export, so B's new card is
	// newer than the remote exportDate and survives the merge. B then
	// republishes the union and A merges it.
	if err := run(t, a, "create", "from replica A"); err != nil {
		t.Fatal(err)
	}
	if err := run(t, a, "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := run(t, b, "create", "from replica B"); err != nil {
		t.Fatal(err)
	}
	if err := run(t, b, "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := run(t, a, "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if got := len(localCards(t, a)); got != 2 {
		t.Errorf("replica A has %d cards, want 2", got)
	}
	if got := len(localCards(t, b)); got != 2 {
		t.Errorf("replica B has %d cards, want 2", got)
	}
}

func TestSyncCommand_Unconfigured(t *testing.T) {
	e := testEnv(t)

	err := run(t, e, "sync")
	if err == nil || !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}
