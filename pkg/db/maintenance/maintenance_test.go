package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"designate/pkg/db"
	"designate/pkg/store"
)

func TestMaintenance(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "maint_test.db")
	d, err := db.Init(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	s := store.NewSQLiteStore(d)
	ctx := context.Background()

	defsPath := filepath.Join(tempDir, "defs.yaml")
	if err := os.WriteFile(defsPath, []byte("tools: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldDeadline := time.Now().Add(-40 * 24 * time.Hour).UTC().Format("2006-01-02 15:04:05")
	if _, err := d.Exec("INSERT INTO rebuild_log (id, generation, created_at) VALUES (?, ?, ?)", "old", 1, oldDeadline); err != nil {
		t.Fatal(err)
	}
	newDeadline := time.Now().Add(-1 * 24 * time.Hour).UTC().Format("2006-01-02 15:04:05")
	if _, err := d.Exec("INSERT INTO rebuild_log (id, generation, created_at) VALUES (?, ?, ?)", "new", 2, newDeadline); err != nil {
		t.Fatal(err)
	}

	if err := Run(ctx, s, d, defsPath, func(string) bool { return true }); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var count int
	if err := d.QueryRow("SELECT count(*) FROM rebuild_log").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 rebuild record after pruning, got %d", count)
	}

	if _, ok := s.GetState(ctx, defsMTimeStateKey); !ok {
		t.Error("expected defs mtime to be recorded")
	}
}

func TestCheckDefsFile(t *testing.T) {
	tempDir := t.TempDir()
	d, err := db.Init(filepath.Join(tempDir, "defs_check.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	s := store.NewSQLiteStore(d)
	ctx := context.Background()

	path := filepath.Join(tempDir, "defs.yaml")

	changed, err := checkDefsFile(ctx, s, path)
	if err != nil || changed {
		t.Fatalf("missing file: changed=%v err=%v", changed, err)
	}

	if err := os.WriteFile(path, []byte("tools: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err = checkDefsFile(ctx, s, path)
	if err != nil || changed {
		t.Fatalf("first sighting is not a change: changed=%v err=%v", changed, err)
	}

	changed, _ = checkDefsFile(ctx, s, path)
	if changed {
		t.Error("unchanged file reported as changed")
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	changed, _ = checkDefsFile(ctx, s, path)
	if !changed {
		t.Error("expected change after mtime update")
	}
}

func TestOrphanedSettings(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "orphans.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	s := store.NewSQLiteStore(d)
	ctx := context.Background()

	for _, k := range []string{"showHaulUrgently", "showGone", "showrevGone", "contextmenu_huntAll", "selectionLimit"} {
		if err := s.SetState(ctx, k, "true"); err != nil {
			t.Fatal(err)
		}
	}

	known := map[string]bool{"showHaulUrgently": true, "contextmenu_huntAll": true}
	orphans, err := orphanedSettings(ctx, s, func(k string) bool { return known[k] })
	if err != nil {
		t.Fatal(err)
	}
	if len(orphans) != 2 {
		t.Errorf("expected 2 orphans, got %v", orphans)
	}
}
