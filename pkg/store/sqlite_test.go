package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"designate/pkg/db"
)

func TestSQLiteStore(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	d, err := db.Init(dbPath)
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	defer d.Close()

	store := NewSQLiteStore(d)
	ctx := context.Background()

	testState(t, ctx, store)
	testListState(t, ctx, store)
	testRebuildLog(t, ctx, store)
}

func testState(t *testing.T, ctx context.Context, store *SQLiteStore) {
	t.Run("State", func(t *testing.T) {
		if err := store.SetState(ctx, "my_key", "my_val"); err != nil {
			t.Errorf("SetState failed: %v", err)
		}
		sVal, sHit := store.GetState(ctx, "my_key")
		if !sHit {
			t.Error("Expected state hit")
		}
		if sVal != "my_val" {
			t.Errorf("Expected 'my_val', got '%s'", sVal)
		}

		if err := store.SetState(ctx, "my_key", "other"); err != nil {
			t.Errorf("SetState overwrite failed: %v", err)
		}
		if v, _ := store.GetState(ctx, "my_key"); v != "other" {
			t.Errorf("Expected 'other', got '%s'", v)
		}

		if err := store.DeleteState(ctx, "my_key"); err != nil {
			t.Errorf("DeleteState failed: %v", err)
		}
		if _, hit := store.GetState(ctx, "my_key"); hit {
			t.Error("Expected miss after delete")
		}
	})
}

func testListState(t *testing.T, ctx context.Context, store *SQLiteStore) {
	t.Run("ListState", func(t *testing.T) {
		for k, v := range map[string]string{
			"showHaulUrgently":    "false",
			"showrevFinishOff":    "true",
			"contextmenu_huntAll": "true",
			"show_underscore":     "true",
			"showXunderscore":     "true",
		} {
			if err := store.SetState(ctx, k, v); err != nil {
				t.Fatalf("SetState %s: %v", k, err)
			}
		}

		got, err := store.ListState(ctx, "showrev")
		if err != nil {
			t.Fatalf("ListState failed: %v", err)
		}
		if len(got) != 1 || got["showrevFinishOff"] != "true" {
			t.Errorf("unexpected showrev listing: %v", got)
		}

		// '_' must match literally, not as a wildcard.
		got, err = store.ListState(ctx, "show_")
		if err != nil {
			t.Fatalf("ListState failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected only show_underscore, got %v", got)
		}
	})
}

func testRebuildLog(t *testing.T, ctx context.Context, store *SQLiteStore) {
	t.Run("RebuildLog", func(t *testing.T) {
		base := time.Now().Add(-time.Minute)
		for i, id := range []string{"a", "b", "c"} {
			rec := &RebuildRecord{
				ID:         id,
				Generation: uint64(i + 1),
				Entries:    10 + i,
				Reason:     "settings",
				Duration:   time.Duration(i) * time.Millisecond,
				CreatedAt:  base.Add(time.Duration(i) * time.Second),
			}
			if err := store.SaveRebuild(ctx, rec); err != nil {
				t.Fatalf("SaveRebuild failed: %v", err)
			}
		}
		if err := store.SaveRebuild(ctx, &RebuildRecord{ID: "d", Generation: 3, Error: "boom"}); err != nil {
			t.Fatalf("SaveRebuild failed: %v", err)
		}

		recs, err := store.RecentRebuilds(ctx, 2)
		if err != nil {
			t.Fatalf("RecentRebuilds failed: %v", err)
		}
		if len(recs) != 2 {
			t.Fatalf("expected 2 records, got %d", len(recs))
		}
		if recs[0].ID != "d" || recs[0].Error != "boom" {
			t.Errorf("expected newest failed record first, got %+v", recs[0])
		}
		if recs[1].ID != "c" || recs[1].Entries != 12 {
			t.Errorf("unexpected second record: %+v", recs[1])
		}
	})
}
