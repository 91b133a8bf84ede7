package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"designate/pkg/db"
	"designate/pkg/store"
)

const (
	defsMTimeStateKey = "defs_file_mtime"
	rebuildRetention  = 30 * 24 * time.Hour
)

// Known reports whether a stored setting key still has a handle.
type Known func(key string) bool

// Run executes all maintenance tasks: defs change detection, rebuild log
// pruning and orphaned setting reporting. It blocks until completion.
func Run(ctx context.Context, s store.Store, d *db.DB, defsPath string, known Known) error {
	slog.Info("Starting database maintenance...")

	if changed, err := checkDefsFile(ctx, s, defsPath); err != nil {
		slog.Error("Defs file check failed", "error", err)
	} else if changed {
		slog.Info("Definitions changed since last run", "path", defsPath)
	}

	if n, err := d.PruneRebuildLog(rebuildRetention); err != nil {
		slog.Error("Rebuild log pruning failed", "error", err)
	} else {
		slog.Info("Rebuild log pruning completed", "removed", n)
	}

	if known != nil {
		if orphans, err := orphanedSettings(ctx, s, known); err != nil {
			slog.Error("Orphaned settings scan failed", "error", err)
		} else if len(orphans) > 0 {
			// Kept on purpose: a definition may come back in a later defs file.
			slog.Info("Stored settings without a definition", "count", len(orphans), "keys", orphans)
		}
	}

	return nil
}

// checkDefsFile compares the defs file mtime with the last recorded one.
func checkDefsFile(ctx context.Context, s store.StateStore, path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat defs: %w", err)
	}

	fileMTime := info.ModTime().UTC().Format(time.RFC3339)
	stored, found := s.GetState(ctx, defsMTimeStateKey)
	if found && stored == fileMTime {
		return false, nil
	}

	if err := s.SetState(ctx, defsMTimeStateKey, fileMTime); err != nil {
		return false, fmt.Errorf("failed to update state: %w", err)
	}
	return found, nil
}

func orphanedSettings(ctx context.Context, s store.StateStore, known Known) ([]string, error) {
	var orphans []string
	for _, prefix := range []string{"show", "contextmenu_"} {
		vals, err := s.ListState(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for k := range vals {
			if !known(k) {
				orphans = append(orphans, k)
			}
		}
	}
	return dedupe(orphans), nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if seen[k] || strings.TrimSpace(k) == "" {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
