// Package tracker counts dispatch outcomes per input source.
package tracker

import (
	"sync"
	"sync/atomic"

	"designate/pkg/dispatch"
)

// Tracker is goroutine-safe.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*SourceStats
}

// SourceStats holds the outcome counters for one input source.
// Fields are accessed atomically.
type SourceStats struct {
	Selected       int64 `json:"selected"`
	ContextActions int64 `json:"context_actions"`
	Gated          int64 `json:"gated"`
	Unmatched      int64 `json:"unmatched"`
	Errors         int64 `json:"errors"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*SourceStats),
	}
}

func (t *Tracker) getStats(source string) *SourceStats {
	t.mu.RLock()
	s, ok := t.stats[source]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.stats[source]; ok {
		return s
	}
	s = &SourceStats{}
	t.stats[source] = s
	return s
}

// Track counts one dispatch result. Callers track key presses only; a
// release never dispatches.
func (t *Tracker) Track(source string, kind dispatch.Kind) {
	s := t.getStats(source)
	switch kind {
	case dispatch.ResultSelected:
		atomic.AddInt64(&s.Selected, 1)
	case dispatch.ResultContextAction:
		atomic.AddInt64(&s.ContextActions, 1)
	case dispatch.ResultGated:
		atomic.AddInt64(&s.Gated, 1)
	case dispatch.ResultError:
		atomic.AddInt64(&s.Errors, 1)
	default:
		atomic.AddInt64(&s.Unmatched, 1)
	}
}

func load(v *SourceStats) SourceStats {
	return SourceStats{
		Selected:       atomic.LoadInt64(&v.Selected),
		ContextActions: atomic.LoadInt64(&v.ContextActions),
		Gated:          atomic.LoadInt64(&v.Gated),
		Unmatched:      atomic.LoadInt64(&v.Unmatched),
		Errors:         atomic.LoadInt64(&v.Errors),
	}
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]SourceStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]SourceStats, len(t.stats))
	for k, v := range t.stats {
		result[k] = load(v)
	}
	return result
}

// Total sums every source.
func (t *Tracker) Total() SourceStats {
	var total SourceStats
	for _, s := range t.Snapshot() {
		total.Selected += s.Selected
		total.ContextActions += s.ContextActions
		total.Gated += s.Gated
		total.Unmatched += s.Unmatched
		total.Errors += s.Errors
	}
	return total
}
