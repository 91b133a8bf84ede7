package registry

import (
	"log/slog"
	"sync/atomic"

	"designate/pkg/keys"
)

// Tool is a live, selectable designator produced by the host.
type Tool interface {
	ID() string
	// Visible reports whether the tool can currently be used. It depends on
	// host state and is evaluated on every call.
	Visible() bool
}

// Entry is one active tool in the registry.
type Entry struct {
	ID                string
	Label             string
	Kind              string
	Hotkey            keys.Key
	EnabledInSettings bool
	Tool              Tool
}

// Visible evaluates the tool's visibility predicate.
func (e Entry) Visible() bool {
	return e.Tool != nil && e.Tool.Visible()
}

// HasHotkey reports whether the entry is bound to a key.
func (e Entry) HasHotkey() bool {
	return !e.Hotkey.IsNone()
}

// Available reports whether the entry can be dispatched right now.
func (e Entry) Available() bool {
	return e.EnabledInSettings && e.Visible()
}

type snapshot struct {
	entries    []Entry
	index      map[string]int
	generation uint64
}

// Registry holds the ordered set of active entries.
// The set is only ever replaced as a whole; readers always see either the
// previous or the next complete snapshot.
type Registry struct {
	current atomic.Pointer[snapshot]
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	r.current.Store(&snapshot{index: map[string]int{}})
	return r
}

// Replace swaps in a new entry sequence. The slice is copied; duplicate
// identities after the first are dropped.
func (r *Registry) Replace(entries []Entry) {
	prev := r.current.Load()

	next := &snapshot{
		entries:    make([]Entry, 0, len(entries)),
		index:      make(map[string]int, len(entries)),
		generation: prev.generation + 1,
	}
	for _, e := range entries {
		if _, dup := next.index[e.ID]; dup {
			slog.Warn("Registry: duplicate tool identity dropped", "tool", e.ID)
			continue
		}
		next.index[e.ID] = len(next.entries)
		next.entries = append(next.entries, e)
	}

	r.current.Store(next)
}

// Find returns the entry with the given identity.
func (r *Registry) Find(id string) (Entry, bool) {
	s := r.current.Load()
	i, ok := s.index[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// ForEach calls fn for every entry in registry order until fn returns false.
// The whole iteration runs over one snapshot.
func (r *Registry) ForEach(fn func(Entry) bool) {
	s := r.current.Load()
	for _, e := range s.entries {
		if !fn(e) {
			return
		}
	}
}

// Entries returns a copy of the current entries.
func (r *Registry) Entries() []Entry {
	s := r.current.Load()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of active entries.
func (r *Registry) Len() int {
	return len(r.current.Load().entries)
}

// Generation increments on every Replace.
func (r *Registry) Generation() uint64 {
	return r.current.Load().generation
}
