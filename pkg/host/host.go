// Package host is an in-memory stand-in for the application that owns the
// designators. It resolves definitions into live tools and records what the
// dispatcher and context menu do to it.
package host

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"designate/pkg/defs"
	"designate/pkg/logging"
	"designate/pkg/registry"
)

// KnownKinds are the tool kinds this host can resolve.
var KnownKinds = map[string]bool{
	"allow":          true,
	"forbid":         true,
	"select_similar": true,
	"haul_urgently":  true,
	"hunt":           true,
	"harvest":        true,
	"finish_off":     true,
	"strip_mine":     true,
}

// State is a point-in-time copy of the host.
type State struct {
	MapActive    bool           `json:"map_active"`
	Selected     string         `json:"selected"`
	LastSelected string         `json:"last_selected"`
	Unlocked     []string       `json:"unlocked"`
	Designations map[string]int `json:"designations"`
	Selections   int            `json:"selections"`
}

// Host is goroutine-safe.
type Host struct {
	mu         sync.RWMutex
	unlocked   map[string]bool
	mapActive  bool
	selected   string
	last       string
	kinds      map[string]string
	targets    map[string]int
	counters   map[string]int
	selections int
	limit      func() int
}

// New creates a host with the map surface active and nothing unlocked.
func New() *Host {
	return &Host{
		unlocked:  make(map[string]bool),
		mapActive: true,
		kinds:     make(map[string]string),
		targets:   make(map[string]int),
		counters:  make(map[string]int),
	}
}

// SetSelectionLimit caps how many targets one ApplyAll may designate.
func (h *Host) SetSelectionLimit(limit func() int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.limit = limit
}

// --- Features ---

// Unlock makes feature available. Tools that require it become visible.
func (h *Host) Unlock(feature string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unlocked[feature] = true
	slog.Info("Host: feature unlocked", "feature", feature)
}

// Lock reverts Unlock.
func (h *Host) Lock(feature string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.unlocked, feature)
}

// Toggle flips a feature and returns its new state.
func (h *Host) Toggle(feature string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unlocked[feature] {
		delete(h.unlocked, feature)
		return false
	}
	h.unlocked[feature] = true
	return true
}

// Unlocked reports whether feature has been unlocked.
func (h *Host) Unlocked(feature string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.unlocked[feature]
}

// --- Surface ---

// SetMapActive shows or hides the map surface. Hiding it clears the selection.
func (h *Host) SetMapActive(active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mapActive = active
	if !active {
		h.selected = ""
	}
}

// Active implements dispatch.Surface.
func (h *Host) Active() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mapActive
}

// --- Tools ---

type tool struct {
	host *Host
	def  defs.ToolDef
}

func (t *tool) ID() string { return t.def.Name }

// Visible is true when every required feature is unlocked.
func (t *tool) Visible() bool {
	t.host.mu.RLock()
	defer t.host.mu.RUnlock()
	for _, f := range t.def.Requires {
		if !t.host.unlocked[f] {
			return false
		}
	}
	return true
}

// Resolve implements designator.Resolver.
func (h *Host) Resolve(def defs.ToolDef) (registry.Tool, error) {
	if !KnownKinds[def.Kind] {
		return nil, fmt.Errorf("tool %s: unknown kind %q", def.Name, def.Kind)
	}
	h.mu.Lock()
	h.kinds[def.Name] = def.Kind
	h.mu.Unlock()
	return &tool{host: h, def: def}, nil
}

// --- Selection ---

// Select implements dispatch.Selector.
func (h *Host) Select(id string) {
	h.mu.Lock()
	h.selected = id
	h.last = id
	h.selections++
	h.mu.Unlock()

	logging.LogEvent("select", id, "")
}

// Deselect clears the selected tool. The last selection is kept.
func (h *Host) Deselect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selected = ""
}

// SelectedTool implements contextmenu.Applier.
func (h *Host) SelectedTool() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.selected
}

// LastSelectedTool implements contextmenu.Applier.
func (h *Host) LastSelectedTool() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}

// --- Designation ---

// SetTargets sets how many targets of kind are available on the map.
func (h *Host) SetTargets(kind string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.targets[kind] = n
}

// ApplyAll implements contextmenu.Applier.
func (h *Host) ApplyAll(kind string) int {
	h.mu.Lock()
	limit := h.limit
	n := h.targets[kind]
	h.mu.Unlock()

	// limit reads settings; call it without holding the lock.
	if limit != nil {
		if most := limit(); n > most {
			n = most
		}
	}

	h.mu.Lock()
	h.counters[kind] += n
	h.mu.Unlock()
	return n
}

// Designations returns the designation count for kind.
func (h *Host) Designations(kind string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counters[kind]
}

// KindOf returns the kind of a resolved tool.
func (h *Host) KindOf(id string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.kinds[id]
}

// Snapshot returns a copy of the host state.
func (h *Host) Snapshot() State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	unlocked := make([]string, 0, len(h.unlocked))
	for f := range h.unlocked {
		unlocked = append(unlocked, f)
	}
	sort.Strings(unlocked)

	counters := make(map[string]int, len(h.counters))
	for k, v := range h.counters {
		counters[k] = v
	}

	return State{
		MapActive:    h.mapActive,
		Selected:     h.selected,
		LastSelected: h.last,
		Unlocked:     unlocked,
		Designations: counters,
		Selections:   h.selections,
	}
}
