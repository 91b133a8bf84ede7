// Package contextmenu runs bulk actions bound to the context-action key.
package contextmenu

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"designate/pkg/config"
	"designate/pkg/core"
	"designate/pkg/logging"
	"designate/pkg/registry"
)

// Entry is one context menu action. It binds to every active tool of
// HandledKind.
type Entry struct {
	Suffix      string
	TextKey     string
	HandledKind string
}

// SettingKey returns the enablement key of the entry.
func (e Entry) SettingKey() string {
	return config.MenuKey(e.Suffix)
}

// Builtin lists the bundled menu entries.
var Builtin = []Entry{
	{Suffix: "huntAll", TextKey: "Designator_context_hunt", HandledKind: "hunt"},
	{Suffix: "haulUrgentAll", TextKey: "Designator_context_urgent", HandledKind: "haul_urgently"},
	{Suffix: "allowAll", TextKey: "Designator_context_allow", HandledKind: "allow"},
	{Suffix: "forbidAll", TextKey: "Designator_context_forbid", HandledKind: "forbid"},
	{Suffix: "finishOffAll", TextKey: "Designator_context_finish", HandledKind: "finish_off"},
}

// BoolSettings resolves registered boolean settings.
type BoolSettings interface {
	Bool(ctx context.Context, key string) bool
}

// Applier is the host side of a menu action.
type Applier interface {
	// SelectedTool returns the active tool or "".
	SelectedTool() string
	// LastSelectedTool returns the most recently active tool, even if it
	// has been deselected since.
	LastSelectedTool() string
	// ApplyAll designates every valid target of kind and returns the count.
	ApplyAll(kind string) int
}

// Binding is a menu entry attached to an active tool.
type Binding struct {
	Tool  string `json:"tool"`
	Entry string `json:"entry"`
	Kind  string `json:"kind"`
}

// Controller owns the tool to menu entry bindings.
type Controller struct {
	entries  []Entry
	settings BoolSettings
	applier  Applier

	mu    sync.RWMutex
	bound map[string][]Entry
}

// NewController creates a controller. It has no bindings until Rebind.
func NewController(entries []Entry, settings BoolSettings, applier Applier) *Controller {
	if entries == nil {
		entries = Builtin
	}
	return &Controller{
		entries:  entries,
		settings: settings,
		applier:  applier,
		bound:    make(map[string][]Entry),
	}
}

// HandleKeys returns the suffixes for settings registration.
func (c *Controller) HandleKeys() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Suffix
	}
	return out
}

// Rebind attaches menu entries to the given active tools by kind.
func (c *Controller) Rebind(active []registry.Entry) {
	bound := make(map[string][]Entry)
	for _, tool := range active {
		for _, e := range c.entries {
			if tool.Kind != "" && tool.Kind == e.HandledKind {
				bound[tool.ID] = append(bound[tool.ID], e)
			}
		}
	}

	c.mu.Lock()
	c.bound = bound
	c.mu.Unlock()

	slog.Debug("ContextMenu: rebound", "tools", len(bound))
}

// BoundTools lists current bindings sorted by tool.
func (c *Controller) BoundTools() []Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Binding
	for tool, entries := range c.bound {
		for _, e := range entries {
			out = append(out, Binding{Tool: tool, Entry: e.Suffix, Kind: e.HandledKind})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tool != out[j].Tool {
			return out[i].Tool < out[j].Tool
		}
		return out[i].Entry < out[j].Entry
	})
	return out
}

// ProcessContextAction runs the first enabled entry bound to the selected
// tool. With the extended setting on, the last selected tool is used when
// nothing is selected.
func (c *Controller) ProcessContextAction() bool {
	if c.applier == nil {
		return false
	}
	ctx := context.Background()

	tool := c.applier.SelectedTool()
	if tool == "" && c.enabled(ctx, config.KeyExtendedContextAction) {
		tool = c.applier.LastSelectedTool()
	}
	if tool == "" {
		logging.TraceDefault("ContextMenu: nothing selected")
		return false
	}

	c.mu.RLock()
	entries := c.bound[tool]
	c.mu.RUnlock()

	for _, e := range entries {
		if !c.enabled(ctx, e.SettingKey()) {
			continue
		}
		n := c.applier.ApplyAll(e.HandledKind)
		slog.Info("ContextMenu: applied", "entry", e.Suffix, "tool", tool, "designated", n)
		logging.LogEvent("context", e.Suffix, tool)
		return true
	}
	return false
}

// CheckStaleBindings drops bindings whose tool is no longer registered and
// returns how many were dropped.
func (c *Controller) CheckStaleBindings(reg *registry.Registry) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for tool := range c.bound {
		if _, ok := reg.Find(tool); !ok {
			slog.Warn("ContextMenu: dropping stale binding", "tool", tool)
			delete(c.bound, tool)
			dropped++
		}
	}
	return dropped
}

// StaleCheckJob wraps CheckStaleBindings as a periodic loop job.
func (c *Controller) StaleCheckJob(reg *registry.Registry, every time.Duration) core.Job {
	return core.NewTimeJob("ContextMenuStaleCheck", every, false, func(context.Context) {
		c.CheckStaleBindings(reg)
	})
}

func (c *Controller) enabled(ctx context.Context, key string) bool {
	if c.settings == nil {
		return true
	}
	return c.settings.Bool(ctx, key)
}
