// Package designator keeps the set of active tools in step with definitions
// and settings, and routes key presses to them.
package designator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"designate/pkg/core"
	"designate/pkg/defs"
	"designate/pkg/dispatch"
	"designate/pkg/keys"
	"designate/pkg/logging"
	"designate/pkg/registry"
	"designate/pkg/store"
)

// ErrRebuild wraps any failure while rebuilding the registry.
var ErrRebuild = errors.New("registry rebuild failed")

// Resolver turns a definition into a live tool.
type Resolver interface {
	Resolve(def defs.ToolDef) (registry.Tool, error)
}

// Settings supplies enablement. Unknown identities must resolve false.
type Settings interface {
	ToolEnabled(ctx context.Context, id string) bool
	ReverseEnabled(ctx context.Context, name string) bool
	GlobalHotkeys(ctx context.Context) bool
	ExtendedContextAction(ctx context.Context) bool
}

// ContextMenus handles the context key and follows registry rebuilds.
type ContextMenus interface {
	dispatch.ContextAction
	Rebind(entries []registry.Entry)
}

// Options configures a Controller.
type Options struct {
	Defs     defs.Provider
	Settings Settings
	Resolver Resolver
	Selector dispatch.Selector
	Deferrer core.Deferrer

	// Optional collaborators. Missing ones degrade the matching feature.
	Surface      dispatch.Surface
	ContextMenus ContextMenus
	ContextKey   keys.Key
	RebuildLog   store.RebuildLogStore
	Edges        *keys.EdgeTracker
}

// Controller is the host-facing hub.
type Controller struct {
	defs     defs.Provider
	settings Settings
	resolver Resolver
	menus    ContextMenus
	log      store.RebuildLogStore

	reg        *registry.Registry
	trigger    *core.Trigger
	dispatcher *dispatch.Dispatcher

	mu      sync.Mutex
	reasons []string
}

// New validates the collaborators and returns a controller with an empty
// registry. Call RequestRebuild to populate it.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Defs == nil:
		return nil, fmt.Errorf("designator: definition provider is required")
	case opts.Settings == nil:
		return nil, fmt.Errorf("designator: settings are required")
	case opts.Resolver == nil:
		return nil, fmt.Errorf("designator: resolver is required")
	case opts.Selector == nil:
		return nil, fmt.Errorf("designator: selector is required")
	case opts.Deferrer == nil:
		return nil, fmt.Errorf("designator: deferrer is required")
	}

	if opts.Surface == nil {
		slog.Error("Designator: no surface provided, per-tool hotkeys are disabled")
	}
	if opts.ContextMenus == nil {
		slog.Error("Designator: no context menu handler provided, context key is disabled")
	}

	c := &Controller{
		defs:     opts.Defs,
		settings: opts.Settings,
		resolver: opts.Resolver,
		menus:    opts.ContextMenus,
		log:      opts.RebuildLog,
		reg:      registry.New(),
	}
	c.trigger = core.NewTrigger("registry-rebuild", opts.Deferrer, c.rebuild)

	var ctxAction dispatch.ContextAction
	if opts.ContextMenus != nil {
		ctxAction = opts.ContextMenus
	}
	d, err := dispatch.New(dispatch.Options{
		Registry:      c.reg,
		ContextKey:    opts.ContextKey,
		Surface:       opts.Surface,
		Selector:      opts.Selector,
		ContextAction: ctxAction,
		GlobalHotkeys: func() bool { return c.settings.GlobalHotkeys(context.Background()) },
		Enabled:       func(id string) bool { return c.settings.ToolEnabled(context.Background(), id) },
		Edges:         opts.Edges,
	})
	if err != nil {
		return nil, err
	}
	c.dispatcher = d
	return c, nil
}

// RequestRebuild schedules a rebuild on the next update. Any number of calls
// before then result in one rebuild.
func (c *Controller) RequestRebuild() bool {
	return c.request("request")
}

func (c *Controller) request(reason string) bool {
	c.mu.Lock()
	c.reasons = append(c.reasons, reason)
	c.mu.Unlock()
	return c.trigger.Request()
}

// SettingsChanged re-resolves every definition category. Each category
// requests a rebuild; they coalesce into one.
func (c *Controller) SettingsChanged() {
	cats := categories(c.defs.Tools())
	if len(cats) == 0 {
		c.request("settings")
		return
	}
	for _, cat := range cats {
		c.request("settings:" + cat)
	}
}

// DefsChanged requests a rebuild after the definitions were reloaded.
func (c *Controller) DefsChanged() {
	c.request("defs")
}

// HandleInput is the per-event hook.
func (c *Controller) HandleInput(ev keys.Event) dispatch.Result {
	return c.dispatcher.HandleInput(ev)
}

// IsEnabled reports whether id is enabled in settings, registered and
// currently visible.
func (c *Controller) IsEnabled(id string) bool {
	if !c.IsEnabledInSettings(id) {
		return false
	}
	e, ok := c.reg.Find(id)
	return ok && e.Visible()
}

// IsEnabledInSettings reports the persisted enablement of id.
func (c *Controller) IsEnabledInSettings(id string) bool {
	return c.settings.ToolEnabled(context.Background(), id)
}

// IsReverseEnabled reports whether the reverse designator name is declared
// and enabled.
func (c *Controller) IsReverseEnabled(name string) bool {
	if rp, ok := c.defs.(defs.ReverseProvider); ok {
		known := false
		for _, r := range rp.Reverse() {
			if r.Name == name {
				known = true
				break
			}
		}
		if !known {
			return false
		}
	}
	return c.settings.ReverseEnabled(context.Background(), name)
}

// FindEntry looks up an active entry.
func (c *Controller) FindEntry(id string) (registry.Entry, bool) {
	return c.reg.Find(id)
}

// Registry returns the live registry.
func (c *Controller) Registry() *registry.Registry {
	return c.reg
}

// Dispatcher returns the hotkey dispatcher.
func (c *Controller) Dispatcher() *dispatch.Dispatcher {
	return c.dispatcher
}

// Rebuilds returns how many rebuilds have run, including failed ones.
func (c *Controller) Rebuilds() int64 {
	return c.trigger.Runs()
}

// FailedRebuilds returns how many rebuilds failed.
func (c *Controller) FailedRebuilds() int64 {
	return c.trigger.Failures()
}

// RebuildPending reports whether a rebuild is scheduled.
func (c *Controller) RebuildPending() bool {
	return c.trigger.Scheduled()
}

func (c *Controller) takeReasons() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	reason := summarize(c.reasons)
	c.reasons = nil
	return reason
}

// rebuild runs on the loop thread. The new entry list is built completely
// before it replaces the registry.
func (c *Controller) rebuild() error {
	ctx := context.Background()
	id := uuid.NewString()
	reason := c.takeReasons()
	start := time.Now()

	entries, err := c.buildEntries(ctx)
	rec := &store.RebuildRecord{ID: id, Reason: reason}

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRebuild, err)
		rec.Generation = c.reg.Generation()
		rec.Error = err.Error()
		rec.Duration = time.Since(start)
		c.record(ctx, rec)
		slog.Warn("Designator: keeping previous registry", "rebuild_id", id, "reason", reason, "generation", rec.Generation)
		logging.LogEvent("rebuild", "failed", err.Error())
		return err
	}

	c.reg.Replace(entries)
	active := c.reg.Entries()
	if c.menus != nil {
		c.menus.Rebind(active)
	}

	rec.Generation = c.reg.Generation()
	rec.Entries = len(active)
	rec.Duration = time.Since(start)
	c.record(ctx, rec)

	slog.Info("Designator: registry rebuilt",
		"rebuild_id", id,
		"reason", reason,
		"entries", len(active),
		"generation", rec.Generation,
		"duration", rec.Duration)
	logging.LogEvent("rebuild", fmt.Sprintf("generation %d", rec.Generation), fmt.Sprintf("%d tools", len(active)))
	return nil
}

func (c *Controller) buildEntries(ctx context.Context) (entries []registry.Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	tools := c.defs.Tools()
	entries = make([]registry.Entry, 0, len(tools))
	seen := make(map[string]bool, len(tools))

	for _, def := range tools {
		if seen[def.Name] {
			continue
		}
		seen[def.Name] = true

		if !c.settings.ToolEnabled(ctx, def.Name) {
			logging.TraceDefault("Designator: skipping disabled tool", "tool", def.Name)
			continue
		}

		tool, err := c.resolver.Resolve(def)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", def.Name, err)
		}
		if tool == nil {
			return nil, fmt.Errorf("resolve %s: resolver returned no tool", def.Name)
		}

		entries = append(entries, registry.Entry{
			ID:                def.Name,
			Label:             def.DisplayLabel(),
			Kind:              def.Kind,
			Hotkey:            def.Hotkey,
			EnabledInSettings: true,
			Tool:              tool,
		})
	}
	return entries, nil
}

func (c *Controller) record(ctx context.Context, rec *store.RebuildRecord) {
	if c.log == nil {
		return
	}
	if err := c.log.SaveRebuild(ctx, rec); err != nil {
		slog.Warn("Designator: failed to record rebuild", "rebuild_id", rec.ID, "error", err)
	}
}

func categories(tools []defs.ToolDef) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tools {
		cat := t.Category
		if cat == "" {
			cat = defs.DefaultCategory
		}
		if seen[cat] {
			continue
		}
		seen[cat] = true
		out = append(out, cat)
	}
	return out
}

// summarize collapses repeated reasons, keeping first-seen order.
func summarize(reasons []string) string {
	if len(reasons) == 0 {
		return "request"
	}
	seen := make(map[string]bool, len(reasons))
	out := ""
	for _, r := range reasons {
		if seen[r] {
			continue
		}
		seen[r] = true
		if out != "" {
			out += ","
		}
		out += r
	}
	return out
}
