// Package dispatch maps key-down edges to at most one action per press.
package dispatch

import (
	"fmt"
	"log/slog"
	"sync"

	"designate/pkg/keys"
	"designate/pkg/logging"
	"designate/pkg/registry"
)

// Surface reports whether a surface that accepts tool selection is active.
type Surface interface {
	Active() bool
}

// Selector activates a tool on the host.
type Selector interface {
	Select(id string)
}

// ContextAction handles the reserved context-action key.
// It reports whether an action was applied.
type ContextAction interface {
	ProcessContextAction() bool
}

// GlobalHotkeys reports whether per-tool hotkeys are enabled.
type GlobalHotkeys func() bool

// ToolEnabled reports the live enablement setting for a tool id.
type ToolEnabled func(id string) bool

// Kind classifies the outcome of one input event.
type Kind int

const (
	ResultNone Kind = iota
	ResultContextAction
	ResultGated
	ResultSelected
	ResultError
)

func (k Kind) String() string {
	switch k {
	case ResultNone:
		return "none"
	case ResultContextAction:
		return "context_action"
	case ResultGated:
		return "gated"
	case ResultSelected:
		return "selected"
	case ResultError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind for JSON payloads.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for c := ResultNone; c <= ResultError; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown result kind %q", text)
}

// Result describes what a key press did.
type Result struct {
	Kind Kind     `json:"kind"`
	Key  keys.Key `json:"key,omitempty"`
	// Tool is the selected entry for ResultSelected.
	Tool string `json:"tool,omitempty"`
	// Applied is set for ResultContextAction when a menu entry ran.
	Applied bool  `json:"applied,omitempty"`
	Err     error `json:"-"`
}

// Options configures a Dispatcher.
type Options struct {
	Registry      *registry.Registry
	ContextKey    keys.Key
	Surface       Surface
	Selector      Selector
	ContextAction ContextAction
	GlobalHotkeys GlobalHotkeys
	// Enabled, when set, is checked on every match so a setting turned off
	// takes effect before the next rebuild.
	Enabled ToolEnabled
	// Edges defaults to a fresh tracker.
	Edges *keys.EdgeTracker
}

// Dispatcher runs the per-event hotkey scan.
type Dispatcher struct {
	reg        *registry.Registry
	contextKey keys.Key
	surface    Surface
	selector   Selector
	ctxAction  ContextAction
	global     GlobalHotkeys
	enabled    ToolEnabled
	edges      *keys.EdgeTracker

	warnOnce sync.Once
}

// New creates a dispatcher. A nil Registry or Selector is a programming error.
func New(opts Options) (*Dispatcher, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("dispatch: registry is required")
	}
	if opts.Selector == nil {
		return nil, fmt.Errorf("dispatch: selector is required")
	}
	edges := opts.Edges
	if edges == nil {
		edges = keys.NewEdgeTracker()
	}
	return &Dispatcher{
		reg:        opts.Registry,
		contextKey: opts.ContextKey,
		surface:    opts.Surface,
		selector:   opts.Selector,
		ctxAction:  opts.ContextAction,
		global:     opts.GlobalHotkeys,
		enabled:    opts.Enabled,
		edges:      edges,
	}, nil
}

// Edges returns the tracker used to detect fresh presses.
func (d *Dispatcher) Edges() *keys.EdgeTracker {
	return d.edges
}

// HandleInput processes one raw key transition. Only fresh key-down edges
// can select anything. Panics in collaborators are recovered and reported as
// ResultError.
func (d *Dispatcher) HandleInput(ev keys.Event) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Kind: ResultError, Key: ev.Key, Err: fmt.Errorf("panic during dispatch: %v", r)}
			slog.Error("Dispatch: input handler failed", "key", ev.Key, "error", res.Err)
		}
	}()

	if !d.edges.Observe(ev) {
		return Result{Kind: ResultNone, Key: ev.Key}
	}
	k := ev.Key

	// 1. Reserved context-action key always wins and never falls through.
	if !d.contextKey.IsNone() && d.edges.JustPressed(d.contextKey) {
		if d.ctxAction == nil {
			d.warnOnce.Do(func() {
				slog.Error("Dispatch: no context action handler, context key disabled", "key", d.contextKey)
			})
			return Result{Kind: ResultNone, Key: k}
		}
		applied := d.ctxAction.ProcessContextAction()
		logging.TraceDefault("Dispatch: context action", "key", k, "applied", applied)
		return Result{Kind: ResultContextAction, Key: k, Applied: applied}
	}

	// 2. Gates.
	if d.global != nil && !d.global() {
		return Result{Kind: ResultGated, Key: k}
	}
	if d.surface == nil || !d.surface.Active() {
		return Result{Kind: ResultGated, Key: k}
	}

	// 3. First enabled, visible match in registry order.
	var picked string
	d.reg.ForEach(func(e registry.Entry) bool {
		if !e.HasHotkey() || !d.edges.JustPressed(e.Hotkey) {
			return true
		}
		if !e.EnabledInSettings || (d.enabled != nil && !d.enabled(e.ID)) {
			return true
		}
		if !e.Visible() {
			logging.TraceDefault("Dispatch: skipping hidden entry", "tool", e.ID, "key", k)
			return true
		}
		picked = e.ID
		return false
	})

	if picked == "" {
		return Result{Kind: ResultNone, Key: k}
	}

	d.selector.Select(picked)
	slog.Debug("Dispatch: selected tool", "tool", picked, "key", k)
	return Result{Kind: ResultSelected, Key: k, Tool: picked}
}
