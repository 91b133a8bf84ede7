package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"designate/pkg/defs"
	"designate/pkg/store"
)

// ErrUnknownSetting is returned when writing a key that has no handle.
var ErrUnknownSetting = errors.New("unknown setting")

// Provider defines the interface for accessing unified configuration.
type Provider interface {
	GetBool(ctx context.Context, key string, fallback bool) bool
	Bool(ctx context.Context, key string) bool
	SetBool(ctx context.Context, key string, val bool) error

	GlobalHotkeys(ctx context.Context) bool
	ExtendedContextAction(ctx context.Context) bool
	ToolEnabled(ctx context.Context, name string) bool
	ReverseEnabled(ctx context.Context, name string) bool
	SelectionLimit(ctx context.Context) int

	// Raw access (for components that need deep access)
	AppConfig() *Config
}

// Value is a handle together with its effective value.
type Value struct {
	Handle
	Value  bool `json:"value"`
	Stored bool `json:"stored"`
}

// UnifiedProvider implements Provider by bridging static Config and persistent Store.
// Precedence: stored value, then the config file seed, then the handle default.
type UnifiedProvider struct {
	base  *Config
	store store.StateStore

	mu      sync.RWMutex
	handles map[string]Handle
	order   []string
}

// NewProvider creates a new UnifiedProvider with the general settings registered.
func NewProvider(base *Config, st store.StateStore) *UnifiedProvider {
	if base == nil {
		base = DefaultConfig()
	}
	p := &UnifiedProvider{
		base:    base,
		store:   st,
		handles: make(map[string]Handle),
	}
	for _, h := range generalHandles {
		h.Group = GroupGeneral
		p.Register(h)
	}
	return p
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

// Register adds or replaces a handle.
func (p *UnifiedProvider) Register(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.handles[h.Key]; !exists {
		p.order = append(p.order, h.Key)
	}
	p.handles[h.Key] = h
}

// RegisterTools creates one enablement handle per tool and reverse
// definition, replacing any handles from a previous database. Tools not
// registered here resolve as disabled.
func (p *UnifiedProvider) RegisterTools(db *defs.Database) {
	p.dropGroups(GroupTools, GroupReverse)
	for _, t := range db.Tools() {
		p.Register(Handle{Key: ToolKey(t.Name), Group: GroupTools, Label: t.DisplayLabel(), Default: true})
	}
	for _, r := range db.Reverse() {
		label := r.Name
		if t, ok := db.Tool(r.Tool); ok {
			label = t.DisplayLabel()
		}
		p.Register(Handle{Key: ReverseKey(r.Name), Group: GroupReverse, Label: label, Default: true})
	}
}

// dropGroups removes every handle in the given groups. Stored values are kept.
func (p *UnifiedProvider) dropGroups(groups ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	drop := make(map[string]bool, len(groups))
	for _, g := range groups {
		drop[g] = true
	}
	kept := p.order[:0]
	for _, key := range p.order {
		if drop[p.handles[key].Group] {
			delete(p.handles, key)
			continue
		}
		kept = append(kept, key)
	}
	p.order = kept
}

// RegisterMenuEntries creates enablement handles for context menu entries.
func (p *UnifiedProvider) RegisterMenuEntries(suffixes []string) {
	for _, s := range suffixes {
		p.Register(Handle{Key: MenuKey(s), Group: GroupMenus, Label: s, Default: true})
	}
}

// Lookup returns the handle for key.
func (p *UnifiedProvider) Lookup(key string) (Handle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.handles[key]
	return h, ok
}

// --- Implementations ---

func (p *UnifiedProvider) GlobalHotkeys(ctx context.Context) bool {
	return p.Bool(ctx, KeyGlobalHotkeys)
}

func (p *UnifiedProvider) ExtendedContextAction(ctx context.Context) bool {
	return p.Bool(ctx, KeyExtendedContextAction)
}

func (p *UnifiedProvider) ToolEnabled(ctx context.Context, name string) bool {
	return p.Bool(ctx, ToolKey(name))
}

func (p *UnifiedProvider) ReverseEnabled(ctx context.Context, name string) bool {
	return p.Bool(ctx, ReverseKey(name))
}

func (p *UnifiedProvider) SelectionLimit(ctx context.Context) int {
	return clampSelectionLimit(p.getInt(ctx, KeySelectionLimit, SelectionLimitDefault))
}

// SetSelectionLimit persists n clamped to the valid range and returns the
// stored value.
func (p *UnifiedProvider) SetSelectionLimit(ctx context.Context, n int) (int, error) {
	n = clampSelectionLimit(n)
	if p.store == nil {
		return n, fmt.Errorf("no state store configured")
	}
	return n, p.store.SetState(ctx, KeySelectionLimit, strconv.Itoa(n))
}

func clampSelectionLimit(n int) int {
	if n < SelectionLimitMin {
		return SelectionLimitMin
	}
	if n > SelectionLimitMax {
		return SelectionLimitMax
	}
	return n
}

// Bool resolves a registered handle. Unregistered keys are false.
func (p *UnifiedProvider) Bool(ctx context.Context, key string) bool {
	h, ok := p.Lookup(key)
	if !ok {
		return false
	}
	return p.GetBool(ctx, key, h.Default)
}

// GetBool resolves key against the store and the config seed.
func (p *UnifiedProvider) GetBool(ctx context.Context, key string, fallback bool) bool {
	if v, ok := p.storedBool(ctx, key); ok {
		return v
	}
	if v, ok := p.base.Settings[key]; ok {
		return v
	}
	return fallback
}

// SetBool persists a value for a registered handle.
func (p *UnifiedProvider) SetBool(ctx context.Context, key string, val bool) error {
	if _, ok := p.Lookup(key); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	if p.store == nil {
		return fmt.Errorf("no state store configured")
	}
	return p.store.SetState(ctx, key, strconv.FormatBool(val))
}

// Reset drops the stored value so the seed or default applies again.
func (p *UnifiedProvider) Reset(ctx context.Context, key string) error {
	if p.store == nil {
		return nil
	}
	return p.store.DeleteState(ctx, key)
}

// List returns registered handles with their effective values, sorted by
// group then registration order. Hidden handles are skipped unless
// includeHidden is set.
func (p *UnifiedProvider) List(ctx context.Context, includeHidden bool) []Value {
	p.mu.RLock()
	handles := make([]Handle, 0, len(p.order))
	for _, k := range p.order {
		handles = append(handles, p.handles[k])
	}
	p.mu.RUnlock()

	groupRank := map[string]int{GroupGeneral: 0, GroupTools: 1, GroupReverse: 2, GroupMenus: 3}
	sort.SliceStable(handles, func(i, j int) bool {
		return groupRank[handles[i].Group] < groupRank[handles[j].Group]
	})

	out := make([]Value, 0, len(handles))
	for _, h := range handles {
		if h.Hidden && !includeHidden {
			continue
		}
		_, stored := p.storedBool(ctx, h.Key)
		out = append(out, Value{
			Handle: h,
			Value:  p.GetBool(ctx, h.Key, h.Default),
			Stored: stored,
		})
	}
	return out
}

// --- Helpers ---

func (p *UnifiedProvider) storedBool(ctx context.Context, key string) (val, ok bool) {
	if p.store == nil {
		return false, false
	}
	raw, ok := p.store.GetState(ctx, key)
	if !ok || raw == "" {
		return false, false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("Settings: ignoring malformed stored value", "key", key, "value", raw)
		return false, false
	}
	return b, true
}

func (p *UnifiedProvider) getInt(ctx context.Context, key string, fallback int) int {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				return i
			}
		}
	}
	return fallback
}
