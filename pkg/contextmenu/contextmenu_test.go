package contextmenu

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designate/pkg/config"
	"designate/pkg/registry"
)

type mapSettings map[string]bool

func (m mapSettings) Bool(_ context.Context, key string) bool {
	v, ok := m[key]
	if !ok {
		return true
	}
	return v
}

type fakeApplier struct {
	selected string
	last     string
	applied  []string
}

func (a *fakeApplier) SelectedTool() string     { return a.selected }
func (a *fakeApplier) LastSelectedTool() string { return a.last }
func (a *fakeApplier) ApplyAll(kind string) int {
	a.applied = append(a.applied, kind)
	return 3
}

type stubTool string

func (s stubTool) ID() string    { return string(s) }
func (s stubTool) Visible() bool { return true }

func active(pairs ...string) []registry.Entry {
	var out []registry.Entry
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, registry.Entry{ID: pairs[i], Kind: pairs[i+1], EnabledInSettings: true, Tool: stubTool(pairs[i])})
	}
	return out
}

func TestRebindAndBoundTools(t *testing.T) {
	c := NewController(nil, mapSettings{}, &fakeApplier{})
	c.Rebind(active("HuntAll", "hunt", "HaulUrgently", "haul_urgently", "SelectSimilar", "select_similar"))

	got := c.BoundTools()
	require.Len(t, got, 2)
	assert.Equal(t, Binding{Tool: "HaulUrgently", Entry: "haulUrgentAll", Kind: "haul_urgently"}, got[0])
	assert.Equal(t, Binding{Tool: "HuntAll", Entry: "huntAll", Kind: "hunt"}, got[1])

	// Rebind replaces, not merges.
	c.Rebind(active("FinishOff", "finish_off"))
	got = c.BoundTools()
	require.Len(t, got, 1)
	assert.Equal(t, "FinishOff", got[0].Tool)
}

func TestHandleKeys(t *testing.T) {
	c := NewController(nil, nil, nil)
	assert.Equal(t, []string{"huntAll", "haulUrgentAll", "allowAll", "forbidAll", "finishOffAll"}, c.HandleKeys())
	assert.Equal(t, "contextmenu_huntAll", Builtin[0].SettingKey())
}

func TestProcessContextAction(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		last     string
		settings mapSettings
		want     bool
		applied  []string
	}{
		{"selected tool", "HuntAll", "", mapSettings{}, true, []string{"hunt"}},
		{"nothing selected", "", "", mapSettings{}, false, nil},
		{"last selected with extended key", "", "HuntAll", mapSettings{}, true, []string{"hunt"}},
		{"last selected without extended key", "", "HuntAll", mapSettings{config.KeyExtendedContextAction: false}, false, nil},
		{"entry disabled", "HuntAll", "", mapSettings{"contextmenu_huntAll": false}, false, nil},
		{"unbound tool", "SelectSimilar", "", mapSettings{}, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeApplier{selected: tt.selected, last: tt.last}
			c := NewController(nil, tt.settings, a)
			c.Rebind(active("HuntAll", "hunt", "SelectSimilar", "select_similar"))

			assert.Equal(t, tt.want, c.ProcessContextAction())
			assert.Equal(t, tt.applied, a.applied)
		})
	}
}

func TestProcessContextAction_NoApplier(t *testing.T) {
	c := NewController(nil, nil, nil)
	assert.False(t, c.ProcessContextAction())
}

func TestCheckStaleBindings(t *testing.T) {
	reg := registry.New()
	reg.Replace(active("HuntAll", "hunt"))

	c := NewController(nil, nil, &fakeApplier{})
	c.Rebind(active("HuntAll", "hunt", "ForbidAll", "forbid"))

	assert.Equal(t, 1, c.CheckStaleBindings(reg))
	assert.Len(t, c.BoundTools(), 1)
	assert.Equal(t, 0, c.CheckStaleBindings(reg))
}

func TestStaleCheckJob(t *testing.T) {
	reg := registry.New()
	c := NewController(nil, nil, &fakeApplier{})
	c.Rebind(active("HuntAll", "hunt"))

	job := c.StaleCheckJob(reg, time.Minute)
	now := time.Now()
	assert.False(t, job.ShouldFire(now))
	require.True(t, job.ShouldFire(now.Add(2*time.Minute)))
	job.Run(context.Background(), now.Add(2*time.Minute))
	assert.Empty(t, c.BoundTools())
}
