package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designate/pkg/config"
	"designate/pkg/core"
	"designate/pkg/db"
	"designate/pkg/defs"
	"designate/pkg/designator"
	"designate/pkg/dispatch"
	"designate/pkg/host"
	"designate/pkg/keys"
	"designate/pkg/store"
	"designate/pkg/tracker"
)

func newTestModel(t *testing.T) Model {
	t.Helper()

	d, err := db.Init(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	st := store.NewSQLiteStore(d)

	database := defs.Default()
	prov := config.NewProvider(config.DefaultConfig(), st)
	prov.RegisterTools(database)

	h := host.New()
	loop := core.NewLoop(time.Millisecond, nil)
	ctrl, err := designator.New(designator.Options{
		Defs:       database,
		Settings:   prov,
		Resolver:   h,
		Selector:   h,
		Deferrer:   loop.Later(),
		Surface:    h,
		ContextKey: keys.MustParse("z"),
	})
	require.NoError(t, err)

	m := New(context.Background(), Deps{Loop: loop, Ctrl: ctrl, Host: h, Defs: database, Settings: prov, Stats: tracker.New()}, time.Millisecond)
	m = step(t, m, frameMsg(time.Now()))
	require.Equal(t, uint64(1), ctrl.Registry().Generation())
	return m
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyFromMsg(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want keys.Key
		ok   bool
	}{
		{"letter", runes("h"), "h", true},
		{"upper case is shift", runes("K"), "shift+k", true},
		{"alt", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f"), Alt: true}, "alt+f", true},
		{"function key", tea.KeyMsg{Type: tea.KeyF1}, "f1", true},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, "enter", true},
		{"empty runes", tea.KeyMsg{Type: tea.KeyRunes}, keys.None, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := keyFromMsg(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInit_SchedulesFrame(t *testing.T) {
	m := New(context.Background(), Deps{}, 0)
	assert.Equal(t, core.DefaultFrame, m.frame)
	assert.NotNil(t, m.Init())
}

func TestKeySelectsFirstVisibleTool(t *testing.T) {
	m := newTestModel(t)

	// HuntAll shares "h" but needs hunting; HaulUrgently comes first anyway.
	m = step(t, m, runes("h"))
	assert.Equal(t, dispatch.ResultSelected, m.last.Kind)
	assert.Equal(t, "HaulUrgently", m.last.Tool)
	assert.Equal(t, "HaulUrgently", m.deps.Host.SelectedTool())

	m = step(t, m, runes("K"))
	assert.Equal(t, "ForbidAll", m.last.Tool)
	assert.Equal(t, int64(2), m.deps.Stats.Snapshot()["tui"].Selected)
}

func TestCtrlS_GatesHotkeys(t *testing.T) {
	m := newTestModel(t)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.False(t, m.deps.Host.Active())

	m = step(t, m, runes("k"))
	assert.Equal(t, dispatch.ResultGated, m.last.Kind)
	assert.Empty(t, m.deps.Host.SelectedTool())
}

func TestCtrlT_TogglesSettingAndRebuilds(t *testing.T) {
	m := newTestModel(t)
	require.Equal(t, "AllowAll", m.tools()[0].Name)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.False(t, m.deps.Settings.Bool(context.Background(), config.ToolKey("AllowAll")))
	assert.True(t, m.deps.Ctrl.RebuildPending())

	m = step(t, m, frameMsg(time.Now()))
	_, ok := m.deps.Ctrl.FindEntry("AllowAll")
	assert.False(t, ok)

	m = step(t, m, runes("k"))
	assert.Equal(t, dispatch.ResultNone, m.last.Kind)

	// The row stays listed so the tool can be switched back on.
	assert.Contains(t, m.View(), "Allow all")
}

func TestCtrlU_UnlocksRequirements(t *testing.T) {
	m := newTestModel(t)

	for m.tools()[m.cursor].Name != "HuntAll" {
		m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	m = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.True(t, m.deps.Host.Unlocked("hunting"))
	assert.Contains(t, m.status, "hunting unlocked")
}

func TestCursorBounds(t *testing.T) {
	m := newTestModel(t)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)

	for i := 0; i < 50; i++ {
		m = step(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, len(m.tools())-1, m.cursor)
}

func TestEscQuits(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	m = step(t, m, runes("g"))

	out := m.View()
	assert.Contains(t, out, "Select similar")
	assert.Contains(t, out, "selected: SelectSimilar")
	assert.Contains(t, out, "gen 1")
	assert.True(t, strings.Contains(out, "hidden"), "locked tools render as hidden")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcd", 3))
}
