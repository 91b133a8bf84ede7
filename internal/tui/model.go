// Package tui is a terminal host for the designator loop.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"designate/pkg/config"
	"designate/pkg/core"
	"designate/pkg/defs"
	"designate/pkg/designator"
	"designate/pkg/dispatch"
	"designate/pkg/host"
	"designate/pkg/keys"
	"designate/pkg/logging"
	"designate/pkg/tracker"
)

// Deps are the collaborators driven by the model.
type Deps struct {
	Loop     *core.Loop
	Ctrl     *designator.Controller
	Host     *host.Host
	Defs     defs.Provider
	Settings *config.UnifiedProvider
	Stats    *tracker.Tracker // optional
}

type frameMsg time.Time

// logLines is how many recent log lines the view shows.
const logLines = 3

// Model is the bubbletea model. Update runs on the program goroutine, which
// is also the loop thread: every Loop.Step happens here.
type Model struct {
	ctx    context.Context
	deps   Deps
	frame  time.Duration
	cursor int
	width  int
	last   dispatch.Result
	status string
}

// New creates a model. frame is the loop interval.
func New(ctx context.Context, deps Deps, frame time.Duration) Model {
	if frame <= 0 {
		frame = core.DefaultFrame
	}
	return Model{ctx: ctx, deps: deps, frame: frame}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Init starts the frame ticker.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles frames and keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.deps.Loop.Step(m.ctx)
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tools := m.tools()

	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(tools)-1 {
			m.cursor++
		}
		return m, nil
	case "ctrl+t":
		if t, ok := m.highlighted(tools); ok {
			key := config.ToolKey(t.Name)
			next := !m.deps.Settings.Bool(m.ctx, key)
			if err := m.deps.Settings.SetBool(m.ctx, key, next); err != nil {
				m.status = errorStyle.Render(err.Error())
				return m, nil
			}
			m.deps.Ctrl.SettingsChanged()
			m.status = fmt.Sprintf("%s %s", t.Name, onOff(next))
		}
		return m, nil
	case "ctrl+u":
		if t, ok := m.highlighted(tools); ok {
			if len(t.Requires) == 0 {
				m.status = t.Name + " has no requirements"
				return m, nil
			}
			var parts []string
			for _, f := range t.Requires {
				parts = append(parts, fmt.Sprintf("%s %s", f, lockState(m.deps.Host.Toggle(f))))
			}
			m.status = strings.Join(parts, ", ")
		}
		return m, nil
	case "ctrl+s":
		active := !m.deps.Host.Active()
		m.deps.Host.SetMapActive(active)
		m.status = "map " + onOff(active)
		return m, nil
	case "ctrl+r":
		m.deps.Ctrl.RequestRebuild()
		m.status = "rebuild requested"
		return m, nil
	case "ctrl+d":
		m.deps.Host.Deselect()
		m.status = "deselected"
		return m, nil
	}

	k, ok := keyFromMsg(msg)
	if !ok {
		return m, nil
	}
	// Terminals never report key releases; each keystroke is a full tap.
	m.last = m.deps.Ctrl.HandleInput(keys.Press(k).From("tui"))
	m.deps.Ctrl.HandleInput(keys.Release(k).From("tui"))
	if m.deps.Stats != nil {
		m.deps.Stats.Track("tui", m.last.Kind)
	}
	return m, nil
}

// keyFromMsg maps a terminal keystroke to a binding. Upper-case letters
// become shift bindings.
func keyFromMsg(msg tea.KeyMsg) (keys.Key, bool) {
	s := msg.String()
	if r := []rune(s); len(r) == 1 && unicode.IsUpper(r[0]) {
		s = "shift+" + string(unicode.ToLower(r[0]))
	}
	k, err := keys.Parse(s)
	if err != nil || k.IsNone() {
		return keys.None, false
	}
	return k, true
}

func (m Model) tools() []defs.ToolDef {
	all := m.deps.Defs.Tools()
	seen := make(map[string]bool, len(all))
	out := all[:0:0]
	for _, t := range all {
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	return out
}

func (m Model) highlighted(tools []defs.ToolDef) (defs.ToolDef, bool) {
	if m.cursor < 0 || m.cursor >= len(tools) {
		return defs.ToolDef{}, false
	}
	return tools[m.cursor], true
}

// View renders the tool table and host state.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("designate sandbox"))
	b.WriteString("\n")

	state := m.deps.Host.Snapshot()
	var rows []string
	for i, t := range m.tools() {
		rows = append(rows, m.renderRow(i, t, state.Selected))
	}
	if len(rows) == 0 {
		rows = append(rows, disabledStyle.Render("no tools defined"))
	}
	b.WriteString(panelStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	unlocked := "none"
	if len(state.Unlocked) > 0 {
		unlocked = strings.Join(state.Unlocked, ", ")
	}
	info := []string{
		fmt.Sprintf("map: %s   selected: %s   last: %s", onOff(state.MapActive), orDash(state.Selected), orDash(state.LastSelected)),
		fmt.Sprintf("unlocked: %s", unlocked),
		fmt.Sprintf("registry: gen %d, %d rebuilds (%d failed)", m.deps.Ctrl.Registry().Generation(), m.deps.Ctrl.Rebuilds(), m.deps.Ctrl.FailedRebuilds()),
		fmt.Sprintf("last key: %s", describe(m.last)),
	}
	if m.status != "" {
		info = append(info, m.status)
	}
	b.WriteString(statusStyle.Render(strings.Join(info, "\n")))
	b.WriteString("\n")

	for _, line := range logging.GlobalLogCapture.Tail(logLines) {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString(truncate(line, m.width))
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render("↑/↓ move • ctrl+t toggle setting • ctrl+u toggle requirements • ctrl+s map • ctrl+r rebuild • ctrl+d deselect • esc quit"))
	return b.String()
}

func (m Model) renderRow(i int, t defs.ToolDef, selected string) string {
	cursor := "  "
	if i == m.cursor {
		cursor = cursorStyle.Render("> ")
	}

	label := t.DisplayLabel()
	if t.Name == selected {
		label = selectedStyle.Render(label)
	}

	var status string
	entry, active := m.deps.Ctrl.FindEntry(t.Name)
	switch {
	case !m.deps.Ctrl.IsEnabledInSettings(t.Name):
		status = disabledStyle.Render("off")
	case !active:
		status = disabledStyle.Render("pending")
	case !entry.Visible():
		status = hiddenStyle.Render("hidden")
	default:
		status = enabledStyle.Render("ready")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		cursor,
		hotkeyStyle.Render(t.Hotkey.String()),
		fmt.Sprintf("%-24s ", label),
		status,
	)
}

func describe(r dispatch.Result) string {
	switch r.Kind {
	case dispatch.ResultSelected:
		return fmt.Sprintf("%s → %s", r.Key, r.Tool)
	case dispatch.ResultContextAction:
		if r.Applied {
			return fmt.Sprintf("%s → context action", r.Key)
		}
		return fmt.Sprintf("%s → context action (nothing to do)", r.Key)
	case dispatch.ResultGated:
		return fmt.Sprintf("%s (hotkeys gated)", r.Key)
	case dispatch.ResultError:
		return errorStyle.Render(fmt.Sprintf("%s: %v", r.Key, r.Err))
	default:
		if r.Key.IsNone() {
			return "-"
		}
		return fmt.Sprintf("%s (no match)", r.Key)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func lockState(unlocked bool) string {
	if unlocked {
		return "unlocked"
	}
	return "locked"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	if width <= 1 {
		return s[:width]
	}
	return s[:width-1] + "…"
}

// Run starts the full-screen program and blocks until it exits.
func Run(ctx context.Context, deps Deps, frame time.Duration) error {
	p := tea.NewProgram(New(ctx, deps, frame), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
