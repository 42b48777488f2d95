package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/soundwerk/mw4ctl/internal/device"
	"github.com/soundwerk/mw4ctl/internal/protocol"
	"github.com/soundwerk/mw4ctl/internal/stream"
)

// maxMonitorLines bounds the scrollback kept in memory.
const maxMonitorLines = 500

// eventMsg carries one routed event from a subscription into the TUI loop.
type eventMsg struct {
	ev  protocol.Event
	sub *stream.Subscription
}

// subClosedMsg signals that a subscription (and hence the session) is done.
type subClosedMsg struct{}

// monitorKeyMap defines key bindings for the monitor screen
type monitorKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Pause key.Binding
	Clear key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Clear, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Pause, k.Clear, k.Quit},
	}
}

// MonitorModel is the live event monitor: a scrolling log of decoded
// traffic with per-category counters in the status bar.
type MonitorModel struct {
	session *device.Session
	subs    []*stream.Subscription
	target  string

	viewport viewport.Model
	help     help.Model
	keys     monitorKeyMap

	lines  []string
	counts map[protocol.Category]int

	paused bool
	closed bool
	ready  bool
	width  int
	height int
}

// NewMonitorModel builds a monitor over the given session. The caller has
// already started the session's Run loop.
func NewMonitorModel(session *device.Session, target string, cats []protocol.Category) MonitorModel {
	subs := make([]*stream.Subscription, 0, len(cats))
	for _, cat := range cats {
		subs = append(subs, session.Subscribe(cat))
	}

	keys := monitorKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}

	return MonitorModel{
		session: session,
		subs:    subs,
		target:  target,
		help:    help.New(),
		keys:    keys,
		counts:  make(map[protocol.Category]int),
	}
}

// waitForEvent blocks on a subscription until the next event arrives.
func waitForEvent(sub *stream.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, err := sub.Next(context.Background())
		if err != nil {
			if errors.Is(err, stream.ErrClosed) {
				return subClosedMsg{}
			}
			return subClosedMsg{}
		}
		return eventMsg{ev: ev, sub: sub}
	}
}

// Init implements tea.Model
func (m MonitorModel) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.subs))
	for _, sub := range m.subs {
		cmds = append(cmds, waitForEvent(sub))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 3
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(strings.Join(m.lines, "\n"))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Clear):
			m.lines = nil
			m.viewport.SetContent("")
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case eventMsg:
		m.counts[msg.ev.Category()]++
		if !m.paused {
			m.appendLine(formatEvent(msg.ev))
		}
		// Re-arm the subscription that produced this event.
		return m, waitForEvent(msg.sub)

	case subClosedMsg:
		m.closed = true
		m.appendLine(MonitorStatusStyle.Render("-- session closed --"))
	}

	return m, nil
}

func (m *MonitorModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxMonitorLines {
		m.lines = m.lines[len(m.lines)-maxMonitorLines:]
	}
	if m.ready {
		atBottom := m.viewport.AtBottom()
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		if atBottom {
			m.viewport.GotoBottom()
		}
	}
}

// formatEvent renders one event as a timestamped, category-colored line.
func formatEvent(ev protocol.Event) string {
	ts := MonitorStatusStyle.Render(time.Now().Format("15:04:05.000"))

	var style lipgloss.Style
	switch ev.Category() {
	case protocol.CategorySysEx:
		style = SysExLineStyle
	case protocol.CategoryControlChange:
		style = CCLineStyle
	case protocol.CategoryNote:
		style = NoteLineStyle
	default:
		style = MonitorStatusStyle
	}

	return ts + "  " + style.Render(ev.String())
}

// View implements tea.Model
func (m MonitorModel) View() string {
	if !m.ready {
		return "initializing..."
	}

	title := HeaderTitleStyle.Render("MIDI MONITOR")
	target := HeaderCommandStyle.Render(m.target)
	header := lipgloss.JoinVertical(lipgloss.Left, title, target,
		RenderHorizontalDivider(m.width, "─"))

	status := m.renderStatus()
	helpView := m.help.View(m.keys)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		helpView,
	)
}

func (m MonitorModel) renderStatus() string {
	stats := m.session.Stats()
	parts := []string{
		fmt.Sprintf("sysex:%d", m.counts[protocol.CategorySysEx]),
		fmt.Sprintf("cc:%d", m.counts[protocol.CategoryControlChange]),
		fmt.Sprintf("note:%d", m.counts[protocol.CategoryNote]),
		fmt.Sprintf("errors:%d", stats.ProtocolErrors),
	}
	line := MonitorStatusStyle.Render(strings.Join(parts, "  "))

	if m.paused {
		line += "  " + MonitorPausedStyle.Render("⏸ PAUSED")
	}
	if m.closed {
		line += "  " + ErrorMessageStyle.Render("disconnected")
	}
	return line
}

// RunMonitor starts the interactive monitor over an already-running
// session and blocks until the user quits.
func RunMonitor(session *device.Session, target string, cats []protocol.Category) error {
	if !IsTerminal() {
		return fmt.Errorf("monitor requires an interactive terminal")
	}

	model := NewMonitorModel(session, target, cats)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()

	for _, sub := range model.subs {
		sub.Close()
	}
	return err
}
