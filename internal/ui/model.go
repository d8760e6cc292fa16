// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Renders the mirrored state and turns key presses into commands
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/spotlink/spotlink/pkg/mirror"
	"github.com/spotlink/spotlink/pkg/spotlink"
)

// volumeStep is the percentage change per key press.
const volumeStep = 5

// Controller is the set of player commands the TUI issues.
type Controller interface {
	Play() error
	Pause() error
	Next() error
	SetVolume(volume int) error
	ShuffleOn() error
	ShuffleOff() error
	RequestStatus() error
}

// StateMsg carries a new mirror snapshot.
type StateMsg struct {
	State mirror.PlayerState
}

// ConnMsg carries a connection lifecycle change.
type ConnMsg struct {
	State  spotlink.ConnState
	Server string
}

// ArtworkMsg carries the cached cover path of the current track.
type ArtworkMsg struct {
	Path string
}

type errMsg struct {
	err error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1DB954"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(9)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	statusStyle = map[spotlink.ConnState]lipgloss.Style{
		spotlink.Disconnected: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")),
		spotlink.Connecting:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00")),
		spotlink.Open:         lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")),
	}
)

// Model represents the TUI state
type Model struct {
	ctrl Controller
	keys keyMap
	help help.Model
	bar  progress.Model

	// Connection
	conn       spotlink.ConnState
	serverName string

	// Mirror
	state     mirror.PlayerState
	coverPath string
	lastErr   string

	// Dimensions
	width  int
	height int
}

// NewModel creates a new TUI model. ctrl may be nil in tests.
func NewModel(ctrl Controller, server string) Model {
	return Model{
		ctrl:       ctrl,
		keys:       defaultKeyMap(),
		help:       help.New(),
		bar:        progress.New(progress.WithSolidFill("#1DB954"), progress.WithoutPercentage(), progress.WithWidth(24)),
		serverName: server,
		state:      mirror.Default(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case StateMsg:
		m.state = msg.State
		if m.state.Track.Empty() {
			m.coverPath = ""
		}
	case ConnMsg:
		m.conn = msg.State
		if msg.Server != "" {
			m.serverName = msg.Server
		}
		if msg.State == spotlink.Open {
			m.lastErr = ""
		}
	case ArtworkMsg:
		m.coverPath = msg.Path
	case errMsg:
		m.lastErr = msg.err.Error()
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.ctrl == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.PlayPause):
		if m.state.Playing == mirror.Playing {
			return m, m.command(m.ctrl.Pause)
		}
		return m, m.command(m.ctrl.Play)
	case key.Matches(msg, m.keys.Next):
		return m, m.command(m.ctrl.Next)
	case key.Matches(msg, m.keys.VolumeUp):
		return m, m.setVolume(volumeStep)
	case key.Matches(msg, m.keys.VolumeDown):
		return m, m.setVolume(-volumeStep)
	case key.Matches(msg, m.keys.Shuffle):
		if on, _ := m.state.Shuffle.Get(); on {
			return m, m.command(m.ctrl.ShuffleOff)
		}
		return m, m.command(m.ctrl.ShuffleOn)
	case key.Matches(msg, m.keys.Resync):
		return m, m.command(m.ctrl.RequestStatus)
	}

	return m, nil
}

func (m Model) setVolume(delta int) tea.Cmd {
	target := mirror.PercentToVolume(lo.Clamp(m.state.VolumePercent()+delta, 0, 100))
	return m.command(func() error { return m.ctrl.SetVolume(target) })
}

// command runs fn off the update loop; only failures come back as messages.
func (m Model) command(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	inner := lo.Clamp(m.width-4, 20, 80)

	var b strings.Builder
	b.WriteString(titleStyle.Render("spotlink"))
	b.WriteString("  ")
	b.WriteString(m.renderConnection())
	b.WriteString("\n\n")
	b.WriteString(m.renderTrack(inner))
	b.WriteString("\n")
	b.WriteString(m.renderControls())

	if m.lastErr != "" {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(wrap.String(m.lastErr, inner)))
	}

	return boxStyle.Width(inner+2).Render(b.String()) + "\n" + m.help.View(m.keys) + "\n"
}

func (m Model) renderConnection() string {
	text := m.conn.String()
	if m.conn == spotlink.Open && m.serverName != "" {
		text = "connected to " + m.serverName
	}
	return statusStyle[m.conn].Render(text)
}

func (m Model) renderTrack(width int) string {
	if m.state.Track.Empty() {
		return faintStyle.Render("Nothing playing") + "\n"
	}

	field := width - 9
	t := m.state.Track

	rows := []string{row("Track", truncateText(t.Name, field))}
	if len(t.Artists) > 0 {
		rows = append(rows, row("Artist", truncateText(strings.Join(t.Artists, ", "), field)))
	}
	if t.Album != "" {
		rows = append(rows, row("Album", truncateText(t.Album, field)))
	}
	if t.ShowName != "" {
		rows = append(rows, row("Show", truncateText(t.ShowName, field)))
	}
	if m.coverPath != "" {
		rows = append(rows, row("Cover", faintStyle.Render(truncateText(m.coverPath, field))))
	}

	return strings.Join(rows, "\n") + "\n"
}

func (m Model) renderControls() string {
	pct := m.state.VolumePercent()

	rows := []string{
		row("State", playStateLabel(m.state.Playing)),
		row("Volume", fmt.Sprintf("%s %3d%%", m.bar.ViewAs(float64(pct)/100), pct)),
		row("Shuffle", optionLabel(m.state.Shuffle)),
	}
	if m.state.Mute.IsPresent() {
		rows = append(rows, row("Mute", optionLabel(m.state.Mute)))
	}
	return strings.Join(rows, "\n")
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func playStateLabel(s mirror.PlayState) string {
	switch s {
	case mirror.Playing:
		return "▶ playing"
	case mirror.Paused:
		return "⏸ paused"
	}
	return "■ stopped"
}

func optionLabel(o mo.Option[bool]) string {
	v, ok := o.Get()
	switch {
	case !ok:
		return "unknown"
	case v:
		return "on"
	}
	return "off"
}

func truncateText(s string, width int) string {
	if width <= 1 {
		return ""
	}
	return truncate.StringWithTail(s, uint(width), "…")
}
