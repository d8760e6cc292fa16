// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and adapts client callbacks into messages
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spotlink/spotlink/pkg/mirror"
	"github.com/spotlink/spotlink/pkg/spotlink"
)

// Program is a running TUI.
type Program struct {
	*tea.Program
}

// New creates the TUI program for ctrl
func New(ctrl Controller, server string, opts ...tea.ProgramOption) *Program {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &Program{Program: tea.NewProgram(NewModel(ctrl, server), opts...)}
}

// OnState forwards a mirror snapshot to the TUI.
func (p *Program) OnState(state mirror.PlayerState) {
	p.Send(StateMsg{State: state})
}

// OnConnection forwards a lifecycle change to the TUI.
func (p *Program) OnConnection(state spotlink.ConnState) {
	p.Send(ConnMsg{State: state})
}

// OnArtwork forwards a cached cover path to the TUI.
func (p *Program) OnArtwork(path string) {
	p.Send(ArtworkMsg{Path: path})
}
