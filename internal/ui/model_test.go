// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests message handling, key bindings and rendering
package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"

	"github.com/spotlink/spotlink/pkg/mirror"
	"github.com/spotlink/spotlink/pkg/spotlink"
)

type fakeController struct {
	calls  []string
	volume int
	err    error
}

func (f *fakeController) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeController) Play() error          { return f.record("play") }
func (f *fakeController) Pause() error         { return f.record("pause") }
func (f *fakeController) Next() error          { return f.record("next") }
func (f *fakeController) ShuffleOn() error     { return f.record("shuffleOn") }
func (f *fakeController) ShuffleOff() error    { return f.record("shuffleOff") }
func (f *fakeController) RequestStatus() error { return f.record("status") }
func (f *fakeController) SetVolume(v int) error {
	f.volume = v
	return f.record("volume")
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func playingState() mirror.PlayerState {
	s := mirror.Default()
	s.Playing = mirror.Playing
	s.Volume = mirror.PercentToVolume(50)
	s.Shuffle = mo.Some(true)
	s.Track = mirror.Track{
		ID:      "spotify:track:1",
		Name:    "Windowlicker",
		Album:   "Windowlicker",
		Artists: []string{"Aphex Twin"},
		Covers:  []mirror.Cover{{URL: "https://i.scdn.co/image/abc"}},
	}
	return s
}

// press applies a key and runs the resulting command, if any.
func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	if cmd == nil {
		return next.(Model), nil
	}
	return next.(Model), cmd()
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil, "kitchen")

	if model.conn != spotlink.Disconnected {
		t.Errorf("expected disconnected initially, got %s", model.conn)
	}
	if model.serverName != "kitchen" {
		t.Errorf("expected server name kitchen, got %q", model.serverName)
	}
	if model.state.Playing != mirror.Stopped || !model.state.Track.Empty() {
		t.Error("expected default state")
	}
}

func TestStateMsg(t *testing.T) {
	model := NewModel(nil, "")
	updated, _ := model.Update(StateMsg{State: playingState()})
	m := updated.(Model)

	if m.state.Track.Name != "Windowlicker" {
		t.Errorf("expected track to be applied, got %q", m.state.Track.Name)
	}
}

func TestStoppedStateClearsCover(t *testing.T) {
	model := NewModel(nil, "")
	updated, _ := model.Update(StateMsg{State: playingState()})
	updated, _ = updated.Update(ArtworkMsg{Path: "/cache/a.jpg"})
	if updated.(Model).coverPath != "/cache/a.jpg" {
		t.Fatal("expected cover path to be set")
	}

	updated, _ = updated.Update(StateMsg{State: mirror.Default()})
	if updated.(Model).coverPath != "" {
		t.Error("expected cover path to be cleared when the track goes away")
	}
}

func TestConnMsgClearsError(t *testing.T) {
	model := NewModel(nil, "")
	updated, _ := model.Update(errMsg{err: errors.New("boom")})
	updated, _ = updated.Update(ConnMsg{State: spotlink.Open, Server: "den"})
	m := updated.(Model)

	if m.lastErr != "" {
		t.Errorf("expected error to be cleared, got %q", m.lastErr)
	}
	if m.serverName != "den" || m.conn != spotlink.Open {
		t.Errorf("unexpected connection fields %q %s", m.serverName, m.conn)
	}
}

func TestPlayPauseToggle(t *testing.T) {
	ctrl := &fakeController{}
	model := NewModel(ctrl, "")

	m, _ := press(t, model, keyRunes(" "))
	next, _ := m.Update(StateMsg{State: playingState()})
	press(t, next.(Model), keyRunes(" "))

	if strings.Join(ctrl.calls, ",") != "play,pause" {
		t.Errorf("expected play then pause, got %v", ctrl.calls)
	}
}

func TestVolumeKeys(t *testing.T) {
	ctrl := &fakeController{}
	updated, _ := NewModel(ctrl, "").Update(StateMsg{State: playingState()})
	m := updated.(Model)

	press(t, m, keyRunes("+"))
	if ctrl.volume != mirror.PercentToVolume(55) {
		t.Errorf("expected volume up to 55%%, got %d", ctrl.volume)
	}

	press(t, m, keyRunes("-"))
	if ctrl.volume != mirror.PercentToVolume(45) {
		t.Errorf("expected volume down to 45%%, got %d", ctrl.volume)
	}
}

func TestVolumeClamped(t *testing.T) {
	ctrl := &fakeController{}
	state := playingState()
	state.Volume = mirror.MaxVolume
	updated, _ := NewModel(ctrl, "").Update(StateMsg{State: state})

	press(t, updated.(Model), keyRunes("+"))
	if ctrl.volume != mirror.MaxVolume {
		t.Errorf("expected volume to stay at max, got %d", ctrl.volume)
	}
}

func TestShuffleToggle(t *testing.T) {
	ctrl := &fakeController{}
	model := NewModel(ctrl, "")

	// Unknown shuffle turns it on.
	press(t, model, keyRunes("s"))
	updated, _ := model.Update(StateMsg{State: playingState()})
	press(t, updated.(Model), keyRunes("s"))

	if strings.Join(ctrl.calls, ",") != "shuffleOn,shuffleOff" {
		t.Errorf("unexpected calls %v", ctrl.calls)
	}
}

func TestNextAndResync(t *testing.T) {
	ctrl := &fakeController{}
	model := NewModel(ctrl, "")

	press(t, model, keyRunes("n"))
	press(t, model, keyRunes("r"))

	if strings.Join(ctrl.calls, ",") != "next,status" {
		t.Errorf("unexpected calls %v", ctrl.calls)
	}
}

func TestCommandErrorSurfaces(t *testing.T) {
	ctrl := &fakeController{err: spotlink.ErrNotConnected}
	model := NewModel(ctrl, "")

	m, msg := press(t, model, keyRunes("n"))
	if msg == nil {
		t.Fatal("expected an error message from the failed command")
	}
	updated, _ := m.Update(msg)
	if !strings.Contains(updated.(Model).lastErr, "not connected") {
		t.Errorf("expected not connected error, got %q", updated.(Model).lastErr)
	}
}

func TestQuit(t *testing.T) {
	model := NewModel(&fakeController{}, "")

	_, cmd := model.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestKeysIgnoredWithoutController(t *testing.T) {
	model := NewModel(nil, "")
	if _, cmd := model.Update(keyRunes(" ")); cmd != nil {
		t.Error("expected no command without a controller")
	}
}

func TestHelpToggle(t *testing.T) {
	model := NewModel(nil, "")
	updated, _ := model.Update(keyRunes("?"))
	if !updated.(Model).help.ShowAll {
		t.Error("expected full help after ?")
	}
}

func TestViewLoading(t *testing.T) {
	if NewModel(nil, "").View() != "Loading..." {
		t.Error("expected loading view before the first window size")
	}
}

func TestViewRendersTrack(t *testing.T) {
	model := NewModel(nil, "den")
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	updated, _ = updated.Update(ConnMsg{State: spotlink.Open})
	updated, _ = updated.Update(StateMsg{State: playingState()})

	view := updated.View()
	for _, want := range []string{"Windowlicker", "Aphex Twin", "connected to den", "50%", "playing"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestViewNothingPlaying(t *testing.T) {
	model := NewModel(nil, "")
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	view := updated.View()
	if !strings.Contains(view, "Nothing playing") {
		t.Error("expected idle view")
	}
	if !strings.Contains(view, "unknown") {
		t.Error("expected unknown shuffle before the first status")
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("a very long title", 6); got != "a ver…" {
		t.Errorf("unexpected truncation %q", got)
	}
	if got := truncateText("short", 20); got != "short" {
		t.Errorf("unexpected truncation %q", got)
	}
	if got := truncateText("x", 0); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		state func() mirror.PlayerState
		want  string
	}{
		{
			name:  "default",
			state: mirror.Default,
			want:  "stopped | volume 0%",
		},
		{
			name:  "playing",
			state: playingState,
			want:  "playing: Windowlicker by Aphex Twin | volume 50% | shuffle on",
		},
		{
			name: "episode",
			state: func() mirror.PlayerState {
				s := mirror.Default()
				s.Playing = mirror.Paused
				s.Mute = mo.Some(false)
				s.Track = mirror.Track{Name: "Episode 12", ShowName: "The Show"}
				return s
			},
			want: "paused: Episode 12 from The Show | volume 0% | mute off",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.state()); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
