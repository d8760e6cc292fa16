// ABOUTME: Plain-text rendering of the mirrored state
// ABOUTME: Used for log lines and command output when no TUI is running
package ui

import (
	"fmt"
	"strings"

	"github.com/spotlink/spotlink/pkg/mirror"
)

// Describe renders state as a single line.
func Describe(state mirror.PlayerState) string {
	var b strings.Builder

	b.WriteString(strings.ToLower(string(state.Playing)))
	if !state.Track.Empty() {
		b.WriteString(": ")
		b.WriteString(trackLine(state.Track))
	}

	fmt.Fprintf(&b, " | volume %d%%", state.VolumePercent())
	if state.Shuffle.IsPresent() {
		fmt.Fprintf(&b, " | shuffle %s", optionLabel(state.Shuffle))
	}
	if state.Mute.IsPresent() {
		fmt.Fprintf(&b, " | mute %s", optionLabel(state.Mute))
	}

	return b.String()
}

func trackLine(t mirror.Track) string {
	name := t.Name
	if name == "" {
		name = t.ID
	}

	switch {
	case len(t.Artists) > 0:
		return name + " by " + strings.Join(t.Artists, ", ")
	case t.ShowName != "":
		return name + " from " + t.ShowName
	}
	return name
}
