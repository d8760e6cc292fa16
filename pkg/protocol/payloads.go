// ABOUTME: Player state payload definitions
// ABOUTME: Status, track, cover and play-state shapes shared by results and events
package protocol

import (
	"encoding/json"
	"fmt"
)

// PlayState is the playback state reported by the server.
type PlayState string

const (
	Stopped PlayState = "Stopped"
	Playing PlayState = "Playing"
	Paused  PlayState = "Paused"
)

// Valid reports whether s is one of the three known states.
func (s PlayState) Valid() bool {
	switch s {
	case Stopped, Playing, Paused:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown states so a bad payload never reaches the mirror.
func (s *PlayState) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("play state: %w", err)
	}
	state := PlayState(raw)
	if !state.Valid() {
		return fmt.Errorf("unknown play state %q", raw)
	}
	*s = state
	return nil
}

// Status is the full snapshot returned by getStatus.
type Status struct {
	Track   *Track    `json:"track"`
	Playing PlayState `json:"playing"`
	Volume  int       `json:"volume"`
	Shuffle *bool     `json:"shuffle,omitempty"`
	Mute    *bool     `json:"mute,omitempty"`
}

// Track describes the current item. Episodes carry ShowName instead of Album.
type Track struct {
	TrackID  string   `json:"track_id"`
	Name     string   `json:"name"`
	Covers   []Cover  `json:"covers"`
	Album    *string  `json:"album"`
	Artists  []string `json:"artists"`
	ShowName *string  `json:"show_name"`
}

// Cover is one cover image. On the wire the size is a [width, height] pair.
type Cover struct {
	URL    string
	Width  int
	Height int
}

type wireCover struct {
	URL  string `json:"url"`
	Size []int  `json:"size,omitempty"`
}

func (c Cover) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireCover{URL: c.URL, Size: []int{c.Width, c.Height}})
}

func (c *Cover) UnmarshalJSON(b []byte) error {
	var w wireCover
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	c.URL = w.URL
	c.Width, c.Height = 0, 0
	if len(w.Size) == 2 {
		c.Width, c.Height = w.Size[0], w.Size[1]
	}
	return nil
}

// TrackParams is the OnNewTrack payload.
type TrackParams struct {
	Track *Track `json:"track"`
}

// VolumeParams is the OnVolumeChange payload and the getVolume result.
type VolumeParams struct {
	Volume *int `json:"volume"`
}

// ShuffleParams is the OnShuffleChange payload.
type ShuffleParams struct {
	Shuffle *bool `json:"shuffle"`
}

// PlayStateParams is the getPlayState result.
type PlayStateParams struct {
	Playing *PlayState `json:"playing"`
}
