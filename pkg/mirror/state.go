// ABOUTME: Mirrored player state types
// ABOUTME: PlayerState, Track and conversions from and to the wire payloads
package mirror

import (
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/spotlink/spotlink/pkg/protocol"
)

// PlayState mirrors protocol.PlayState.
type PlayState = protocol.PlayState

const (
	Stopped = protocol.Stopped
	Playing = protocol.Playing
	Paused  = protocol.Paused
)

// MaxVolume is the top of the device volume range.
const MaxVolume = 65535

// Cover is one cover image of the current track.
type Cover struct {
	URL    string
	Width  int
	Height int
}

// Track describes the current item. It is the zero value while stopped.
type Track struct {
	ID       string
	Name     string
	Covers   []Cover
	Album    string
	Artists  []string
	ShowName string
}

// Empty reports whether t carries no track.
func (t Track) Empty() bool {
	return t.ID == "" && t.Name == "" && len(t.Covers) == 0 && len(t.Artists) == 0 &&
		t.Album == "" && t.ShowName == ""
}

// CoverURL returns the first cover URL, or "" when there is none.
func (t Track) CoverURL() string {
	if len(t.Covers) == 0 {
		return ""
	}
	return t.Covers[0].URL
}

func (t Track) clone() Track {
	dup := t
	dup.Covers = cloneSlice(t.Covers)
	dup.Artists = cloneSlice(t.Artists)
	return dup
}

// PlayerState is the mirror of the remote player.
type PlayerState struct {
	Track   Track
	Playing PlayState
	Volume  int
	Shuffle mo.Option[bool]
	Mute    mo.Option[bool]
}

// Default returns the cleared state: stopped, no track, volume 0, shuffle and
// mute unknown.
func Default() PlayerState {
	return PlayerState{
		Playing: Stopped,
		Shuffle: mo.None[bool](),
		Mute:    mo.None[bool](),
	}
}

// Clone returns a deep copy of s.
func (s PlayerState) Clone() PlayerState {
	dup := s
	dup.Track = s.Track.clone()
	return dup
}

// VolumePercent scales Volume to 0-100 for display.
func (s PlayerState) VolumePercent() int {
	return VolumeToPercent(s.Volume)
}

// VolumeToPercent converts device units to a rounded percentage.
func VolumeToPercent(volume int) int {
	pct := (volume*100 + MaxVolume/2) / MaxVolume
	return lo.Clamp(pct, 0, 100)
}

// PercentToVolume converts a percentage to device units.
func PercentToVolume(pct int) int {
	pct = lo.Clamp(pct, 0, 100)
	return (pct*MaxVolume + 50) / 100
}

// TrackFromWire converts a wire track. A nil track yields the zero Track.
func TrackFromWire(t *protocol.Track) Track {
	if t == nil {
		return Track{}
	}
	return Track{
		ID:   t.TrackID,
		Name: t.Name,
		Covers: nilIfEmpty(lo.Map(t.Covers, func(c protocol.Cover, _ int) Cover {
			return Cover{URL: c.URL, Width: c.Width, Height: c.Height}
		})),
		Album:    lo.FromPtr(t.Album),
		Artists:  nilIfEmpty(cloneSlice(t.Artists)),
		ShowName: lo.FromPtr(t.ShowName),
	}
}

// FromStatus converts a getStatus snapshot into a PlayerState.
func FromStatus(st protocol.Status) PlayerState {
	s := PlayerState{
		Playing: st.Playing,
		Volume:  st.Volume,
		Shuffle: optionFromPtr(st.Shuffle),
		Mute:    optionFromPtr(st.Mute),
	}
	if st.Playing != Stopped {
		s.Track = TrackFromWire(st.Track)
	}
	return s
}

// ToStatus converts s back into the getStatus wire shape.
func (s PlayerState) ToStatus() protocol.Status {
	st := protocol.Status{
		Playing: s.Playing,
		Volume:  s.Volume,
		Shuffle: optionToPtr(s.Shuffle),
		Mute:    optionToPtr(s.Mute),
	}
	if !s.Track.Empty() {
		st.Track = &protocol.Track{
			TrackID: s.Track.ID,
			Name:    s.Track.Name,
			Covers: lo.Map(s.Track.Covers, func(c Cover, _ int) protocol.Cover {
				return protocol.Cover{URL: c.URL, Width: c.Width, Height: c.Height}
			}),
			Album:    lo.EmptyableToPtr(s.Track.Album),
			Artists:  cloneSlice(s.Track.Artists),
			ShowName: lo.EmptyableToPtr(s.Track.ShowName),
		}
	}
	return st
}

func optionFromPtr[T any](p *T) mo.Option[T] {
	if p == nil {
		return mo.None[T]()
	}
	return mo.Some(*p)
}

func optionToPtr[T any](o mo.Option[T]) *T {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return &v
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func nilIfEmpty[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	return in
}
