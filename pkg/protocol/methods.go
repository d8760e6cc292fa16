// ABOUTME: Closed method vocabulary for requests and notifications
// ABOUTME: Outbound request methods and inbound notification names
package protocol

// Method is an outbound request method.
type Method string

const (
	MethodGetStatus     Method = "getStatus"
	MethodGetVolume     Method = "getVolume"
	MethodGetPlayState  Method = "getPlayState"
	MethodSetPlay       Method = "setPlay"
	MethodSetPause      Method = "setPause"
	MethodSetNext       Method = "setNext"
	MethodSetVolume     Method = "setVolume"
	MethodSetShuffleOn  Method = "setShuffleOn"
	MethodSetShuffleOff Method = "setShuffleOff"
)

// Methods lists every request method the server understands.
var Methods = []Method{
	MethodGetStatus,
	MethodGetVolume,
	MethodGetPlayState,
	MethodSetPlay,
	MethodSetPause,
	MethodSetNext,
	MethodSetVolume,
	MethodSetShuffleOn,
	MethodSetShuffleOff,
}

// Valid reports whether m belongs to the request vocabulary.
func (m Method) Valid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// IsQuery reports whether m reads state instead of changing it.
func (m Method) IsQuery() bool {
	switch m {
	case MethodGetStatus, MethodGetVolume, MethodGetPlayState:
		return true
	}
	return false
}

// Notification method names pushed by the server.
const (
	EventNewTrack      = "OnNewTrack"
	EventVolumeChange  = "OnVolumeChange"
	EventPlay          = "OnPlay"
	EventPause         = "OnPause"
	EventStop          = "OnStop"
	EventShuffleChange = "OnShuffleChange"
)

// Events lists every notification the server is known to push.
var Events = []string{
	EventNewTrack,
	EventVolumeChange,
	EventPlay,
	EventPause,
	EventStop,
	EventShuffleChange,
}
