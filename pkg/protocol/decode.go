// ABOUTME: Inbound message classification and typed payload decoding
// ABOUTME: Turns raw frames into Notification/Response and then into Event/Result variants
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed wraps every decoding failure.
	ErrMalformed = errors.New("malformed message")

	// ErrUnclassified is returned for objects with neither a method nor an id.
	ErrUnclassified = errors.New("message has neither method nor id")
)

type envelope struct {
	ID     json.RawMessage `json:"id"`
	Method json.RawMessage `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`

	// Some server builds flatten the error object into the response.
	Code    json.RawMessage `json:"code"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// text reads a JSON string, keeping any other value as its raw JSON.
func text(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// Decode classifies a raw inbound frame by field presence: a method makes it a
// notification, otherwise an id makes it a response.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if present(env.Method) {
		var method string
		if err := json.Unmarshal(env.Method, &method); err != nil {
			return nil, fmt.Errorf("%w: method is not a string", ErrMalformed)
		}
		n := &Notification{Method: method}
		if present(env.Params) {
			n.Params = env.Params
		}
		return n, nil
	}

	if present(env.ID) {
		var id int64
		if err := json.Unmarshal(env.ID, &id); err != nil {
			return nil, fmt.Errorf("%w: id is not an integer", ErrMalformed)
		}
		resp := &Response{ID: id}
		if present(env.Result) {
			resp.Result = env.Result
		}
		switch {
		case present(env.Error):
			var rpcErr RPCError
			if err := json.Unmarshal(env.Error, &rpcErr); err != nil {
				// Still an error response, just not one we can read.
				rpcErr = RPCError{Message: string(env.Error)}
			}
			resp.Error = &rpcErr
		case present(env.Code) && !present(env.Result):
			resp.Error = &RPCError{Code: env.Code, Message: text(env.Message), Data: text(env.Data)}
		}
		return resp, nil
	}

	return nil, ErrUnclassified
}

// Event is a decoded notification.
type Event interface {
	event()
}

// NewTrack replaces the current track.
type NewTrack struct {
	Track *Track
}

// VolumeChange replaces the volume.
type VolumeChange struct {
	Volume int
}

// Play, Pause and Stop change the playback state.
type (
	Play  struct{}
	Pause struct{}
	Stop  struct{}
)

// ShuffleChange replaces the shuffle flag.
type ShuffleChange struct {
	Shuffle bool
}

// UnknownEvent is a notification outside the known vocabulary.
type UnknownEvent struct {
	Method string
}

func (NewTrack) event()      {}
func (VolumeChange) event()  {}
func (Play) event()          {}
func (Pause) event()         {}
func (Stop) event()          {}
func (ShuffleChange) event() {}
func (UnknownEvent) event()  {}

// DecodeEvent decodes a notification's params according to its method.
// Unknown methods decode to UnknownEvent without error.
func DecodeEvent(n *Notification) (Event, error) {
	switch n.Method {
	case EventNewTrack:
		var p TrackParams
		if err := unmarshalParams(n.Params, &p); err != nil {
			return nil, err
		}
		return NewTrack{Track: p.Track}, nil

	case EventVolumeChange:
		var p VolumeParams
		if err := unmarshalParams(n.Params, &p); err != nil {
			return nil, err
		}
		if p.Volume == nil {
			return nil, fmt.Errorf("%w: %s without volume", ErrMalformed, n.Method)
		}
		return VolumeChange{Volume: *p.Volume}, nil

	case EventPlay:
		return Play{}, nil

	case EventPause:
		return Pause{}, nil

	case EventStop:
		return Stop{}, nil

	case EventShuffleChange:
		var p ShuffleParams
		if err := unmarshalParams(n.Params, &p); err != nil {
			return nil, err
		}
		if p.Shuffle == nil {
			return nil, fmt.Errorf("%w: %s without shuffle", ErrMalformed, n.Method)
		}
		return ShuffleChange{Shuffle: *p.Shuffle}, nil
	}

	return UnknownEvent{Method: n.Method}, nil
}

// Result is a decoded response result.
type Result interface {
	result()
}

// StatusResult is a full snapshot.
type StatusResult struct {
	Status Status
}

// VolumeResult carries only the volume.
type VolumeResult struct {
	Volume int
}

// PlayStateResult carries only the playback state.
type PlayStateResult struct {
	Playing PlayState
}

// Ack acknowledges a set* command.
type Ack struct {
	Method Method
	Value  string
}

func (StatusResult) result()    {}
func (VolumeResult) result()    {}
func (PlayStateResult) result() {}
func (Ack) result()             {}

// DecodeResult decodes a response result according to the method of the
// request it answers.
func DecodeResult(method Method, raw json.RawMessage) (Result, error) {
	switch method {
	case MethodGetStatus:
		var st Status
		if err := unmarshalParams(raw, &st); err != nil {
			return nil, err
		}
		if !st.Playing.Valid() {
			return nil, fmt.Errorf("%w: status without playing state", ErrMalformed)
		}
		return StatusResult{Status: st}, nil

	case MethodGetVolume:
		var p VolumeParams
		if err := unmarshalParams(raw, &p); err != nil {
			return nil, err
		}
		if p.Volume == nil {
			return nil, fmt.Errorf("%w: volume result without volume", ErrMalformed)
		}
		return VolumeResult{Volume: *p.Volume}, nil

	case MethodGetPlayState:
		var p PlayStateParams
		if err := unmarshalParams(raw, &p); err != nil {
			return nil, err
		}
		if p.Playing == nil {
			return nil, fmt.Errorf("%w: play state result without playing", ErrMalformed)
		}
		return PlayStateResult{Playing: *p.Playing}, nil

	case MethodSetPlay, MethodSetPause, MethodSetNext, MethodSetVolume,
		MethodSetShuffleOn, MethodSetShuffleOff:
		ack := Ack{Method: method}
		if present(raw) {
			// Acks are informational; a non-string value is not an error.
			_ = json.Unmarshal(raw, &ack.Value)
		}
		return ack, nil
	}

	return nil, fmt.Errorf("%w: no result decoder for method %q", ErrMalformed, method)
}

func unmarshalParams(raw json.RawMessage, v any) error {
	if !present(raw) {
		return fmt.Errorf("%w: missing payload", ErrMalformed)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
