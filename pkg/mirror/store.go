// ABOUTME: State store that applies protocol events and results
// ABOUTME: Thread-safe snapshot access plus synchronous observer fan-out
package mirror

import (
	"maps"
	"slices"
	"sync"

	"github.com/samber/mo"

	"github.com/spotlink/spotlink/pkg/protocol"
)

// Observer receives a copy of the state after every mutation.
type Observer func(PlayerState)

// Store holds the current PlayerState.
//
// Apply* and Reset are expected to be called from a single goroutine (the
// connection reader). Snapshot and Subscribe are safe from anywhere.
type Store struct {
	mu    sync.RWMutex
	state PlayerState

	obsMu     sync.Mutex
	observers map[uint64]Observer
	nextObs   uint64
}

// NewStore creates a store holding the default state.
func NewStore() *Store {
	return &Store{
		state:     Default(),
		observers: make(map[uint64]Observer),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

// ApplyNotification merges a decoded notification. It reports whether the
// state changed; unknown events are no-ops.
func (s *Store) ApplyNotification(ev protocol.Event) bool {
	return s.mutate(func(st *PlayerState) bool {
		switch e := ev.(type) {
		case protocol.NewTrack:
			st.Track = TrackFromWire(e.Track)
		case protocol.VolumeChange:
			st.Volume = e.Volume
		case protocol.Play:
			st.Playing = Playing
		case protocol.Pause:
			st.Playing = Paused
		case protocol.Stop:
			*st = Default()
		case protocol.ShuffleChange:
			st.Shuffle = mo.Some(e.Shuffle)
		default:
			return false
		}
		return true
	})
}

// ApplyResponse merges a decoded response result. Acks and unknown results
// are no-ops.
func (s *Store) ApplyResponse(res protocol.Result) bool {
	return s.mutate(func(st *PlayerState) bool {
		switch r := res.(type) {
		case protocol.StatusResult:
			*st = FromStatus(r.Status)
		case protocol.VolumeResult:
			st.Volume = r.Volume
		case protocol.PlayStateResult:
			st.Playing = r.Playing
			if r.Playing == Stopped {
				st.Track = Track{}
			}
		default:
			return false
		}
		return true
	})
}

// Reset restores the default state and notifies observers once.
func (s *Store) Reset() {
	s.mutate(func(st *PlayerState) bool {
		*st = Default()
		return true
	})
}

func (s *Store) mutate(fn func(*PlayerState) bool) bool {
	s.mu.Lock()
	next := s.state.Clone()
	if !fn(&next) {
		s.mu.Unlock()
		return false
	}
	s.state = next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

func (s *Store) notify(state PlayerState) {
	s.obsMu.Lock()
	observers := make([]Observer, 0, len(s.observers))
	for _, id := range slices.Sorted(maps.Keys(s.observers)) {
		observers = append(observers, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(state.Clone())
	}
}
