// ABOUTME: Player state mirror package
// ABOUTME: Holds the client-local copy of remote player state and its merge rules
// Package mirror holds the client-local copy of a remote player's state.
//
// A Store is mutated only by decoded protocol events and results. Every
// successful mutation is followed by a synchronous call to each subscribed
// observer with a copy of the new state.
//
// Merge rules:
//   - OnNewTrack, OnVolumeChange, OnShuffleChange replace one field
//   - OnPlay and OnPause set the playback state
//   - OnStop and Reset restore the default state
//   - a getStatus result replaces the whole state
//   - getVolume and getPlayState results replace one field
//   - anything else is a no-op and notifies nobody
package mirror
