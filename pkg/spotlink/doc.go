// ABOUTME: High-level player control library API
// ABOUTME: Provides the Client that mirrors a remote player's state
// Package spotlink keeps a live mirror of a remote player's state.
//
// A Client holds one connection to the player's API server. When the
// connection opens it requests a full status; after that the mirror follows
// the server's notifications and the results of the client's own queries.
// When the connection drops the mirror resets to the default state.
//
// Commands are fire-and-forget. They fail when the connection is not open or
// the request cannot be written. The server's answer, if any, is merged into
// the mirror when it arrives.
//
// For the state types, see the mirror package. For the wire format, see the
// protocol package.
//
// Example:
//
//	client, err := spotlink.New(spotlink.Config{
//	    Target: "raspberrypi.local:3030",
//	    OnStateChange: func(s mirror.PlayerState) {
//	        fmt.Println(s.Track.Name, s.VolumePercent())
//	    },
//	})
//	go client.Run(ctx)
//	err = client.Pause()
package spotlink
