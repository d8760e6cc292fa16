// ABOUTME: Build version and product identification
// ABOUTME: Used for the User-Agent header and the version command
package version

import "fmt"

// Version is overridden at build time with -ldflags "-X ...version.Version=...".
var Version = "0.3.0"

const (
	Product      = "spotlink"
	Manufacturer = "Spotlink"
)

// UserAgent returns the handshake User-Agent string.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", Product, Version)
}
