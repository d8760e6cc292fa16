// ABOUTME: Connection target normalization
// ABOUTME: Accepts host, host:port or ws/http URLs and yields the websocket URL
package spotlink

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPort is the player's API port.
const DefaultPort = 3030

// NormalizeTarget turns a user-supplied address into a ws:// or wss:// URL.
// Bare hosts get DefaultPort and the root path.
func NormalizeTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", fmt.Errorf("empty target")
	}

	if !strings.Contains(target, "://") {
		target = "ws://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target %q: %w", target, err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("target %q has no host", target)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(DefaultPort))
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// HTTPURL converts a websocket target into the URL for one-shot POST requests.
func HTTPURL(target string) (string, error) {
	ws, err := NormalizeTarget(target)
	if err != nil {
		return "", err
	}
	u, _ := url.Parse(ws)
	if u.Scheme == "wss" {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	return u.String(), nil
}
