// ABOUTME: Configuration key names
// ABOUTME: Shared by config defaults, flags and consumers
package key

// Server connection.
const (
	ServerURL     = "server.url"
	ServerAPIPort = "server.api_port"
)

// mDNS discovery.
const (
	DiscoveryEnabled = "discovery.enabled"
	DiscoveryTimeout = "discovery.timeout"
)

// Reconnect supervisor.
const (
	ReconnectEnabled    = "reconnect.enabled"
	ReconnectMinBackoff = "reconnect.min_backoff"
	ReconnectMaxBackoff = "reconnect.max_backoff"
)

// Request tracking.
const (
	RequestsTTL = "requests.ttl"
)

// Logging.
const (
	LogsLevel = "logs.level"
	LogsJSON  = "logs.json"
	LogsFile  = "logs.file"
)

// Terminal UI.
const (
	UIEnabled      = "ui.enabled"
	ArtworkEnabled = "artwork.enabled"
	CliColored     = "cli.colored"
)
