// ABOUTME: Configuration field registry
// ABOUTME: Every key with its default value and description
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spotlink/spotlink/internal/key"
	"github.com/spotlink/spotlink/internal/version"
	"github.com/spotlink/spotlink/pkg/spotlink"
)

// Field is one configuration entry.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Env returns the environment variable that overrides the field.
func (f *Field) Env() string {
	return strings.ToUpper(version.Product + "_" + EnvKeyReplacer.Replace(f.Key))
}

// Pretty renders the field for the config info command.
func (f *Field) Pretty() string {
	return fmt.Sprintf("%s\nKey:     %s\nEnv:     %s\nValue:   %v\nDefault: %v\nType:    %s",
		f.Description, f.Key, f.Env(), viper.Get(f.Key), f.Value, f.typeName())
}

// MarshalJSON includes the current value next to the default.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	default:
		return "unknown"
	}
}

// Default holds every registered field by key.
var Default = make(map[string]Field)

// EnvExposed lists the keys bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.ServerURL, "", "Player address (host, host:port or ws:// URL).\nEmpty means discover or reuse the last server")
	register(key.ServerAPIPort, spotlink.DefaultPort, "API port used for discovered players")
	register(key.DiscoveryEnabled, true, "Browse mDNS for players when no server is configured")
	register(key.DiscoveryTimeout, 3*time.Second, "How long to browse mDNS")
	register(key.ReconnectEnabled, true, "Reconnect with backoff when the connection drops")
	register(key.ReconnectMinBackoff, spotlink.DefaultMinBackoff, "First reconnect delay")
	register(key.ReconnectMaxBackoff, spotlink.DefaultMaxBackoff, "Largest reconnect delay")
	register(key.RequestsTTL, spotlink.DefaultRequestTTL, "How long unanswered requests stay tracked")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJSON, false, "Use json format for logs")
	register(key.LogsFile, true, "Write logs to a file in the log directory")
	register(key.UIEnabled, true, "Use the terminal UI when attached to a terminal")
	register(key.ArtworkEnabled, true, "Download cover art for the current track")
	register(key.CliColored, true, "Enable colored CLI help")
}
