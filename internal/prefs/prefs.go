// ABOUTME: User preferences persistence
// ABOUTME: Remembers the last player that accepted a connection
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/spotlink/spotlink/internal/filesystem"
	"github.com/spotlink/spotlink/internal/where"
)

// Prefs holds values learned at runtime, as opposed to configuration.
type Prefs struct {
	LastServer    string    `toml:"last_server"`
	LastConnected time.Time `toml:"last_connected,omitempty"`
}

// DefaultPath returns the preferences file path.
func DefaultPath() string {
	return where.Prefs()
}

// Load reads preferences from path. A missing or unreadable file yields empty
// preferences.
func Load(path string) (Prefs, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}

	var p Prefs

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, nil // Graceful degradation
	}

	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{}, nil // Graceful degradation
	}
	p.LastServer = strings.TrimSpace(p.LastServer)

	return p, nil
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}

	if err := filesystem.API().MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := filesystem.API().WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}
