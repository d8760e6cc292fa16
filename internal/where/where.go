// ABOUTME: Application directory resolution
// ABOUTME: Config, cache and log paths, created on first use
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/spotlink/spotlink/internal/filesystem"
	"github.com/spotlink/spotlink/internal/version"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "SPOTLINK_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config returns the configuration directory.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base, err := os.UserConfigDir()
	if err != nil {
		base = filepath.Join(".", "config")
	}
	return ensureDir(filepath.Join(base, version.Product))
}

// Cache returns the cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, version.Product))
}

// Artwork returns the cover art cache directory.
func Artwork() string {
	return ensureDir(filepath.Join(Cache(), "artwork"))
}

// Logs returns the log directory.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Prefs returns the preferences file path.
func Prefs() string {
	return filepath.Join(Config(), "prefs.toml")
}
