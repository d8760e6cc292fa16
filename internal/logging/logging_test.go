// ABOUTME: Tests for logging setup
// ABOUTME: Tests level, format and file output on the in-memory filesystem
package logging

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/spotlink/spotlink/internal/filesystem"
	"github.com/spotlink/spotlink/internal/key"
)

func setupTest(t *testing.T) {
	t.Helper()
	filesystem.SetMemMapFs()
	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		filesystem.SetOsFs()
	})
}

func TestSetupWritesToFile(t *testing.T) {
	setupTest(t)
	viper.Set(key.LogsFile, true)
	viper.Set(key.LogsLevel, "debug")
	viper.Set(key.LogsJSON, true)

	logger := logrus.New()
	closeLog, err := Setup(logger, Interactive)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.WithField("method", "getStatus").Debug("Sending request")
	closeLog()

	data, err := filesystem.API().ReadFile(FilePath(time.Now()))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"method":"getStatus"`) {
		t.Errorf("expected json log line, got %s", data)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %s", logger.GetLevel())
	}
}

func TestSetupBadLevelFallsBack(t *testing.T) {
	setupTest(t)
	viper.Set(key.LogsFile, false)
	viper.Set(key.LogsLevel, "chatty")

	logger := logrus.New()
	closeLog, err := Setup(logger, Interactive)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer closeLog()

	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info level, got %s", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("expected text formatter, got %T", logger.Formatter)
	}
}
