// ABOUTME: Logging setup for the CLI
// ABOUTME: Configures logrus output, level and format from viper settings
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/spotlink/spotlink/internal/filesystem"
	"github.com/spotlink/spotlink/internal/key"
	"github.com/spotlink/spotlink/internal/where"
)

// Mode selects where log lines go besides the log file.
type Mode int

const (
	// Interactive writes to the log file only so the TUI owns the terminal.
	Interactive Mode = iota
	// Streaming writes to stderr and the log file.
	Streaming
)

// Setup configures logger and returns a function that closes the log file.
func Setup(logger *logrus.Logger, mode Mode) (func(), error) {
	var (
		writers []io.Writer
		closer  = func() {}
	)

	if mode == Streaming {
		writers = append(writers, os.Stderr)
	}

	if viper.GetBool(key.LogsFile) {
		f, err := openLogFile(time.Now())
		if err != nil {
			return closer, err
		}
		writers = append(writers, f)
		closer = func() { _ = f.Close() }
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	if viper.GetBool(key.LogsJSON) {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return closer, nil
}

// FilePath returns the log file used for the given day.
func FilePath(day time.Time) string {
	return filepath.Join(where.Logs(), fmt.Sprintf("%s.log", day.Format("2006-01-02")))
}

func openLogFile(day time.Time) (afero.File, error) {
	path := FilePath(day)
	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
