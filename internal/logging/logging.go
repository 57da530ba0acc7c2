// Package logging configures the logrus logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options configure New.
type Options struct {
	Level  string    // logrus level name; empty means info
	Output io.Writer // nil means stderr
	Colors bool      // force ANSI colours, for terminal output
}

// New returns a text logger with full timestamps at the requested level.
func New(opts Options) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:            opts.Colors,
		DisableColors:          !opts.Colors,
		DisableLevelTruncation: true,
		FullTimestamp:          true,
	})
	log.SetOutput(out)
	log.SetLevel(level)
	return log, nil
}

// OpenFile opens path for appending, creating parent directories. The TUI
// logs here so log lines do not tear the screen.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
