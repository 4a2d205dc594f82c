// Package logging configures the logrus logger shared by every component.
// The TUI owns the terminal, so entries go to a JSON file that `shelf logs`
// and internal/logtail can read back.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// VersionKey is the field carrying the client version on every entry.
const VersionKey = "version"

// Options configures New.
type Options struct {
	// File is the log path. Empty discards output.
	File    string
	Level   logrus.Level
	Version string
	// Stderr mirrors entries to standard error (used by --verbose).
	Stderr bool
}

// New builds a logger and returns a cleanup func that closes the file.
func New(opts Options) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	log.SetLevel(opts.Level)

	var (
		out     io.Writer = io.Discard
		cleanup           = func() {}
	)
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log: %w", err)
		}
		out = f
		cleanup = func() { _ = f.Close() }
	}
	if opts.Stderr {
		out = io.MultiWriter(out, os.Stderr)
	}
	log.SetOutput(out)

	if opts.Version != "" {
		log.AddHook(versionHook(opts.Version))
	}
	return log, cleanup, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type versionHook string

func (h versionHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h versionHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data[VersionKey]; !ok {
		entry.Data[VersionKey] = string(h)
	}
	return nil
}
