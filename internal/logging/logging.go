package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config selects level, format and destination.
type Config struct {
	// Level is any logrus level name. Empty means "info".
	Level string
	// Format is "json" or "text". Empty means "text".
	Format string
	// Output is "stdout", "stderr", "discard" or a file path. Empty means
	// "stderr".
	Output string
}

// New builds a logger with the redaction hook installed. The returned
// cleanup closes a file output and is never nil.
func New(cfg Config) (*logrus.Logger, func(), error) {
	l := logrus.New()
	noop := func() {}

	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, noop, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	default:
		return nil, noop, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	cleanup := noop
	switch out := strings.TrimSpace(cfg.Output); out {
	case "", "stderr":
		l.SetOutput(os.Stderr)
	case "stdout":
		l.SetOutput(os.Stdout)
	case "discard":
		l.SetOutput(io.Discard)
	default:
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return nil, noop, err
		}
		f, err := os.OpenFile(out, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o600)
		if err != nil {
			return nil, noop, err
		}
		l.SetOutput(f)
		cleanup = func() { _ = f.Close() }
	}

	l.AddHook(NewRedactHook())
	return l, cleanup, nil
}

// Discard returns a logger that writes nothing. Libraries use it when the
// caller did not supply one.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}
