// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

type Options struct {
	Level  string // debug, info, warn, error or none
	Format string // text or json
	File   string // empty logs to stderr
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for opts and a closer for the log file, if any.
// Level "none" discards everything.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, enabled := LevelFromString(opts.Level)
	if !enabled {
		return slog.New(slog.DiscardHandler), nopCloser{}, nil
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
		color            = isatty.IsTerminal(os.Stderr.Fd())
	)
	if opts.File != "" {
		f, err := openLogFile(opts.File)
		if err != nil {
			return nil, nil, err
		}
		w, closer, color = f, f, false
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), closer, nil
	case "", "text":
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			NoColor:    !color,
		})), closer, nil
	default:
		closer.Close()
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
}

// LevelFromString maps a level name to a slog level. The boolean is false
// for "none".
func LevelFromString(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "none", "":
		return slog.LevelError, false
	default:
		return slog.LevelError, true
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}
