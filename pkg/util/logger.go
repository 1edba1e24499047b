// Package util holds the cross-cutting infrastructure the rest of the
// indexer leans on: structured logging, pool sizing, and the mmap-backed
// source-file cache.
package util

import (
	"io"
	"log/slog"
	"os"
)

// LogLevel names a minimum severity. The zero value ("") logs at info.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// LogFormat selects the handler encoding.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// LoggerConfig configures NewLogger. A nil Output defaults to stderr —
// the LSP server owns stdout for the wire protocol, so nothing in this
// codebase may ever log there.
type LoggerConfig struct {
	Level  LogLevel
	Format LogFormat
	Output io.Writer
}

// NewLogger builds a slog.Logger per config.
func NewLogger(config LoggerConfig) *slog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}

	var handler slog.Handler
	if config.Format == FormatText {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}

// SetDefault installs logger as the process-wide slog default, picked up
// by components constructed without an explicit logger.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
