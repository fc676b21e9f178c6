// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package glyphcache

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with glyph cache field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// With returns a Logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithSpec tags the logger with a strike spec.
func (l *Logger) WithSpec(spec StrikeSpec) *Logger {
	return l.With("font", spec.FontID, "size", spec.Size, "checksum", spec.Checksum())
}

// LogEviction logs a strike leaving the cache.
func (l *Logger) LogEviction(spec StrikeSpec, bytes int64, used, limit int64) {
	l.Debug("strike evicted",
		"font", spec.FontID,
		"size", spec.Size,
		"bytes", bytes,
		"used", used,
		"limit", limit,
	)
}

// LogGlyphFailure logs a scaler failure that was recorded as an empty entry.
func (l *Logger) LogGlyphFailure(spec StrikeSpec, id GlyphID, err error) {
	l.Debug("glyph unavailable",
		"font", spec.FontID,
		"size", spec.Size,
		"glyph", id,
		"error", err,
	)
}
