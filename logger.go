package grepgo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with grepgo-specific context.
// This provides structured logging with consistent field names.
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
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPattern adds the search pattern field to the logger.
func (l *Logger) WithPattern(pattern string) *Logger {
	return &Logger{
		Logger: l.Logger.With("pattern", pattern),
	}
}

// LogScan logs a completed scan.
func (l *Logger) LogScan(ctx context.Context, result *Result, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "scan failed",
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "scan completed",
		"files", result.Metrics.FilesDiscovered,
		"searched", result.Metrics.FilesSearched,
		"skipped", result.Metrics.FilesSkipped,
		"failed", result.Metrics.FilesFailed,
		"matches", result.Metrics.MatchesFound,
		"bytes", result.Metrics.BytesSearched,
		"duration", duration,
	)
}

// LogPatternWarnings logs pattern compilation warnings (e.g. a regex
// falling back to literal search).
func (l *Logger) LogPatternWarnings(ctx context.Context, warnings []string) {
	for _, w := range warnings {
		l.WarnContext(ctx, "pattern warning", "warning", w)
	}
}
