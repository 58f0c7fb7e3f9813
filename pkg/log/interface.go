// Package log provides the structured logging interface used by the loader.
//
// The Logger interface mirrors log/slog so that the default zerolog provider,
// the slog bridge and the in-memory TestLogger are interchangeable.
//
// Example usage:
//
//	logger := log.GetLoggerWithName("dataset").With(
//	    log.DatasetKey, "cub",
//	)
//	logger.Info("split ready",
//	    log.SplitKey, "train_seen",
//	    log.SamplesKey, 7057,
//	)
package log

import (
	"context"
)

// Logger is a structured logger with key/value fields.
type Logger interface {
	// Debug logs detailed diagnostics, e.g. every variable decoded from a file.
	Debug(msg string, fields ...any)

	// Info logs normal progress such as resolved paths and split sizes.
	Info(msg string, fields ...any)

	// Warn logs recoverable anomalies.
	Warn(msg string, fields ...any)

	// Error logs failures. An error value should be passed under ErrAttrKey.
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level with slog-compatible values.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates loggers and controls their level.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
