// Package logging configures the process-wide structured logger. It wraps
// slog with a text handler teed to the console and an append-only log
// file, so progress is visible in real time and retained for post-run
// inspection.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Level represents a logging severity level.
type Level string

// Log level constants.
const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Validate checks if the level is a valid logging level.
func (l Level) Validate() error {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return nil
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l)
	}
}

// ToSlogLevel converts the Level to its slog.Level equivalent.
// Unknown levels default to slog.LevelInfo.
func (l Level) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup opens the log file for appending and returns a logger writing to
// both stdout and the file. A fresh run ID is attached so interleaved runs
// appending to the same file stay distinguishable. The returned closer
// releases the file handle; process exit also suffices.
func Setup(level Level, file string) (*slog.Logger, io.Closer, error) {
	if err := level.Validate(); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", file, err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, f), &slog.HandlerOptions{
		Level: level.ToSlogLevel(),
	})
	logger := slog.New(handler).With("run_id", uuid.NewString())
	return logger, f, nil
}
