// Package logger builds the structured logger used by the API server.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel converts a LOG_LEVEL value into a slog.Level. Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "debug":
        return slog.LevelDebug
    case "warn", "warning":
        return slog.LevelWarn
    case "error":
        return slog.LevelError
    default:
        return slog.LevelInfo
    }
}

// New returns a logger writing to stdout. Development gets a coloured, human readable
// handler; every other environment gets JSON.
func New(level slog.Level, env string) *slog.Logger {
    return NewWithWriter(os.Stdout, level, env)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level slog.Level, env string) *slog.Logger {
    if env == "development" {
        return slog.New(tint.NewHandler(w, &tint.Options{
            Level:      level,
            TimeFormat: time.Kitchen,
        }))
    }

    return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
