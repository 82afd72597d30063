// Package logging builds the process logger. Temporal code logs through
// workflow.GetLogger and activity.GetLogger; everything else takes a
// go.temporal.io/sdk/log.Logger built here.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"go.temporal.io/sdk/log"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is info.
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

// NewSlog writes to stdout.
func NewSlog(level, format string) *slog.Logger {
	return newSlog(os.Stdout, level, format)
}

// New returns a Temporal logger, suitable for client.Options.Logger as well
// as the lifecycle and checkout packages.
func New(level, format string) log.Logger {
	return log.NewStructuredLogger(NewSlog(level, format))
}

// Discard drops everything.
func Discard() log.Logger {
	return log.NewStructuredLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newSlog(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
