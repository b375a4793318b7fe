// Package logging installs the converter's slog default. Logs always go to
// stderr: stdout belongs to the conversion trace and to the output of
// simulate and inspect.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Values accepted for LOG_FORMAT.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Setup configures logging from the LOG_LEVEL and LOG_FORMAT strings.
func Setup(level, format string) {
	Init(ParseLevel(level), format, os.Stderr)
}

// Init installs a slog default writing to w at level. format is matched
// case-insensitively; anything other than FormatJSON yields text output.
// A nil w means stderr.
func Init(level slog.Level, format string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// New returns the default logger tagged with a component such as
// "rewriter", "audit" or "simulate".
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

// ParseLevel maps LOG_LEVEL values to a slog level. Unknown values fall back
// to info.
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
