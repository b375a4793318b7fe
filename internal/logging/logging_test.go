package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture installs a default logger writing to a buffer and restores the
// previous default when the test ends.
func capture(t *testing.T, level slog.Level, format string) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Init(level, format, &buf)
	return &buf
}

func TestNew_HasComponent(t *testing.T) {
	buf := capture(t, slog.LevelDebug, FormatText)

	New("rewriter").Info("workflow written", "nodes", 5)

	output := buf.String()
	assert.Contains(t, output, "component=rewriter")
	assert.Contains(t, output, "workflow written")
	assert.Contains(t, output, "nodes=5")
}

func TestInit_JSONFormat(t *testing.T) {
	buf := capture(t, slog.LevelInfo, FormatJSON)

	New("audit").Info("connected to NATS for audit logging")

	output := buf.String()
	assert.Contains(t, output, `"level":"INFO"`)
	assert.Contains(t, output, `"component":"audit"`)
}

func TestInit_FormatIsCaseInsensitive(t *testing.T) {
	buf := capture(t, slog.LevelInfo, " JSON ")

	New("simulate").Info("script output")

	assert.Contains(t, buf.String(), `"component":"simulate"`)
}

func TestInit_UnknownFormatFallsBackToText(t *testing.T) {
	buf := capture(t, slog.LevelInfo, "logfmt")

	New("inspect").Info("hello")

	assert.Contains(t, buf.String(), "component=inspect")
}

func TestInit_LevelGating(t *testing.T) {
	buf := capture(t, slog.LevelWarn, FormatText)

	logger := New("rewriter")
	logger.Info("workflow loaded")
	logger.Warn("dangling connection kept")

	output := buf.String()
	assert.NotContains(t, output, "workflow loaded")
	assert.Contains(t, output, "dangling connection kept")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}
