package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestJSONFormatThroughTemporalLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.With(log.NewStructuredLogger(newSlog(&buf, "info", FormatJSON)), "order_id", "ORD-1")

	logger.Debug("hidden")
	logger.Info("Order placed", "total", "103.00")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Order placed", entry["msg"])
	assert.Equal(t, "ORD-1", entry["order_id"])
	assert.Equal(t, "103.00", entry["total"])
}

func TestTextFormatIsDefault(t *testing.T) {
	var buf bytes.Buffer
	newSlog(&buf, "debug", "yaml").Debug("Cart saved", "session_id", "s1")

	assert.Contains(t, buf.String(), "msg=\"Cart saved\"")
	assert.Contains(t, buf.String(), "session_id=s1")
}
