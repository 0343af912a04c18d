package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  []string
	}{
		{slog.LevelDebug, []string{"dbg", "inf", "wrn", "err"}},
		{slog.LevelInfo, []string{"inf", "wrn", "err"}},
		{slog.LevelWarn, []string{"wrn", "err"}},
		{slog.LevelError, []string{"err"}},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			log := NewSlogLoggerTo(&buf, tt.level)
			ctx := context.Background()

			log.Debug(ctx, "dbg")
			log.Info(ctx, "inf")
			log.Warn(ctx, "wrn")
			log.Error(ctx, "err")

			var got []string
			for _, e := range decodeLines(t, &buf) {
				got = append(got, e["msg"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLoggerTo(&buf, slog.LevelInfo)

	log.With("module", "item_service").With("request_id", "123").
		Error(context.Background(), "database error", "op", "update", "item_id", 7)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	e := lines[0]
	assert.Equal(t, "ERROR", e["level"])
	assert.Equal(t, "database error", e["msg"])
	assert.Equal(t, "item_service", e["module"])
	assert.Equal(t, "123", e["request_id"])
	assert.Equal(t, "update", e["op"])
	assert.EqualValues(t, 7, e["item_id"])
}

func TestSlogLogger_WithNoArgsReturnsSameLogger(t *testing.T) {
	log := NewSlogLoggerTo(&bytes.Buffer{}, slog.LevelInfo)
	assert.Same(t, log, log.With())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: " warning ", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
