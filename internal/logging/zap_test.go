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

func TestZapLogger_WritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLoggerTo(&buf, slog.LevelDebug)

	log.With("module", "rest").Error(context.Background(), "db failed", "op", "create", "item_id", 3)
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "db failed", entry["msg"])
	assert.Equal(t, "rest", entry["module"])
	assert.Equal(t, "create", entry["op"])
	assert.EqualValues(t, 3, entry["item_id"])
}

func TestNew_Backends(t *testing.T) {
	var buf bytes.Buffer

	l, err := New("", "", &buf)
	require.NoError(t, err)
	assert.IsType(t, &SlogLogger{}, l)

	l, err = New(BackendZap, "debug", &buf)
	require.NoError(t, err)
	assert.IsType(t, &ZapLogger{}, l)

	_, err = New("logrus", "info", &buf)
	assert.Error(t, err)

	_, err = New(BackendSlog, "loud", &buf)
	assert.Error(t, err)
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewZapLoggerTo(&buf, slog.LevelWarn)
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err")
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"wrn"`)
	assert.Contains(t, lines[1], `"msg":"err"`)
}
