package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestInitLogger_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := initLogger(&buf, "warn", "json")
	assert.Same(t, logger, slog.Default())

	WithSession(logger, "s-1").Info("dropped")
	WithSession(logger, "s-1").Warn("evicted")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "evicted", rec["msg"])
	assert.Equal(t, "s-1", rec["session_id"])
}

func TestInitLogger_Text(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := initLogger(&buf, "debug", "text")
	WithJob(logger, "j-1", "s-1").Debug("submitted")

	assert.Contains(t, buf.String(), "job_id=j-1")
	assert.Contains(t, buf.String(), "session_id=s-1")
	assert.Contains(t, buf.String(), "msg=submitted")
}
