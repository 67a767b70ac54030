package paylink

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestZerologLogger_KeyValuePairs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLoggerWithWriter("debug", &buf)

	logger.Info("API request", "method", "GET", "path", "/v1/accounts/a1/balances")

	line := logLine(t, &buf)
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "API request", line["message"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/v1/accounts/a1/balances", line["path"])
}

func TestZerologLogger_OddTrailingValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLoggerWithWriter("debug", &buf)

	logger.Warn("orphan", "key", 1, "dangling")

	line := logLine(t, &buf)
	assert.Equal(t, float64(1), line["key"])
	assert.Equal(t, "dangling", line["value"])
}

func TestZerologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLoggerWithWriter("warn", &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Error("visible")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel_UnknownDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLoggerWithWriter("verbose", &buf)

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	logger.Info("visible")
	assert.NotZero(t, buf.Len())
}
