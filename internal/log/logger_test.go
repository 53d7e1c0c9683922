package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "api")

	logger.Debug().Msg("hidden")
	logger.Info().Str("user_id", "u1").Msg("user registered")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "production", entry["env"])
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "user registered", entry["message"])
}

func TestDevelopmentLoggerIncludesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "development", "worker")

	logger.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "worker")
}
