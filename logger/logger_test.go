package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponent_TagsEntries(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter("info", "json", &buf)

	WithComponent("database").Info().Str("dsn", "redacted").Msg("connected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "database", entry["component"])
	assert.Equal(t, "modeva-catalog-filters", entry["service"])
	assert.Equal(t, "connected", entry["message"])
}

func TestWithComponent_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter("warn", "json", &buf)
	t.Cleanup(func() { SetupWithWriter("info", "json", &bytes.Buffer{}) })

	log := WithComponent("http")
	log.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	log.Error().Msg("kept")
	assert.Contains(t, buf.String(), `"level":"error"`)
}
