package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "debug"}, &buf)

	l.Info().Str("wallet", "Stocks").Msg("planned")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Stocks", entry["wallet"])
	assert.Equal(t, "planned", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "error"}, &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	l.Error().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
