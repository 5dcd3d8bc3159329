package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel(" Debug ")
	assert.True(t, ok)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	lvl, ok = ParseLevel("off")
	assert.True(t, ok)
	assert.Equal(t, zerolog.Disabled, lvl)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}

func TestNewHonoursLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	var buf bytes.Buffer

	logger := New("adb-link", "warn", &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewEnvOverride(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	var buf bytes.Buffer

	logger := New("adb-link", "error", &buf)
	logger.Debug().Msg("probe")

	assert.Contains(t, buf.String(), "probe")
}
