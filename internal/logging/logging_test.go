package logging_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nostrdm/internal/logging"
)

func TestParseLevel(t *testing.T) {
	level, err := logging.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)

	level, err = logging.ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	_, err = logging.ParseLevel("loud")
	assert.Error(t, err)
}

func TestResolveLevel_Precedence(t *testing.T) {
	t.Setenv(logging.EnvLogLevel, "info")

	level, err := logging.ResolveLevel("error", "debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, level, "flag wins")

	level, err = logging.ResolveLevel("", "debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level, "env beats config")

	t.Setenv(logging.EnvLogLevel, "")
	level, err = logging.ResolveLevel("", "debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	level, err = logging.ResolveLevel("", "")
	require.NoError(t, err)
	assert.Equal(t, logging.DefaultLevel, level)
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, zerolog.WarnLevel)

	log.Info().Msg("quiet")
	assert.Empty(t, buf.String())

	log.Warn().Str("relay", "wss://a").Msg("loud")
	assert.Contains(t, buf.String(), "loud")
	assert.Contains(t, buf.String(), "wss://a")
}
