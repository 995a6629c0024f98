// Package logging builds the process logger.
//
// Diagnostics go to stderr through a zerolog console writer. The default
// level is warn so relay chatter stays out of the chat transcript.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel names the environment variable that sets the log level.
const EnvLogLevel = "NOSTRDM_LOG_LEVEL"

// DefaultLevel applies when no level is configured anywhere.
const DefaultLevel = zerolog.WarnLevel

// New returns a human-readable logger writing to w at level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "nostrdm").Logger()
}

// ParseLevel accepts zerolog level names, case-insensitively. An empty
// string yields DefaultLevel.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return DefaultLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

// ResolveLevel picks the first non-empty of the flag value, the environment
// variable and the config file value.
func ResolveLevel(flag, config string) (zerolog.Level, error) {
	for _, s := range []string{flag, os.Getenv(EnvLogLevel), config} {
		if strings.TrimSpace(s) != "" {
			return ParseLevel(s)
		}
	}
	return DefaultLevel, nil
}
