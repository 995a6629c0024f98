package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"nostrdm/internal/domain"
)

// DefaultSendTimeout bounds one outbound send when nothing else is set.
const DefaultSendTimeout = 15 * time.Second

// Config holds session settings from the config file and flags. It never
// carries key material.
type Config struct {
	DMRelays    []string
	ReadRelays  []string
	WriteRelays []string
	OneShot     bool
	LogLevel    string
	SendTimeout time.Duration
}

// fileConfig is the on-disk TOML layout.
type fileConfig struct {
	DMRelays    []string `toml:"dm_relays"`
	ReadRelays  []string `toml:"read_relays"`
	WriteRelays []string `toml:"write_relays"`
	OneShot     bool     `toml:"one_shot"`
	LogLevel    string   `toml:"log_level"`
	SendTimeout string   `toml:"send_timeout"`
}

// DefaultConfig is the configuration used without a config file.
func DefaultConfig() Config {
	return Config{SendTimeout: DefaultSendTimeout}
}

// LoadConfig reads the TOML file at path over DefaultConfig. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: config file %s not found", domain.ErrConfiguration, path)
		}
		return Config{}, fmt.Errorf("%w: load config: %v", domain.ErrConfiguration, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown config key %q", domain.ErrConfiguration, undecoded[0].String())
	}

	cfg.DMRelays = raw.DMRelays
	cfg.ReadRelays = raw.ReadRelays
	cfg.WriteRelays = raw.WriteRelays
	cfg.OneShot = raw.OneShot
	cfg.LogLevel = strings.TrimSpace(raw.LogLevel)

	if meta.IsDefined("send_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SendTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("%w: parse send_timeout: %v", domain.ErrConfiguration, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("%w: send_timeout must be positive", domain.ErrConfiguration)
		}
		cfg.SendTimeout = d
	}
	return cfg, nil
}

// Merge layers command-line values over c. Relay lists are appended, the
// one-shot switch can only be turned on, and a non-empty log level or
// positive timeout replaces the file value.
func (c Config) Merge(flags Config) Config {
	out := c
	out.DMRelays = appendRelays(c.DMRelays, flags.DMRelays)
	out.ReadRelays = appendRelays(c.ReadRelays, flags.ReadRelays)
	out.WriteRelays = appendRelays(c.WriteRelays, flags.WriteRelays)
	out.OneShot = c.OneShot || flags.OneShot
	if flags.LogLevel != "" {
		out.LogLevel = flags.LogLevel
	}
	if flags.SendTimeout > 0 {
		out.SendTimeout = flags.SendTimeout
	}
	return out
}

// appendRelays concatenates lists, splitting comma-separated entries.
// Deduplication is left to topology.Compose.
func appendRelays(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, entry := range list {
			for _, u := range strings.Split(entry, ",") {
				if u = strings.TrimSpace(u); u != "" {
					out = append(out, u)
				}
			}
		}
	}
	return out
}
