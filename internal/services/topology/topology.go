package topology

import (
	"fmt"
	"net/url"
	"strings"

	"nostrdm/internal/domain"
)

var fallbackRelays = []string{
	"wss://relay.damus.io",
	"wss://nos.lol",
	"wss://relay.primal.net",
}

// Fallback returns the public relays always added to the write set.
func Fallback() []string {
	return append([]string(nil), fallbackRelays...)
}

// Compose builds the relay set from the DM relay list and the optional extra
// read and write lists.
//
//	read  = message ∪ read
//	write = message ∪ fallback ∪ write
//
// URLs are compared case-insensitively with trailing slashes removed. An
// empty message list or any malformed URL is a configuration error.
func Compose(message, read, write []string) (domain.RelaySet, error) {
	if len(message) == 0 {
		return nil, fmt.Errorf("%w: at least one DM relay is required", domain.ErrConfiguration)
	}

	set := domain.RelaySet{}
	canonical := map[string]string{}
	add := func(urls []string, role domain.RelayRole) error {
		for _, raw := range urls {
			u, err := Normalize(raw)
			if err != nil {
				return err
			}
			key := strings.ToLower(u)
			if first, ok := canonical[key]; ok {
				u = first
			} else {
				canonical[key] = u
			}
			set.Add(u, role)
		}
		return nil
	}

	if err := add(message, domain.RoleRead|domain.RoleWrite); err != nil {
		return nil, err
	}
	if err := add(read, domain.RoleRead); err != nil {
		return nil, err
	}
	if err := add(fallbackRelays, domain.RoleWrite); err != nil {
		return nil, err
	}
	if err := add(write, domain.RoleWrite); err != nil {
		return nil, err
	}
	return set, nil
}

// Normalize lower-cases the scheme and host of a relay URL and strips
// trailing slashes from its path. The result must be a ws or wss URL with a
// host.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty relay URL", domain.ErrConfiguration)
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: relay %q: %v", domain.ErrConfiguration, raw, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("%w: relay %q: scheme must be ws or wss", domain.ErrConfiguration, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: relay %q: missing host", domain.ErrConfiguration, raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(u.RawPath, "/")
	return u.String(), nil
}
