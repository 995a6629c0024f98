package types

import (
	"slices"
	"strings"
)

// RelayRole is a bit set of the roles a relay plays in a session.
type RelayRole uint8

const (
	RoleRead RelayRole = 1 << iota
	RoleWrite
)

// Has reports whether r includes every bit of role.
func (r RelayRole) Has(role RelayRole) bool { return r&role == role && role != 0 }

// String renders the role set as "read", "write" or "read+write".
func (r RelayRole) String() string {
	var parts []string
	if r.Has(RoleRead) {
		parts = append(parts, "read")
	}
	if r.Has(RoleWrite) {
		parts = append(parts, "write")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// RelaySet maps a normalized relay URL to its roles.
type RelaySet map[string]RelayRole

// Add grants role to url.
func (s RelaySet) Add(url string, role RelayRole) { s[url] |= role }

// URLs returns every relay URL, sorted.
func (s RelaySet) URLs() []string {
	out := make([]string, 0, len(s))
	for url := range s {
		out = append(out, url)
	}
	slices.Sort(out)
	return out
}

// ReadURLs returns relays holding the read role, sorted.
func (s RelaySet) ReadURLs() []string { return s.with(RoleRead) }

// WriteURLs returns relays holding the write role, sorted.
func (s RelaySet) WriteURLs() []string { return s.with(RoleWrite) }

func (s RelaySet) with(role RelayRole) []string {
	var out []string
	for url, r := range s {
		if r.Has(role) {
			out = append(out, url)
		}
	}
	slices.Sort(out)
	return out
}
