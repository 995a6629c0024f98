package event

import (
	"encoding/json"
	"slices"
	"strings"
)

// Filter selects events for a subscription.
//
// Tags maps a single-letter tag name (without the '#') to accepted values.
type Filter struct {
	IDs     []string
	Authors []string
	Kinds   []Kind
	Tags    map[string][]string
	Since   *int64
	Until   *int64
	Limit   *int
}

// Live returns a pointer to zero for use as Filter.Limit.
func Live() *int {
	zero := 0
	return &zero
}

// MarshalJSON encodes f as a NIP-01 filter object.
func (f Filter) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 4+len(f.Tags))
	if len(f.IDs) > 0 {
		m["ids"] = f.IDs
	}
	if len(f.Authors) > 0 {
		m["authors"] = f.Authors
	}
	if len(f.Kinds) > 0 {
		m["kinds"] = f.Kinds
	}
	for name, values := range f.Tags {
		m["#"+name] = values
	}
	if f.Since != nil {
		m["since"] = *f.Since
	}
	if f.Until != nil {
		m["until"] = *f.Until
	}
	if f.Limit != nil {
		m["limit"] = *f.Limit
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a NIP-01 filter object.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Filter{}
	for key, value := range raw {
		var err error
		switch {
		case key == "ids":
			err = json.Unmarshal(value, &f.IDs)
		case key == "authors":
			err = json.Unmarshal(value, &f.Authors)
		case key == "kinds":
			err = json.Unmarshal(value, &f.Kinds)
		case key == "since":
			err = json.Unmarshal(value, &f.Since)
		case key == "until":
			err = json.Unmarshal(value, &f.Until)
		case key == "limit":
			err = json.Unmarshal(value, &f.Limit)
		case strings.HasPrefix(key, "#") && len(key) == 2:
			var values []string
			err = json.Unmarshal(value, &values)
			if f.Tags == nil {
				f.Tags = make(map[string][]string)
			}
			f.Tags[key[1:]] = values
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether ev satisfies every condition of f. Limit is ignored.
func (f Filter) Matches(ev *Event) bool {
	if ev == nil {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, ev.ID) {
		return false
	}
	if len(f.Authors) > 0 && !slices.Contains(f.Authors, ev.PubKey) {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, ev.Kind) {
		return false
	}
	if f.Since != nil && ev.CreatedAt < *f.Since {
		return false
	}
	if f.Until != nil && ev.CreatedAt > *f.Until {
		return false
	}
	for name, want := range f.Tags {
		if !slices.ContainsFunc(ev.Tags.Values(name), func(v string) bool {
			return slices.Contains(want, v)
		}) {
			return false
		}
	}
	return true
}
