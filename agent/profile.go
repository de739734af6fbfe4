package agent

import (
	"fmt"
	"sort"
	"strconv"
)

// Default values for the known profile fields. Every field carries one
// of these until the connecting participant supplies something better.
const (
	DefaultName       = "Boss"
	DefaultCity       = "India"
	DefaultState      = ""
	DefaultProfession = "Professional"
	DefaultInterests  = "Success"
)

// UserProfile is an open string-keyed record describing the connecting
// user. A small set of known fields is always present and defaulted;
// any extra keys the frontend supplies are carried through verbatim.
// One profile is built per session and is not shared across goroutines
// after resolution hands it to prompt construction.
type UserProfile struct {
	fields map[string]string
}

// NewUserProfile returns a profile seeded with the full default set.
func NewUserProfile() *UserProfile {
	return &UserProfile{fields: map[string]string{
		"name":       DefaultName,
		"city":       DefaultCity,
		"state":      DefaultState,
		"profession": DefaultProfession,
		"interests":  DefaultInterests,
	}}
}

// Get returns the value for key, or "" if the key was never set.
func (p *UserProfile) Get(key string) string {
	return p.fields[key]
}

// Set stores value under key. Empty values are ignored so that a
// partial update never erases something already learned.
func (p *UserProfile) Set(key, value string) {
	if value == "" {
		return
	}
	p.fields[key] = value
}

// Merge folds a decoded metadata record into the profile. Only truthy
// values win; for any given key the last truthy value applied is kept.
func (p *UserProfile) Merge(data map[string]interface{}) {
	for k, v := range data {
		if s, ok := truthyString(v); ok {
			p.fields[k] = s
		}
	}
}

// Keys returns the profile's keys in sorted order.
func (p *UserProfile) Keys() []string {
	keys := make([]string, 0, len(p.fields))
	for k := range p.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *UserProfile) Name() string       { return p.fields["name"] }
func (p *UserProfile) City() string       { return p.fields["city"] }
func (p *UserProfile) State() string      { return p.fields["state"] }
func (p *UserProfile) Profession() string { return p.fields["profession"] }
func (p *UserProfile) Interests() string  { return p.fields["interests"] }

// truthyString converts a JSON value to its string form, reporting
// whether it counts as truthy. Empty strings, zero numbers, false and
// null are falsy and never overwrite a learned value.
func truthyString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		if t == 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), t
	case nil:
		return "", false
	default:
		s := fmt.Sprintf("%v", t)
		return s, s != "" && s != "[]" && s != "map[]"
	}
}
