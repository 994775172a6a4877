// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package models

import "encoding/json"

// knownPreferenceKeys are the JSON fields this console version understands.
// Everything else in a stored blob travels through Extra untouched.
var knownPreferenceKeys = []string{
	"theme", "language", "timezone", "settings_last_main", "settings_last_sub",
}

// UserPreferences holds per-user console preferences stored as a JSON blob.
// Fields written by other console versions survive a round-trip: they are
// captured in Extra on parse and merged back on Encode.
type UserPreferences struct {
	Theme    string `json:"theme,omitempty"`    // "light", "dark", "system"
	Language string `json:"language,omitempty"` // BCP 47 tag, e.g. "en-US"
	Timezone string `json:"timezone,omitempty"` // IANA name, e.g. "Europe/Madrid"

	// Last settings panel selection, restored when the panel is reopened
	// without a deep link.
	SettingsLastMain string `json:"settings_last_main,omitempty"`
	SettingsLastSub  string `json:"settings_last_sub,omitempty"`

	// Extra carries unknown fields from the stored blob verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

// DefaultPreferences returns the preferences applied to users (and anonymous
// visitors) that have never saved any.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:    "system",
		Language: "en-US",
	}
}

// ParsePreferences decodes a preferences JSON blob, falling back to defaults
// on empty or malformed input rather than failing the request.
func ParsePreferences(raw string) UserPreferences {
	if raw == "" {
		return DefaultPreferences()
	}
	prefs := DefaultPreferences()
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return DefaultPreferences()
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err == nil {
		for _, k := range knownPreferenceKeys {
			delete(fields, k)
		}
		if len(fields) > 0 {
			prefs.Extra = fields
		}
	}
	return prefs
}

// Encode marshals preferences back to their storage form, unknown fields
// included.
func (p UserPreferences) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	if len(p.Extra) == 0 {
		return string(b), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return "", err
	}
	for k, v := range p.Extra {
		if _, known := fields[k]; !known {
			fields[k] = v
		}
	}
	b, err = json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
