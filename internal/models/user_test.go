// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package models

import (
	"encoding/json"
	"testing"
	"time"
)

// ============================================================================
// UserRole
// ============================================================================

func TestUserRole_IsValid(t *testing.T) {
	tests := []struct {
		role UserRole
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, true},
		{RolePending, true},
		{"invalid", false},
		{"", false},
		{"superadmin", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.IsValid(); got != tt.want {
				t.Errorf("UserRole(%q).IsValid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestUserRole_IsAdmin(t *testing.T) {
	tests := []struct {
		role UserRole
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, false},
		{RolePending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.IsAdmin(); got != tt.want {
				t.Errorf("UserRole(%q).IsAdmin() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

// ============================================================================
// User lockout
// ============================================================================

func TestUser_IsLocked(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name        string
		lockedUntil *time.Time
		want        bool
	}{
		{"never locked", nil, false},
		{"lock expired", &past, false},
		{"locked", &future, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{LockedUntil: tt.lockedUntil}
			if got := u.IsLocked(); got != tt.want {
				t.Errorf("IsLocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_CanLogin(t *testing.T) {
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name string
		user User
		want bool
	}{
		{"active user", User{IsActive: true, Role: RoleUser}, true},
		{"active admin", User{IsActive: true, Role: RoleAdmin}, true},
		{"inactive", User{IsActive: false, Role: RoleUser}, false},
		{"locked", User{IsActive: true, Role: RoleUser, LockedUntil: &future}, false},
		{"pending approval", User{IsActive: true, Role: RolePending}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.CanLogin(); got != tt.want {
				t.Errorf("CanLogin() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ============================================================================
// Session
// ============================================================================

func TestSession_IsExpired(t *testing.T) {
	expired := Session{ExpiresAt: time.Now().Add(-time.Minute)}
	if !expired.IsExpired() {
		t.Error("session past its expiry should be expired")
	}

	live := Session{ExpiresAt: time.Now().Add(time.Minute)}
	if live.IsExpired() {
		t.Error("session before its expiry should not be expired")
	}
}

// ============================================================================
// Preferences
// ============================================================================

func TestParsePreferences_Empty(t *testing.T) {
	prefs := ParsePreferences("")
	if prefs.Theme != "system" {
		t.Errorf("default theme = %q, want system", prefs.Theme)
	}
}

func TestParsePreferences_Malformed(t *testing.T) {
	prefs := ParsePreferences("{not json")
	if prefs.Theme != "system" {
		t.Errorf("malformed input should fall back to defaults, got theme %q", prefs.Theme)
	}
}

func TestPreferences_RoundTrip(t *testing.T) {
	in := UserPreferences{
		Theme:            "dark",
		Language:         "es-ES",
		SettingsLastMain: "system",
		SettingsLastSub:  "system.users",
	}

	raw, err := in.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out := ParsePreferences(raw)
	if out.SettingsLastMain != "system" || out.SettingsLastSub != "system.users" {
		t.Errorf("round-trip lost settings selection: %+v", out)
	}
	if out.Theme != "dark" {
		t.Errorf("round-trip theme = %q, want dark", out.Theme)
	}
}

func TestPreferences_UnknownFieldsSurviveRoundTrip(t *testing.T) {
	stored := `{"theme":"light","sidebar_width":320,"beta":{"labs":true},"settings_last_main":"personal"}`

	prefs := ParsePreferences(stored)
	if prefs.Theme != "light" || prefs.SettingsLastMain != "personal" {
		t.Fatalf("known fields misparsed: %+v", prefs)
	}

	prefs.SettingsLastSub = "personal.account"
	raw, err := prefs.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		t.Fatalf("re-encoded blob not valid JSON: %v", err)
	}
	if string(fields["sidebar_width"]) != "320" {
		t.Errorf("sidebar_width = %s, want 320", fields["sidebar_width"])
	}
	if string(fields["beta"]) != `{"labs":true}` {
		t.Errorf("beta = %s, dropped or mangled", fields["beta"])
	}
	if string(fields["settings_last_sub"]) != `"personal.account"` {
		t.Errorf("settings_last_sub = %s", fields["settings_last_sub"])
	}
}
