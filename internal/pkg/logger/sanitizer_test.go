// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key       string
		sensitive bool
	}{
		{"password", true},
		{"PASSWORD", true},
		{"jwt_secret", true},
		{"Authorization", true},
		{"username", false},
		{"error", false},
	}
	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.sensitive {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.sensitive)
		}
	}
}

func TestSanitizeKeysAndValues(t *testing.T) {
	in := []interface{}{"username", "alice", "password", "hunter2", "token", "abc"}
	out := sanitizeKeysAndValues(in)

	if out[1] != "alice" {
		t.Errorf("username value = %v, want alice", out[1])
	}
	if out[3] != redactedValue || out[5] != redactedValue {
		t.Errorf("sensitive values not redacted: %v", out)
	}
	if in[3] != "hunter2" {
		t.Error("input slice must not be mutated")
	}
}

func TestSanitizeKeysAndValuesCleanPathReturnsInput(t *testing.T) {
	in := []interface{}{"username", "alice", "attempts", 3}
	out := sanitizeKeysAndValues(in)
	if &out[0] != &in[0] {
		t.Error("clean key/value list should be returned without copying")
	}
}

func TestLoggerRedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput("info", "json", &buf)
	if err != nil {
		t.Fatalf("NewWithOutput: %v", err)
	}

	log.Info("user login", "username", "alice", "password", "hunter2")
	log.Warn("token issued", "jwt", "eyJhbGciOi...")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "eyJhbGciOi") {
		t.Fatalf("secret leaked into log output: %s", out)
	}
	if !strings.Contains(out, "alice") {
		t.Fatalf("non-sensitive field missing from output: %s", out)
	}
	if strings.Count(out, redactedValue) != 2 {
		t.Fatalf("want 2 redacted fields, output: %s", out)
	}
}
