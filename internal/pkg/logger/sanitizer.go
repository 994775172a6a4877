// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package logger

import (
	"strings"
)

// sensitiveKeys lists field names that must never appear in log output with
// their real values. Keys are matched case-insensitively.
var sensitiveKeys = map[string]bool{
	"password":       true,
	"passwd":         true,
	"secret":         true,
	"token":          true,
	"jwt":            true,
	"jwt_secret":     true,
	"api_key":        true,
	"apikey":         true,
	"authorization":  true,
	"cookie":         true,
	"set-cookie":     true,
	"credential":     true,
	"credentials":    true,
	"session_secret": true,
	"client_secret":  true,
}

const redactedValue = "[REDACTED]"

// IsSensitiveKey returns true if the given key name refers to a sensitive
// field that should be redacted in logs.
func IsSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(key)]
}

// SanitizeField returns the value as-is if the key is not sensitive,
// or the redacted placeholder if it is.
func SanitizeField(key string, value interface{}) interface{} {
	if IsSensitiveKey(key) {
		return redactedValue
	}
	return value
}

// sanitizeKeysAndValues redacts the value following every sensitive key in a
// zap-style key/value pair list. The input is copied only when something
// needs redacting, so the common clean path allocates nothing.
func sanitizeKeysAndValues(kv []interface{}) []interface{} {
	var out []interface{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok || !IsSensitiveKey(key) {
			continue
		}
		if out == nil {
			out = make([]interface{}, len(kv))
			copy(out, kv)
		}
		out[i+1] = redactedValue
	}
	if out == nil {
		return kv
	}
	return out
}
