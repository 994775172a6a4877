// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

// Package crypto provides the hashing and random-token primitives used by
// the auth service and session stores.
package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances login latency against brute-force resistance.
const bcryptCost = 12

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a password with a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SHA256 computes the SHA-256 hash of data and returns a hex-encoded string.
func SHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// SHA256String computes the SHA-256 hash of a string.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// HashToken hashes a refresh token or similar opaque token for storage.
// SHA-256 rather than bcrypt: tokens are high-entropy, so the slow hash
// buys nothing and would cost a disk-write-sized delay per request.
func HashToken(token string) string {
	return SHA256String(token)
}

// CheckToken compares a token with its hash using constant-time comparison.
func CheckToken(token, hash string) bool {
	computed := SHA256String(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
