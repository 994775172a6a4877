// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JWTBlacklist stores revoked token IDs until their natural expiry. A token
// past its expiry never needs an entry: validation already rejects it.
type JWTBlacklist struct {
	client *Client
}

// NewJWTBlacklist creates a blacklist over the given client.
func NewJWTBlacklist(client *Client) *JWTBlacklist {
	return &JWTBlacklist{client: client}
}

// BlacklistToken marks a token ID as revoked until expiresAt. The stored
// value is the revocation reason ("revoked" when none is given). Already
// expired tokens are a no-op.
func (b *JWTBlacklist) BlacklistToken(ctx context.Context, jti string, expiresAt time.Time, reason string) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if reason == "" {
		reason = "revoked"
	}
	if err := b.client.Redis().Set(ctx, b.client.BlacklistKey(jti), reason, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether a token ID has been revoked.
func (b *JWTBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Redis().Exists(ctx, b.client.BlacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

// GetBlacklistReason returns the stored revocation reason, or empty when
// the token is not blacklisted.
func (b *JWTBlacklist) GetBlacklistReason(ctx context.Context, jti string) (string, error) {
	reason, err := b.client.Redis().Get(ctx, b.client.BlacklistKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get blacklist reason: %w", err)
	}
	return reason, nil
}

// RemoveFromBlacklist deletes a revocation entry. Idempotent.
func (b *JWTBlacklist) RemoveFromBlacklist(ctx context.Context, jti string) error {
	if err := b.client.Redis().Del(ctx, b.client.BlacklistKey(jti)).Err(); err != nil {
		return fmt.Errorf("remove from blacklist: %w", err)
	}
	return nil
}
