// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package redis

import (
	"context"
	"testing"
	"time"
)

func TestBlacklistToken(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)
	ctx := context.Background()

	jti := "token-abc-123"
	if err := bl.BlacklistToken(ctx, jti, time.Now().Add(10*time.Minute), "logout"); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}

	blacklisted, err := bl.IsBlacklisted(ctx, jti)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if !blacklisted {
		t.Fatal("expected token to be blacklisted")
	}

	reason, err := bl.GetBlacklistReason(ctx, jti)
	if err != nil {
		t.Fatalf("GetBlacklistReason: %v", err)
	}
	if reason != "logout" {
		t.Fatalf("reason = %q, want %q", reason, "logout")
	}
}

func TestBlacklistToken_DefaultReason(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)
	ctx := context.Background()

	jti := "token-no-reason"
	if err := bl.BlacklistToken(ctx, jti, time.Now().Add(5*time.Minute), ""); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}

	reason, err := bl.GetBlacklistReason(ctx, jti)
	if err != nil {
		t.Fatalf("GetBlacklistReason: %v", err)
	}
	if reason != "revoked" {
		t.Fatalf("reason = %q, want %q", reason, "revoked")
	}
}

func TestBlacklistToken_AlreadyExpired(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)
	ctx := context.Background()

	jti := "token-expired"
	if err := bl.BlacklistToken(ctx, jti, time.Now().Add(-time.Minute), "logout"); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}

	blacklisted, err := bl.IsBlacklisted(ctx, jti)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if blacklisted {
		t.Fatal("expired token should not be stored in blacklist")
	}
}

func TestIsBlacklisted_NotBlacklisted(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)

	blacklisted, err := bl.IsBlacklisted(context.Background(), "nonexistent-jti")
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if blacklisted {
		t.Fatal("expected non-existent token to not be blacklisted")
	}
}

func TestGetBlacklistReason_NotBlacklisted(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)

	reason, err := bl.GetBlacklistReason(context.Background(), "missing-jti")
	if err != nil {
		t.Fatalf("GetBlacklistReason: %v", err)
	}
	if reason != "" {
		t.Fatalf("expected empty reason, got %q", reason)
	}
}

func TestRemoveFromBlacklist(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)
	ctx := context.Background()

	jti := "token-to-remove"
	if err := bl.BlacklistToken(ctx, jti, time.Now().Add(10*time.Minute), "logout"); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}

	if err := bl.RemoveFromBlacklist(ctx, jti); err != nil {
		t.Fatalf("RemoveFromBlacklist: %v", err)
	}

	blacklisted, err := bl.IsBlacklisted(ctx, jti)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if blacklisted {
		t.Fatal("expected token to not be blacklisted after removal")
	}

	// DEL is idempotent.
	if err := bl.RemoveFromBlacklist(ctx, "never-existed"); err != nil {
		t.Fatalf("RemoveFromBlacklist(missing): %v", err)
	}
}

func TestBlacklistExpiryViaMiniredis(t *testing.T) {
	client, mr := newTestClientWithMR(t)
	bl := NewJWTBlacklist(client)
	ctx := context.Background()

	jti := "token-short-lived"
	if err := bl.BlacklistToken(ctx, jti, time.Now().Add(time.Minute), "logout"); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	blacklisted, err := bl.IsBlacklisted(ctx, jti)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if blacklisted {
		t.Fatal("blacklist entry should expire with the token")
	}
}
