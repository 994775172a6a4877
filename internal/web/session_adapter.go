// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/parleyhq/parley/internal/pkg/crypto"
	redisrepo "github.com/parleyhq/parley/internal/repository/redis"
)

// CookieConfig holds session cookie settings wired from app config.
type CookieConfig struct {
	Secure   bool          // Force Secure flag (overrides TLS auto-detection)
	SameSite http.SameSite // SameSite attribute (default Lax)
	Domain   string        // Cookie Domain (empty = browser default)
}

// Session represents a user session as the web layer sees it.
type Session struct {
	ID        string
	UserID    string
	Username  string
	Role      string
	CSRFToken string
	CreatedAt time.Time
	ExpiresAt time.Time
	Values    map[string]interface{}
}

// SessionStore is the session surface the middleware and handlers use.
type SessionStore interface {
	Get(r *http.Request, name string) (*Session, error)
	Delete(r *http.Request, w http.ResponseWriter, name string) error
}

// WebSessionStore adapts redis.SessionStore to the web layer.
type WebSessionStore struct {
	redisStore *redisrepo.SessionStore
	ttl        time.Duration
	cookie     CookieConfig
}

// NewWebSessionStore creates a web session store backed by Redis.
func NewWebSessionStore(redisStore *redisrepo.SessionStore, ttl time.Duration, cookie CookieConfig) *WebSessionStore {
	if cookie.SameSite == 0 {
		cookie.SameSite = http.SameSiteLaxMode
	}
	return &WebSessionStore{
		redisStore: redisStore,
		ttl:        ttl,
		cookie:     cookie,
	}
}

// Get retrieves a session from the request cookie. A missing cookie or a
// session that no longer exists in Redis both return (nil, nil).
func (s *WebSessionStore) Get(r *http.Request, name string) (*Session, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}
	sessionID := cookie.Value
	if sessionID == "" {
		return nil, nil
	}

	ctx := r.Context()
	redisSession, err := s.redisStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redisrepo.ErrSessionNotFound) || errors.Is(err, redisrepo.ErrSessionExpired) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	// Touch the session to extend its lifetime
	_ = s.redisStore.Touch(ctx, sessionID)

	csrfToken, _ := redisSession.Data["csrf_token"].(string)
	if csrfToken == "" {
		csrfToken = GenerateCSRFToken()
		if csrfToken != "" {
			_ = s.redisStore.SetData(ctx, sessionID, "csrf_token", csrfToken)
		}
	}

	return &Session{
		ID:        redisSession.ID,
		UserID:    redisSession.UserID,
		Username:  redisSession.Username,
		Role:      redisSession.Role,
		CSRFToken: csrfToken,
		CreatedAt: redisSession.CreatedAt,
		ExpiresAt: redisSession.ExpiresAt,
		Values:    redisSession.Data,
	}, nil
}

// CreateSession creates a Redis session for a freshly logged-in user and
// returns the web view of it.
func (s *WebSessionStore) CreateSession(ctx context.Context, userID, username, role, userAgent, ipAddress string) (*Session, error) {
	redisSession, err := s.redisStore.Create(ctx, userID, username, role, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	csrfToken := GenerateCSRFToken()
	if csrfToken != "" {
		_ = s.redisStore.SetData(ctx, redisSession.ID, "csrf_token", csrfToken)
	}

	return &Session{
		ID:        redisSession.ID,
		UserID:    redisSession.UserID,
		Username:  redisSession.Username,
		Role:      redisSession.Role,
		CSRFToken: csrfToken,
		CreatedAt: redisSession.CreatedAt,
		ExpiresAt: redisSession.ExpiresAt,
		Values:    redisSession.Data,
	}, nil
}

// SetCookie writes the session cookie (Secure flag from config, falls back
// to TLS auto-detection).
func (s *WebSessionStore) SetCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieSession,
		Value:    sessionID,
		Path:     "/",
		Domain:   s.cookie.Domain,
		HttpOnly: true,
		Secure:   s.cookie.Secure || r.TLS != nil,
		SameSite: s.cookie.SameSite,
		MaxAge:   int(s.ttl.Seconds()),
	})
}

// Delete removes a session and clears the cookie.
func (s *WebSessionStore) Delete(r *http.Request, w http.ResponseWriter, name string) error {
	cookie, err := r.Cookie(name)
	if err == nil && cookie.Value != "" {
		_ = s.redisStore.Delete(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookie.Secure || r.TLS != nil,
		SameSite: s.cookie.SameSite,
		MaxAge:   -1,
	})
	return nil
}

// Redis exposes the underlying store for adapters that need session data
// access (the settings selection store).
func (s *WebSessionStore) Redis() *redisrepo.SessionStore {
	return s.redisStore
}

// GenerateCSRFToken returns a fresh random token, empty on entropy failure.
func GenerateCSRFToken() string {
	token, err := crypto.RandomHex(32)
	if err != nil {
		return ""
	}
	return token
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
