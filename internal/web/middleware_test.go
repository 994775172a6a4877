// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/models"
	authsvc "github.com/parleyhq/parley/internal/services/auth"
	"github.com/parleyhq/parley/internal/settings"
)

// stubSessionStore serves a fixed session for a fixed cookie value.
type stubSessionStore struct {
	session *Session
	deleted bool
}

func (s *stubSessionStore) Get(r *http.Request, name string) (*Session, error) {
	cookie, err := r.Cookie(name)
	if err != nil || s.session == nil || cookie.Value != s.session.ID {
		return nil, nil
	}
	return s.session, nil
}

func (s *stubSessionStore) Delete(r *http.Request, w http.ResponseWriter, name string) error {
	s.deleted = true
	return nil
}

func liveSession() *Session {
	return &Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Username:  "alice",
		Role:      "admin",
		CSRFToken: "token-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := GetUserFromContext(r.Context()); user != nil {
			_, _ = w.Write([]byte(user.Username))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	})
}

func TestResolveSessionAttachesUser(t *testing.T) {
	store := &stubSessionStore{session: liveSession()}
	m := NewMiddleware(store, MiddlewareConfig{})

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	req.AddCookie(&http.Cookie{Name: CookieSession, Value: "sess-1"})
	rec := httptest.NewRecorder()
	m.ResolveSession(okHandler()).ServeHTTP(rec, req)

	if rec.Body.String() != "alice" {
		t.Fatalf("body = %q, want alice", rec.Body.String())
	}
}

func TestResolveSessionAnonymousPassesThrough(t *testing.T) {
	m := NewMiddleware(&stubSessionStore{}, MiddlewareConfig{})

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	rec := httptest.NewRecorder()
	m.ResolveSession(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("code %d body %q", rec.Code, rec.Body.String())
	}
}

func TestResolveSessionExpiredSessionDeleted(t *testing.T) {
	session := liveSession()
	session.ExpiresAt = time.Now().Add(-time.Minute)
	store := &stubSessionStore{session: session}
	m := NewMiddleware(store, MiddlewareConfig{})

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	req.AddCookie(&http.Cookie{Name: CookieSession, Value: "sess-1"})
	rec := httptest.NewRecorder()
	m.ResolveSession(okHandler()).ServeHTTP(rec, req)

	if rec.Body.String() != "anonymous" {
		t.Fatalf("expired session should resolve as anonymous, got %q", rec.Body.String())
	}
	if !store.deleted {
		t.Fatal("expired session should be deleted")
	}
}

func TestAuthRequiredRedirectsAnonymous(t *testing.T) {
	m := NewMiddleware(&stubSessionStore{}, MiddlewareConfig{})

	req := httptest.NewRequest(http.MethodGet, "/profile?tab=sessions", nil)
	rec := httptest.NewRecorder()
	m.ResolveSession(m.AuthRequired(okHandler())).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("code = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if loc != "/login?return=%2Fprofile%3Ftab%3Dsessions" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestAuthRequiredHTMXGetsRedirectHeader(t *testing.T) {
	m := NewMiddleware(&stubSessionStore{}, MiddlewareConfig{})

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	m.ResolveSession(m.AuthRequired(okHandler())).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
	if rec.Header().Get("HX-Redirect") != "/login" {
		t.Fatalf("HX-Redirect = %q", rec.Header().Get("HX-Redirect"))
	}
}

func TestAdminRequired(t *testing.T) {
	session := liveSession()
	session.Role = "user"
	store := &stubSessionStore{session: session}
	m := NewMiddleware(store, MiddlewareConfig{})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: CookieSession, Value: "sess-1"})
	rec := httptest.NewRecorder()
	m.ResolveSession(m.AdminRequired(okHandler())).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403", rec.Code)
	}
}

// stubTokenValidator accepts exactly one token value.
type stubTokenValidator struct {
	token  string
	claims *authsvc.Claims
}

func (s *stubTokenValidator) ValidateAccessToken(_ context.Context, token string) (*authsvc.Claims, error) {
	if token != s.token {
		return nil, errors.New("invalid token")
	}
	return s.claims, nil
}

func TestResolveSessionBearerFallback(t *testing.T) {
	tokens := &stubTokenValidator{
		token: "jwt-1",
		claims: &authsvc.Claims{
			UserID:   "user-7",
			Username: "carol",
			Role:     models.RoleAdmin,
		},
	}
	m := NewMiddleware(&stubSessionStore{}, MiddlewareConfig{Tokens: tokens})

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	req.Header.Set("Authorization", "Bearer jwt-1")
	rec := httptest.NewRecorder()
	m.ResolveSession(okHandler()).ServeHTTP(rec, req)

	if rec.Body.String() != "carol" {
		t.Fatalf("body = %q, want carol", rec.Body.String())
	}
}

func TestResolveSessionRejectedBearerIsAnonymous(t *testing.T) {
	tokens := &stubTokenValidator{token: "jwt-1"}
	m := NewMiddleware(&stubSessionStore{}, MiddlewareConfig{Tokens: tokens})

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	req.Header.Set("Authorization", "Bearer expired-or-forged")
	rec := httptest.NewRecorder()
	m.ResolveSession(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("code %d body %q", rec.Code, rec.Body.String())
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := BearerToken(req); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestCSRFMiddleware(t *testing.T) {
	store := &stubSessionStore{session: liveSession()}
	m := NewMiddleware(store, MiddlewareConfig{})
	handler := m.ResolveSession(m.CSRFMiddleware(okHandler()))

	tests := []struct {
		name     string
		method   string
		token    string
		cookie   bool
		wantCode int
	}{
		{"get passes without token", http.MethodGet, "", true, http.StatusOK},
		{"post with valid token", http.MethodPost, "token-1", true, http.StatusOK},
		{"post with wrong token", http.MethodPost, "forged", true, http.StatusForbidden},
		{"post without token", http.MethodPost, "", true, http.StatusForbidden},
		{"anonymous post passes", http.MethodPost, "", false, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/settings/navigate", nil)
			if tt.cookie {
				req.AddCookie(&http.Cookie{Name: CookieSession, Value: "sess-1"})
			}
			if tt.token != "" {
				req.Header.Set("X-CSRF-Token", tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestIsSafeReturnURL(t *testing.T) {
	tests := []struct {
		url  string
		safe bool
	}{
		{"/settings", true},
		{"/chat?room=general", true},
		{"//evil.example/phish", false},
		{"https://evil.example", false},
		{"/ok\r\nSet-Cookie: x", false},
	}
	for _, tt := range tests {
		if got := isSafeReturnURL(tt.url); got != tt.safe {
			t.Errorf("isSafeReturnURL(%q) = %v, want %v", tt.url, got, tt.safe)
		}
	}
}

func TestIsExcludedPath(t *testing.T) {
	m := NewMiddleware(&stubSessionStore{}, MiddlewareConfig{
		ExcludePaths: []string{"/healthz", "/static/"},
	})

	tests := []struct {
		path     string
		excluded bool
	}{
		{"/login", true},
		{"/healthz", true},
		{"/healthz-dashboard", false},
		{"/static/app.css", true},
		{"/settings", false},
	}
	for _, tt := range tests {
		if got := m.isExcludedPath(tt.path); got != tt.excluded {
			t.Errorf("isExcludedPath(%q) = %v, want %v", tt.path, got, tt.excluded)
		}
	}
}

func TestPanelForUnknownKey(t *testing.T) {
	desc := PanelFor("system.unmapped")
	if desc.Available {
		t.Fatal("unknown key must map to the unavailable placeholder")
	}
	if desc.Fragment != "panels/unavailable" {
		t.Fatalf("fragment = %q", desc.Fragment)
	}
}

func TestPanelCatalogCoversDefaultTree(t *testing.T) {
	for _, group := range settings.DefaultTree() {
		for _, leaf := range group.Children {
			if desc := PanelFor(leaf.Key); !desc.Available {
				t.Errorf("navigation leaf %q has no catalog entry", leaf.Key)
			}
		}
	}
}
