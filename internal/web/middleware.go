// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"github.com/parleyhq/parley/internal/pkg/logger"
	authsvc "github.com/parleyhq/parley/internal/services/auth"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	ContextKeyUser      ContextKey = "user"
	ContextKeySession   ContextKey = "session"
	ContextKeyCSRFToken ContextKey = "csrf_token"
)

// TokenValidator validates bearer access tokens, revocation list included.
// Satisfied by *auth.Service.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*authsvc.Claims, error)
}

// Middleware contains middleware dependencies.
type Middleware struct {
	sessionStore SessionStore
	tokens       TokenValidator
	sessionName  string
	loginPath    string
	excludePaths []string
	log          *logger.Logger
}

// MiddlewareConfig contains middleware configuration.
type MiddlewareConfig struct {
	SessionName  string
	LoginPath    string
	ExcludePaths []string

	// Tokens enables Authorization: Bearer authentication for API clients
	// carrying the JWT pair issued at login. Optional.
	Tokens TokenValidator

	Logger *logger.Logger
}

// NewMiddleware creates a new Middleware instance.
func NewMiddleware(sessionStore SessionStore, config MiddlewareConfig) *Middleware {
	if config.SessionName == "" {
		config.SessionName = CookieSession
	}
	if config.LoginPath == "" {
		config.LoginPath = "/login"
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	return &Middleware{
		sessionStore: sessionStore,
		tokens:       config.Tokens,
		sessionName:  config.SessionName,
		loginPath:    config.LoginPath,
		excludePaths: config.ExcludePaths,
		log:          config.Logger.Named("web"),
	}
}

// ResolveSession loads the session if one exists and attaches the user
// snapshot to the context. Requests without a session cookie fall back to
// Authorization: Bearer token validation when a TokenValidator is wired.
// It never blocks the request: anonymous visitors pass through with no
// user, which is how the public settings leaves stay reachable without
// logging in.
func (m *Middleware) ResolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.sessionStore.Get(r, m.sessionName)
		if err != nil {
			m.log.Warn("session lookup failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if session == nil || session.UserID == "" {
			m.resolveBearer(w, r, next)
			return
		}
		if time.Now().After(session.ExpiresAt) {
			_ = m.sessionStore.Delete(r, w, m.sessionName)
			m.resolveBearer(w, r, next)
			return
		}

		user := &UserContext{
			ID:       session.UserID,
			Username: session.Username,
			Role:     session.Role,
		}
		ctx := context.WithValue(r.Context(), ContextKeyUser, user)
		ctx = context.WithValue(ctx, ContextKeySession, session)
		ctx = context.WithValue(ctx, ContextKeyCSRFToken, session.CSRFToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveBearer attaches the user from a valid bearer token, or passes the
// request through anonymously. Bearer requests carry no session, so the
// CSRF middleware skips them.
func (m *Middleware) resolveBearer(w http.ResponseWriter, r *http.Request, next http.Handler) {
	token := BearerToken(r)
	if m.tokens == nil || token == "" {
		next.ServeHTTP(w, r)
		return
	}
	claims, err := m.tokens.ValidateAccessToken(r.Context(), token)
	if err != nil {
		m.log.Debug("bearer token rejected", "error", err)
		next.ServeHTTP(w, r)
		return
	}
	user := &UserContext{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     string(claims.Role),
	}
	ctx := context.WithValue(r.Context(), ContextKeyUser, user)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// BearerToken extracts the token from an Authorization: Bearer header,
// returning "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// AuthRequired ensures the user is authenticated. It runs after
// ResolveSession, so a missing user means no valid session.
func (m *Middleware) AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.isExcludedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if GetUserFromContext(r.Context()) == nil {
			m.redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RoleRequired ensures the user has one of the allowed roles.
func (m *Middleware) RoleRequired(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r.Context())
			if user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range allowedRoles {
				if strings.EqualFold(user.Role, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

// AdminRequired ensures the user is an admin.
func (m *Middleware) AdminRequired(next http.Handler) http.Handler {
	return m.RoleRequired("admin")(next)
}

// CSRFMiddleware validates the CSRF token on state-changing requests from
// cookie sessions. Anonymous and bearer-token requests carry no ambient
// credential a cross-site form could ride on and pass through.
func (m *Middleware) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if GetSessionFromContext(r.Context()) == nil {
			next.ServeHTTP(w, r)
			return
		}

		expectedToken := GetCSRFTokenFromContext(r.Context())
		if expectedToken == "" {
			m.log.Warn("csrf validation failed: no token in session",
				"path", r.URL.Path, "method", r.Method)
			http.Error(w, "CSRF validation failed", http.StatusForbidden)
			return
		}

		token := r.Header.Get("X-CSRF-Token")
		if token == "" {
			token = r.FormValue("csrf_token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			m.log.Warn("csrf validation failed: token mismatch",
				"path", r.URL.Path, "method", r.Method)
			http.Error(w, "CSRF validation failed", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// redirectToLogin redirects to the login page with a safe return URL. HTMX
// requests get the HX-Redirect header instead of a 303.
func (m *Middleware) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", m.loginPath)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	returnURL := r.URL.Path
	if r.URL.RawQuery != "" {
		returnURL += "?" + r.URL.RawQuery
	}

	redirectURL := m.loginPath
	if returnURL != "/" && returnURL != m.loginPath && isSafeReturnURL(returnURL) {
		redirectURL += "?return=" + url.QueryEscape(returnURL)
	}
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// isSafeReturnURL accepts relative paths only. "//host" is a
// protocol-relative URL and would redirect off-site.
func isSafeReturnURL(u string) bool {
	return strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") && !strings.ContainsAny(u, "\\\r\n")
}

// WebAuthRateLimit limits authentication endpoints to 5 requests per minute
// per IP.
func WebAuthRateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(5, time.Minute,
		httprate.WithLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too many attempts. Please wait a minute and try again."}`))
		})),
	)
}

// MaxRequestBody limits request body sizes. http.MaxBytesReader returns a
// proper 413 when exceeded.
func MaxRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoCache adds headers to prevent caching.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

// SecureHeaders sets the baseline security headers on every response.
func SecureHeaders(next http.Handler) http.Handler {
	const csp = "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:; font-src 'self'; connect-src 'self'; " +
		"frame-ancestors 'none'; base-uri 'self'; form-action 'self'; " +
		"script-src 'self' 'unsafe-inline'"

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", csp)
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// isExcludedPath checks if path is excluded from auth. Paths ending in "/"
// are treated as prefixes; all others require an exact match so that
// "/health" does not accidentally exclude "/health-dashboard".
func (m *Middleware) isExcludedPath(path string) bool {
	if path == m.loginPath {
		return true
	}
	for _, p := range m.excludePaths {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
		} else if path == p {
			return true
		}
	}
	return false
}
