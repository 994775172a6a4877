// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

import (
	"errors"
	"net/http"

	authsvc "github.com/parleyhq/parley/internal/services/auth"
)

// loginResponse is the JSON body of a successful login.
type loginResponse struct {
	User      UserContext        `json:"user"`
	CSRFToken string             `json:"csrf_token"`
	Tokens    *authsvc.TokenPair `json:"tokens,omitempty"`
}

// Login authenticates a username/password pair, creates the Redis session
// and sets the session cookie. API clients get a JWT pair in the response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form data"})
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and password required"})
		return
	}

	result, err := h.auth.Login(r.Context(), authsvc.LoginInput{
		Username:  username,
		Password:  password,
		UserAgent: r.UserAgent(),
		IPAddress: getClientIP(r),
	})
	if err != nil {
		h.respondJSON(w, loginErrorStatus(err), map[string]string{"error": loginErrorMessage(err)})
		return
	}

	csrfToken := GenerateCSRFToken()
	if csrfToken != "" {
		_ = h.sessions.Redis().SetData(r.Context(), result.Session.ID, "csrf_token", csrfToken)
	}
	h.sessions.SetCookie(w, r, result.Session.ID)

	h.respondJSON(w, http.StatusOK, loginResponse{
		User: UserContext{
			ID:       result.User.ID.String(),
			Username: result.User.Username,
			Role:     string(result.User.Role),
		},
		CSRFToken: csrfToken,
		Tokens:    result.Tokens,
	})
}

// Logout destroys the session and this browser's settings panel.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookiePanel); err == nil && cookie.Value != "" {
		h.panels.Drop(cookie.Value)
	}

	// A presented access token is revoked alongside the session, so API
	// clients that logout cannot keep using their JWT until it expires.
	session := GetSessionFromContext(r.Context())
	if session != nil {
		if err := h.auth.Logout(r.Context(), session.ID, BearerToken(r)); err != nil {
			h.log.Warn("logout failed", "error", err)
		}
	}
	_ = h.sessions.Delete(r, w, CookieSession)

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// loginErrorStatus maps auth service errors to HTTP statuses without
// leaking which usernames exist.
func loginErrorStatus(err error) int {
	switch {
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, authsvc.ErrUserLocked),
		errors.Is(err, authsvc.ErrUserDisabled),
		errors.Is(err, authsvc.ErrUserPending):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func loginErrorMessage(err error) string {
	switch {
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, authsvc.ErrUserLocked):
		return "Account is temporarily locked"
	case errors.Is(err, authsvc.ErrUserDisabled):
		return "Account is disabled"
	case errors.Is(err, authsvc.ErrUserPending):
		return "Account is awaiting approval"
	default:
		return "Login failed"
	}
}
