// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

import (
	"context"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/settings"
)

// UserContext is the identity snapshot handlers work with. It is built from
// the Redis session by the middleware and never carries the password hash.
type UserContext struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Actor converts the user context into the settings access snapshot. A nil
// receiver is the anonymous visitor.
func (u *UserContext) Actor() settings.Actor {
	if u == nil {
		return settings.Actor{}
	}
	return settings.Actor{
		Authenticated: true,
		Role:          models.UserRole(u.Role),
	}
}

// GetUserFromContext extracts the user from the request context, nil for
// anonymous requests.
func GetUserFromContext(ctx context.Context) *UserContext {
	user, _ := ctx.Value(ContextKeyUser).(*UserContext)
	return user
}

// GetSessionFromContext extracts the session cached by ResolveSession.
func GetSessionFromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(ContextKeySession).(*Session)
	return session
}

// GetCSRFTokenFromContext extracts the CSRF token for the current session.
func GetCSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ContextKeyCSRFToken).(string)
	return token
}
