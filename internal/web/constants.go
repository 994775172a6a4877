// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

// Cookie name constants used throughout the web layer.
const (
	// CookieSession carries the Redis session ID of a logged-in user.
	CookieSession = "parley_session"

	// CookiePanel identifies one browser for the settings panel registry.
	// It is issued on the first settings request and is independent of the
	// login session, so anonymous visitors get a panel too.
	CookiePanel = "parley_panel"
)
