// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes caps request bodies; the console only ever receives small
// forms and JSON payloads.
const maxBodyBytes = 1 << 20

// NewRouter builds the console router.
func NewRouter(h *Handler, m *Middleware) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(MaxRequestBody(maxBodyBytes))
	r.Use(SecureHeaders)
	r.Use(m.ResolveSession)

	// Public surface.
	r.Get("/healthz", h.Healthz)
	r.Get("/version", h.Version)

	r.Group(func(r chi.Router) {
		r.Use(WebAuthRateLimit())
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(m.CSRFMiddleware)
		r.Use(NoCache)

		r.Post("/logout", h.Logout)

		// The settings panel is reachable by anonymous visitors; its tree
		// is filtered per actor, not per route.
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.SettingsOpen)
			r.Post("/navigate", h.SettingsNavigate)
			r.Post("/close", h.SettingsClose)
			r.Get("/sync", h.SettingsSync)
		})
	})

	return r
}
