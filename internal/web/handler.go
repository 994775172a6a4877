// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

// Package web serves the parley admin console: login and session handling,
// the settings panel endpoints, and the health/version surface. Handlers
// speak JSON to a server-driven (HTMX-style) frontend; side-band effects
// such as toasts and history replacements travel as HX-* headers.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/parleyhq/parley/internal/pkg/crypto"
	apperrors "github.com/parleyhq/parley/internal/pkg/errors"
	"github.com/parleyhq/parley/internal/pkg/logger"
	authsvc "github.com/parleyhq/parley/internal/services/auth"
	"github.com/parleyhq/parley/internal/settings"
)

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds the console's HTTP handlers and their dependencies.
type Handler struct {
	auth     *authsvc.Service
	sessions *WebSessionStore
	panels   *panelRegistry
	health   map[string]HealthChecker
	version  string
	log      *logger.Logger
}

// HandlerConfig assembles a Handler.
type HandlerConfig struct {
	Auth     *authsvc.Service
	Sessions *WebSessionStore

	// Prefs is the durable preferences store backing remembered settings
	// selections. Optional: without it selections only live as long as the
	// login session.
	Prefs preferencesStore

	// Settings panel knobs. Tree defaults to settings.DefaultTree.
	Tree         []settings.NavItem
	DefaultTab   string
	CleanupDelay time.Duration

	Health  map[string]HealthChecker
	Version string
	Logger  *logger.Logger
}

// NewHandler creates the console handler set.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	var sessionData sessionDataStore
	if cfg.Sessions != nil {
		sessionData = cfg.Sessions.Redis()
	}
	return &Handler{
		auth:     cfg.Auth,
		sessions: cfg.Sessions,
		panels: newPanelRegistry(panelRegistryConfig{
			Tree:         cfg.Tree,
			DefaultTab:   cfg.DefaultTab,
			CleanupDelay: cfg.CleanupDelay,
			Sessions:     sessionData,
			Prefs:        cfg.Prefs,
			Logger:       cfg.Logger,
		}),
		health:  cfg.Health,
		version: cfg.Version,
		log:     cfg.Logger.Named("web"),
	}
}

// Shutdown tears down per-browser state (pending cleanup timers included).
func (h *Handler) Shutdown() {
	h.panels.Shutdown()
}

// ============================================================================
// Health / version
// ============================================================================

// Healthz reports the health of the console and its backing stores.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, checker := range h.health {
		if err := checker.HealthCheck(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}

	body := map[string]interface{}{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	h.respondJSON(w, status, body)
}

// Version reports the build version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// ============================================================================
// Response helpers
// ============================================================================

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

// respondError maps application errors to JSON error bodies with the right
// HTTP status.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := "Internal server error"
	code := "INTERNAL"
	if appErr, ok := apperrors.GetAppError(err); ok {
		message = appErr.Message
		code = appErr.Code
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", r.URL.Path, "error", err)
	}
	h.respondJSON(w, status, map[string]string{"error": message, "code": code})
}

// htmxTrigger sends an HTMX trigger header.
func (h *Handler) htmxTrigger(w http.ResponseWriter, event string) {
	w.Header().Set("HX-Trigger", event)
}

// panelID returns this browser's panel cookie value, issuing one if absent.
func (h *Handler) panelID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(CookiePanel); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id, err := crypto.RandomHex(16)
	if err != nil {
		// Entropy failure: fall back to a per-request panel. Settings still
		// work, the browser just gets a fresh controller next time.
		return "ephemeral"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookiePanel,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
