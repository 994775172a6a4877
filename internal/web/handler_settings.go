// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/parleyhq/parley/internal/pkg/errors"
	"github.com/parleyhq/parley/internal/settings"
)

// panelState is the JSON body for settings panel responses: the navigation
// tree the current actor may see, the active selection, and the descriptor
// of the panel to render.
type panelState struct {
	Open      bool               `json:"open"`
	Tree      []settings.NavItem `json:"tree"`
	Selection settings.Selection `json:"selection"`
	Panel     *PanelDescriptor   `json:"panel,omitempty"`
	Empty     bool               `json:"empty,omitempty"`
}

// SettingsOpen opens the settings panel.
//
// The deep-link contract (settings=1, main, sub) rides on the browser URL,
// which HTMX reports in the HX-Current-URL header. Plain opens carry no
// parameters and restore the remembered or role-default selection.
func (h *Handler) SettingsOpen(w http.ResponseWriter, r *http.Request) {
	entry := h.panels.Acquire(h.panelID(w, r))
	session := GetSessionFromContext(r.Context())
	entry.store.Bind(session)
	entry.history.SetCurrent(browserURL(r))

	sel := entry.ctrl.Open(GetUserFromContext(r.Context()).Actor())

	h.flushToasts(w, entry)
	h.respondJSON(w, http.StatusOK, h.stateFor(entry, sel))
}

// SettingsNavigate switches the active selection from a user click.
func (h *Handler) SettingsNavigate(w http.ResponseWriter, r *http.Request) {
	entry := h.panels.Acquire(h.panelID(w, r))
	session := GetSessionFromContext(r.Context())
	entry.store.Bind(session)
	if current := browserURL(r); current != "" {
		entry.history.SetCurrent(current)
	}

	// Permissions may have changed since the panel opened (role demotion,
	// logout in another tab). Refilter before honoring the click.
	entry.ctrl.SetActor(GetUserFromContext(r.Context()).Actor())

	main, sub, err := navigateParams(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sel, err := entry.ctrl.Navigate(main, sub)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.flushToasts(w, entry)
	h.respondJSON(w, http.StatusOK, h.stateFor(entry, sel))
}

// SettingsClose closes the panel. A panel opened from a deep link schedules
// the deferred URL cleanup; the stripped URL is delivered by SettingsSync
// once the delay elapses.
func (h *Handler) SettingsClose(w http.ResponseWriter, r *http.Request) {
	entry := h.panels.Acquire(h.panelID(w, r))
	if current := browserURL(r); current != "" {
		entry.history.SetCurrent(current)
	}

	entry.ctrl.Close()

	h.flushToasts(w, entry)
	h.respondJSON(w, http.StatusOK, map[string]bool{"open": false})
}

// SettingsSync delivers pending side effects to the browser: a queued
// history replacement as HX-Replace-Url and any queued toasts. It is
// idempotent; with nothing pending it responds 204.
func (h *Handler) SettingsSync(w http.ResponseWriter, r *http.Request) {
	entry := h.panels.Acquire(h.panelID(w, r))

	h.flushToasts(w, entry)

	if url, ok := entry.history.PopPending(); ok {
		w.Header().Set("HX-Replace-Url", url)
		h.respondJSON(w, http.StatusOK, map[string]string{"replace_url": url})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stateFor builds the panel state response for the current selection.
func (h *Handler) stateFor(entry *panelEntry, sel settings.Selection) panelState {
	state := panelState{
		Open:      entry.ctrl.IsOpen(),
		Tree:      entry.ctrl.Tree(),
		Selection: sel,
		Empty:     entry.ctrl.Empty(),
	}
	if sel.Sub != "" {
		panel := PanelFor(sel.Sub)
		state.Panel = &panel
	}
	return state
}

// flushToasts drains queued toasts into an HX-Trigger showToast event.
func (h *Handler) flushToasts(w http.ResponseWriter, entry *panelEntry) {
	toasts := entry.toasts.Drain()
	if len(toasts) == 0 {
		return
	}
	payload, err := json.Marshal(map[string][]Toast{"showToast": toasts})
	if err != nil {
		h.log.Error("failed to encode toast trigger", "error", err)
		return
	}
	h.htmxTrigger(w, string(payload))
}

// browserURL returns the browser's address bar URL as reported with the
// request. HTMX sends it in HX-Current-URL; plain requests fall back to the
// Referer, then to the request URL itself (which carries the deep-link
// parameters on a direct GET /settings?...).
func browserURL(r *http.Request) string {
	if u := r.Header.Get("HX-Current-URL"); u != "" {
		return u
	}
	if u := r.Referer(); u != "" {
		return u
	}
	return r.URL.String()
}

// navigateParams reads the target selection from a navigate request, form
// or JSON encoded.
func navigateParams(r *http.Request) (main, sub string, err error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Main string `json:"main"`
			Sub  string `json:"sub"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", "", apperrors.InvalidInput("malformed navigate request")
		}
		return body.Main, body.Sub, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", "", apperrors.InvalidInput("malformed navigate request")
	}
	return r.FormValue("main"), r.FormValue("sub"), nil
}
