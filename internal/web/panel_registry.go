// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

import (
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/pkg/logger"
	"github.com/parleyhq/parley/internal/settings"
)

// panelIdleTTL is how long a browser's settings controller survives without
// any settings request before the janitor tears it down.
const panelIdleTTL = 30 * time.Minute

// Toast is a queued user notification delivered with the next settings
// response as an HX-Trigger event.
type Toast struct {
	Title   string `json:"title"`
	Variant string `json:"variant"`
}

// toastQueue implements settings.Notifier by queueing toasts until the next
// response to the owning browser.
type toastQueue struct {
	mu     sync.Mutex
	queued []Toast
}

func (q *toastQueue) Notify(title, variant string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queued = append(q.queued, Toast{Title: title, Variant: variant})
}

// Drain returns and clears the queued toasts.
func (q *toastQueue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	toasts := q.queued
	q.queued = nil
	return toasts
}

// browserHistory implements settings.History for a server-driven client.
// The browser reports its address bar with every settings request
// (HX-Current-URL); replacements queue here until the client picks them up
// via the sync endpoint.
type browserHistory struct {
	mu      sync.Mutex
	current string
	pending string
	dirty   bool
}

// SetCurrent records the address bar URL as reported by the browser.
func (h *browserHistory) SetCurrent(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = url
}

func (h *browserHistory) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *browserHistory) Replace(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = url
	h.dirty = true
}

// PopPending returns the queued replacement, if any, and clears it.
func (h *browserHistory) PopPending() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.dirty {
		return "", false
	}
	url := h.pending
	h.pending = ""
	h.dirty = false
	// The client applies the replacement as soon as we hand it out.
	h.current = url
	return url, true
}

// panelEntry is one browser's settings panel state.
type panelEntry struct {
	ctrl     *settings.Controller
	history  *browserHistory
	toasts   *toastQueue
	store    *selectionStore
	lastSeen time.Time
}

// panelRegistry owns one settings controller per browser, keyed by the
// panel cookie. Entries idle past panelIdleTTL are torn down by the
// janitor, which counts as panel teardown for any pending URL cleanup.
type panelRegistry struct {
	mu     sync.Mutex
	panels map[string]*panelEntry

	tree         []settings.NavItem
	defaultTab   string
	cleanupDelay time.Duration
	sessions     sessionDataStore
	prefs        preferencesStore
	log          *logger.Logger

	stop chan struct{}
	done chan struct{}
}

// panelRegistryConfig assembles a panelRegistry.
type panelRegistryConfig struct {
	Tree         []settings.NavItem
	DefaultTab   string
	CleanupDelay time.Duration
	Sessions     sessionDataStore
	Prefs        preferencesStore
	Logger       *logger.Logger
}

func newPanelRegistry(cfg panelRegistryConfig) *panelRegistry {
	if cfg.Tree == nil {
		cfg.Tree = settings.DefaultTree()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	r := &panelRegistry{
		panels:       make(map[string]*panelEntry),
		tree:         cfg.Tree,
		defaultTab:   cfg.DefaultTab,
		cleanupDelay: cfg.CleanupDelay,
		sessions:     cfg.Sessions,
		prefs:        cfg.Prefs,
		log:          cfg.Logger.Named("panels"),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Acquire returns the panel entry for a browser, creating it on first use.
func (r *panelRegistry) Acquire(panelID string) *panelEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.panels[panelID]; ok {
		entry.lastSeen = time.Now()
		return entry
	}

	history := &browserHistory{}
	toasts := &toastQueue{}
	store := newSelectionStore(r.sessions, r.prefs)
	entry := &panelEntry{
		ctrl: settings.New(settings.Config{
			Tree:         r.tree,
			DefaultTab:   r.defaultTab,
			Store:        store,
			History:      history,
			Notifier:     toasts,
			CleanupDelay: r.cleanupDelay,
			Logger:       r.log,
		}),
		history:  history,
		toasts:   toasts,
		store:    store,
		lastSeen: time.Now(),
	}
	r.panels[panelID] = entry
	return entry
}

// Drop tears down one browser's panel (logout, session destroyed).
func (r *panelRegistry) Drop(panelID string) {
	r.mu.Lock()
	entry, ok := r.panels[panelID]
	if ok {
		delete(r.panels, panelID)
	}
	r.mu.Unlock()

	if ok {
		entry.ctrl.Shutdown()
	}
}

// Shutdown stops the janitor and tears down every panel.
func (r *panelRegistry) Shutdown() {
	close(r.stop)
	<-r.done

	r.mu.Lock()
	panels := r.panels
	r.panels = make(map[string]*panelEntry)
	r.mu.Unlock()

	for _, entry := range panels {
		entry.ctrl.Shutdown()
	}
}

// Count returns the number of live panels.
func (r *panelRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.panels)
}

func (r *panelRegistry) janitor() {
	defer close(r.done)
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep(time.Now())
		}
	}
}

// sweep tears down panels idle past the TTL.
func (r *panelRegistry) sweep(now time.Time) {
	r.mu.Lock()
	var expired []*panelEntry
	for id, entry := range r.panels {
		if now.Sub(entry.lastSeen) > panelIdleTTL {
			delete(r.panels, id)
			expired = append(expired, entry)
		}
	}
	r.mu.Unlock()

	for _, entry := range expired {
		entry.ctrl.Shutdown()
	}
	if len(expired) > 0 {
		r.log.Debug("swept idle settings panels", "count", len(expired))
	}
}
