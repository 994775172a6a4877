// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package settings

import (
	"sync"
	"time"

	apperrors "github.com/parleyhq/parley/internal/pkg/errors"
	"github.com/parleyhq/parley/internal/pkg/logger"
)

// DefaultCleanupDelay is how long the controller waits after a deep-linked
// panel closes before scrubbing the deep-link parameters from the address
// bar. The delay lets a close-then-reopen (panel toggles, HTMX swaps) land
// before the URL is touched.
const DefaultCleanupDelay = 400 * time.Millisecond

// Config assembles a Controller. Store, History and Notifier are required;
// the rest default sensibly.
type Config struct {
	Tree       []NavItem
	DefaultTab string

	Store    KVStore
	History  History
	Notifier Notifier

	// Scheduler defaults to the time.AfterFunc-backed production scheduler.
	Scheduler Scheduler

	// CleanupDelay defaults to DefaultCleanupDelay.
	CleanupDelay time.Duration

	Logger *logger.Logger
}

// Controller drives one browser session's settings panel: it filters the
// navigation tree for the current actor, resolves the active selection from
// deep links, remembered state and defaults, persists the selection, and
// scrubs deep-link parameters from the URL after a deep-linked panel closes.
//
// All methods are safe for concurrent use; the deferred cleanup fires on a
// scheduler goroutine and takes the same lock.
type Controller struct {
	tree         []NavItem
	defaultTab   string
	store        KVStore
	history      History
	notifier     Notifier
	scheduler    Scheduler
	cleanupDelay time.Duration
	log          *logger.Logger

	mu             sync.Mutex
	actor          Actor
	filtered       []NavItem
	sel            Selection
	open           bool
	openedViaLink  bool
	deniedNotified bool
	cancelCleanup  CancelFunc
	lastWritten    string
	shutdown       bool
}

// New builds a Controller. It panics on a missing Store, History or
// Notifier; those are programming errors, not runtime conditions.
func New(cfg Config) *Controller {
	if cfg.Store == nil || cfg.History == nil || cfg.Notifier == nil {
		panic("settings: Config requires Store, History and Notifier")
	}
	if cfg.Tree == nil {
		cfg.Tree = DefaultTree()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewTimerScheduler()
	}
	if cfg.CleanupDelay <= 0 {
		cfg.CleanupDelay = DefaultCleanupDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Controller{
		tree:         cfg.Tree,
		defaultTab:   cfg.DefaultTab,
		store:        cfg.Store,
		history:      cfg.History,
		notifier:     cfg.Notifier,
		scheduler:    cfg.Scheduler,
		cleanupDelay: cfg.CleanupDelay,
		log:          cfg.Logger.Named("settings"),
	}
}

// Open opens the panel for the given actor. The current URL is consulted
// for deep-link parameters, the remembered selection is read for
// authenticated actors, and the resolved selection is persisted back.
// Opening cancels any cleanup pending from a recent close.
func (c *Controller) Open(actor Actor) Selection {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shutdown {
		return c.sel
	}

	c.cancelPendingLocked()

	link := parseDeepLink(c.history.Current())

	c.actor = actor
	c.filtered = Filter(c.tree, actor)

	in := ResolveInput{
		Tree:       c.filtered,
		URLMain:    link.Main,
		URLSub:     link.Sub,
		DefaultTab: c.defaultTab,
		Actor:      actor,
	}
	if actor.Authenticated {
		in.MemMain = c.readStored(KeyLastMain)
		in.MemSub = c.readStored(KeyLastSub)
	}

	res := Resolve(in)
	c.sel = res.Selection
	c.open = true
	c.openedViaLink = link.Present
	c.deniedNotified = false

	if res.MainDenied || res.SubDenied {
		c.notifyDeniedLocked()
	}

	c.persistLocked()

	c.log.Debug("settings opened",
		"main", c.sel.Main, "sub", c.sel.Sub, "via_link", c.openedViaLink)
	return c.sel
}

// Navigate switches the active selection to the given main group and,
// optionally, sub leaf. Keys must name visible items; an invalid key is
// rejected with a not-found error and the selection is left untouched.
func (c *Controller) Navigate(main, sub string) (Selection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return c.sel, apperrors.New(apperrors.CodeBadRequest, "settings panel is not open")
	}
	if !containsKey(topKeys(c.filtered), main) {
		return c.sel, apperrors.NotFound("settings section")
	}
	children := childKeys(c.filtered, main)
	if sub != "" && !containsKey(children, sub) {
		return c.sel, apperrors.NotFound("settings section")
	}
	if sub == "" {
		if main == c.sel.Main && containsKey(children, c.sel.Sub) {
			sub = c.sel.Sub
		} else if main != c.sel.Main {
			sub = defaultSub(main, c.actor)
			if sub != "" && !containsKey(children, sub) {
				sub = ""
			}
		}
		if sub == "" && len(children) > 0 {
			sub = children[0]
		}
	}

	c.sel = Selection{Main: main, Sub: sub}
	c.persistLocked()
	return c.sel, nil
}

// SetActor replaces the actor mid-session (login, logout, role change),
// refilters the tree and silently repairs a selection the new actor can no
// longer see.
func (c *Controller) SetActor(actor Actor) Selection {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.actor = actor
	c.filtered = Filter(c.tree, actor)

	repaired := reconcileSelection(c.filtered, c.sel)
	if repaired != c.sel {
		c.sel = repaired
		c.persistLocked()
	}
	return c.sel
}

// Close closes the panel. When the panel was opened through a deep link,
// cleanup of the deep-link parameters is scheduled after the configured
// delay; a reopen within the delay cancels it.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return
	}
	c.open = false
	c.deniedNotified = false

	if !c.openedViaLink {
		return
	}
	c.openedViaLink = false

	c.cancelPendingLocked()
	c.cancelCleanup = c.scheduler.Schedule(c.cleanupDelay, c.runCleanup)
}

// Shutdown tears the controller down: any pending cleanup is cancelled and
// late timer callbacks become no-ops. Used when the owning session ends.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = true
	c.cancelPendingLocked()
}

// Selection returns the current selection.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// Tree returns the actor's filtered view of the navigation tree.
func (c *Controller) Tree() []NavItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filtered
}

// IsOpen reports whether the panel is open.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Empty reports whether the actor's filtered tree has no items at all.
func (c *Controller) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.filtered) == 0
}

// OpenedViaLink reports whether the current open originated from a deep
// link. It is false once the panel closes.
func (c *Controller) OpenedViaLink() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open && c.openedViaLink
}

// runCleanup is the deferred close callback. It re-checks every condition
// under the lock because the timer races with reopen and shutdown.
func (c *Controller) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelCleanup = nil

	if c.shutdown || c.open {
		return
	}

	current := c.history.Current()
	cleaned := stripDeepLink(current)
	if cleaned == current {
		return
	}
	// The guard against lastWritten keeps a stale timer from rewriting a
	// URL the controller itself already produced.
	if cleaned == c.lastWritten {
		return
	}

	c.history.Replace(cleaned)
	c.lastWritten = cleaned
	c.log.Debug("deep-link parameters scrubbed", "url", cleaned)
}

func (c *Controller) cancelPendingLocked() {
	if c.cancelCleanup != nil {
		c.cancelCleanup()
		c.cancelCleanup = nil
	}
}

// notifyDeniedLocked emits at most one access toast per open.
func (c *Controller) notifyDeniedLocked() {
	if c.deniedNotified {
		return
	}
	c.deniedNotified = true
	c.notifier.Notify("You do not have access to that settings section", "warning")
}

// persistLocked writes the current selection for authenticated actors.
// Store failures are logged, never surfaced: persistence is best-effort.
func (c *Controller) persistLocked() {
	if !c.actor.Authenticated {
		return
	}
	if err := c.store.Set(KeyLastMain, c.sel.Main); err != nil {
		c.log.Warn("persist selection failed", "key", KeyLastMain, "error", err)
	}
	if err := c.store.Set(KeyLastSub, c.sel.Sub); err != nil {
		c.log.Warn("persist selection failed", "key", KeyLastSub, "error", err)
	}
}

func (c *Controller) readStored(key string) string {
	v, err := c.store.Get(key)
	if err != nil {
		c.log.Debug("read stored selection failed", "key", key, "error", err)
		return ""
	}
	return v
}
