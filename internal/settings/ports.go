// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package settings

import "time"

// Persisted selection keys. The KVStore implementation supplies the
// per-browser scope; the controller only ever uses these fixed names.
const (
	KeyLastMain = "settings:lastMain"
	KeyLastSub  = "settings:lastSub"
)

// Deep-link query parameters. `settings=1` marks the panel open; `main` and
// `sub` select the active group and leaf. All three are optional.
const (
	ParamOpen = "settings"
	ParamMain = "main"
	ParamSub  = "sub"
)

// KVStore is the persistence port for the remembered selection. It is
// scoped to one browser by the implementation (session data in the web
// adapter, a plain map in tests).
type KVStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// History is the controller's view of the browser address bar: the current
// URL, and a replace primitive that swaps the history entry without adding
// a new one.
type History interface {
	Current() string
	Replace(url string)
}

// Notifier delivers a user-facing toast.
type Notifier interface {
	Notify(title, variant string)
}

// CancelFunc cancels a scheduled callback. Cancellation is best-effort: a
// callback may already be running, which is why the controller also guards
// the callback body.
type CancelFunc func()

// Scheduler defers a callback. The controller owns exactly zero or one
// outstanding timer at any time.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

type timerScheduler struct{}

// NewTimerScheduler returns the production Scheduler backed by
// time.AfterFunc.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
