// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package settings

import (
	"testing"
	"time"

	apperrors "github.com/parleyhq/parley/internal/pkg/errors"
)

// ============================================================================
// Test fakes for the controller's ports
// ============================================================================

type fakeKV struct {
	data   map[string]string
	writes int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeKV) Set(key, value string) error {
	f.data[key] = value
	f.writes++
	return nil
}

type fakeHistory struct {
	current  string
	replaces []string
	// applyReplaces mimics a client that actually navigates on Replace.
	applyReplaces bool
}

func (f *fakeHistory) Current() string { return f.current }

func (f *fakeHistory) Replace(url string) {
	f.replaces = append(f.replaces, url)
	if f.applyReplaces {
		f.current = url
	}
}

type fakeNotifier struct {
	notices []string
}

func (f *fakeNotifier) Notify(title, variant string) {
	f.notices = append(f.notices, variant+": "+title)
}

// fakeScheduler captures callbacks for manual firing, so tests never sleep.
type fakeScheduler struct {
	pending []*fakeTimer
}

type fakeTimer struct {
	fn        func()
	cancelled bool
	fired     bool
}

func (s *fakeScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := &fakeTimer{fn: fn}
	s.pending = append(s.pending, t)
	return func() { t.cancelled = true }
}

// fire runs every live pending callback, as if all deadlines elapsed.
func (s *fakeScheduler) fire() {
	for _, t := range s.pending {
		if !t.cancelled && !t.fired {
			t.fired = true
			t.fn()
		}
	}
}

func (s *fakeScheduler) scheduled() int { return len(s.pending) }

type testRig struct {
	ctrl  *Controller
	kv    *fakeKV
	hist  *fakeHistory
	notes *fakeNotifier
	sched *fakeScheduler
}

func newTestRig(t *testing.T, currentURL string) *testRig {
	t.Helper()
	rig := &testRig{
		kv:    newFakeKV(),
		hist:  &fakeHistory{current: currentURL},
		notes: &fakeNotifier{},
		sched: &fakeScheduler{},
	}
	rig.ctrl = New(Config{
		Tree:      testTree(),
		Store:     rig.kv,
		History:   rig.hist,
		Notifier:  rig.notes,
		Scheduler: rig.sched,
	})
	return rig
}

// ============================================================================
// Open / navigate / persist
// ============================================================================

func TestOpenPlainUsesRoleDefaults(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat")

	sel := rig.ctrl.Open(asUser())
	want := Selection{Main: "personal", Sub: "personal.preferences"}
	if sel != want {
		t.Fatalf("Open() = %+v, want %+v", sel, want)
	}
	if rig.ctrl.OpenedViaLink() {
		t.Fatal("plain open flagged as deep-linked")
	}
	if got := rig.kv.data[KeyLastMain]; got != "personal" {
		t.Fatalf("persisted main = %q, want %q", got, "personal")
	}
	if got := rig.kv.data[KeyLastSub]; got != "personal.preferences" {
		t.Fatalf("persisted sub = %q, want %q", got, "personal.preferences")
	}
}

func TestOpenRemembersLastSelection(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat")
	rig.kv.data[KeyLastMain] = "personal"
	rig.kv.data[KeyLastSub] = "personal.about"

	sel := rig.ctrl.Open(asUser())
	want := Selection{Main: "personal", Sub: "personal.about"}
	if sel != want {
		t.Fatalf("Open() = %+v, want %+v", sel, want)
	}
}

func TestOpenDeepLinkWinsOverMemory(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat?settings=1&main=system&sub=system.general")
	rig.kv.data[KeyLastMain] = "personal"
	rig.kv.data[KeyLastSub] = "personal.about"

	sel := rig.ctrl.Open(asAdmin())
	want := Selection{Main: "system", Sub: "system.general"}
	if sel != want {
		t.Fatalf("Open() = %+v, want %+v", sel, want)
	}
	if !rig.ctrl.OpenedViaLink() {
		t.Fatal("deep-linked open not flagged")
	}
	if len(rig.notes.notices) != 0 {
		t.Fatalf("valid deep link produced notices: %v", rig.notes.notices)
	}
}

func TestAnonymousNeverPersists(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat")

	rig.ctrl.Open(anonymous())
	if _, err := rig.ctrl.Navigate("personal", "personal.about"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	rig.ctrl.Close()
	rig.ctrl.Open(anonymous())

	if rig.kv.writes != 0 {
		t.Fatalf("anonymous session wrote %d persisted values", rig.kv.writes)
	}
}

func TestDeepLinkDenialNotifiesExactlyOnce(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat?settings=1&main=system&sub=system.general")

	sel := rig.ctrl.Open(asUser())
	if sel.Main == "system" {
		t.Fatalf("user landed on admin-only group: %+v", sel)
	}
	want := Selection{Main: "personal", Sub: "personal.about"}
	if sel != want {
		t.Fatalf("Open() = %+v, want %+v", sel, want)
	}
	if len(rig.notes.notices) != 1 {
		t.Fatalf("denial notices = %d, want exactly 1", len(rig.notes.notices))
	}
}

func TestNavigate(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat")
	rig.ctrl.Open(asAdmin())

	sel, err := rig.ctrl.Navigate("personal", "personal.about")
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if (sel != Selection{Main: "personal", Sub: "personal.about"}) {
		t.Fatalf("Navigate() = %+v", sel)
	}

	// Switching group without a sub lands on that group's default leaf.
	sel, err = rig.ctrl.Navigate("system", "")
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if sel.Main != "system" || sel.Sub != "system.general" {
		t.Fatalf("Navigate(system) = %+v", sel)
	}

	if _, err := rig.ctrl.Navigate("nope", ""); !apperrors.IsNotFoundError(err) {
		t.Fatalf("Navigate(invalid) error = %v, want not found", err)
	}
	if _, err := rig.ctrl.Navigate("system", "personal.about"); !apperrors.IsNotFoundError(err) {
		t.Fatalf("Navigate(mismatched sub) error = %v, want not found", err)
	}
	if got := rig.ctrl.Selection(); got.Main != "system" {
		t.Fatalf("failed navigation mutated selection: %+v", got)
	}
}

func TestNavigateRequiresOpenPanel(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat")
	if _, err := rig.ctrl.Navigate("personal", ""); err == nil {
		t.Fatal("Navigate() on closed panel succeeded")
	}
}

func TestSetActorReconcilesStaleSelection(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat")
	rig.ctrl.Open(asAdmin())
	if _, err := rig.ctrl.Navigate("system", "system.general"); err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}

	sel := rig.ctrl.SetActor(asUser())
	if sel.Main == "system" {
		t.Fatalf("demoted actor kept admin-only selection: %+v", sel)
	}
	if sel.Main != "personal" || sel.Sub != "personal.about" {
		t.Fatalf("SetActor() = %+v, want first visible group and child", sel)
	}
	// No denial toast for silent reconciliation.
	if len(rig.notes.notices) != 0 {
		t.Fatalf("reconciliation produced notices: %v", rig.notes.notices)
	}
}

func TestEmptyTree(t *testing.T) {
	rig := &testRig{
		kv:    newFakeKV(),
		hist:  &fakeHistory{current: "https://console.example.com/chat"},
		notes: &fakeNotifier{},
		sched: &fakeScheduler{},
	}
	rig.ctrl = New(Config{
		Tree:      []NavItem{{Key: "system", AdminOnly: true, Children: []NavItem{{Key: "system.general"}}}},
		Store:     rig.kv,
		History:   rig.hist,
		Notifier:  rig.notes,
		Scheduler: rig.sched,
	})

	sel := rig.ctrl.Open(anonymous())
	if (sel != Selection{}) {
		t.Fatalf("empty tree resolved to %+v", sel)
	}
	if !rig.ctrl.Empty() {
		t.Fatal("Empty() = false for fully filtered tree")
	}
}

// ============================================================================
// Close reconciler
// ============================================================================

func TestClosePlainLeavesURLUntouched(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat?room=general")

	rig.ctrl.Open(asUser())
	rig.ctrl.Close()
	rig.sched.fire()

	if len(rig.hist.replaces) != 0 {
		t.Fatalf("plain close rewrote URL: %v", rig.hist.replaces)
	}
}

func TestCloseLinkedScrubsDeepLink(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat?room=general&settings=1&main=personal&sub=personal.about")
	rig.hist.applyReplaces = true

	rig.ctrl.Open(asUser())
	rig.ctrl.Close()

	// Nothing happens before the deferred delay elapses.
	if len(rig.hist.replaces) != 0 {
		t.Fatalf("cleanup ran before the delay: %v", rig.hist.replaces)
	}

	rig.sched.fire()
	if len(rig.hist.replaces) != 1 {
		t.Fatalf("replacements = %d, want 1", len(rig.hist.replaces))
	}
	want := "https://console.example.com/chat?room=general"
	if rig.hist.current != want {
		t.Fatalf("URL after cleanup = %q, want %q", rig.hist.current, want)
	}
}

func TestReopenCancelsPendingCleanup(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat?settings=1&main=personal")

	rig.ctrl.Open(asUser())
	rig.ctrl.Close()
	rig.ctrl.Open(asUser()) // reopen inside the delay window
	rig.sched.fire()

	if len(rig.hist.replaces) != 0 {
		t.Fatalf("cancelled cleanup still rewrote URL: %v", rig.hist.replaces)
	}
	if !rig.ctrl.IsOpen() {
		t.Fatal("panel not open after reopen")
	}
}

func TestRapidOpenCloseCollapsesToOneReplacement(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat?settings=1&main=personal")
	rig.hist.applyReplaces = true

	rig.ctrl.Open(asUser())
	rig.ctrl.Close()
	rig.ctrl.Open(asUser())
	rig.ctrl.Close()
	rig.sched.fire()

	if len(rig.hist.replaces) != 1 {
		t.Fatalf("replacements = %d, want 1", len(rig.hist.replaces))
	}
	want := "https://console.example.com/chat"
	if rig.hist.current != want {
		t.Fatalf("URL after cleanup = %q, want %q", rig.hist.current, want)
	}
}

func TestCleanupSkipsWhenURLAlreadyClean(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat?settings=1&main=personal")

	rig.ctrl.Open(asUser())
	// The client navigated away on its own before the timer fired.
	rig.hist.current = "https://console.example.com/chat"
	rig.ctrl.Close()
	rig.sched.fire()

	if len(rig.hist.replaces) != 0 {
		t.Fatalf("cleanup rewrote an already clean URL: %v", rig.hist.replaces)
	}
}

func TestCleanupIdempotentAgainstLastWrittenURL(t *testing.T) {
	// A client that never applies Replace keeps presenting the dirty URL;
	// the lastWritten guard must stop a second identical replacement.
	rig := newTestRig(t, "https://console.example.com/chat?settings=1&main=personal")

	rig.ctrl.Open(asUser())
	rig.ctrl.Close()
	rig.sched.fire()

	rig.ctrl.Open(asUser())
	rig.ctrl.Close()
	rig.sched.fire()

	if len(rig.hist.replaces) != 1 {
		t.Fatalf("replacements = %d, want 1", len(rig.hist.replaces))
	}
}

func TestShutdownMakesLateTimersNoOps(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat?settings=1")

	rig.ctrl.Open(asUser())
	rig.ctrl.Close()
	rig.ctrl.Shutdown()
	// Simulate an unreliable cancel: force the captured callback to run.
	for _, timer := range rig.sched.pending {
		timer.cancelled = false
	}
	rig.sched.fire()

	if len(rig.hist.replaces) != 0 {
		t.Fatalf("cleanup ran after shutdown: %v", rig.hist.replaces)
	}
}

func TestCloseWhenClosedIsNoOp(t *testing.T) {
	rig := newTestRig(t, "https://console.example.com/chat?settings=1")

	rig.ctrl.Close()
	rig.ctrl.Close()
	if rig.sched.scheduled() != 0 {
		t.Fatalf("closed panel scheduled %d cleanups", rig.sched.scheduled())
	}
}
