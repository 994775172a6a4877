// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package settings

import "testing"

func TestResolve(t *testing.T) {
	adminTree := Filter(testTree(), asAdmin())
	userTree := Filter(testTree(), asUser())
	anonTree := Filter(testTree(), anonymous())

	tests := []struct {
		name string
		in   ResolveInput
		want ResolveResult
	}{
		{
			name: "url parameters win over memory and defaults",
			in: ResolveInput{
				Tree: adminTree, Actor: asAdmin(),
				URLMain: "personal", URLSub: "personal.about",
				MemMain: "system", MemSub: "system.general",
			},
			want: ResolveResult{Selection: Selection{Main: "personal", Sub: "personal.about"}},
		},
		{
			name: "memory wins over defaults",
			in: ResolveInput{
				Tree: adminTree, Actor: asAdmin(),
				MemMain: "personal", MemSub: "personal.about",
			},
			want: ResolveResult{Selection: Selection{Main: "personal", Sub: "personal.about"}},
		},
		{
			name: "admin default lands on system general",
			in:   ResolveInput{Tree: adminTree, Actor: asAdmin()},
			want: ResolveResult{Selection: Selection{Main: "system", Sub: "system.general"}},
		},
		{
			name: "admin default honors the default tab hint",
			in:   ResolveInput{Tree: adminTree, Actor: asAdmin(), DefaultTab: "personal"},
			want: ResolveResult{Selection: Selection{Main: "personal", Sub: "personal.preferences"}},
		},
		{
			name: "authenticated user defaults to personal preferences",
			in:   ResolveInput{Tree: userTree, Actor: asUser()},
			want: ResolveResult{Selection: Selection{Main: "personal", Sub: "personal.preferences"}},
		},
		{
			name: "anonymous defaults to personal about",
			in:   ResolveInput{Tree: anonTree, Actor: anonymous()},
			want: ResolveResult{Selection: Selection{Main: "personal", Sub: "personal.about"}},
		},
		{
			name: "url main the actor cannot see is denied",
			in:   ResolveInput{Tree: userTree, Actor: asUser(), URLMain: "system"},
			want: ResolveResult{
				Selection:  Selection{Main: "personal", Sub: "personal.preferences"},
				MainDenied: true,
			},
		},
		{
			name: "stale memory falls back silently",
			in:   ResolveInput{Tree: userTree, Actor: asUser(), MemMain: "system", MemSub: "system.general"},
			want: ResolveResult{Selection: Selection{Main: "personal", Sub: "personal.preferences"}},
		},
		{
			name: "invalid url sub is denied and falls to first child",
			in:   ResolveInput{Tree: userTree, Actor: asUser(), URLMain: "personal", URLSub: "personal.missing"},
			want: ResolveResult{
				Selection: Selection{Main: "personal", Sub: "personal.about"},
				SubDenied: true,
			},
		},
		{
			name: "empty tree resolves to empty selection",
			in:   ResolveInput{Tree: nil, Actor: anonymous(), URLMain: "system"},
			want: ResolveResult{Selection: Selection{}, MainDenied: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.in)
			if got != tt.want {
				t.Fatalf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	in := ResolveInput{
		Tree: Filter(testTree(), asUser()), Actor: asUser(),
		URLMain: "system", MemMain: "personal", MemSub: "personal.about",
	}
	first := Resolve(in)
	second := Resolve(in)
	if first != second {
		t.Fatalf("Resolve() not idempotent: %+v then %+v", first, second)
	}
}

func TestResolveRoundTripsValidDeepLink(t *testing.T) {
	tree := Filter(testTree(), asAdmin())
	for _, main := range topKeys(tree) {
		for _, sub := range childKeys(tree, main) {
			got := Resolve(ResolveInput{Tree: tree, Actor: asAdmin(), URLMain: main, URLSub: sub})
			if got.Selection.Main != main || got.Selection.Sub != sub {
				t.Fatalf("deep link (%q, %q) resolved to %+v", main, sub, got.Selection)
			}
			if got.MainDenied || got.SubDenied {
				t.Fatalf("deep link (%q, %q) flagged denied", main, sub)
			}
		}
	}
}

func TestReconcileSelection(t *testing.T) {
	userTree := Filter(testTree(), asUser())

	tests := []struct {
		name string
		tree []NavItem
		sel  Selection
		want Selection
	}{
		{
			name: "valid selection is untouched",
			tree: userTree,
			sel:  Selection{Main: "personal", Sub: "personal.preferences"},
			want: Selection{Main: "personal", Sub: "personal.preferences"},
		},
		{
			name: "stale main jumps to first group and its first child",
			tree: userTree,
			sel:  Selection{Main: "system", Sub: "system.general"},
			want: Selection{Main: "personal", Sub: "personal.about"},
		},
		{
			name: "stale sub jumps to first child of the kept main",
			tree: userTree,
			sel:  Selection{Main: "personal", Sub: "system.general"},
			want: Selection{Main: "personal", Sub: "personal.about"},
		},
		{
			name: "empty tree empties the selection",
			tree: nil,
			sel:  Selection{Main: "personal", Sub: "personal.about"},
			want: Selection{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reconcileSelection(tt.tree, tt.sel); got != tt.want {
				t.Fatalf("reconcileSelection() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
