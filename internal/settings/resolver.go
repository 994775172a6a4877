// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package settings

// Selection identifies the active group and leaf of the settings panel.
// Main is empty only when the filtered tree is empty; Sub is empty when the
// active group has no visible children.
type Selection struct {
	Main string `json:"main"`
	Sub  string `json:"sub"`
}

// ResolveInput carries the selection sources, highest priority first:
// deep-link URL parameters, the remembered selection (authenticated actors
// only), then role-derived defaults.
type ResolveInput struct {
	Tree []NavItem // already filtered for the actor

	URLMain string
	URLSub  string

	MemMain string
	MemSub  string

	// DefaultTab is the hosting page's hint for the admin landing group.
	DefaultTab string

	Actor Actor
}

// ResolveResult is the resolved selection plus denial flags. A denial flag
// is set only when the rejected candidate originated from the URL: falling
// back from a remembered selection or a default is silent.
type ResolveResult struct {
	Selection  Selection
	MainDenied bool
	SubDenied  bool
}

// Resolve computes the active selection from the input sources.
//
// Resolution is a pure function: identical inputs yield identical outputs,
// and a deep link naming visible keys round-trips exactly.
func Resolve(in ResolveInput) ResolveResult {
	var res ResolveResult

	tops := topKeys(in.Tree)

	// Main selection.
	main := in.URLMain
	mainFromURL := main != ""
	if main == "" {
		main = in.MemMain
	}
	if main == "" {
		main = defaultMain(in.Actor, in.DefaultTab)
	}
	if !containsKey(tops, main) {
		if mainFromURL {
			res.MainDenied = true
		}
		main = ""
		if len(tops) > 0 {
			main = tops[0]
		}
	}
	res.Selection.Main = main

	// Sub selection, against the children of the resolved main.
	children := childKeys(in.Tree, main)
	sub := in.URLSub
	if sub == "" {
		sub = in.MemSub
	}
	if sub == "" {
		sub = defaultSub(main, in.Actor)
	}
	if sub != "" && !containsKey(children, sub) {
		// Denials are gated on the open having carried any URL parameter,
		// never on plain default fallback.
		if in.URLMain != "" || in.URLSub != "" {
			res.SubDenied = true
		}
		sub = ""
		if len(children) > 0 {
			sub = children[0]
		}
	}
	if sub == "" && len(children) > 0 {
		sub = children[0]
	}
	res.Selection.Sub = sub

	return res
}

// defaultMain picks the landing group for an actor arriving without a deep
// link or remembered selection.
func defaultMain(actor Actor, defaultTab string) string {
	if actor.IsAdmin() {
		if defaultTab != "" {
			return defaultTab
		}
		return GroupSystem
	}
	return GroupPersonal
}

// defaultSub picks the landing leaf inside a resolved group. Empty means
// "first visible child".
func defaultSub(mainKey string, actor Actor) string {
	switch mainKey {
	case GroupPersonal:
		if actor.Authenticated {
			return "personal.preferences"
		}
		return "personal.about"
	case GroupSystem:
		return "system.general"
	}
	return ""
}

// reconcileSelection repairs a selection after the filtered tree changed
// shape (e.g. a role change mid-session). A stale main jumps to the tree's
// first group; a stale sub jumps to the active group's first child. Valid
// selections pass through untouched.
func reconcileSelection(tree []NavItem, sel Selection) Selection {
	tops := topKeys(tree)
	if !containsKey(tops, sel.Main) {
		sel.Main = ""
		if len(tops) > 0 {
			sel.Main = tops[0]
		}
	}

	children := childKeys(tree, sel.Main)
	if !containsKey(children, sel.Sub) {
		sel.Sub = ""
		if len(children) > 0 {
			sel.Sub = children[0]
		}
	}
	return sel
}
