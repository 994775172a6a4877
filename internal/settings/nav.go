// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

// Package settings implements the navigation controller behind the console's
// settings panel: a static navigation tree filtered by the current actor's
// role, a selection resolver fed by deep-link parameters, remembered
// selections and role defaults, and the deferred URL cleanup that runs when
// a deep-linked panel closes.
package settings

// NavItem is a node in the static settings navigation tree.
//
// Keys are unique across the whole tree. By convention a child key is
// prefixed with its parent key ("system" -> "system.users"); nothing
// enforces this, the convention just keeps deep links readable.
type NavItem struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	RequiresAuth bool   `json:"requires_auth,omitempty"`
	AdminOnly    bool   `json:"admin_only,omitempty"`

	Children []NavItem `json:"children,omitempty"`
}

// Well-known top-level group keys.
const (
	GroupPersonal = "personal"
	GroupSystem   = "system"
)

// DefaultTree returns the console's settings navigation tree.
//
// The order here is the display order; filtering never reorders items.
func DefaultTree() []NavItem {
	return []NavItem{
		{
			Key:   GroupPersonal,
			Label: "Personal",
			Children: []NavItem{
				{Key: "personal.about", Label: "About"},
				{Key: "personal.preferences", Label: "Preferences", RequiresAuth: true},
				{Key: "personal.account", Label: "Account", RequiresAuth: true},
				{Key: "personal.notifications", Label: "Notifications", RequiresAuth: true},
			},
		},
		{
			Key:       GroupSystem,
			Label:     "System",
			AdminOnly: true,
			Children: []NavItem{
				{Key: "system.general", Label: "General"},
				{Key: "system.users", Label: "Users"},
				{Key: "system.connections", Label: "Connections"},
				{Key: "system.models", Label: "Models"},
				{Key: "system.documents", Label: "Documents"},
				{Key: "system.websearch", Label: "Web Search"},
				{Key: "system.monitoring", Label: "Monitoring"},
			},
		},
	}
}

// findTop returns the top-level item with the given key.
func findTop(tree []NavItem, key string) (NavItem, bool) {
	for _, item := range tree {
		if item.Key == key {
			return item, true
		}
	}
	return NavItem{}, false
}

// childKeys returns the keys of the children of the given top-level item.
func childKeys(tree []NavItem, mainKey string) []string {
	item, ok := findTop(tree, mainKey)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(item.Children))
	for _, c := range item.Children {
		keys = append(keys, c.Key)
	}
	return keys
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func topKeys(tree []NavItem) []string {
	keys := make([]string, 0, len(tree))
	for _, item := range tree {
		keys = append(keys, item.Key)
	}
	return keys
}
