// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package web

// PanelDescriptor tells the frontend which settings panel to render for a
// navigation leaf. The web layer never renders the panels themselves; it
// ships the descriptor and the client loads the matching fragment.
type PanelDescriptor struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Fragment    string `json:"fragment"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	Available   bool   `json:"available"`
}

// panelCatalog maps navigation leaf keys to their panel descriptors. New
// leaves added to the navigation tree need an entry here to render as
// anything but the placeholder.
var panelCatalog = map[string]PanelDescriptor{
	"personal.about": {
		Key:         "personal.about",
		Title:       "About",
		Fragment:    "panels/about",
		Icon:        "fa-circle-info",
		Description: "Version, license and build information",
		Available:   true,
	},
	"personal.preferences": {
		Key:         "personal.preferences",
		Title:       "Preferences",
		Fragment:    "panels/preferences",
		Icon:        "fa-sliders",
		Description: "Theme, language and timezone",
		Available:   true,
	},
	"personal.account": {
		Key:         "personal.account",
		Title:       "Account",
		Fragment:    "panels/account",
		Icon:        "fa-user",
		Description: "Password and active sessions",
		Available:   true,
	},
	"personal.notifications": {
		Key:         "personal.notifications",
		Title:       "Notifications",
		Fragment:    "panels/notifications",
		Icon:        "fa-bell",
		Description: "Mention and message alerts",
		Available:   true,
	},
	"system.general": {
		Key:         "system.general",
		Title:       "General",
		Fragment:    "panels/system-general",
		Icon:        "fa-gear",
		Description: "Instance name, signups and defaults",
		Available:   true,
	},
	"system.users": {
		Key:         "system.users",
		Title:       "Users",
		Fragment:    "panels/system-users",
		Icon:        "fa-users",
		Description: "User accounts, roles and lockouts",
		Available:   true,
	},
	"system.connections": {
		Key:         "system.connections",
		Title:       "Connections",
		Fragment:    "panels/system-connections",
		Icon:        "fa-plug",
		Description: "Upstream provider endpoints",
		Available:   true,
	},
	"system.models": {
		Key:         "system.models",
		Title:       "Models",
		Fragment:    "panels/system-models",
		Icon:        "fa-cubes",
		Description: "Model visibility and defaults",
		Available:   true,
	},
	"system.documents": {
		Key:         "system.documents",
		Title:       "Documents",
		Fragment:    "panels/system-documents",
		Icon:        "fa-file-lines",
		Description: "Document extraction and chunking",
		Available:   true,
	},
	"system.websearch": {
		Key:         "system.websearch",
		Title:       "Web Search",
		Fragment:    "panels/system-websearch",
		Icon:        "fa-magnifying-glass",
		Description: "Search provider configuration",
		Available:   true,
	},
	"system.monitoring": {
		Key:         "system.monitoring",
		Title:       "Monitoring",
		Fragment:    "panels/system-monitoring",
		Icon:        "fa-chart-line",
		Description: "Health checks and usage metrics",
		Available:   true,
	},
}

// PanelFor returns the descriptor for a leaf key. Unknown keys get the
// "unavailable" placeholder so the frontend always has something to render.
func PanelFor(key string) PanelDescriptor {
	if desc, ok := panelCatalog[key]; ok {
		return desc
	}
	return PanelDescriptor{
		Key:      key,
		Title:    "Unavailable",
		Fragment: "panels/unavailable",
		Icon:     "fa-triangle-exclamation",
	}
}
