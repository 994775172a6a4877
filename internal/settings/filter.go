// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package settings

import "github.com/parleyhq/parley/internal/models"

// Actor is the snapshot of the current session's identity used for access
// filtering. An anonymous visitor has Authenticated == false and no role.
type Actor struct {
	Authenticated bool
	Role          models.UserRole
}

// IsAdmin returns true for an authenticated administrator.
func (a Actor) IsAdmin() bool {
	return a.Authenticated && a.Role.IsAdmin()
}

// visible applies the two access predicates to a single item.
func visible(item NavItem, actor Actor) bool {
	if item.AdminOnly && !actor.IsAdmin() {
		return false
	}
	if item.RequiresAuth && !actor.Authenticated {
		return false
	}
	return true
}

// Filter derives the actor's view of the navigation tree.
//
// A top-level item is dropped when its own constraints fail, and also when
// it originally had children but all of them are filtered out (a group with
// no visible content is meaningless). Childless top-level leaves survive on
// their own constraints. Source order is preserved.
//
// The result shares no slices with the input; callers may hold it across
// later recomputations.
func Filter(tree []NavItem, actor Actor) []NavItem {
	out := make([]NavItem, 0, len(tree))
	for _, item := range tree {
		if !visible(item, actor) {
			continue
		}

		if len(item.Children) == 0 {
			out = append(out, item)
			continue
		}

		kids := make([]NavItem, 0, len(item.Children))
		for _, child := range item.Children {
			if visible(child, actor) {
				kids = append(kids, child)
			}
		}
		if len(kids) == 0 {
			continue
		}

		item.Children = kids
		out = append(out, item)
	}
	return out
}
