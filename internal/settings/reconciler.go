// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package settings

import (
	"net/url"
	"strings"
)

// deepLink is the parsed form of the deep-link query parameters.
type deepLink struct {
	// Present is true when any of the three parameters appears in the URL,
	// including a bare "settings=1" with no section keys.
	Present bool
	Main    string
	Sub     string
}

// parseDeepLink extracts the deep-link parameters from a raw URL. A URL
// that does not parse yields an empty link; the controller then behaves as
// if the panel was opened plainly.
func parseDeepLink(raw string) deepLink {
	u, err := url.Parse(raw)
	if err != nil {
		return deepLink{}
	}
	q := u.Query()

	var link deepLink
	if q.Has(ParamOpen) || q.Has(ParamMain) || q.Has(ParamSub) {
		link.Present = true
	}
	link.Main = q.Get(ParamMain)
	link.Sub = q.Get(ParamSub)
	return link
}

// stripDeepLink removes the deep-link parameters from a raw URL, leaving
// every other query parameter and the fragment intact. When nothing needs
// removing the input is returned byte-for-byte, which lets callers compare
// for "already clean" with plain equality.
func stripDeepLink(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if !q.Has(ParamOpen) && !q.Has(ParamMain) && !q.Has(ParamSub) {
		return raw
	}
	q.Del(ParamOpen)
	q.Del(ParamMain)
	q.Del(ParamSub)

	u.RawQuery = q.Encode()
	// Hand-built inputs can leave a dangling "?" once the last parameter
	// is removed.
	return strings.TrimSuffix(u.String(), "?")
}
