// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

package app

import (
	"fmt"
	"runtime"
)

// Build metadata, set via ldflags at release time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// PrintVersion prints version information to stdout.
func PrintVersion() {
	fmt.Printf("parley %s\n", Version)
	fmt.Printf("  commit:     %s\n", Commit)
	fmt.Printf("  build date: %s\n", BuildDate)
	fmt.Printf("  go version: %s\n", runtime.Version())
	fmt.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
