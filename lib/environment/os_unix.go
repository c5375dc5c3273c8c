// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package environment

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// OSVersion returns the kernel release reported by uname, or GOOS
// when uname fails.
func OSVersion() string {
	var name unix.Utsname
	if err := unix.Uname(&name); err != nil {
		return runtime.GOOS
	}
	release := unix.ByteSliceToString(name.Release[:])
	if release == "" {
		return runtime.GOOS
	}
	return release
}
