// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package environment

import "runtime"

// OSVersion returns GOOS; non-unix hosts have no uname.
func OSVersion() string {
	return runtime.GOOS
}
