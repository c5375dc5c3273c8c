// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix && !linux

package signalmarker

import "golang.org/x/sys/unix"

// open goes through libc on platforms where raw syscalls are not a
// stable interface.
func (handler *Handler) open() (int, error) {
	return unix.Open(handler.pathString, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC, 0o600)
}
