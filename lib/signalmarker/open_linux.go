// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signalmarker

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// atCurrentDirectory holds AT_FDCWD in a variable: the constant is
// negative and cannot be converted to uintptr at compile time.
var atCurrentDirectory = unix.AT_FDCWD

// open issues openat directly with the preallocated NUL-terminated
// path so no string conversion happens on the delivery path.
func (handler *Handler) open() (int, error) {
	fd, _, errno := unix.Syscall6(
		unix.SYS_OPENAT,
		uintptr(atCurrentDirectory),
		uintptr(unsafe.Pointer(&handler.path[0])),
		uintptr(unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC),
		0o600,
		0, 0,
	)
	if errno != 0 {
		return -1, errno
	}
	return int(fd), nil
}
