// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package filestore

import "golang.org/x/sys/unix"

// AvailableDiskBytes returns the bytes available to unprivileged users
// on the volume holding the base directory, or -1 when the query
// fails.
func (store *Store) AvailableDiskBytes() int64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(store.base, &stat); err != nil {
		return -1
	}
	return int64(stat.Bavail) * int64(stat.Bsize)
}
