// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package filestore

// AvailableDiskBytes is not implemented on this platform and always
// returns -1.
func (store *Store) AvailableDiskBytes() int64 {
	return -1
}
