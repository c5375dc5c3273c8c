// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import "golang.org/x/sys/unix"

// SystemMemory reads total and available memory with sysinfo(2).
// Available is free plus buffer memory; page cache is not counted.
func SystemMemory() (MemoryReading, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return MemoryReading{}, false
	}
	unit := uint64(info.Unit)
	return MemoryReading{
		TotalBytes:     uint64(info.Totalram) * unit,
		AvailableBytes: (uint64(info.Freeram) + uint64(info.Bufferram)) * unit,
	}, true
}
