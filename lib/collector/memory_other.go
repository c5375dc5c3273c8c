// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package collector

// SystemMemory is unavailable off Linux; MemoryPressure skips every
// sample.
func SystemMemory() (MemoryReading, bool) {
	return MemoryReading{}, false
}
