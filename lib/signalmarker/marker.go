// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package signalmarker records fatal signals in a fixed 12-byte file.
//
// The delivery path in this package is deliberately restricted: it
// runs on a dedicated goroutine that holds no locks, touches only
// buffers allocated at Install time, calls the kernel directly for
// open/write/fsync/close, and never reaches the ring buffer or the
// JSON codec. A signal can arrive while any other goroutine holds the
// runtime's locks, and the marker must still be written. Turning the
// marker into a crash envelope happens on the next startup (see
// lib/crash), where ordinary code is allowed again.
//
// Keep imports here limited to the standard library and
// golang.org/x/sys/unix.
package signalmarker

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Size is the exact length of a marker file.
const Size = 12

// ErrUnsupported is returned by Install on platforms without POSIX
// signals.
var ErrUnsupported = errors.New("signal marker capture is not supported on this platform")

// Marker is the decoded content of a marker file.
type Marker struct {
	Signal          int32
	TimestampUnixMs int64
}

// Encode lays out marker as little-endian int32 signal number
// followed by little-endian int64 milliseconds.
func Encode(marker Marker) [Size]byte {
	var buffer [Size]byte
	encodeInto(&buffer, marker.Signal, marker.TimestampUnixMs)
	return buffer
}

// encodeInto writes into a caller-owned buffer without allocating.
func encodeInto(buffer *[Size]byte, signal int32, timestampUnixMs int64) {
	binary.LittleEndian.PutUint32(buffer[0:4], uint32(signal))
	binary.LittleEndian.PutUint64(buffer[4:12], uint64(timestampUnixMs))
}

// Decode parses a marker file. Files shorter than Size are rejected;
// trailing bytes are ignored.
func Decode(data []byte) (Marker, error) {
	if len(data) < Size {
		return Marker{}, fmt.Errorf("signal marker is %d bytes, want %d", len(data), Size)
	}
	return Marker{
		Signal:          int32(binary.LittleEndian.Uint32(data[0:4])),
		TimestampUnixMs: int64(binary.LittleEndian.Uint64(data[4:12])),
	}, nil
}

// SignalName returns the conventional name for a crash signal number,
// or "SIG<n>" for numbers it does not know.
func SignalName(signal int32) string {
	if name, ok := signalNames[signal]; ok {
		return name
	}
	return fmt.Sprintf("SIG%d", signal)
}
