// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package signalmarker

import "testing"

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	marker := Marker{Signal: 6, TimestampUnixMs: 777}
	encoded := Encode(marker)

	want := [Size]byte{6, 0, 0, 0, 0x09, 0x03, 0, 0, 0, 0, 0, 0}
	if encoded != want {
		t.Errorf("Encode: got % x, want % x", encoded, want)
	}

	decoded, err := Decode(encoded[:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != marker {
		t.Errorf("Decode: got %+v, want %+v", decoded, marker)
	}
}

func TestDecodeNegativeTimestamp(t *testing.T) {
	t.Parallel()

	marker := Marker{Signal: 11, TimestampUnixMs: -5}
	encoded := Encode(marker)
	decoded, err := Decode(encoded[:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != marker {
		t.Errorf("got %+v, want %+v", decoded, marker)
	}
}

func TestDecodeShort(t *testing.T) {
	t.Parallel()

	if _, err := Decode(make([]byte, Size-1)); err == nil {
		t.Error("Decode of 11 bytes should fail")
	}
}

func TestSignalNameUnknown(t *testing.T) {
	t.Parallel()

	if got := SignalName(99); got != "SIG99" {
		t.Errorf("SignalName(99): got %q, want SIG99", got)
	}
}
