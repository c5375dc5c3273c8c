// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framing

import (
	"bytes"
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

const samplePayload = `{"schema_version":2,"session_id":"s","events":[]}`

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	framed := Encode([]byte(samplePayload))
	if framed[0] == '{' {
		t.Fatal("framed record should not start with '{'")
	}

	record, err := Parse(framed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if record.Legacy {
		t.Error("framed record reported as legacy")
	}
	if record.Version != FormatVersion {
		t.Errorf("Version: got %d, want %d", record.Version, FormatVersion)
	}
	if string(record.Payload) != samplePayload {
		t.Errorf("Payload: got %q, want %q", record.Payload, samplePayload)
	}
}

func TestDecodeLegacyJSON(t *testing.T) {
	t.Parallel()

	framed, err := Decode(Encode([]byte(samplePayload)))
	if err != nil {
		t.Fatalf("Decode framed: %v", err)
	}
	legacy, err := Decode([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Decode legacy: %v", err)
	}
	if !bytes.Equal(framed, legacy) {
		t.Errorf("legacy and framed payloads differ: %q vs %q", legacy, framed)
	}

	record, err := Parse([]byte("\n  " + samplePayload))
	if err != nil {
		t.Fatalf("Parse with leading whitespace: %v", err)
	}
	if !record.Legacy {
		t.Error("leading-whitespace JSON not detected as legacy")
	}
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	t.Parallel()

	var record []byte
	record = protowire.AppendTag(record, 9, protowire.VarintType)
	record = protowire.AppendVarint(record, 300)
	record = protowire.AppendTag(record, fieldVersion, protowire.VarintType)
	record = protowire.AppendVarint(record, 1)
	record = protowire.AppendTag(record, 10, protowire.Fixed64Type)
	record = protowire.AppendFixed64(record, 42)
	record = protowire.AppendTag(record, fieldPayload, protowire.BytesType)
	record = protowire.AppendBytes(record, []byte(samplePayload))
	record = protowire.AppendTag(record, 11, protowire.BytesType)
	record = protowire.AppendBytes(record, []byte("future"))
	record = protowire.AppendTag(record, 12, protowire.Fixed32Type)
	record = protowire.AppendFixed32(record, 7)

	payload, err := Decode(record)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(payload) != samplePayload {
		t.Errorf("payload: got %q, want %q", payload, samplePayload)
	}
}

func TestDecodeWithoutDigest(t *testing.T) {
	t.Parallel()

	var record []byte
	record = protowire.AppendTag(record, fieldVersion, protowire.VarintType)
	record = protowire.AppendVarint(record, 1)
	record = protowire.AppendTag(record, fieldPayload, protowire.BytesType)
	record = protowire.AppendBytes(record, []byte(samplePayload))

	payload, err := Decode(record)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(payload) != samplePayload {
		t.Errorf("payload: got %q", payload)
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	t.Parallel()

	framed := Encode([]byte(samplePayload))
	truncated := framed[:len(framed)/2]
	tampered := bytes.Clone(framed)
	// Flip a byte inside the payload so the digest no longer matches.
	tampered[5] ^= 0x01

	inputs := map[string][]byte{
		"empty":     {},
		"truncated": truncated,
		"tampered":  tampered,
		"garbage":   {0xff, 0xff, 0xff},
	}
	for name, input := range inputs {
		if _, err := Decode(input); !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: got %v, want ErrMalformed", name, err)
		}
	}
}
