// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package framing wraps persisted envelope JSON in a small
// protobuf-wire record.
//
// A framed record is a sequence of protobuf fields:
//
//	field 1 (varint)           format version, currently 1
//	field 2 (length-delimited) envelope JSON payload
//	field 3 (length-delimited) BLAKE3-256 digest of the payload
//
// Readers skip fields they do not recognize by wire type, so new
// fields can be added without breaking older readers. Files written
// before framing existed hold bare JSON; Decode detects them by their
// leading '{' and returns them unchanged, and falls back to the same
// interpretation whenever the framed parse fails.
package framing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
	"google.golang.org/protobuf/encoding/protowire"
)

// FormatVersion is the framing version written by Encode.
const FormatVersion = 1

const (
	fieldVersion protowire.Number = 1
	fieldPayload protowire.Number = 2
	fieldDigest  protowire.Number = 3
)

// ErrMalformed is returned when data is neither a valid framed record
// nor a legacy JSON object.
var ErrMalformed = errors.New("malformed circlebox record")

// Encode frames payload with the current format version and a digest.
func Encode(payload []byte) []byte {
	digest := blake3.Sum256(payload)

	record := make([]byte, 0, len(payload)+len(digest)+16)
	record = protowire.AppendTag(record, fieldVersion, protowire.VarintType)
	record = protowire.AppendVarint(record, FormatVersion)
	record = protowire.AppendTag(record, fieldPayload, protowire.BytesType)
	record = protowire.AppendBytes(record, payload)
	record = protowire.AppendTag(record, fieldDigest, protowire.BytesType)
	record = protowire.AppendBytes(record, digest[:])
	return record
}

// Record is the parsed content of a framed record.
type Record struct {
	// Version is the format version from field 1, or 0 for legacy
	// bare JSON input.
	Version uint64

	// Payload is the envelope JSON.
	Payload []byte

	// Legacy is true when the input was bare JSON with no framing.
	Legacy bool
}

// Decode extracts the envelope JSON from data. See Parse for the
// accepted inputs.
func Decode(data []byte) ([]byte, error) {
	record, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return record.Payload, nil
}

// Parse accepts a framed record or legacy bare JSON. A framed record
// must carry a payload field; when it also carries a digest, the
// digest must match. Any framing failure falls back to accepting the
// whole input as legacy JSON if it is valid JSON.
func Parse(data []byte) (Record, error) {
	if looksLikeJSON(data) {
		return Record{Payload: data, Legacy: true}, nil
	}

	record, framingErr := parseFramed(data)
	if framingErr == nil {
		return record, nil
	}
	if json.Valid(data) {
		return Record{Payload: data, Legacy: true}, nil
	}
	return Record{}, fmt.Errorf("%w: %w", ErrMalformed, framingErr)
}

func parseFramed(data []byte) (Record, error) {
	var record Record
	var digest []byte
	var havePayload bool

	for len(data) > 0 {
		number, wireType, tagLength := protowire.ConsumeTag(data)
		if tagLength < 0 {
			return Record{}, fmt.Errorf("reading field tag: %w", protowire.ParseError(tagLength))
		}
		data = data[tagLength:]

		switch {
		case number == fieldVersion && wireType == protowire.VarintType:
			value, length := protowire.ConsumeVarint(data)
			if length < 0 {
				return Record{}, fmt.Errorf("reading version: %w", protowire.ParseError(length))
			}
			record.Version = value
			data = data[length:]

		case number == fieldPayload && wireType == protowire.BytesType:
			value, length := protowire.ConsumeBytes(data)
			if length < 0 {
				return Record{}, fmt.Errorf("reading payload: %w", protowire.ParseError(length))
			}
			record.Payload = value
			havePayload = true
			data = data[length:]

		case number == fieldDigest && wireType == protowire.BytesType:
			value, length := protowire.ConsumeBytes(data)
			if length < 0 {
				return Record{}, fmt.Errorf("reading digest: %w", protowire.ParseError(length))
			}
			digest = value
			data = data[length:]

		default:
			if !skippable(wireType) {
				return Record{}, fmt.Errorf("field %d has unsupported wire type %d", number, wireType)
			}
			length := protowire.ConsumeFieldValue(number, wireType, data)
			if length < 0 {
				return Record{}, fmt.Errorf("skipping field %d: %w", number, protowire.ParseError(length))
			}
			data = data[length:]
		}
	}

	if !havePayload {
		return Record{}, errors.New("record has no payload field")
	}
	if digest != nil {
		sum := blake3.Sum256(record.Payload)
		if !bytes.Equal(digest, sum[:]) {
			return Record{}, errors.New("payload digest mismatch")
		}
	}
	return record, nil
}

// skippable reports whether unknown fields of this wire type may be
// skipped. Group wire types are deprecated and never written by this
// format.
func skippable(wireType protowire.Type) bool {
	switch wireType {
	case protowire.VarintType, protowire.Fixed64Type, protowire.BytesType, protowire.Fixed32Type:
		return true
	}
	return false
}

// looksLikeJSON reports whether the first non-whitespace byte is '{'.
func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}
