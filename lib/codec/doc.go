// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration used on the binding
// boundary.
//
// CircleBox has two serialization formats with a clear boundary. JSON
// is the format of envelopes, exports, and anything a person or a
// crash reporting backend reads. CBOR is the format of requests and
// responses exchanged with a host language through lib/binding, where
// compact and unambiguous encoding matters more than readability.
//
// Types crossing the binding boundary carry `json` tags only.
// fxamacker/cbor reads `json` tags when `cbor` tags are absent, so the
// event and config types serialize under the same snake_case names in
// both formats.
//
//	data, err := codec.Marshal(response)
//	err = codec.Unmarshal(request, &arguments)
package codec
