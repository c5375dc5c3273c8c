// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package envelope converts event.Envelope values to and from their
// wire representations.
//
// JSON is the canonical form: Encode always emits every key in a fixed
// order, and Decode accepts both the current snake_case naming and the
// legacy camelCase naming written by early releases, preferring the
// current spelling when a document carries both. Decoding never leaks
// the legacy shape: the result is always a plain event.Envelope, and
// Normalize upgrades schema version 1 documents (which lack
// export_source and capture_reason) right at the boundary.
//
// CSV, the triage summary, and gzip containers are derived from the
// canonical form. Render dispatches on event.Format for the exporter.
package envelope
