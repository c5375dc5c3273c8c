// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package event defines the CircleBox data model: the Event stored in
// the ring buffer, the Envelope that wraps a snapshot of events with
// environment facts for export or persistence, and the small enums
// (Thread, Severity, ExportSource, CaptureReason, Format) that appear
// on the wire.
//
// The types here carry no serialization logic beyond struct tags.
// Wire encoding, including legacy key naming and schema version 1
// normalization, lives in lib/envelope.
package event
