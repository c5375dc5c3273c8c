// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "github.com/bureau-foundation/circlebox/lib/event"

// FixtureEpochMs is the generated_at time of every fixture envelope.
const FixtureEpochMs = 1_700_000_000_000

// Environment returns fixed environment facts.
func Environment() event.Environment {
	return event.Environment{
		SessionID:   "2d6c1f0a-8a43-4a4e-9d0c-5b8f3e7a9c21",
		Platform:    "go-linux",
		AppVersion:  "2.1.0",
		BuildNumber: "2100",
		OSVersion:   "6.8.0",
		DeviceModel: "test-host/amd64",
	}
}

// Breadcrumb returns an info breadcrumb on the main thread whose
// timestamps derive from seq.
func Breadcrumb(seq int64, message string) event.Event {
	return event.Event{
		Seq:             seq,
		TimestampUnixMs: FixtureEpochMs + seq,
		UptimeMs:        seq,
		Type:            event.TypeBreadcrumb,
		Thread:          event.ThreadMain,
		Severity:        event.SeverityInfo,
		Attrs:           map[string]string{"message": message},
	}
}

// Envelope returns a live-snapshot envelope holding events.
func Envelope(events ...event.Event) event.Envelope {
	return event.NewEnvelope(Environment(), event.SourceLiveSnapshot, event.ReasonManualExport, FixtureEpochMs, events)
}
