// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

// CurrentSchemaVersion is the envelope schema written by this module.
// Version 1 documents lack ExportSource and CaptureReason.
const CurrentSchemaVersion = 2

// ExportSource records where an envelope's events came from.
type ExportSource string

const (
	// SourcePendingCrash means the envelope was read from the pending
	// crash report on disk.
	SourcePendingCrash ExportSource = "pending_crash"

	// SourceLiveSnapshot means the envelope was built from the
	// in-memory ring buffer at export time.
	SourceLiveSnapshot ExportSource = "live_snapshot"
)

// IsValid reports whether source is one of the known values.
func (source ExportSource) IsValid() bool {
	return source == SourcePendingCrash || source == SourceLiveSnapshot
}

// CaptureReason records why an envelope was captured.
type CaptureReason string

const (
	ReasonUncaughtException       CaptureReason = "uncaught_exception"
	ReasonManualExport            CaptureReason = "manual_export"
	ReasonStartupPendingDetection CaptureReason = "startup_pending_detection"
)

// IsValid reports whether reason is one of the known values.
func (reason CaptureReason) IsValid() bool {
	switch reason {
	case ReasonUncaughtException, ReasonManualExport, ReasonStartupPendingDetection:
		return true
	}
	return false
}

// Environment holds the facts captured once at startup. They are
// immutable for the lifetime of a runtime.
type Environment struct {
	SessionID   string
	Platform    string
	AppVersion  string
	BuildNumber string
	OSVersion   string
	DeviceModel string
}

// Envelope is a complete report: environment facts plus events ordered
// oldest first. Envelopes are values built on demand from a ring
// buffer snapshot or decoded from disk.
type Envelope struct {
	SchemaVersion     int
	SessionID         string
	Platform          string
	AppVersion        string
	BuildNumber       string
	OSVersion         string
	DeviceModel       string
	ExportSource      ExportSource
	CaptureReason     CaptureReason
	GeneratedAtUnixMs int64
	Events            []Event
}

// NewEnvelope assembles an envelope at the current schema version.
func NewEnvelope(environment Environment, source ExportSource, reason CaptureReason, generatedAtUnixMs int64, events []Event) Envelope {
	if events == nil {
		events = []Event{}
	}
	return Envelope{
		SchemaVersion:     CurrentSchemaVersion,
		SessionID:         environment.SessionID,
		Platform:          environment.Platform,
		AppVersion:        environment.AppVersion,
		BuildNumber:       environment.BuildNumber,
		OSVersion:         environment.OSVersion,
		DeviceModel:       environment.DeviceModel,
		ExportSource:      source,
		CaptureReason:     reason,
		GeneratedAtUnixMs: generatedAtUnixMs,
		Events:            events,
	}
}

// Environment returns the environment facts carried by the envelope.
func (envelope Envelope) Environment() Environment {
	return Environment{
		SessionID:   envelope.SessionID,
		Platform:    envelope.Platform,
		AppVersion:  envelope.AppVersion,
		BuildNumber: envelope.BuildNumber,
		OSVersion:   envelope.OSVersion,
		DeviceModel: envelope.DeviceModel,
	}
}

// LastSeq returns the sequence number of the newest event, or -1 when
// the envelope has no events.
func (envelope Envelope) LastSeq() int64 {
	if len(envelope.Events) == 0 {
		return -1
	}
	return envelope.Events[len(envelope.Events)-1].Seq
}
