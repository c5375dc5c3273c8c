// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bureau-foundation/circlebox/lib/event"
)

// ErrMalformed wraps every Decode failure.
var ErrMalformed = errors.New("malformed envelope")

// wireEnvelope fixes the key order of the encoded document. Field
// order here is the order keys appear in the output.
type wireEnvelope struct {
	SchemaVersion     int           `json:"schema_version"`
	SessionID         string        `json:"session_id"`
	Platform          string        `json:"platform"`
	AppVersion        string        `json:"app_version"`
	BuildNumber       string        `json:"build_number"`
	OSVersion         string        `json:"os_version"`
	DeviceModel       string        `json:"device_model"`
	ExportSource      string        `json:"export_source"`
	CaptureReason     string        `json:"capture_reason"`
	GeneratedAtUnixMs int64         `json:"generated_at_unix_ms"`
	Events            []event.Event `json:"events"`
}

// Encode renders envelope as indented JSON. Every key is present and
// attrs/events are never null, so the output shape does not depend on
// the contents.
func Encode(envelope event.Envelope) ([]byte, error) {
	events := make([]event.Event, len(envelope.Events))
	for i, e := range envelope.Events {
		events[i] = e
		if e.Attrs == nil {
			events[i].Attrs = map[string]string{}
		}
	}
	data, err := json.MarshalIndent(wireEnvelope{
		SchemaVersion:     envelope.SchemaVersion,
		SessionID:         envelope.SessionID,
		Platform:          envelope.Platform,
		AppVersion:        envelope.AppVersion,
		BuildNumber:       envelope.BuildNumber,
		OSVersion:         envelope.OSVersion,
		DeviceModel:       envelope.DeviceModel,
		ExportSource:      string(envelope.ExportSource),
		CaptureReason:     string(envelope.CaptureReason),
		GeneratedAtUnixMs: envelope.GeneratedAtUnixMs,
		Events:            events,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return data, nil
}

// fields is one decoded JSON object, looked up by any of several key
// spellings.
type fields map[string]json.RawMessage

// lookup decodes the first present key from names into target.
// Returns false when none of the names is present. A JSON null counts
// as absent.
func (object fields) lookup(target any, names ...string) (bool, error) {
	for _, name := range names {
		raw, ok := object[name]
		if !ok || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return false, fmt.Errorf("field %q: %w", name, err)
		}
		return true, nil
	}
	return false, nil
}

// require is lookup for keys that must be present.
func (object fields) require(target any, names ...string) error {
	found, err := object.lookup(target, names...)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("missing field %q", names[0])
	}
	return nil
}

// Decode parses an envelope written with either the current snake_case
// key naming or the legacy camelCase naming. When both spellings of a
// key are present the snake_case value wins. Schema version 1
// documents decode with empty ExportSource and CaptureReason; callers
// fill them in with Normalize.
//
// Every failure wraps ErrMalformed.
func Decode(data []byte) (event.Envelope, error) {
	envelope, err := decode(data)
	if err != nil {
		return event.Envelope{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return envelope, nil
}

func decode(data []byte) (event.Envelope, error) {
	var object fields
	if err := json.Unmarshal(data, &object); err != nil {
		return event.Envelope{}, err
	}
	if object == nil {
		return event.Envelope{}, errors.New("document is null")
	}

	var envelope event.Envelope
	var exportSource, captureReason string
	var rawEvents []fields

	if err := object.require(&envelope.SchemaVersion, "schema_version", "schemaVersion"); err != nil {
		return event.Envelope{}, err
	}
	if err := object.require(&envelope.SessionID, "session_id", "sessionId"); err != nil {
		return event.Envelope{}, err
	}
	if err := object.require(&rawEvents, "events"); err != nil {
		return event.Envelope{}, err
	}
	optional := []struct {
		target any
		names  []string
	}{
		{&envelope.Platform, []string{"platform"}},
		{&envelope.AppVersion, []string{"app_version", "appVersion"}},
		{&envelope.BuildNumber, []string{"build_number", "buildNumber"}},
		{&envelope.OSVersion, []string{"os_version", "osVersion"}},
		{&envelope.DeviceModel, []string{"device_model", "deviceModel"}},
		{&exportSource, []string{"export_source", "exportSource"}},
		{&captureReason, []string{"capture_reason", "captureReason"}},
		{&envelope.GeneratedAtUnixMs, []string{"generated_at_unix_ms", "generatedAtUnixMs"}},
	}
	for _, field := range optional {
		if _, err := object.lookup(field.target, field.names...); err != nil {
			return event.Envelope{}, err
		}
	}

	if exportSource != "" {
		envelope.ExportSource = event.ExportSource(exportSource)
		if !envelope.ExportSource.IsValid() {
			return event.Envelope{}, fmt.Errorf("unknown export_source %q", exportSource)
		}
	}
	if captureReason != "" {
		envelope.CaptureReason = event.CaptureReason(captureReason)
		if !envelope.CaptureReason.IsValid() {
			return event.Envelope{}, fmt.Errorf("unknown capture_reason %q", captureReason)
		}
	}

	envelope.Events = make([]event.Event, 0, len(rawEvents))
	for index, rawEvent := range rawEvents {
		decoded, err := decodeEvent(rawEvent)
		if err != nil {
			return event.Envelope{}, fmt.Errorf("event %d: %w", index, err)
		}
		envelope.Events = append(envelope.Events, decoded)
	}
	return envelope, nil
}

func decodeEvent(object fields) (event.Event, error) {
	var decoded event.Event
	var thread, severity string

	if object == nil {
		return event.Event{}, errors.New("event is null")
	}
	if err := object.require(&decoded.Seq, "seq"); err != nil {
		return event.Event{}, err
	}
	if err := object.require(&decoded.Type, "type"); err != nil {
		return event.Event{}, err
	}
	if err := object.require(&thread, "thread"); err != nil {
		return event.Event{}, err
	}
	if err := object.require(&severity, "severity"); err != nil {
		return event.Event{}, err
	}
	if _, err := object.lookup(&decoded.TimestampUnixMs, "timestamp_unix_ms", "timestampUnixMs"); err != nil {
		return event.Event{}, err
	}
	if _, err := object.lookup(&decoded.UptimeMs, "uptime_ms", "uptimeMs"); err != nil {
		return event.Event{}, err
	}
	if _, err := object.lookup(&decoded.Attrs, "attrs"); err != nil {
		return event.Event{}, err
	}

	var err error
	if decoded.Thread, err = event.ParseThread(thread); err != nil {
		return event.Event{}, err
	}
	if decoded.Severity, err = event.ParseSeverity(severity); err != nil {
		return event.Event{}, err
	}
	if decoded.Attrs == nil {
		decoded.Attrs = map[string]string{}
	}
	return decoded, nil
}

// Normalize upgrades a decoded envelope to the current schema. Missing
// export source and capture reason take the given fallbacks, which
// depend on where the envelope came from: a pending file on disk
// becomes pending_crash/startup_pending_detection, a live snapshot
// becomes live_snapshot/manual_export. Schema versions below 2 are
// raised to 2; newer versions are kept.
func Normalize(envelope event.Envelope, source event.ExportSource, reason event.CaptureReason) event.Envelope {
	legacy := envelope.SchemaVersion < event.CurrentSchemaVersion
	if legacy || envelope.ExportSource == "" {
		envelope.ExportSource = source
	}
	if legacy || envelope.CaptureReason == "" {
		envelope.CaptureReason = reason
	}
	envelope.SchemaVersion = max(envelope.SchemaVersion, event.CurrentSchemaVersion)
	if envelope.Events == nil {
		envelope.Events = []event.Event{}
	}
	return envelope
}
