// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/circlebox/lib/event"
)

// DefaultMaxRecent is the number of trailing events a summary lists.
const DefaultMaxRecent = 10

// Counts is a string-to-count mapping that remembers the order in
// which keys were first seen and marshals in that order.
type Counts struct {
	keys   []string
	values map[string]int
}

// Add increments key, appending it to the order on first sight.
func (counts *Counts) Add(key string) {
	if counts.values == nil {
		counts.values = make(map[string]int)
	}
	if _, seen := counts.values[key]; !seen {
		counts.keys = append(counts.keys, key)
	}
	counts.values[key]++
}

// Get returns the count for key.
func (counts *Counts) Get(key string) int { return counts.values[key] }

// Keys returns the keys in first-occurrence order.
func (counts *Counts) Keys() []string { return counts.keys }

// Len returns the number of distinct keys.
func (counts *Counts) Len() int { return len(counts.keys) }

// MarshalJSON writes an object whose keys follow first-occurrence
// order.
func (counts Counts) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, key := range counts.keys {
		if i > 0 {
			buffer.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buffer.Write(name)
		fmt.Fprintf(&buffer, ":%d", counts.values[key])
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// SummaryEvent is the reduced event shape listed in a summary. It
// drops uptime.
type SummaryEvent struct {
	Seq             int64             `json:"seq"`
	TimestampUnixMs int64             `json:"timestamp_unix_ms"`
	Type            string            `json:"type"`
	Thread          event.Thread      `json:"thread"`
	Severity        event.Severity    `json:"severity"`
	Attrs           map[string]string `json:"attrs"`
}

// Summary aggregates an envelope for quick triage. The first/last
// timestamps and duration are nil when the envelope has no events.
type Summary struct {
	SchemaVersion     int            `json:"schema_version"`
	GeneratedAtUnixMs int64          `json:"generated_at_unix_ms"`
	ExportSource      string         `json:"export_source"`
	CaptureReason     string         `json:"capture_reason"`
	SessionID         string         `json:"session_id"`
	Platform          string         `json:"platform"`
	AppVersion        string         `json:"app_version"`
	BuildNumber       string         `json:"build_number"`
	OSVersion         string         `json:"os_version"`
	DeviceModel       string         `json:"device_model"`
	TotalEvents       int            `json:"total_events"`
	FirstEventUnixMs  *int64         `json:"first_event_unix_ms,omitempty"`
	LastEventUnixMs   *int64         `json:"last_event_unix_ms,omitempty"`
	DurationMs        *int64         `json:"duration_ms,omitempty"`
	CrashEventPresent bool           `json:"crash_event_present"`
	EventTypeCounts   Counts         `json:"event_type_counts"`
	SeverityCounts    Counts         `json:"severity_counts"`
	ThreadCounts      Counts         `json:"thread_counts"`
	LastEvents        []SummaryEvent `json:"last_events"`
}

// Summarize builds the summary of envelope. A non-empty override
// replaces the envelope's export source in the result. maxRecent below
// zero is treated as zero.
func Summarize(envelope event.Envelope, override event.ExportSource, maxRecent int) Summary {
	source := envelope.ExportSource
	if override != "" {
		source = override
	}
	summary := Summary{
		SchemaVersion:     envelope.SchemaVersion,
		GeneratedAtUnixMs: envelope.GeneratedAtUnixMs,
		ExportSource:      string(source),
		CaptureReason:     string(envelope.CaptureReason),
		SessionID:         envelope.SessionID,
		Platform:          envelope.Platform,
		AppVersion:        envelope.AppVersion,
		BuildNumber:       envelope.BuildNumber,
		OSVersion:         envelope.OSVersion,
		DeviceModel:       envelope.DeviceModel,
		TotalEvents:       len(envelope.Events),
		LastEvents:        []SummaryEvent{},
	}

	for _, e := range envelope.Events {
		summary.EventTypeCounts.Add(e.Type)
		summary.SeverityCounts.Add(string(e.Severity))
		summary.ThreadCounts.Add(string(e.Thread))
		if e.IsCrash() {
			summary.CrashEventPresent = true
		}
	}

	if count := len(envelope.Events); count > 0 {
		first := envelope.Events[0].TimestampUnixMs
		last := envelope.Events[count-1].TimestampUnixMs
		duration := last - first
		summary.FirstEventUnixMs = &first
		summary.LastEventUnixMs = &last
		summary.DurationMs = &duration
	}

	recent := envelope.Events[len(envelope.Events)-min(max(maxRecent, 0), len(envelope.Events)):]
	for _, e := range recent {
		attrs := e.Attrs
		if attrs == nil {
			attrs = map[string]string{}
		}
		summary.LastEvents = append(summary.LastEvents, SummaryEvent{
			Seq:             e.Seq,
			TimestampUnixMs: e.TimestampUnixMs,
			Type:            e.Type,
			Thread:          e.Thread,
			Severity:        e.Severity,
			Attrs:           attrs,
		})
	}
	return summary
}

// EncodeSummary renders the summary of envelope as indented JSON.
func EncodeSummary(envelope event.Envelope, override event.ExportSource, maxRecent int) ([]byte, error) {
	data, err := json.MarshalIndent(Summarize(envelope, override, maxRecent), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}
	return data, nil
}
