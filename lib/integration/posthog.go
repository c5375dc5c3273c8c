// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package integration

import (
	"encoding/json"
	"strconv"

	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
)

// DefaultPostHogEventName is used when PostHogEvent is given no name.
const DefaultPostHogEventName = "circlebox_context"

// PostHogCapture is the body of a PostHog capture call without the
// distinct_id, which belongs to the caller's identity model.
type PostHogCapture struct {
	Event      string            `json:"event"`
	Properties map[string]string `json:"properties"`
}

// PostHogEvent summarizes report as one analytics event. Counts are
// encoded as compact JSON objects in first-occurrence order, since
// PostHog properties here are flat strings. The last_event_* keys are
// present only when the report has events.
func PostHogEvent(report event.Envelope, name string) PostHogCapture {
	if name == "" {
		name = DefaultPostHogEventName
	}

	var typeCounts, severityCounts envelope.Counts
	for _, recorded := range report.Events {
		typeCounts.Add(recorded.Type)
		severityCounts.Add(string(recorded.Severity))
	}

	properties := map[string]string{
		"schema_version":    strconv.Itoa(report.SchemaVersion),
		"session_id":        report.SessionID,
		"platform":          report.Platform,
		"app_version":       report.AppVersion,
		"build_number":      report.BuildNumber,
		"export_source":     string(report.ExportSource),
		"capture_reason":    string(report.CaptureReason),
		"total_events":      strconv.Itoa(len(report.Events)),
		"event_type_counts": compactJSON(typeCounts),
		"severity_counts":   compactJSON(severityCounts),
	}
	if len(report.Events) > 0 {
		last := report.Events[len(report.Events)-1]
		properties["last_event_type"] = last.Type
		properties["last_event_severity"] = string(last.Severity)
	}
	return PostHogCapture{Event: name, Properties: properties}
}

func compactJSON(counts envelope.Counts) string {
	data, err := json.Marshal(counts)
	if err != nil {
		return "{}"
	}
	return string(data)
}
