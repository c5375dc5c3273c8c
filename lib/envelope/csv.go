// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bureau-foundation/circlebox/lib/event"
)

const (
	// CSVMetaHeader is the first line of every CSV export.
	CSVMetaHeader = "meta,schema_version,export_source,capture_reason,session_id,platform,generated_at_unix_ms"

	// CSVEventHeader precedes the event rows.
	CSVEventHeader = "seq,timestamp_unix_ms,uptime_ms,type,thread,severity,attrs_json"
)

// CSV renders envelope as a metadata header and row followed by an
// event header and one row per event. Lines are separated by "\n"
// with no trailing newline. Attributes are embedded as a compact JSON
// object with sorted keys.
func CSV(envelope event.Envelope) []byte {
	lines := make([]string, 0, len(envelope.Events)+4)
	lines = append(lines, CSVMetaHeader, joinRow(
		"meta",
		strconv.Itoa(envelope.SchemaVersion),
		string(envelope.ExportSource),
		string(envelope.CaptureReason),
		envelope.SessionID,
		envelope.Platform,
		strconv.FormatInt(envelope.GeneratedAtUnixMs, 10),
	))

	lines = append(lines, CSVEventHeader)
	for _, e := range envelope.Events {
		lines = append(lines, joinRow(
			strconv.FormatInt(e.Seq, 10),
			strconv.FormatInt(e.TimestampUnixMs, 10),
			strconv.FormatInt(e.UptimeMs, 10),
			e.Type,
			string(e.Thread),
			string(e.Severity),
			attrsJSON(e.Attrs),
		))
	}
	return []byte(strings.Join(lines, "\n"))
}

func joinRow(values ...string) string {
	escaped := make([]string, len(values))
	for i, value := range values {
		escaped[i] = csvEscape(value)
	}
	return strings.Join(escaped, ",")
}

// csvEscape doubles embedded quotes and wraps the field in quotes when
// it contains a comma, newline, or quote.
func csvEscape(value string) string {
	if !strings.ContainsAny(value, ",\n\"") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func attrsJSON(attrs map[string]string) string {
	if attrs == nil {
		attrs = map[string]string{}
	}
	// A map[string]string always marshals.
	data, _ := json.Marshal(attrs)
	return string(data)
}
