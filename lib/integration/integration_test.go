// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/filestore"
	"github.com/bureau-foundation/circlebox/lib/testutil"
)

func crashReport() event.Envelope {
	crash := event.Event{
		Seq:             2,
		TimestampUnixMs: testutil.FixtureEpochMs + 2500,
		UptimeMs:        2500,
		Type:            event.TypeCrash,
		Thread:          event.ThreadCrash,
		Severity:        event.SeverityFatal,
		Attrs:           map[string]string{"details": "runtime error", "thread": "override"},
	}
	contention := event.Event{
		Seq:             1,
		TimestampUnixMs: testutil.FixtureEpochMs + 1,
		Type:            event.TypeThreadContention,
		Thread:          event.ThreadBackground,
		Severity:        event.SeverityWarn,
		Attrs:           map[string]string{"blocked_ms": "450"},
	}
	return testutil.Envelope(testutil.Breadcrumb(0, "checkout"), contention, crash)
}

func TestSentryBreadcrumbs(t *testing.T) {
	t.Parallel()
	breadcrumbs := SentryBreadcrumbs(crashReport(), 0)
	if len(breadcrumbs) != 3 {
		t.Fatalf("got %d breadcrumbs, want 3", len(breadcrumbs))
	}

	first := breadcrumbs[0]
	if first.Message != "checkout" {
		t.Errorf("message: got %q, want checkout", first.Message)
	}
	if first.Category != event.TypeBreadcrumb || first.Level != "info" {
		t.Errorf("category/level: got %q/%q", first.Category, first.Level)
	}
	if want := float64(testutil.FixtureEpochMs) / 1000; first.Timestamp != want {
		t.Errorf("timestamp: got %v, want %v", first.Timestamp, want)
	}
	if first.Data["seq"] != "0" || first.Data["thread"] != "main" || first.Data["severity"] != "info" {
		t.Errorf("data: got %v", first.Data)
	}

	contention := breadcrumbs[1]
	if contention.Message != event.TypeThreadContention {
		t.Errorf("message without attribute: got %q, want event type", contention.Message)
	}
	if contention.Level != "warning" {
		t.Errorf("warn level: got %q, want warning", contention.Level)
	}

	crash := breadcrumbs[2]
	if crash.Level != "fatal" {
		t.Errorf("fatal level: got %q", crash.Level)
	}
	if crash.Data["thread"] != "override" {
		t.Errorf("attrs should override thread: got %q", crash.Data["thread"])
	}
	if crash.Data["details"] != "runtime error" {
		t.Errorf("details: got %q", crash.Data["details"])
	}
}

func TestSentryBreadcrumbsLimit(t *testing.T) {
	t.Parallel()
	breadcrumbs := SentryBreadcrumbs(crashReport(), 2)
	if len(breadcrumbs) != 2 {
		t.Fatalf("got %d breadcrumbs, want 2", len(breadcrumbs))
	}
	if breadcrumbs[0].Data["seq"] != "1" || breadcrumbs[1].Data["seq"] != "2" {
		t.Errorf("limit should keep the newest events, got seqs %s,%s",
			breadcrumbs[0].Data["seq"], breadcrumbs[1].Data["seq"])
	}
	if got := len(SentryBreadcrumbs(crashReport(), 10)); got != 3 {
		t.Errorf("limit above event count: got %d, want 3", got)
	}
}

func TestSentryLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		severity event.Severity
		want     string
	}{
		{event.SeverityInfo, "info"},
		{event.SeverityWarn, "warning"},
		{event.SeverityError, "error"},
		{event.SeverityFatal, "fatal"},
		{event.Severity("bogus"), "info"},
	}
	for _, test := range tests {
		if got := SentryLevel(test.severity); got != test.want {
			t.Errorf("SentryLevel(%q) = %q, want %q", test.severity, got, test.want)
		}
	}
}

func TestPostHogEvent(t *testing.T) {
	t.Parallel()
	report := crashReport()
	report.Events = append(report.Events, testutil.Breadcrumb(3, "after"))

	capture := PostHogEvent(report, "")
	if capture.Event != DefaultPostHogEventName {
		t.Errorf("event name: got %q, want %q", capture.Event, DefaultPostHogEventName)
	}
	want := map[string]string{
		"schema_version":      "2",
		"session_id":          testutil.Environment().SessionID,
		"export_source":       "live_snapshot",
		"capture_reason":      "manual_export",
		"total_events":        "4",
		"event_type_counts":   `{"breadcrumb":2,"thread_contention":1,"native_exception_prehook":1}`,
		"severity_counts":     `{"info":2,"warn":1,"fatal":1}`,
		"last_event_type":     "breadcrumb",
		"last_event_severity": "info",
	}
	for key, value := range want {
		if got := capture.Properties[key]; got != value {
			t.Errorf("property %s: got %q, want %q", key, got, value)
		}
	}
}

func TestPostHogEventEmpty(t *testing.T) {
	t.Parallel()
	capture := PostHogEvent(testutil.Envelope(), "app_crash")
	if capture.Event != "app_crash" {
		t.Errorf("event name: got %q", capture.Event)
	}
	if capture.Properties["total_events"] != "0" {
		t.Errorf("total_events: got %q", capture.Properties["total_events"])
	}
	if capture.Properties["event_type_counts"] != "{}" {
		t.Errorf("event_type_counts: got %q", capture.Properties["event_type_counts"])
	}
	if _, present := capture.Properties["last_event_type"]; present {
		t.Error("last_event_type should be absent for an empty report")
	}
}

func TestLoadExport(t *testing.T) {
	t.Parallel()
	directory := t.TempDir()
	report := crashReport()
	encoded, err := envelope.Encode(report)
	if err != nil {
		t.Fatal(err)
	}
	compressed, err := envelope.Gzip(encoded)
	if err != nil {
		t.Fatal(err)
	}

	for name, data := range map[string][]byte{
		"plain.json":     encoded,
		"packed.json.gz": compressed,
	} {
		path := filepath.Join(directory, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		loaded, err := LoadExport(path)
		if err != nil {
			t.Fatalf("LoadExport(%s): %v", name, err)
		}
		if len(loaded.Events) != 3 || loaded.LastSeq() != 2 {
			t.Errorf("%s: got %d events ending at %d", name, len(loaded.Events), loaded.LastSeq())
		}
		if loaded.ExportSource != event.SourceLiveSnapshot {
			t.Errorf("%s: export source %q", name, loaded.ExportSource)
		}
	}
}

func TestLoadExportPendingFallbacks(t *testing.T) {
	t.Parallel()
	store, err := filestore.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	legacy := []byte(`{"schema_version":1,"session_id":"s","platform":"go-linux","app_version":"1","build_number":"1","os_version":"x","device_model":"m","generated_at_unix_ms":5,"events":[]}`)
	if err := os.WriteFile(store.PendingPath(), legacy, 0o600); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadExport(store.PendingPath())
	if err != nil {
		t.Fatalf("LoadExport: %v", err)
	}
	if loaded.SchemaVersion != event.CurrentSchemaVersion {
		t.Errorf("schema version: got %d", loaded.SchemaVersion)
	}
	if loaded.ExportSource != event.SourcePendingCrash || loaded.CaptureReason != event.ReasonStartupPendingDetection {
		t.Errorf("fallbacks: got %s/%s", loaded.ExportSource, loaded.CaptureReason)
	}
}

func TestLoadExportErrors(t *testing.T) {
	t.Parallel()
	if _, err := LoadExport(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := Parse([]byte{0x1f, 0x8b, 0x00}, false); err == nil {
		t.Error("truncated gzip should fail")
	}
	if _, err := Parse([]byte("not json"), false); err == nil {
		t.Error("garbage should fail")
	}
}
