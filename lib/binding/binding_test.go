// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binding

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/circlebox/lib/circlebox"
	"github.com/bureau-foundation/circlebox/lib/codec"
	"github.com/bureau-foundation/circlebox/lib/environment"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/testutil"
)

func newTable(t *testing.T) (Table, *circlebox.Runtime) {
	t.Helper()
	runtime := circlebox.New(circlebox.Options{
		Directory:   t.TempDir(),
		Environment: environment.Static(testutil.Environment()),
		Collectors:  circlebox.NoCollectors,
	})
	t.Cleanup(func() { runtime.Close() })
	return NewTable(runtime), runtime
}

func mustMarshal(t *testing.T, value any) []byte {
	t.Helper()
	data, err := codec.Marshal(value)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func call[T any](t *testing.T, table Table, method string, request any) T {
	t.Helper()
	var body []byte
	if request != nil {
		body = mustMarshal(t, request)
	}
	response, err := table.Dispatch(method, body)
	if err != nil {
		t.Fatalf("Dispatch(%s): %v", method, err)
	}
	var decoded T
	if err := codec.Unmarshal(response, &decoded); err != nil {
		t.Fatalf("decoding %s response: %v", method, err)
	}
	return decoded
}

// startRequest enables the debug viewer and disables process-global
// crash capture; other keys keep their defaults.
var startRequest = map[string]any{
	"enable_debug_viewer":         true,
	"enable_signal_crash_capture": false,
	"enable_metrics":              false,
	"buffer_capacity":             20,
}

func TestTableVersion(t *testing.T) {
	t.Parallel()
	table, _ := newTable(t)
	if table.ABIVersion != ABIVersion {
		t.Errorf("ABIVersion: got %d, want %d", table.ABIVersion, ABIVersion)
	}
}

func TestDispatchStartAppliesConfig(t *testing.T) {
	t.Parallel()
	table, runtime := newTable(t)

	call[map[string]any](t, table, MethodStart, startRequest)

	cfg, err := runtime.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg.BufferCapacity != 20 || !cfg.EnableDebugViewer {
		t.Errorf("config from request not applied: %+v", cfg)
	}
	if cfg.MaxAttributeLength != 256 || !cfg.SanitizeAttributes {
		t.Errorf("omitted keys lost their defaults: %+v", cfg)
	}
}

func TestDispatchBreadcrumbAndDebugSnapshot(t *testing.T) {
	t.Parallel()
	table, _ := newTable(t)
	call[map[string]any](t, table, MethodStart, startRequest)

	call[map[string]any](t, table, MethodBreadcrumb, BreadcrumbRequest{
		Message: "tapped pay",
		Attrs:   map[string]string{"screen": "checkout"},
	})

	snapshot := call[DebugSnapshotResponse](t, table, MethodDebugSnapshot, nil)
	if len(snapshot.Events) != 2 {
		t.Fatalf("events: got %d, want 2", len(snapshot.Events))
	}
	crumb := snapshot.Events[1]
	if crumb.Type != event.TypeBreadcrumb || crumb.Thread != event.ThreadMain {
		t.Errorf("breadcrumb: got %s on %s", crumb.Type, crumb.Thread)
	}
	if crumb.Attrs["message"] != "tapped pay" || crumb.Attrs["screen"] != "checkout" {
		t.Errorf("attrs: got %v", crumb.Attrs)
	}

	limited := call[DebugSnapshotResponse](t, table, MethodDebugSnapshot, DebugSnapshotRequest{MaxEvents: 1})
	if len(limited.Events) != 1 || limited.Events[0].Seq != 1 {
		t.Errorf("limited snapshot: got %+v", limited.Events)
	}
}

func TestDispatchExportLogs(t *testing.T) {
	t.Parallel()
	table, _ := newTable(t)
	call[map[string]any](t, table, MethodStart, startRequest)

	response := call[ExportLogsResponse](t, table, MethodExportLogs, ExportLogsRequest{
		Formats: []string{"summary", "csv.gz", "json"},
	})
	if len(response.Paths) != 3 {
		t.Fatalf("paths: got %v", response.Paths)
	}
	wantSuffixes := []string{".json", ".csv.gz", ".summary.json"}
	for index, suffix := range wantSuffixes {
		if !strings.HasSuffix(filepath.Base(response.Paths[index]), suffix) {
			t.Errorf("path %d: %s, want suffix %s", index, response.Paths[index], suffix)
		}
	}

	if _, err := table.Dispatch(MethodExportLogs, mustMarshal(t, ExportLogsRequest{Formats: []string{"xml"}})); !errors.Is(err, event.ErrUnknownFormat) {
		t.Errorf("unknown format: got %v, want ErrUnknownFormat", err)
	}
}

func TestDispatchPendingReport(t *testing.T) {
	t.Parallel()
	table, runtime := newTable(t)
	call[map[string]any](t, table, MethodStart, startRequest)

	if call[PendingResponse](t, table, MethodHasPendingCrashReport, nil).Pending {
		t.Fatal("fresh runtime reports a pending crash")
	}
	runtime.RecordPanic("string: boom")
	if !call[PendingResponse](t, table, MethodHasPendingCrashReport, nil).Pending {
		t.Fatal("pending crash not reported")
	}
	call[map[string]any](t, table, MethodClearPendingCrashReport, nil)
	if call[PendingResponse](t, table, MethodHasPendingCrashReport, nil).Pending {
		t.Error("pending crash survived clear")
	}
}

func TestDispatchErrors(t *testing.T) {
	t.Parallel()
	table, _ := newTable(t)

	if _, err := table.Dispatch("reboot", nil); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("unknown method: got %v, want ErrUnknownMethod", err)
	}
	if _, err := table.Dispatch(MethodExportLogs, nil); !errors.Is(err, circlebox.ErrNotStarted) {
		t.Errorf("export before start: got %v, want ErrNotStarted", err)
	}
	if _, err := table.Dispatch(MethodBreadcrumb, []byte{0xff}); err == nil {
		t.Error("malformed request should fail")
	}
}

func TestProcessHandle(t *testing.T) {
	if _, err := Dispatch(MethodHasPendingCrashReport, nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Dispatch before Init: got %v, want ErrNotInitialized", err)
	}

	directory := t.TempDir()
	first := Init(circlebox.Options{Directory: directory, Collectors: circlebox.NoCollectors})
	second := Init(circlebox.Options{Directory: t.TempDir()})
	if first.ABIVersion != ABIVersion || second.ABIVersion != ABIVersion {
		t.Fatal("Init returned a table without an ABI version")
	}

	if _, err := Dispatch(MethodStart, mustMarshal(t, startRequest)); err != nil {
		t.Fatalf("Dispatch start: %v", err)
	}
	response, err := Dispatch(MethodExportLogs, mustMarshal(t, ExportLogsRequest{Formats: []string{"json"}}))
	if err != nil {
		t.Fatalf("Dispatch exportLogs: %v", err)
	}
	var exported ExportLogsResponse
	if err := codec.Unmarshal(response, &exported); err != nil {
		t.Fatal(err)
	}
	if len(exported.Paths) != 1 || !strings.HasPrefix(exported.Paths[0], directory) {
		t.Errorf("export went to %v, want under the first Init's directory %s", exported.Paths, directory)
	}

	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	if _, err := Current(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Current after Shutdown: got %v", err)
	}
}
