// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crash

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/filestore"
	"github.com/bureau-foundation/circlebox/lib/signalmarker"
	"github.com/bureau-foundation/circlebox/lib/testutil"
)

type panicRecorder struct {
	mutex   sync.Mutex
	details []string
	panics  bool
}

func (recorder *panicRecorder) RecordPanic(details string) {
	recorder.mutex.Lock()
	recorder.details = append(recorder.details, details)
	recorder.mutex.Unlock()
	if recorder.panics {
		panic("recorder failure")
	}
}

// runCapture calls fn under Capture and returns what escaped.
func runCapture(recorder PanicRecorder, fn func()) (escaped any) {
	defer func() { escaped = recover() }()
	defer Capture(recorder)
	fn()
	return nil
}

func TestCaptureRecordsAndRepanics(t *testing.T) {
	t.Parallel()

	recorder := &panicRecorder{}
	original := errors.New("boom")
	escaped := runCapture(recorder, func() { panic(original) })

	if escaped != original {
		t.Errorf("escaped panic: got %v, want the original error", escaped)
	}
	if len(recorder.details) != 1 || recorder.details[0] != "*errors.errorString: boom" {
		t.Errorf("recorded details: got %q", recorder.details)
	}
}

func TestCaptureWithoutPanic(t *testing.T) {
	t.Parallel()

	recorder := &panicRecorder{}
	if escaped := runCapture(recorder, func() {}); escaped != nil {
		t.Errorf("escaped: got %v, want nil", escaped)
	}
	if len(recorder.details) != 0 {
		t.Errorf("recorded %q without a panic", recorder.details)
	}
}

func TestCaptureSwallowsRecorderPanic(t *testing.T) {
	t.Parallel()

	recorder := &panicRecorder{panics: true}
	escaped := runCapture(recorder, func() { panic("original") })
	if escaped != "original" {
		t.Errorf("escaped panic: got %v, want %q", escaped, "original")
	}
	if len(recorder.details) != 1 || recorder.details[0] != "string: original" {
		t.Errorf("recorded details: got %q", recorder.details)
	}
}

func TestCaptureNilRecorder(t *testing.T) {
	t.Parallel()

	if escaped := runCapture(nil, func() { panic(42) }); escaped != 42 {
		t.Errorf("escaped panic: got %v, want 42", escaped)
	}
}

func TestGoRunsFunction(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	Go(&panicRecorder{}, func() { close(done) })
	testutil.RequireClosed(t, done, 5*time.Second, "goroutine did not run")
}

func TestDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value any
		want  string
	}{
		{"plain", "string: plain"},
		{7, "int: 7"},
		{errors.New("failed"), "*errors.errorString: failed"},
	}
	for _, test := range tests {
		if got := Details(test.value); got != test.want {
			t.Errorf("Details(%v): got %q, want %q", test.value, got, test.want)
		}
	}
}

func openStore(t *testing.T) *filestore.Store {
	t.Helper()
	store, err := filestore.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func writeMarker(t *testing.T, store *filestore.Store, signal int32, timestampUnixMs int64) {
	t.Helper()
	encoded := signalmarker.Encode(signalmarker.Marker{Signal: signal, TimestampUnixMs: timestampUnixMs})
	if err := os.WriteFile(store.MarkerPath(), encoded[:], 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestRecoverMarkerFromCheckpoint(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	before := event.Event{
		Seq:             7,
		TimestampUnixMs: 100,
		UptimeMs:        120,
		Type:            event.TypeBreadcrumb,
		Thread:          event.ThreadMain,
		Severity:        event.SeverityInfo,
		Attrs:           map[string]string{"message": "before crash"},
	}
	if err := store.WriteCheckpoint(testutil.Envelope(before)); err != nil {
		t.Fatal(err)
	}
	writeMarker(t, store, 6, 777)

	now := time.UnixMilli(testutil.FixtureEpochMs + 5000)
	result, err := RecoverMarker(store, nil, now)
	if err != nil {
		t.Fatalf("RecoverMarker: %v", err)
	}
	if result.Action != ActionReconstructed {
		t.Fatalf("Action: got %q, want %q", result.Action, ActionReconstructed)
	}

	if _, found, _ := store.ReadMarker(); found {
		t.Error("marker still present after recovery")
	}
	if _, found, _ := store.ReadCheckpoint(); found {
		t.Error("checkpoint still present after recovery")
	}

	pending, found, err := store.ReadPending()
	if err != nil || !found {
		t.Fatalf("ReadPending: found=%v err=%v", found, err)
	}
	if len(pending.Events) != 2 {
		t.Fatalf("pending events: got %d, want 2", len(pending.Events))
	}
	if pending.ExportSource != event.SourcePendingCrash {
		t.Errorf("ExportSource: got %q", pending.ExportSource)
	}
	if pending.CaptureReason != event.ReasonStartupPendingDetection {
		t.Errorf("CaptureReason: got %q", pending.CaptureReason)
	}
	if pending.SchemaVersion != event.CurrentSchemaVersion {
		t.Errorf("SchemaVersion: got %d", pending.SchemaVersion)
	}
	if pending.SessionID != testutil.Environment().SessionID {
		t.Errorf("SessionID: got %q, want checkpoint session", pending.SessionID)
	}
	if pending.GeneratedAtUnixMs != now.UnixMilli() {
		t.Errorf("GeneratedAtUnixMs: got %d, want %d", pending.GeneratedAtUnixMs, now.UnixMilli())
	}

	crashed := pending.Events[1]
	if crashed.Seq != 8 {
		t.Errorf("crash seq: got %d, want 8", crashed.Seq)
	}
	if crashed.Type != event.TypeCrash || crashed.Thread != event.ThreadCrash || crashed.Severity != event.SeverityFatal {
		t.Errorf("crash event kind: got %s/%s/%s", crashed.Type, crashed.Thread, crashed.Severity)
	}
	if crashed.TimestampUnixMs != 777 {
		t.Errorf("crash timestamp: got %d, want 777", crashed.TimestampUnixMs)
	}
	if crashed.Attrs["signal"] != signalmarker.SignalName(6) {
		t.Errorf("signal attr: got %q", crashed.Attrs["signal"])
	}
	if crashed.Attrs["signal_number"] != "6" {
		t.Errorf("signal_number attr: got %q", crashed.Attrs["signal_number"])
	}
	if result.Envelope.LastSeq() != 8 {
		t.Errorf("result envelope LastSeq: got %d, want 8", result.Envelope.LastSeq())
	}
}

func TestRecoverMarkerKeepsExistingPending(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	existing := testutil.Envelope()
	existing.ExportSource = event.SourcePendingCrash
	existing.CaptureReason = event.ReasonUncaughtException
	if err := store.WritePending(existing); err != nil {
		t.Fatal(err)
	}
	writeMarker(t, store, 11, 1)

	result, err := RecoverMarker(store, nil, time.UnixMilli(testutil.FixtureEpochMs))
	if err != nil {
		t.Fatalf("RecoverMarker: %v", err)
	}
	if result.Action != ActionPendingKept {
		t.Errorf("Action: got %q, want %q", result.Action, ActionPendingKept)
	}
	if _, found, _ := store.ReadMarker(); found {
		t.Error("stray marker not removed")
	}
	pending, found, err := store.ReadPending()
	if err != nil || !found {
		t.Fatalf("ReadPending: found=%v err=%v", found, err)
	}
	if pending.CaptureReason != event.ReasonUncaughtException || len(pending.Events) != 0 {
		t.Errorf("pending report was modified: %+v", pending)
	}
}

func TestRecoverMarkerUsesFallbackWithoutCheckpoint(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	writeMarker(t, store, 11, 42)

	fallback := func() event.Envelope { return testutil.Envelope() }
	result, err := RecoverMarker(store, fallback, time.UnixMilli(testutil.FixtureEpochMs))
	if err != nil {
		t.Fatalf("RecoverMarker: %v", err)
	}
	if result.Action != ActionReconstructed {
		t.Fatalf("Action: got %q", result.Action)
	}
	if len(result.Envelope.Events) != 1 || result.Envelope.Events[0].Seq != 0 {
		t.Errorf("events: got %+v, want one crash event at seq 0", result.Envelope.Events)
	}
	if result.Envelope.DeviceModel != testutil.Environment().DeviceModel {
		t.Errorf("DeviceModel: got %q, want fallback environment", result.Envelope.DeviceModel)
	}
}

func TestRecoverMarkerNothing(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	result, err := RecoverMarker(store, nil, time.Now())
	if err != nil {
		t.Fatalf("RecoverMarker: %v", err)
	}
	if result.Action != ActionNothing {
		t.Errorf("Action: got %q, want %q", result.Action, ActionNothing)
	}
	if store.HasPending() {
		t.Error("pending report created without a marker")
	}
}

func TestRecoverMarkerDiscardsTruncatedMarker(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	if err := os.WriteFile(store.MarkerPath(), []byte{6, 0, 0}, 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := RecoverMarker(store, nil, time.Now())
	if err == nil {
		t.Error("expected an error for a truncated marker")
	}
	if result.Action != ActionNothing {
		t.Errorf("Action: got %q", result.Action)
	}
	if _, statErr := os.Stat(store.MarkerPath()); !os.IsNotExist(statErr) {
		t.Error("truncated marker not removed")
	}
}

func TestAdoptCrashOutput(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	if err := store.WriteCheckpoint(testutil.Envelope(testutil.Breadcrumb(0, "a"), testutil.Breadcrumb(1, "b"))); err != nil {
		t.Fatal(err)
	}
	output := "\npanic: assignment to entry in nil map\n\ngoroutine 1 [running]:\nmain.main()\n"
	if err := os.WriteFile(store.CrashOutputPath(), []byte(output), 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := AdoptCrashOutput(store, nil, time.UnixMilli(testutil.FixtureEpochMs))
	if err != nil {
		t.Fatalf("AdoptCrashOutput: %v", err)
	}
	if result.Action != ActionReconstructed {
		t.Fatalf("Action: got %q", result.Action)
	}
	crashed := result.Envelope.Events[len(result.Envelope.Events)-1]
	if crashed.Seq != 2 {
		t.Errorf("crash seq: got %d, want 2", crashed.Seq)
	}
	if crashed.Attrs["details"] != "panic: assignment to entry in nil map" {
		t.Errorf("details: got %q", crashed.Attrs["details"])
	}
	if _, statErr := os.Stat(store.CrashOutputPath()); !os.IsNotExist(statErr) {
		t.Error("crash output not removed after adoption")
	}
	if !store.HasPending() {
		t.Error("no pending report after adoption")
	}
}

func TestAdoptCrashOutputEmptyLog(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	if err := os.WriteFile(store.CrashOutputPath(), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := AdoptCrashOutput(store, nil, time.Now())
	if err != nil {
		t.Fatalf("AdoptCrashOutput: %v", err)
	}
	if result.Action != ActionNothing {
		t.Errorf("Action: got %q", result.Action)
	}
	if _, statErr := os.Stat(store.CrashOutputPath()); !os.IsNotExist(statErr) {
		t.Error("empty crash output not removed")
	}
	if store.HasPending() {
		t.Error("empty crash output produced a pending report")
	}
}

func TestAdoptCrashOutputKeepsExistingPending(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	if err := store.WritePending(testutil.Envelope()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.CrashOutputPath(), []byte("fatal error: concurrent map writes\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := AdoptCrashOutput(store, nil, time.Now())
	if err != nil {
		t.Fatalf("AdoptCrashOutput: %v", err)
	}
	if result.Action != ActionPendingKept {
		t.Errorf("Action: got %q", result.Action)
	}
	if _, statErr := os.Stat(store.CrashOutputPath()); !os.IsNotExist(statErr) {
		t.Error("crash output not removed")
	}
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	if got := FirstLine([]byte("  \n\tfirst  \nsecond"), 256); got != "first" {
		t.Errorf("FirstLine: got %q, want %q", got, "first")
	}
	if got := FirstLine([]byte(strings.Repeat("é", 300)), 256); len([]rune(got)) != 256 {
		t.Errorf("FirstLine rune length: got %d, want 256", len([]rune(got)))
	}
	if got := FirstLine(nil, 10); got != "" {
		t.Errorf("FirstLine(nil): got %q", got)
	}
}
