// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/signalmarker"
	"github.com/bureau-foundation/circlebox/lib/testutil"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func TestOpenCreatesLayout(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	for _, directory := range []string{PendingDirectory, ExportsDirectory} {
		info, err := os.Stat(filepath.Join(store.Base(), directory))
		if err != nil {
			t.Fatalf("stat %s: %v", directory, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", directory)
		}
	}
}

func TestPendingRoundTrip(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	if store.HasPending() {
		t.Fatal("fresh store reports a pending report")
	}
	if _, found, err := store.ReadPending(); found || err != nil {
		t.Fatalf("ReadPending on empty store: found=%v err=%v", found, err)
	}

	report := testutil.Envelope(testutil.Breadcrumb(0, "before crash"))
	report.ExportSource = event.SourcePendingCrash
	report.CaptureReason = event.ReasonUncaughtException
	if err := store.WritePending(report); err != nil {
		t.Fatalf("WritePending: %v", err)
	}
	if !store.HasPending() {
		t.Fatal("HasPending false after WritePending")
	}

	got, found, err := store.ReadPending()
	if err != nil || !found {
		t.Fatalf("ReadPending: found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(got, report) {
		t.Errorf("ReadPending:\ngot  %+v\nwant %+v", got, report)
	}

	if err := store.ClearPending(); err != nil {
		t.Fatalf("ClearPending: %v", err)
	}
	if err := store.ClearPending(); err != nil {
		t.Fatalf("second ClearPending: %v", err)
	}
	if store.HasPending() {
		t.Error("HasPending true after ClearPending")
	}
}

func TestPendingFileIsFramed(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	if err := store.WritePending(testutil.Envelope()); err != nil {
		t.Fatalf("WritePending: %v", err)
	}
	data, err := os.ReadFile(store.PendingPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 || data[0] == '{' {
		t.Errorf("pending file should start with a framing tag, got %q", data[:min(len(data), 8)])
	}
}

func TestLegacyJSONEqualsFramed(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	report := testutil.Envelope(testutil.Breadcrumb(3, "legacy"))
	payload, err := envelope.Encode(report)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.PendingPath(), payload, 0o600); err != nil {
		t.Fatal(err)
	}
	legacy, found, err := store.ReadPending()
	if err != nil || !found {
		t.Fatalf("ReadPending legacy: found=%v err=%v", found, err)
	}

	if err := store.WritePending(report); err != nil {
		t.Fatal(err)
	}
	framed, found, err := store.ReadPending()
	if err != nil || !found {
		t.Fatalf("ReadPending framed: found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(legacy, framed) {
		t.Errorf("legacy and framed decode differently:\nlegacy %+v\nframed %+v", legacy, framed)
	}
}

func TestCorruptCheckpointIsAbsent(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	if err := os.WriteFile(store.CheckpointPath(), []byte{0x08, 0x01, 0x12, 0xff}, 0o600); err != nil {
		t.Fatal(err)
	}
	_, found, err := store.ReadCheckpoint()
	if err != nil {
		t.Fatalf("ReadCheckpoint: %v", err)
	}
	if found {
		t.Error("corrupt checkpoint reported as found")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	report := testutil.Envelope(testutil.Breadcrumb(0, "a"), testutil.Breadcrumb(1, "b"))
	if err := store.WriteCheckpoint(report); err != nil {
		t.Fatalf("WriteCheckpoint: %v", err)
	}
	got, found, err := store.ReadCheckpoint()
	if err != nil || !found {
		t.Fatalf("ReadCheckpoint: found=%v err=%v", found, err)
	}
	if got.LastSeq() != 1 {
		t.Errorf("LastSeq: got %d, want 1", got.LastSeq())
	}
	if err := store.ClearCheckpoint(); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := store.ReadCheckpoint(); found {
		t.Error("checkpoint still present after ClearCheckpoint")
	}
}

func TestMarker(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	if _, found, err := store.ReadMarker(); found || err != nil {
		t.Fatalf("ReadMarker on empty store: found=%v err=%v", found, err)
	}
	encoded := signalmarker.Encode(signalmarker.Marker{Signal: 6, TimestampUnixMs: 777})
	if err := os.WriteFile(store.MarkerPath(), encoded[:], 0o600); err != nil {
		t.Fatal(err)
	}
	marker, found, err := store.ReadMarker()
	if err != nil || !found {
		t.Fatalf("ReadMarker: found=%v err=%v", found, err)
	}
	if marker.Signal != 6 || marker.TimestampUnixMs != 777 {
		t.Errorf("marker: got %+v", marker)
	}
	if err := store.ClearMarker(); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := store.ReadMarker(); found {
		t.Error("marker still present after ClearMarker")
	}
}

func TestWriteExportNaming(t *testing.T) {
	t.Parallel()
	store := openStore(t)

	now := time.UnixMilli(1_700_000_123_456)
	pattern := regexp.MustCompile(`^circlebox-1700000123456-[0-9a-f]{8}\.(json|csv|json\.gz|csv\.gz|summary\.json)$`)
	for _, format := range event.AllFormats {
		path, err := store.WriteExport(format, []byte("data"), now)
		if err != nil {
			t.Fatalf("WriteExport(%s): %v", format, err)
		}
		if filepath.Dir(path) != store.ExportsPath() {
			t.Errorf("export %s written outside exports directory", path)
		}
		name := filepath.Base(path)
		if !pattern.MatchString(name) {
			t.Errorf("export name %q does not match pattern", name)
		}
		if !strings.HasSuffix(name, "."+format.Extension()) {
			t.Errorf("export name %q lacks extension %q", name, format.Extension())
		}
	}
}

func TestWriteAtomicReplacesAndLeavesNoTemporaryFiles(t *testing.T) {
	t.Parallel()
	directory := t.TempDir()
	path := filepath.Join(directory, "target")

	if err := WriteAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteAtomic first: %v", err)
	}
	if err := WriteAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteAtomic second: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content: got %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		var names []string
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Errorf("directory holds %v, want only target", names)
	}
}

func TestWriteAtomicMissingDirectory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "missing", "target")
	if err := WriteAtomic(path, []byte("x")); err == nil {
		t.Error("WriteAtomic into a missing directory should fail")
	}
}

func TestAvailableDiskBytes(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	if got := store.AvailableDiskBytes(); got < -1 {
		t.Errorf("AvailableDiskBytes: got %d, want >= -1", got)
	}
}
