// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filestore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/framing"
	"github.com/bureau-foundation/circlebox/lib/signalmarker"
)

// File and directory names under the base directory.
const (
	PendingDirectory = "pending"
	ExportsDirectory = "exports"

	PendingFile     = "latest.circlebox"
	CheckpointFile  = "checkpoint.circlebox"
	MarkerFile      = "signal.marker"
	CrashOutputFile = "go-crash.log"
)

// Store manages the files under one CircleBox base directory. A Store
// holds no open files between calls and is safe for concurrent use;
// concurrent writers to the same destination each replace it
// atomically and the last rename wins.
type Store struct {
	base    string
	pending string
	exports string
	logger  *slog.Logger
}

// Open prepares base for use, creating the pending and exports
// directories if needed. A nil logger discards log output.
func Open(base string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store := &Store{
		base:    base,
		pending: filepath.Join(base, PendingDirectory),
		exports: filepath.Join(base, ExportsDirectory),
		logger:  logger.With("component", "filestore"),
	}
	for _, directory := range []string{store.pending, store.exports} {
		if err := os.MkdirAll(directory, 0o700); err != nil {
			return nil, fmt.Errorf("creating %s: %w", directory, err)
		}
	}
	return store, nil
}

// Base returns the base directory.
func (store *Store) Base() string { return store.base }

// PendingPath returns the path of the pending crash report.
func (store *Store) PendingPath() string { return filepath.Join(store.pending, PendingFile) }

// CheckpointPath returns the path of the checkpoint envelope.
func (store *Store) CheckpointPath() string { return filepath.Join(store.pending, CheckpointFile) }

// MarkerPath returns the path the signal marker handler writes to.
func (store *Store) MarkerPath() string { return filepath.Join(store.pending, MarkerFile) }

// CrashOutputPath returns the file that receives Go runtime crash
// output.
func (store *Store) CrashOutputPath() string { return filepath.Join(store.pending, CrashOutputFile) }

// ExportsPath returns the exports directory.
func (store *Store) ExportsPath() string { return store.exports }

// WritePending persists report as the pending crash report.
func (store *Store) WritePending(report event.Envelope) error {
	return store.writeEnvelope(store.PendingPath(), report)
}

// ReadPending loads the pending crash report. Returns false without an
// error when the file is missing or cannot be decoded; an undecodable
// report is logged and treated as absent.
func (store *Store) ReadPending() (event.Envelope, bool, error) {
	return store.readEnvelope(store.PendingPath())
}

// HasPending reports whether a pending crash report file exists.
func (store *Store) HasPending() bool {
	_, err := os.Stat(store.PendingPath())
	return err == nil
}

// ClearPending removes the pending crash report. Idempotent.
func (store *Store) ClearPending() error {
	return removeIfExists(store.PendingPath())
}

// WriteCheckpoint persists report as the latest checkpoint.
func (store *Store) WriteCheckpoint(report event.Envelope) error {
	return store.writeEnvelope(store.CheckpointPath(), report)
}

// ReadCheckpoint loads the latest checkpoint with the same absence
// rules as ReadPending.
func (store *Store) ReadCheckpoint() (event.Envelope, bool, error) {
	return store.readEnvelope(store.CheckpointPath())
}

// ClearCheckpoint removes the checkpoint. Idempotent.
func (store *Store) ClearCheckpoint() error {
	return removeIfExists(store.CheckpointPath())
}

// ReadMarker loads the signal marker. Returns false when no marker
// exists. A marker too short to decode is returned as an error so the
// caller can decide whether to discard it.
func (store *Store) ReadMarker() (signalmarker.Marker, bool, error) {
	data, err := os.ReadFile(store.MarkerPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return signalmarker.Marker{}, false, nil
		}
		return signalmarker.Marker{}, false, fmt.Errorf("reading signal marker: %w", err)
	}
	marker, err := signalmarker.Decode(data)
	if err != nil {
		return signalmarker.Marker{}, false, err
	}
	return marker, true, nil
}

// ClearMarker removes the signal marker. Idempotent.
func (store *Store) ClearMarker() error {
	return removeIfExists(store.MarkerPath())
}

// WriteExport stores one rendered export and returns its path. The
// name is circlebox-<unix ms>-<8 random hex>.<extension>.
func (store *Store) WriteExport(format event.Format, data []byte, now time.Time) (string, error) {
	if err := os.MkdirAll(store.exports, 0o700); err != nil {
		return "", fmt.Errorf("creating exports directory: %w", err)
	}
	suffix := uuid.NewString()[:8]
	name := fmt.Sprintf("circlebox-%d-%s.%s", now.UnixMilli(), suffix, format.Extension())
	path := filepath.Join(store.exports, name)
	if err := WriteAtomic(path, data); err != nil {
		return "", fmt.Errorf("writing %s export: %w", format, err)
	}
	return path, nil
}

func (store *Store) writeEnvelope(path string, report event.Envelope) error {
	payload, err := envelope.Encode(report)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(store.pending, 0o700); err != nil {
		return fmt.Errorf("creating pending directory: %w", err)
	}
	return WriteAtomic(path, framing.Encode(payload))
}

func (store *Store) readEnvelope(path string) (event.Envelope, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return event.Envelope{}, false, nil
		}
		return event.Envelope{}, false, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	decoded, err := DecodeEnvelope(data)
	if err != nil {
		store.logger.Warn("discarding undecodable envelope file",
			"path", path,
			"size", len(data),
			"error", err,
		)
		return event.Envelope{}, false, nil
	}
	return decoded, true, nil
}

// DecodeEnvelope unwraps framing (or accepts legacy bare JSON) and
// decodes the envelope inside. Schema normalization is left to the
// caller, which knows whether the bytes came from a pending report.
func DecodeEnvelope(data []byte) (event.Envelope, error) {
	payload, err := framing.Decode(data)
	if err != nil {
		return event.Envelope{}, err
	}
	return envelope.Decode(payload)
}
