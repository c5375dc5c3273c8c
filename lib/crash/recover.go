// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crash

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/filestore"
	"github.com/bureau-foundation/circlebox/lib/signalmarker"
)

// Action says what a recovery pass did.
type Action string

const (
	// ActionNothing means there was no crash trace to recover.
	ActionNothing Action = "nothing"

	// ActionPendingKept means a pending report already existed. It
	// wins over any newer trace, which was discarded.
	ActionPendingKept Action = "pending_kept"

	// ActionReconstructed means a new pending report was built from
	// the checkpoint and a synthesized crash event.
	ActionReconstructed Action = "reconstructed"
)

// Result describes the outcome of RecoverMarker or AdoptCrashOutput.
// Envelope is set only for ActionReconstructed.
type Result struct {
	Action   Action
	Envelope event.Envelope
}

// MaxDetailsLength bounds the details attribute taken from Go crash
// output.
const MaxDetailsLength = 256

// RecoverMarker converts a signal marker left by a previous process
// into a pending crash report.
//
// An existing pending report takes precedence: the marker is deleted
// and the pending report is left untouched. Otherwise the report is
// built from the checkpoint (or fallback() when there is none) with a
// fatal crash event appended at the next sequence number, carrying the
// marker's timestamp and the signal name and number. On success the
// marker and the checkpoint are both removed.
//
// A marker too short to decode is removed and reported as an error
// with ActionNothing.
func RecoverMarker(store *filestore.Store, fallback func() event.Envelope, now time.Time) (Result, error) {
	marker, found, err := store.ReadMarker()
	if err != nil {
		clearErr := store.ClearMarker()
		return Result{Action: ActionNothing}, errors.Join(fmt.Errorf("discarding signal marker: %w", err), clearErr)
	}
	if store.HasPending() {
		if found {
			if err := store.ClearMarker(); err != nil {
				return Result{Action: ActionPendingKept}, err
			}
		}
		return Result{Action: ActionPendingKept}, nil
	}
	if !found {
		return Result{Action: ActionNothing}, nil
	}

	crashEvent := func(seq int64) event.Event {
		return event.Event{
			Seq:             seq,
			TimestampUnixMs: marker.TimestampUnixMs,
			UptimeMs:        0,
			Type:            event.TypeCrash,
			Thread:          event.ThreadCrash,
			Severity:        event.SeverityFatal,
			Attrs: map[string]string{
				"signal":        signalmarker.SignalName(marker.Signal),
				"signal_number": strconv.FormatInt(int64(marker.Signal), 10),
			},
		}
	}
	report, err := reconstruct(store, fallback, crashEvent, now)
	if err != nil {
		return Result{Action: ActionNothing}, err
	}
	if err := store.ClearMarker(); err != nil {
		return Result{Action: ActionReconstructed, Envelope: report}, err
	}
	return Result{Action: ActionReconstructed, Envelope: report}, nil
}

// AdoptCrashOutput converts Go runtime crash output captured by a
// previous process (see debug.SetCrashOutput) into a pending crash
// report. An empty log is removed without further action, and an
// existing pending report wins exactly as in RecoverMarker.
//
// The synthesized crash event uses the log's modification time as its
// timestamp and carries the first line of the output, truncated to
// MaxDetailsLength runes, as its details attribute.
func AdoptCrashOutput(store *filestore.Store, fallback func() event.Envelope, now time.Time) (Result, error) {
	path := store.CrashOutputPath()
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Action: ActionNothing}, nil
		}
		return Result{Action: ActionNothing}, fmt.Errorf("inspecting crash output: %w", err)
	}
	if info.Size() == 0 {
		return Result{Action: ActionNothing}, removeCrashOutput(path)
	}
	if store.HasPending() {
		return Result{Action: ActionPendingKept}, removeCrashOutput(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Action: ActionNothing}, fmt.Errorf("reading crash output: %w", err)
	}
	details := FirstLine(data, MaxDetailsLength)
	crashEvent := func(seq int64) event.Event {
		return event.Event{
			Seq:             seq,
			TimestampUnixMs: info.ModTime().UnixMilli(),
			UptimeMs:        0,
			Type:            event.TypeCrash,
			Thread:          event.ThreadCrash,
			Severity:        event.SeverityFatal,
			Attrs:           map[string]string{"details": details},
		}
	}
	report, err := reconstruct(store, fallback, crashEvent, now)
	if err != nil {
		return Result{Action: ActionNothing}, err
	}
	return Result{Action: ActionReconstructed, Envelope: report}, removeCrashOutput(path)
}

// FirstLine returns the first non-blank line of output with
// surrounding whitespace trimmed, cut to at most maxRunes runes.
func FirstLine(output []byte, maxRunes int) string {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxRunes {
			line = string([]rune(line)[:maxRunes])
		}
		return line
	}
	return ""
}

// reconstruct writes a pending report made of the checkpoint (or the
// fallback envelope) plus one crash event, then removes the
// checkpoint. An unreadable checkpoint counts as absent.
func reconstruct(store *filestore.Store, fallback func() event.Envelope, crashEvent func(seq int64) event.Event, now time.Time) (event.Envelope, error) {
	base, found, err := store.ReadCheckpoint()
	if err != nil || !found {
		base = event.Envelope{}
		if fallback != nil {
			base = fallback()
		}
	}

	events := slices.Clone(base.Events)
	events = append(events, crashEvent(base.LastSeq()+1))
	report := event.NewEnvelope(
		base.Environment(),
		event.SourcePendingCrash,
		event.ReasonStartupPendingDetection,
		now.UnixMilli(),
		events,
	)
	if err := store.WritePending(report); err != nil {
		return event.Envelope{}, fmt.Errorf("writing reconstructed crash report: %w", err)
	}
	// A checkpoint that survives here is overwritten by the next
	// session's first event, and the pending report now wins anyway.
	_ = store.ClearCheckpoint()
	return report, nil
}

func removeCrashOutput(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing crash output: %w", err)
	}
	return nil
}
