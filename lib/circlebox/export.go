// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package circlebox

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
)

// ExportLogs writes one file per requested format and returns their
// paths. With no formats it writes every format. Duplicates are
// ignored and files are produced in canonical order (json, csv,
// json_gzip, csv_gzip, summary) whatever order the caller used.
//
// A pending crash report takes precedence over the live buffer. It is
// normalized first: an old report without an export source or capture
// reason is treated as pending_crash/startup_pending_detection. The
// pending report is not cleared; call ClearPendingCrashReport once the
// export has been delivered.
//
// Formats render concurrently. If any render or write fails, ExportLogs
// returns the error together with the paths written before it.
func (r *Runtime) ExportLogs(formats ...event.Format) ([]string, error) {
	st, err := r.active()
	if err != nil {
		return nil, err
	}
	for _, format := range formats {
		if !format.IsValid() {
			return nil, fmt.Errorf("%w: %q", event.ErrUnknownFormat, format)
		}
	}
	formats = event.CanonicalFormats(formats)

	report := st.exportEnvelope()

	rendered := make([][]byte, len(formats))
	var group errgroup.Group
	for index, format := range formats {
		group.Go(func() error {
			data, err := envelope.Render(report, format)
			if err != nil {
				st.metrics.Exported(format, err)
				return fmt.Errorf("rendering %s export: %w", format, err)
			}
			rendered[index] = data
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	now := st.clock.Now()
	paths := make([]string, 0, len(formats))
	for index, format := range formats {
		path, err := st.store.WriteExport(format, rendered[index], now)
		st.metrics.Exported(format, err)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	st.logger.Info("exported logs",
		"export_source", report.ExportSource,
		"events", len(report.Events),
		"files", len(paths),
	)
	return paths, nil
}

// exportEnvelope returns the pending crash report when one is
// readable, otherwise a live snapshot of the buffer.
func (st *state) exportEnvelope() event.Envelope {
	pending, found, err := st.store.ReadPending()
	if err != nil {
		st.logger.Warn("reading pending crash report failed, exporting live snapshot", "error", err)
	}
	if found {
		return envelope.Normalize(pending, event.SourcePendingCrash, event.ReasonStartupPendingDetection)
	}
	return st.snapshot(event.SourceLiveSnapshot, event.ReasonManualExport)
}
