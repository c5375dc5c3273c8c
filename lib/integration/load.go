// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package integration

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/filestore"
)

// LoadExport reads an envelope from a JSON export, a gzipped JSON
// export, or a persisted .circlebox file (framed or legacy JSON). The
// result is normalized: the pending report file falls back to
// pending_crash/startup_pending_detection, anything else to
// live_snapshot/manual_export.
func LoadExport(path string) (event.Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return event.Envelope{}, fmt.Errorf("reading export: %w", err)
	}
	return Parse(data, filepath.Base(path) == filestore.PendingFile)
}

// Parse decodes export bytes the way LoadExport does. pending selects
// the pending-report normalization fallbacks.
func Parse(data []byte, pending bool) (event.Envelope, error) {
	if envelope.IsGzip(data) {
		inflated, err := envelope.Gunzip(data)
		if err != nil {
			return event.Envelope{}, fmt.Errorf("decompressing export: %w", err)
		}
		data = inflated
	}
	decoded, err := filestore.DecodeEnvelope(data)
	if err != nil {
		return event.Envelope{}, err
	}
	if pending {
		return envelope.Normalize(decoded, event.SourcePendingCrash, event.ReasonStartupPendingDetection), nil
	}
	return envelope.Normalize(decoded, event.SourceLiveSnapshot, event.ReasonManualExport), nil
}
