// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"fmt"

	"github.com/bureau-foundation/circlebox/lib/event"
)

// Render produces the bytes of one export format. The summary format
// uses the envelope's own export source and DefaultMaxRecent.
func Render(envelope event.Envelope, format event.Format) ([]byte, error) {
	switch format {
	case event.FormatJSON:
		return Encode(envelope)
	case event.FormatCSV:
		return CSV(envelope), nil
	case event.FormatJSONGzip:
		data, err := Encode(envelope)
		if err != nil {
			return nil, err
		}
		return Gzip(data)
	case event.FormatCSVGzip:
		return Gzip(CSV(envelope))
	case event.FormatSummary:
		return EncodeSummary(envelope, "", DefaultMaxRecent)
	default:
		return nil, fmt.Errorf("%w: %q", event.ErrUnknownFormat, format)
	}
}
