// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownFormat is returned by ParseFormat for unrecognized names.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export output format. The declaration order of the
// constants is the canonical order in which exports are produced.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatJSONGzip Format = "json_gzip"
	FormatCSVGzip  Format = "csv_gzip"
	FormatSummary  Format = "summary"
)

// AllFormats lists every format in canonical export order.
var AllFormats = []Format{FormatJSON, FormatCSV, FormatJSONGzip, FormatCSVGzip, FormatSummary}

// Extension returns the file extension (without leading dot) used for
// exported files of this format.
func (format Format) Extension() string {
	switch format {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatJSONGzip:
		return "json.gz"
	case FormatCSVGzip:
		return "csv.gz"
	case FormatSummary:
		return "summary.json"
	default:
		return "bin"
	}
}

// IsValid reports whether format is a known format.
func (format Format) IsValid() bool {
	return slices.Contains(AllFormats, format)
}

// ParseFormat converts a name into a Format. Both the canonical names
// and the dotted extension spellings ("json.gz") are accepted.
func ParseFormat(name string) (Format, error) {
	for _, format := range AllFormats {
		if name == string(format) || name == format.Extension() {
			return format, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// CanonicalFormats deduplicates formats and returns them in canonical
// export order. An empty input selects every format. Unknown formats
// are dropped.
func CanonicalFormats(formats []Format) []Format {
	if len(formats) == 0 {
		return slices.Clone(AllFormats)
	}
	var ordered []Format
	for _, format := range AllFormats {
		if slices.Contains(formats, format) {
			ordered = append(ordered, format)
		}
	}
	return ordered
}
