// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/cli"
	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/filestore"
)

func exportCommand() *cli.Command {
	var (
		formats   []string
		directory string
	)

	return &cli.Command{
		Name:    "export",
		Summary: "Render an envelope to export formats",
		Description: `Render a stored envelope to one or more export formats and write
one file per format into --out.

Formats are json, csv, json_gzip, csv_gzip, and summary (the dotted
extension spellings json.gz, csv.gz, and summary.json are accepted
too). Without --format every format is written. Files are written in
canonical format order and named circlebox-<generated_at>-<session>.<ext>.`,
		Usage: "circlebox export [flags] <file>",
		Examples: []cli.Example{
			{
				Description: "Produce a CSV and a summary of the pending report",
				Command:     "circlebox export --format csv --format summary --out /tmp/triage pending/latest.circlebox",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("export", pflag.ContinueOnError)
			flagSet.StringSliceVarP(&formats, "format", "f", nil, "export format (repeatable or comma-separated)")
			flagSet.StringVarP(&directory, "out", "o", ".", "output directory")
			return flagSet
		},
		Run: func(args []string) error {
			selected, err := parseFormats(formats)
			if err != nil {
				return err
			}
			loaded, err := loadEnvelope("export", args)
			if err != nil {
				return err
			}
			paths, err := exportEnvelope(loaded, selected, directory)
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Println(path)
			}
			return nil
		},
	}
}

// parseFormats validates format names and returns them in canonical
// order. No names selects every format.
func parseFormats(names []string) ([]event.Format, error) {
	var parsed []event.Format
	for _, name := range names {
		format, err := event.ParseFormat(name)
		if err != nil {
			return nil, cli.Validation("%w", err).WithHint("Valid formats: json, csv, json_gzip, csv_gzip, summary.")
		}
		parsed = append(parsed, format)
	}
	return event.CanonicalFormats(parsed), nil
}

// exportEnvelope renders loaded once per format into directory and
// returns the written paths in format order.
func exportEnvelope(loaded event.Envelope, formats []event.Format, directory string) ([]string, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, cli.Internal("creating %s: %w", directory, err)
	}
	stem := exportStem(loaded)

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, err := envelope.Render(loaded, format)
		if err != nil {
			return nil, cli.Internal("rendering %s: %w", format, err)
		}
		path := filepath.Join(directory, stem+"."+format.Extension())
		if err := filestore.WriteAtomic(path, data); err != nil {
			if errors.Is(err, os.ErrPermission) {
				return nil, cli.Validation("writing %s: %w", path, err)
			}
			return nil, cli.Internal("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// exportStem names exports after the envelope, so re-exporting the
// same file replaces the earlier output.
func exportStem(loaded event.Envelope) string {
	session := strings.Map(func(r rune) rune {
		if r == '-' || r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, loaded.SessionID)
	if len(session) > 8 {
		session = session[:8]
	}
	if session == "" {
		session = "unknown"
	}
	return fmt.Sprintf("circlebox-%d-%s", loaded.GeneratedAtUnixMs, session)
}
