// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/cli"
	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
)

func decodeCommand() *cli.Command {
	var (
		compact bool
		color   string
	)

	return &cli.Command{
		Name:    "decode",
		Summary: "Print an envelope as JSON",
		Description: `Read an envelope and write it to stdout as schema v2 JSON.

Accepts persisted .circlebox files (framed or legacy bare JSON), .json
exports, and .json.gz exports. Legacy schema v1 documents are upgraded
on the way through: latest.circlebox gets the pending-crash export
source, anything else the live-snapshot source.

Output is pretty-printed with 2-space indentation unless --compact is
given. With --color=auto (the default), JSON is syntax-highlighted when
stdout is a terminal.`,
		Usage: "circlebox decode [flags] <file>",
		Examples: []cli.Example{
			{
				Description: "Print the pending crash report",
				Command:     "circlebox decode /var/lib/app/circlebox/pending/latest.circlebox",
			},
			{
				Description: "Decode a compressed export for jq",
				Command:     "circlebox decode --compact circlebox-1700000000000-1a2b3c4d.json.gz | jq .events",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			flagSet.BoolVarP(&compact, "compact", "c", false, "compact output (no indentation)")
			addColorFlag(flagSet, &color)
			return flagSet
		},
		Run: func(args []string) error {
			loaded, err := loadEnvelope("decode", args)
			if err != nil {
				return err
			}
			highlight, err := stdoutColor(color)
			if err != nil {
				return err
			}
			return writeEnvelopeJSON(os.Stdout, loaded, compact, highlight)
		},
	}
}

// writeEnvelopeJSON writes loaded as JSON with a trailing newline.
func writeEnvelopeJSON(w io.Writer, loaded event.Envelope, compact, highlight bool) error {
	output, err := envelope.Encode(loaded)
	if err != nil {
		return cli.Internal("encoding envelope: %w", err)
	}
	if compact {
		var compacted bytes.Buffer
		if err := json.Compact(&compacted, output); err != nil {
			return cli.Internal("compacting envelope: %w", err)
		}
		output = compacted.Bytes()
	}

	if highlight {
		var colored bytes.Buffer
		if err := quick.Highlight(&colored, string(output), "json", "terminal256", "monokai"); err == nil {
			output = colored.Bytes()
		}
	}

	_, err = fmt.Fprintln(w, string(bytes.TrimRight(output, "\n")))
	return err
}
