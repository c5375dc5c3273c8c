// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/cli"
	"github.com/bureau-foundation/circlebox/lib/version"
)

// Root builds and returns the complete circlebox CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "circlebox",
		Description: `circlebox: inspect and recover CircleBox crash context.

Decode, summarize, re-export, and browse envelopes written by an
embedded CircleBox runtime, and run its startup crash recovery from the
outside.`,
		Subcommands: []*cli.Command{
			decodeCommand(),
			inspectCommand(),
			exportCommand(),
			viewCommand(),
			pendingCommand(),
			recoverCommand(),
			configCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("circlebox %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
