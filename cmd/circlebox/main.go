// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/commands"
	"github.com/bureau-foundation/circlebox/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// Commands that print their own output (like pending) return
		// an ExitError with the desired exit code. Don't print a
		// redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 1 && args[0] == "--version" {
		fmt.Printf("circlebox %s\n", version.Info())
		return nil
	}
	return commands.Root().Execute(args)
}
