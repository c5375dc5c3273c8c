// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/cli"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/integration"
)

// loadEnvelope reads the single file argument of commands that take
// one envelope.
func loadEnvelope(command string, args []string) (event.Envelope, error) {
	if len(args) != 1 {
		return event.Envelope{}, cli.Validation("%s takes exactly one file argument, got %d", command, len(args))
	}
	loaded, err := integration.LoadExport(args[0])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return event.Envelope{}, cli.NotFound("%s: no such file", args[0])
		}
		return event.Envelope{}, cli.Internal("%s: %w", args[0], err)
	}
	return loaded, nil
}

// colorMode is the value of a --color flag.
type colorMode string

const (
	colorAuto   colorMode = "auto"
	colorAlways colorMode = "always"
	colorNever  colorMode = "never"
)

// enabled resolves auto against whether stdout is a terminal.
func (mode colorMode) enabled(terminal bool) (bool, error) {
	switch mode {
	case colorAuto:
		return terminal, nil
	case colorAlways:
		return true, nil
	case colorNever:
		return false, nil
	default:
		return false, cli.Validation("--color must be auto, always, or never, got %q", string(mode))
	}
}

func addColorFlag(flagSet *pflag.FlagSet, mode *string) {
	flagSet.StringVar(mode, "color", string(colorAuto), "colorize output: auto, always, or never")
}

// stdoutColor resolves a --color value for writing to os.Stdout.
func stdoutColor(mode string) (bool, error) {
	return colorMode(mode).enabled(cli.IsTerminal(os.Stdout))
}
