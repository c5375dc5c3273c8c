// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/cli"
	"github.com/bureau-foundation/circlebox/lib/config"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Check a configuration file",
		Description: `Load a configuration file, report every value the runtime would
clamp, and print the effective configuration as YAML.

With no argument the file named by $CIRCLEBOX_CONFIG is checked. Exits
1 when any value is out of range. The runtime itself never refuses to
start over such values; it clamps them silently.`,
		Usage: "circlebox config [file]",
		Examples: []cli.Example{
			{
				Description: "Check a deployment's config",
				Command:     "circlebox config /etc/app/circlebox.yaml",
			},
		},
		Run: func(args []string) error {
			var path string
			switch len(args) {
			case 0:
				path = os.Getenv("CIRCLEBOX_CONFIG")
				if path == "" {
					return cli.Validation("no file given and CIRCLEBOX_CONFIG is not set")
				}
			case 1:
				path = args[0]
			default:
				return cli.Validation("config takes at most one file argument, got %d", len(args))
			}
			return checkConfig(os.Stdout, path)
		},
	}
}

// checkConfig writes problems (if any) followed by the effective
// configuration.
func checkConfig(w io.Writer, path string) error {
	raw, err := config.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cli.NotFound("%s: no such file", path)
		}
		return cli.Validation("%w", err)
	}
	problems := raw.Validate()

	effective := *raw
	effective.Normalize()
	data, err := yaml.Marshal(&effective)
	if err != nil {
		return cli.Internal("encoding config: %w", err)
	}

	if problems != nil {
		fmt.Fprintf(w, "# %s has values that will be clamped:\n", path)
		for _, problem := range unjoin(problems) {
			fmt.Fprintf(w, "#   %s\n", problem)
		}
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if problems != nil {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
