// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/cli"
	"github.com/bureau-foundation/circlebox/lib/config"
	"github.com/bureau-foundation/circlebox/lib/filestore"
)

// directoryFlags are shared by commands that operate on a base
// directory rather than a single file.
type directoryFlags struct {
	directory  string
	configPath string
	verbose    bool
}

func (flags *directoryFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&flags.directory, "dir", "d", "", "CircleBox base directory (default: directory from the config file)")
	flagSet.StringVar(&flags.configPath, "config", "", "config file to read the directory from (default: $CIRCLEBOX_CONFIG)")
	flagSet.BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")
}

// resolve returns the base directory: --dir if given, otherwise the
// directory named by the config file.
func (flags *directoryFlags) resolve() (string, error) {
	if flags.directory != "" {
		return flags.directory, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return "", cli.Validation("no --dir given and no usable config: %w", err)
	}
	if cfg.Directory == "" {
		return "", cli.Validation("no --dir given and the config file sets no directory")
	}
	return cfg.Directory, nil
}

// open resolves the directory and opens its store.
func (flags *directoryFlags) open(command string) (*filestore.Store, *slog.Logger, error) {
	directory, err := flags.resolve()
	if err != nil {
		return nil, nil, err
	}
	logger := cli.NewCommandLogger(flags.verbose).With("command", command, "dir", directory)
	store, err := filestore.Open(directory, logger)
	if err != nil {
		return nil, nil, cli.Internal("opening %s: %w", directory, err)
	}
	return store, logger, nil
}
