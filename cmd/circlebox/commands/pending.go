// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/cli"
	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/filestore"
)

func pendingCommand() *cli.Command {
	var (
		flags       directoryFlags
		clearReport bool
	)

	return &cli.Command{
		Name:    "pending",
		Summary: "Report or clear the pending crash report",
		Description: `Report whether a pending crash report is waiting in a base directory.

Exits 0 and prints the report's path and a one-line summary when one
exists, exits 1 when none does. With --clear the report is removed
(a no-op when there is none) and the command always exits 0.`,
		Usage: "circlebox pending [flags]",
		Examples: []cli.Example{
			{
				Description: "Upload and then clear a crash report",
				Command:     "circlebox pending --dir /var/lib/app/circlebox && upload-report ... && circlebox pending --clear --dir /var/lib/app/circlebox",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("pending", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&clearReport, "clear", false, "remove the pending report")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("pending takes no positional arguments, got %q", args[0])
			}
			store, logger, err := flags.open("pending")
			if err != nil {
				return err
			}
			if clearReport {
				if err := store.ClearPending(); err != nil {
					return cli.Internal("clearing pending report: %w", err)
				}
				logger.Info("pending crash report cleared")
				return nil
			}
			return reportPending(os.Stdout, store)
		},
	}
}

// reportPending describes the pending report, or returns an ExitError
// with code 1 when there is none.
func reportPending(w io.Writer, store *filestore.Store) error {
	report, found, err := store.ReadPending()
	if err != nil {
		return cli.Internal("reading pending report: %w", err)
	}
	if !found {
		fmt.Fprintln(w, "no pending crash report")
		return &cli.ExitError{Code: 1}
	}
	report = envelope.Normalize(report, event.SourcePendingCrash, event.ReasonStartupPendingDetection)

	summary := envelope.Summarize(report, "", 1)
	fmt.Fprintln(w, store.PendingPath())
	fmt.Fprintf(w, "session %s, %d events, captured %s (%s)\n",
		summary.SessionID, summary.TotalEvents, formatUnixMs(summary.GeneratedAtUnixMs), summary.CaptureReason)
	if len(summary.LastEvents) > 0 {
		last := summary.LastEvents[0]
		fmt.Fprintf(w, "last event: seq %d %s %s %s\n", last.Seq, last.Severity, last.Type, formatAttrs(last.Attrs))
	}
	return nil
}
