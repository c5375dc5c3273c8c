// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/cli"
	"github.com/bureau-foundation/circlebox/lib/crash"
	"github.com/bureau-foundation/circlebox/lib/environment"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/filestore"
)

func recoverCommand() *cli.Command {
	var (
		flags       directoryFlags
		appVersion  string
		buildNumber string
	)

	return &cli.Command{
		Name:    "recover",
		Summary: "Turn crash traces into a pending report",
		Description: `Run the startup recovery a CircleBox runtime performs, without
starting the application.

A signal marker (pending/signal.marker) is converted into a pending
crash report built from the last checkpoint plus a synthesized fatal
event. Go runtime crash output (pending/go-crash.log) is adopted the
same way. An existing pending report always wins: newer traces are
discarded and the report is left untouched.

When no checkpoint exists the report carries this host's environment,
with --app-version and --build-number filled in.`,
		Usage: "circlebox recover [flags]",
		Examples: []cli.Example{
			{
				Description: "Recover after a native crash",
				Command:     "circlebox recover --dir /var/lib/app/circlebox",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("recover", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.StringVar(&appVersion, "app-version", "", "application version for reports without a checkpoint")
			flagSet.StringVar(&buildNumber, "build-number", "", "build number for reports without a checkpoint")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("recover takes no positional arguments, got %q", args[0])
			}
			store, logger, err := flags.open("recover")
			if err != nil {
				return err
			}
			host := &environment.Host{AppVersion: appVersion, BuildNumber: buildNumber}
			outcome, err := runRecovery(store, host, time.Now())
			if err != nil {
				return err
			}
			logger.Debug("recovery finished",
				"marker", outcome.marker.Action,
				"crash_output", outcome.crashOutput.Action,
			)
			return outcome.print(os.Stdout, store)
		},
	}
}

type recoveryOutcome struct {
	marker      crash.Result
	crashOutput crash.Result
}

// runRecovery runs marker recovery and then crash output adoption,
// the order a runtime uses at Start. A marker too short to decode has
// already been removed by RecoverMarker; that error is reported after
// crash output adoption still gets its turn.
func runRecovery(store *filestore.Store, provider environment.Provider, now time.Time) (recoveryOutcome, error) {
	fallback := func() event.Envelope {
		return event.NewEnvelope(provider.Capture(), event.SourcePendingCrash, event.ReasonStartupPendingDetection, now.UnixMilli(), nil)
	}

	var outcome recoveryOutcome
	marker, markerErr := crash.RecoverMarker(store, fallback, now)
	outcome.marker = marker

	crashOutput, err := crash.AdoptCrashOutput(store, fallback, now)
	outcome.crashOutput = crashOutput
	if err != nil {
		return outcome, cli.Internal("adopting crash output: %w", err)
	}
	if markerErr != nil {
		return outcome, cli.Internal("recovering signal marker: %w", markerErr)
	}
	return outcome, nil
}

func (outcome recoveryOutcome) print(w io.Writer, store *filestore.Store) error {
	fmt.Fprintf(w, "signal marker: %s\n", outcome.marker.Action)
	fmt.Fprintf(w, "crash output:  %s\n", outcome.crashOutput.Action)
	for _, result := range []crash.Result{outcome.marker, outcome.crashOutput} {
		if result.Action != crash.ActionReconstructed {
			continue
		}
		last := result.Envelope.Events[len(result.Envelope.Events)-1]
		fmt.Fprintf(w, "pending report: %s (%d events, crash at seq %d: %s)\n",
			store.PendingPath(), len(result.Envelope.Events), last.Seq, crashDescription(last))
	}
	return nil
}

// crashDescription names a synthesized crash event by its signal or
// details attribute.
func crashDescription(crashEvent event.Event) string {
	if signal, ok := crashEvent.Attrs["signal"]; ok {
		return signal
	}
	if details, ok := crashEvent.Attrs["details"]; ok {
		return details
	}
	return crashEvent.Type
}
