// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package collector runs background producers of CircleBox events.
//
// A [Collector] observes something about the process or host and
// reports what it sees through a [Recorder], which is normally the
// runtime. Collectors own no state that the runtime reads; the only
// way their observations reach the ring buffer is Record. A [Group]
// runs several collectors for the lifetime of one runtime.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/circlebox/lib/event"
)

// Recorder accepts events from collectors. Implementations must be
// safe for concurrent use.
type Recorder interface {
	Record(eventType string, severity event.Severity, attrs map[string]string, thread event.Thread)
}

// Collector produces events until ctx is cancelled. Run returns nil
// on cancellation and an error only when the collector cannot
// continue.
type Collector interface {
	Run(ctx context.Context, recorder Recorder) error
}

// Group runs collectors on their own goroutines. A collector that
// fails is logged and does not stop the others.
type Group struct {
	cancel context.CancelFunc
	group  errgroup.Group
}

// Start launches every collector under a context derived from ctx.
func Start(ctx context.Context, recorder Recorder, logger *slog.Logger, collectors ...Collector) *Group {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(ctx)
	group := &Group{cancel: cancel}
	for _, collector := range collectors {
		name := fmt.Sprintf("%T", collector)
		group.group.Go(func() error {
			err := collector.Run(ctx, recorder)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("collector stopped with error",
					"collector", name,
					"error", err,
				)
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	return group
}

// Stop cancels every collector and waits for them to return. It
// returns the first collector failure, if any. Safe to call more than
// once.
func (group *Group) Stop() error {
	group.cancel()
	return group.group.Wait()
}
