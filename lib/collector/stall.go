// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bureau-foundation/circlebox/lib/clock"
	"github.com/bureau-foundation/circlebox/lib/event"
)

// StallMonitor detects stretches where the process could not run a
// goroutine on time. It expects a heartbeat every Threshold/2; when a
// heartbeat arrives more than Threshold late it records a warn-level
// thread_contention event with blocked_ms (the lateness) and
// threshold_ms.
//
// Causes include long GC pauses, CPU starvation from the host, and the
// process being stopped by a debugger or SIGSTOP.
type StallMonitor struct {
	Threshold time.Duration
	Clock     clock.Clock
}

// Run implements Collector.
func (monitor *StallMonitor) Run(ctx context.Context, recorder Recorder) error {
	if monitor.Threshold <= 0 {
		return errors.New("stall threshold must be positive")
	}
	clk := monitor.Clock
	if clk == nil {
		clk = clock.Real()
	}

	interval := max(monitor.Threshold/2, time.Millisecond)
	last := clk.Now()
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		now := clk.Now()
		blocked := blockedFor(now.Sub(last), interval)
		last = now
		if blocked <= monitor.Threshold {
			continue
		}
		recorder.Record(event.TypeThreadContention, event.SeverityWarn, map[string]string{
			"blocked_ms":   strconv.FormatInt(blocked.Milliseconds(), 10),
			"threshold_ms": strconv.FormatInt(monitor.Threshold.Milliseconds(), 10),
		}, event.ThreadBackground)
	}
}

// blockedFor returns how late a heartbeat was, given the gap since the
// previous one and the expected interval.
func blockedFor(gap, interval time.Duration) time.Duration {
	return max(gap-interval, 0)
}
