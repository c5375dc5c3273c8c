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

// DefaultMemoryPressurePercent is the used-memory share at which
// MemoryPressure reports pressure when ThresholdPercent is zero.
const DefaultMemoryPressurePercent = 90

// MemoryReading is one sample of host memory.
type MemoryReading struct {
	TotalBytes     uint64
	AvailableBytes uint64
}

// UsedPercent returns the share of memory in use, 0-100.
func (reading MemoryReading) UsedPercent() int {
	if reading.TotalBytes == 0 || reading.AvailableBytes >= reading.TotalBytes {
		return 0
	}
	return int((reading.TotalBytes - reading.AvailableBytes) * 100 / reading.TotalBytes)
}

// MemoryPressure samples host memory every Interval and records a
// memory_pressure warning when usage reaches ThresholdPercent. It
// reports once per episode: usage has to fall back below the
// threshold before the next crossing is recorded.
type MemoryPressure struct {
	Interval         time.Duration
	ThresholdPercent int
	// Probe returns false when memory cannot be read; such samples
	// are skipped.
	Probe func() (MemoryReading, bool)
	Clock clock.Clock

	pressured bool
}

// Run implements Collector.
func (memory *MemoryPressure) Run(ctx context.Context, recorder Recorder) error {
	if memory.Interval <= 0 {
		return errors.New("memory pressure interval must be positive")
	}
	if memory.Probe == nil {
		return errors.New("memory pressure probe is nil")
	}
	if memory.ThresholdPercent <= 0 {
		memory.ThresholdPercent = DefaultMemoryPressurePercent
	}
	clk := memory.Clock
	if clk == nil {
		clk = clock.Real()
	}

	memory.sample(recorder)

	ticker := clk.NewTicker(memory.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			memory.sample(recorder)
		}
	}
}

func (memory *MemoryPressure) sample(recorder Recorder) {
	reading, ok := memory.Probe()
	if !ok || reading.TotalBytes == 0 {
		return
	}
	used := reading.UsedPercent()
	if used < memory.ThresholdPercent {
		memory.pressured = false
		return
	}
	if memory.pressured {
		return
	}
	memory.pressured = true
	recorder.Record(event.TypeMemoryPressure, event.SeverityWarn, map[string]string{
		"source":          "sysinfo",
		"used_percent":    strconv.Itoa(used),
		"available_bytes": strconv.FormatUint(reading.AvailableBytes, 10),
		"threshold":       strconv.Itoa(memory.ThresholdPercent),
	}, event.ThreadBackground)
}
