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

// DiskSpace samples free disk space. It records one disk_space event
// immediately and another every Interval. Samples for which Probe
// returns a negative value are skipped.
type DiskSpace struct {
	Interval time.Duration
	Probe    func() int64
	Clock    clock.Clock
}

// Run implements Collector.
func (disk *DiskSpace) Run(ctx context.Context, recorder Recorder) error {
	if disk.Interval <= 0 {
		return errors.New("disk space interval must be positive")
	}
	if disk.Probe == nil {
		return errors.New("disk space probe is nil")
	}
	clk := disk.Clock
	if clk == nil {
		clk = clock.Real()
	}

	disk.sample(recorder)

	ticker := clk.NewTicker(disk.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			disk.sample(recorder)
		}
	}
}

func (disk *DiskSpace) sample(recorder Recorder) {
	available := disk.Probe()
	if available < 0 {
		return
	}
	recorder.Record(event.TypeDiskSpace, event.SeverityInfo, map[string]string{
		"available_bytes": strconv.FormatInt(available, 10),
	}, event.ThreadBackground)
}
