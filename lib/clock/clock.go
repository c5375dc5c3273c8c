// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source for event timestamps and collector loops.
// The signal marker path does not use it: the handler reads the kernel
// clock directly.
type Clock interface {
	// Now returns the current time. The real clock carries a
	// monotonic reading, so uptime survives wall clock jumps.
	Now() time.Time

	// NewTicker returns a Ticker firing every d. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C, which has capacity 1. A slow
// reader misses ticks instead of queueing them; the stall monitor
// measures those gaps.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop ends delivery. C is not closed.
func (ticker *Ticker) Stop() { ticker.stop() }

// Real returns the wall clock.
func Real() Clock { return wallClock{} }

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) NewTicker(d time.Duration) *Ticker {
	ticker := time.NewTicker(d)
	return &Ticker{C: ticker.C, stop: ticker.Stop}
}
