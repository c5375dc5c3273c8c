// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// FakeClock is a manually driven Clock. Time moves only on Advance,
// and tickers fire on the advancing goroutine. Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	changed *sync.Cond
	now     time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	next     time.Time
	interval time.Duration
	channel  chan time.Time
	stopped  bool
}

// Fake returns a FakeClock reading start.
func Fake(start time.Time) *FakeClock {
	clock := &FakeClock{now: start}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// Now returns the fake time.
func (clock *FakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

// NewTicker registers a ticker whose first tick is due one interval
// from the current fake time.
func (clock *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	clock.mu.Lock()
	defer clock.mu.Unlock()

	ticker := &fakeTicker{
		next:     clock.now.Add(d),
		interval: d,
		channel:  make(chan time.Time, 1),
	}
	clock.tickers = append(clock.tickers, ticker)
	clock.changed.Broadcast()
	return &Ticker{
		C: ticker.channel,
		stop: func() {
			clock.mu.Lock()
			defer clock.mu.Unlock()
			ticker.stopped = true
			clock.changed.Broadcast()
		},
	}
}

// Advance moves the clock forward by d. Every live ticker receives one
// send per interval crossed; sends that find the channel full are
// dropped, the same as time.Ticker.
func (clock *FakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()

	clock.now = clock.now.Add(d)
	live := clock.tickers[:0]
	for _, ticker := range clock.tickers {
		if ticker.stopped {
			continue
		}
		for !ticker.next.After(clock.now) {
			select {
			case ticker.channel <- ticker.next:
			default:
			}
			ticker.next = ticker.next.Add(ticker.interval)
		}
		live = append(live, ticker)
	}
	clock.tickers = live
}

// WaitForTimers blocks until at least n tickers are live. Tests call
// it before Advance so a collector goroutine has created its ticker.
func (clock *FakeClock) WaitForTimers(n int) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	for clock.liveLocked() < n {
		clock.changed.Wait()
	}
}

// PendingCount returns the number of tickers not yet stopped.
func (clock *FakeClock) PendingCount() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.liveLocked()
}

func (clock *FakeClock) liveLocked() int {
	count := 0
	for _, ticker := range clock.tickers {
		if !ticker.stopped {
			count++
		}
	}
	return count
}
