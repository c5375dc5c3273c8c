// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var start = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func TestFakeAdvanceMovesNow(t *testing.T) {
	t.Parallel()
	clock := Fake(start)
	if got := clock.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}
	clock.Advance(90 * time.Second)
	if got, want := clock.Now(), start.Add(90*time.Second); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestFakeTickerFiresPerInterval(t *testing.T) {
	t.Parallel()
	clock := Fake(start)
	ticker := clock.NewTicker(time.Minute)
	defer ticker.Stop()

	clock.Advance(59 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("tick delivered before the interval elapsed")
	default:
	}

	clock.Advance(time.Second)
	select {
	case got := <-ticker.C:
		if want := start.Add(time.Minute); !got.Equal(want) {
			t.Errorf("tick time = %v, want %v", got, want)
		}
	default:
		t.Fatal("no tick after one interval")
	}
}

func TestFakeTickerDropsWhenFull(t *testing.T) {
	t.Parallel()
	clock := Fake(start)
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	clock.Advance(5 * time.Second)
	<-ticker.C
	select {
	case <-ticker.C:
		t.Fatal("missed ticks were queued")
	default:
	}

	clock.Advance(time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker stopped firing after a drop")
	}
}

func TestFakeTickerStop(t *testing.T) {
	t.Parallel()
	clock := Fake(start)
	ticker := clock.NewTicker(time.Second)
	if got := clock.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d, want 1", got)
	}

	ticker.Stop()
	clock.Advance(3 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}
	if got := clock.PendingCount(); got != 0 {
		t.Errorf("PendingCount() after Stop = %d, want 0", got)
	}
}

func TestFakeTickerPanicsOnZeroInterval(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("NewTicker(0) did not panic")
		}
	}()
	Fake(start).NewTicker(0)
}

func TestWaitForTimersUnblocksOnRegistration(t *testing.T) {
	t.Parallel()
	clock := Fake(start)
	for range 3 {
		go clock.NewTicker(time.Second)
	}
	clock.WaitForTimers(3)
	if got := clock.PendingCount(); got != 3 {
		t.Errorf("PendingCount() = %d, want 3", got)
	}
}

func TestImplementations(t *testing.T) {
	var _ Clock = Real()
	var _ Clock = (*FakeClock)(nil)
}
