// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the time source injected into the runtime and the
// periodic collectors.
//
// Real() wraps package time. Fake() returns a clock that stands still
// until Advance is called, so collector tests drive ticks by hand:
//
//	c := clock.Fake(start)
//	group := collector.Start(ctx, recorder, logger, &collector.DiskSpace{Clock: c})
//	c.WaitForTimers(1)
//	c.Advance(time.Minute)
package clock
