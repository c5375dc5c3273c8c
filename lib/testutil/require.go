// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"testing"
	"time"
)

// RequireReceive returns the next value from ch, failing the test if
// none arrives within timeout or ch is closed. what describes the
// awaited value and may carry fmt arguments.
//
//	sample := testutil.RequireReceive(t, recorder.events, 5*time.Second, "disk sample %d", n)
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, what string, args ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed", fmt.Sprintf(what, args...))
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: nothing received within %v", fmt.Sprintf(what, args...), timeout)
	}
	panic("unreachable")
}

// RequireClosed waits for done to close or deliver, failing the test
// after timeout.
func RequireClosed(t testing.TB, done <-chan struct{}, timeout time.Duration, what string, args ...any) {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		t.Fatalf("%s: not closed within %v", fmt.Sprintf(what, args...), timeout)
	}
}
