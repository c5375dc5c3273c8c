// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crash

import "fmt"

// PanicRecorder receives a description of a panic before it
// propagates. Implementations must not panic; if one does, the
// secondary panic is discarded and the original continues.
type PanicRecorder interface {
	RecordPanic(details string)
}

// Capture records a panic in progress and re-panics with the original
// value. Use it directly as a deferred call:
//
//	defer crash.Capture(runtime)
//
// It must be the deferred function itself: recover only stops a panic
// when called directly by a deferred function. Capture is a no-op when
// there is no panic. Deferred functions registered before Capture still
// run afterwards and observe the same panic value.
func Capture(recorder PanicRecorder) {
	value := recover()
	if value == nil {
		return
	}
	report(recorder, value)
	panic(value)
}

// Go runs fn on a new goroutine with Capture installed. A panic inside
// fn is recorded and then crashes the process, as an unrecovered panic
// on any goroutine does.
func Go(recorder PanicRecorder, fn func()) {
	go func() {
		defer Capture(recorder)
		fn()
	}()
}

// Details formats a panic value as "<dynamic type>: <message>".
func Details(value any) string {
	if err, ok := value.(error); ok {
		return fmt.Sprintf("%T: %s", value, err.Error())
	}
	return fmt.Sprintf("%T: %v", value, value)
}

func report(recorder PanicRecorder, value any) {
	if recorder == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	recorder.RecordPanic(Details(value))
}
