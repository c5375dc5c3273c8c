// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package crash turns crashes into pending reports.
//
// Two kinds of crash reach this package. Panics are caught in-process
// by [Capture], which hands a one-line description to a
// [PanicRecorder] (normally the runtime) and then re-panics so the
// process still dies the way it would have without CircleBox.
// Everything the process cannot observe from Go code (fatal signals
// and fatal runtime errors) leaves a trace on disk instead: a signal
// marker written by lib/signalmarker, or the Go runtime's own crash
// output. [RecoverMarker] and [AdoptCrashOutput] run on the next
// startup and rebuild a pending report from the last checkpoint plus
// one synthesized crash event.
package crash
