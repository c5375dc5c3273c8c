// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"fmt"
	"maps"
)

// Thread classifies the context an event was recorded from.
type Thread string

const (
	// ThreadMain is the application's primary thread (the goroutine
	// that owns the process lifecycle in a Go program).
	ThreadMain Thread = "main"

	// ThreadBackground is any worker, timer, or collector goroutine.
	ThreadBackground Thread = "background"

	// ThreadCrash marks events synthesized by the crash path.
	ThreadCrash Thread = "crash"
)

// IsValid reports whether thread is one of the known values.
func (thread Thread) IsValid() bool {
	switch thread {
	case ThreadMain, ThreadBackground, ThreadCrash:
		return true
	}
	return false
}

// ParseThread converts a wire string into a Thread.
func ParseThread(value string) (Thread, error) {
	thread := Thread(value)
	if !thread.IsValid() {
		return "", fmt.Errorf("unknown thread %q", value)
	}
	return thread, nil
}

// Severity is the importance level of an event.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
	SeverityFatal Severity = "fatal"
)

// IsValid reports whether severity is one of the known values.
func (severity Severity) IsValid() bool {
	switch severity {
	case SeverityInfo, SeverityWarn, SeverityError, SeverityFatal:
		return true
	}
	return false
}

// ParseSeverity converts a wire string into a Severity.
func ParseSeverity(value string) (Severity, error) {
	severity := Severity(value)
	if !severity.IsValid() {
		return "", fmt.Errorf("unknown severity %q", value)
	}
	return severity, nil
}

// Well-known event types emitted by the runtime itself. Collectors and
// applications are free to use any other type string.
const (
	TypeSDKStart         = "sdk_start"
	TypeBreadcrumb       = "breadcrumb"
	TypeCrash            = "native_exception_prehook"
	TypeDiskSpace        = "disk_space"
	TypeThreadContention = "thread_contention"
	TypeMemoryPressure   = "memory_pressure"
)

// Event is one ring buffer entry. Events are immutable once the ring
// buffer has assigned their sequence number; use Clone before handing
// the attribute map to code that might mutate it.
type Event struct {
	// Seq is assigned by the ring buffer under its lock. Strictly
	// increasing for the lifetime of one buffer.
	Seq int64 `json:"seq"`

	// TimestampUnixMs is wall-clock time at record time.
	TimestampUnixMs int64 `json:"timestamp_unix_ms"`

	// UptimeMs is milliseconds since the runtime started, measured on
	// the monotonic clock.
	UptimeMs int64 `json:"uptime_ms"`

	Type     string            `json:"type"`
	Thread   Thread            `json:"thread"`
	Severity Severity          `json:"severity"`
	Attrs    map[string]string `json:"attrs"`
}

// IsCrash reports whether the event records a crash: either the crash
// type or fatal severity.
func (e Event) IsCrash() bool {
	return e.Type == TypeCrash || e.Severity == SeverityFatal
}

// Clone returns a copy whose attribute map is not shared with e.
func (e Event) Clone() Event {
	clone := e
	clone.Attrs = maps.Clone(e.Attrs)
	if clone.Attrs == nil {
		clone.Attrs = map[string]string{}
	}
	return clone
}
