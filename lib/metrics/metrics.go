// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes Prometheus instrumentation for the CircleBox
// runtime. A nil *Metrics is valid and records nothing, which is how
// the runtime runs with metrics disabled.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bureau-foundation/circlebox/lib/event"
)

const namespace = "circlebox"

// Result label values.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// Crash report sources.
const (
	SourcePanic       = "panic"
	SourceSignal      = "signal"
	SourceCrashOutput = "crash_output"
)

// Metrics holds the runtime's collectors.
type Metrics struct {
	eventsRecorded     *prometheus.CounterVec
	checkpointWrites   *prometheus.CounterVec
	checkpointDuration prometheus.Histogram
	exports            *prometheus.CounterVec
	crashReports       *prometheus.CounterVec
	recoveries         *prometheus.CounterVec
}

// New registers a fresh set of collectors with registerer. Registering
// twice with the same registerer panics, as promauto does; processes
// with more than one runtime share Default or pass separate
// registries.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		eventsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_recorded_total",
				Help:      "Events appended to the ring buffer, by event type class.",
			},
			[]string{"type_class"},
		),
		checkpointWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoint_writes_total",
				Help:      "Checkpoint write attempts, by result.",
			},
			[]string{"result"},
		),
		checkpointDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "checkpoint_write_duration_seconds",
				Help:      "Time to encode and durably write one checkpoint.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Export files produced, by format and result.",
			},
			[]string{"format", "result"},
		),
		crashReports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "crash_reports_total",
				Help:      "Pending crash reports written, by source.",
			},
			[]string{"source"},
		),
		recoveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recoveries_total",
				Help:      "Startup recovery passes, by action taken.",
			},
			[]string{"action"},
		),
	}
}

// Default returns the process-wide Metrics registered with the default
// Prometheus registerer. Registration happens on first use.
var Default = sync.OnceValue(func() *Metrics {
	return New(prometheus.DefaultRegisterer)
})

// TypeClass buckets event types into a bounded label set. Event types
// are caller-supplied strings and cannot be used as labels directly.
func TypeClass(eventType string) string {
	switch eventType {
	case event.TypeBreadcrumb:
		return "breadcrumb"
	case event.TypeSDKStart:
		return "lifecycle"
	case event.TypeCrash:
		return "crash"
	case event.TypeDiskSpace, event.TypeThreadContention, event.TypeMemoryPressure:
		return "collector"
	default:
		return "other"
	}
}

// EventRecorded counts one appended event.
func (m *Metrics) EventRecorded(eventType string) {
	if m == nil {
		return
	}
	m.eventsRecorded.WithLabelValues(TypeClass(eventType)).Inc()
}

// CheckpointWritten records one checkpoint attempt and its duration.
func (m *Metrics) CheckpointWritten(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.checkpointWrites.WithLabelValues(result(err)).Inc()
	m.checkpointDuration.Observe(duration.Seconds())
}

// CheckpointSkipped counts a checkpoint suppressed by the rate limit.
func (m *Metrics) CheckpointSkipped() {
	if m == nil {
		return
	}
	m.checkpointWrites.WithLabelValues(ResultSkipped).Inc()
}

// Exported counts one export file.
func (m *Metrics) Exported(format event.Format, err error) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(string(format), result(err)).Inc()
}

// CrashReported counts one pending crash report.
func (m *Metrics) CrashReported(source string) {
	if m == nil {
		return
	}
	m.crashReports.WithLabelValues(source).Inc()
}

// Recovered counts one startup recovery pass.
func (m *Metrics) Recovered(action string) {
	if m == nil {
		return
	}
	m.recoveries.WithLabelValues(action).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
