// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package circlebox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bureau-foundation/circlebox/lib/clock"
	"github.com/bureau-foundation/circlebox/lib/collector"
	"github.com/bureau-foundation/circlebox/lib/config"
	"github.com/bureau-foundation/circlebox/lib/crash"
	"github.com/bureau-foundation/circlebox/lib/environment"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/filestore"
	"github.com/bureau-foundation/circlebox/lib/metrics"
	"github.com/bureau-foundation/circlebox/lib/ringbuffer"
	"github.com/bureau-foundation/circlebox/lib/sanitize"
	"github.com/bureau-foundation/circlebox/lib/signalmarker"
)

var (
	// ErrNotStarted is returned by operations that need a started
	// runtime.
	ErrNotStarted = errors.New("circlebox runtime not started")

	// ErrClosed is returned by Start and by explicit operations after
	// Close.
	ErrClosed = errors.New("circlebox runtime closed")
)

// CollectorFactory builds the collectors for one started runtime.
type CollectorFactory func(cfg config.Config, store *filestore.Store, clk clock.Clock) []collector.Collector

// DefaultCollectors samples disk space and host memory at the disk
// check interval and watches for scheduler stalls.
func DefaultCollectors(cfg config.Config, store *filestore.Store, clk clock.Clock) []collector.Collector {
	return []collector.Collector{
		&collector.DiskSpace{
			Interval: cfg.DiskCheckInterval(),
			Probe:    store.AvailableDiskBytes,
			Clock:    clk,
		},
		&collector.MemoryPressure{
			Interval: cfg.DiskCheckInterval(),
			Probe:    collector.SystemMemory,
			Clock:    clk,
		},
		&collector.StallMonitor{
			Threshold: cfg.JankThreshold(),
			Clock:     clk,
		},
	}
}

// NoCollectors starts no collectors.
func NoCollectors(config.Config, *filestore.Store, clock.Clock) []collector.Collector {
	return nil
}

// Options configures a Runtime. Everything except Directory has a
// usable default.
type Options struct {
	// Directory is the base directory for pending reports and
	// exports. When empty, the Directory of the config passed to
	// Start is used.
	Directory string

	// Environment supplies session and host facts. Default:
	// environment.Host with unknown app version and build.
	Environment environment.Provider

	// Clock is the time source for event timestamps, uptime, and
	// export names. Default: clock.Real().
	Clock clock.Clock

	// Logger receives diagnostics. Default: discard.
	Logger *slog.Logger

	// Metrics receives instrumentation when the config enables it.
	// Default: metrics.Default().
	Metrics *metrics.Metrics

	// Collectors builds background collectors at Start. Default:
	// DefaultCollectors.
	Collectors CollectorFactory
}

// Runtime is one CircleBox instance. The zero value is not usable;
// create one with New.
type Runtime struct {
	options Options
	logger  *slog.Logger
	clock   clock.Clock

	// lifecycleMutex serializes Start and Close.
	lifecycleMutex sync.Mutex

	// mutex guards the state pointer and closed flag. It is held only
	// to read or replace them, never across I/O.
	mutex  sync.RWMutex
	state  *state
	closed bool
}

// state is everything a started runtime owns. The fields are set once
// in Start and read without locking afterwards.
type state struct {
	config      config.Config
	sanitize    sanitize.Options
	environment event.Environment
	store       *filestore.Store
	buffer      *ringbuffer.Ring[event.Event]
	metrics     *metrics.Metrics
	clock       clock.Clock
	logger      *slog.Logger
	started     time.Time

	// limiter spaces out checkpoints; nil writes one per event.
	limiter *rate.Limiter

	// checkpointMutex orders checkpoint writes so an older snapshot
	// never replaces a newer one.
	checkpointMutex   sync.Mutex
	checkpointLastSeq int64

	signals     *signalmarker.Handler
	crashOutput bool
	collectors  *collector.Group
}

// New creates an unstarted runtime.
func New(options Options) *Runtime {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	if options.Environment == nil {
		options.Environment = &environment.Host{}
	}
	if options.Collectors == nil {
		options.Collectors = DefaultCollectors
	}
	return &Runtime{
		options: options,
		logger:  logger.With("component", "circlebox"),
		clock:   clk,
	}
}

// Start brings the runtime up with cfg. Calls after the first
// successful Start return nil without doing anything; calls after
// Close return ErrClosed.
//
// Start clamps cfg, opens the base directory, turns any crash trace
// left by a previous process into a pending report, installs crash
// capture when enabled, records an sdk_start event (which writes the
// first checkpoint of this session), and starts collectors. Recovery
// runs before the first checkpoint so the previous session's
// checkpoint is still on disk when it is needed.
func (r *Runtime) Start(cfg config.Config) error {
	r.lifecycleMutex.Lock()
	defer r.lifecycleMutex.Unlock()

	r.mutex.RLock()
	started, closed := r.state != nil, r.closed
	r.mutex.RUnlock()
	if closed {
		return ErrClosed
	}
	if started {
		return nil
	}

	cfg.Normalize()
	directory := r.options.Directory
	if directory == "" {
		directory = cfg.Directory
	}
	if directory == "" {
		return errors.New("circlebox: no base directory in options or config")
	}

	store, err := filestore.Open(directory, r.logger)
	if err != nil {
		return fmt.Errorf("opening circlebox directory: %w", err)
	}

	st := &state{
		config: cfg,
		sanitize: sanitize.Options{
			Enabled:   cfg.SanitizeAttributes,
			MaxLength: cfg.MaxAttributeLength,
		},
		environment:       r.options.Environment.Capture(),
		store:             store,
		buffer:            ringbuffer.New[event.Event](cfg.BufferCapacity),
		clock:             r.clock,
		logger:            r.logger,
		started:           r.clock.Now(),
		checkpointLastSeq: -1,
	}
	if cfg.EnableMetrics {
		st.metrics = r.options.Metrics
		if st.metrics == nil {
			st.metrics = metrics.Default()
		}
	}
	if interval := cfg.CheckpointMinInterval(); interval > 0 {
		st.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	st.recoverPreviousSession()

	if cfg.EnableSignalCrashCapture {
		st.installCrashCapture()
	}

	r.mutex.Lock()
	r.state = st
	r.mutex.Unlock()

	st.recordAndCheckpoint(event.TypeSDKStart, event.SeverityInfo, map[string]string{
		"buffer_capacity": strconv.Itoa(cfg.BufferCapacity),
	}, event.ThreadMain)

	if factories := r.options.Collectors(cfg, store, r.clock); len(factories) > 0 {
		st.collectors = collector.Start(context.Background(), r, r.logger, factories...)
	}

	r.logger.Info("circlebox started",
		"directory", directory,
		"session_id", st.environment.SessionID,
		"buffer_capacity", cfg.BufferCapacity,
		"signal_capture", cfg.EnableSignalCrashCapture,
	)
	return nil
}

// Close stops collectors and crash capture. The runtime cannot be
// started again; recording becomes a no-op and explicit operations
// return ErrClosed. Close on an unstarted runtime only marks it
// closed. Safe to call more than once.
func (r *Runtime) Close() error {
	r.lifecycleMutex.Lock()
	defer r.lifecycleMutex.Unlock()

	r.mutex.Lock()
	st := r.state
	r.state = nil
	r.closed = true
	r.mutex.Unlock()

	if st == nil {
		return nil
	}

	var collectorErr error
	if st.collectors != nil {
		collectorErr = st.collectors.Stop()
	}
	if st.signals != nil {
		st.signals.Stop()
	}
	st.releaseCrashOutput()
	// A rate-limited session may have skipped its last checkpoints.
	if st.limiter != nil {
		st.writeCheckpoint()
	}
	return collectorErr
}

// active returns the started state, or the error explaining why there
// is none.
func (r *Runtime) active() (*state, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.state != nil {
		return r.state, nil
	}
	if r.closed {
		return nil, ErrClosed
	}
	return nil, ErrNotStarted
}

// Breadcrumb records an info event with message under the "message"
// attribute, tagged with the background thread. Use BreadcrumbContext
// or BreadcrumbOn to tag a different thread. Dropped before Start.
func (r *Runtime) Breadcrumb(message string, attrs map[string]string) {
	r.BreadcrumbOn(event.ThreadBackground, message, attrs)
}

// BreadcrumbContext records a breadcrumb tagged with the thread
// carried by ctx (see WithThread).
func (r *Runtime) BreadcrumbContext(ctx context.Context, message string, attrs map[string]string) {
	r.BreadcrumbOn(ThreadFrom(ctx), message, attrs)
}

// BreadcrumbOn records a breadcrumb tagged with thread. A "message"
// key in attrs is replaced by message.
func (r *Runtime) BreadcrumbOn(thread event.Thread, message string, attrs map[string]string) {
	merged := make(map[string]string, len(attrs)+1)
	maps.Copy(merged, attrs)
	merged["message"] = message
	r.Record(event.TypeBreadcrumb, event.SeverityInfo, merged, thread)
}

// Record appends one event and writes a checkpoint. This is the entry
// point for collectors and for callers recording their own event
// types. Attributes are sanitized according to the config. Dropped
// before Start and after Close.
func (r *Runtime) Record(eventType string, severity event.Severity, attrs map[string]string, thread event.Thread) {
	st, err := r.active()
	if err != nil {
		return
	}
	st.recordAndCheckpoint(eventType, severity, attrs, thread)
}

// RecordPanic records a fatal crash event and immediately writes a
// pending crash report containing it. Every failure is logged and
// discarded; this runs while the process is going down. It implements
// crash.PanicRecorder.
func (r *Runtime) RecordPanic(details string) {
	st, err := r.active()
	if err != nil {
		return
	}
	st.record(event.TypeCrash, event.SeverityFatal, map[string]string{"details": details}, event.ThreadCrash)

	report := st.snapshot(event.SourcePendingCrash, event.ReasonUncaughtException)
	if err := st.store.WritePending(report); err != nil {
		st.logger.Error("writing pending crash report failed", "error", err)
		return
	}
	st.metrics.CrashReported(metrics.SourcePanic)
}

// HasPendingCrashReport reports whether a pending crash report is
// waiting to be exported. False before Start.
func (r *Runtime) HasPendingCrashReport() bool {
	st, err := r.active()
	if err != nil {
		return false
	}
	return st.store.HasPending()
}

// ClearPendingCrashReport deletes the pending crash report, if any.
func (r *Runtime) ClearPendingCrashReport() error {
	st, err := r.active()
	if err != nil {
		return err
	}
	return st.store.ClearPending()
}

// DebugSnapshot returns up to maxEvents of the newest events, oldest
// first, when the config enables the debug viewer. Otherwise, and
// before Start, it returns an empty slice. Values below 1 are treated
// as 1.
func (r *Runtime) DebugSnapshot(maxEvents int) []event.Event {
	st, err := r.active()
	if err != nil || !st.config.EnableDebugViewer {
		return []event.Event{}
	}
	return st.buffer.Last(max(1, maxEvents))
}

// Config returns the normalized config of a started runtime.
func (r *Runtime) Config() (config.Config, error) {
	st, err := r.active()
	if err != nil {
		return config.Config{}, err
	}
	return st.config, nil
}

// Store returns the file store of a started runtime.
func (r *Runtime) Store() (*filestore.Store, error) {
	st, err := r.active()
	if err != nil {
		return nil, err
	}
	return st.store, nil
}

// record sanitizes attrs and appends one event. The timestamp is read
// under the ring lock so timestamps never decrease along seq.
func (st *state) record(eventType string, severity event.Severity, attrs map[string]string, thread event.Thread) event.Event {
	if !thread.IsValid() {
		thread = event.ThreadBackground
	}
	if !severity.IsValid() {
		severity = event.SeverityInfo
	}
	clean := sanitize.Sanitize(attrs, st.sanitize)
	recorded := st.buffer.Append(func(seq int64) event.Event {
		now := st.clock.Now()
		return event.Event{
			Seq:             seq,
			TimestampUnixMs: now.UnixMilli(),
			UptimeMs:        now.Sub(st.started).Milliseconds(),
			Type:            eventType,
			Thread:          thread,
			Severity:        severity,
			Attrs:           clean,
		}
	})
	st.metrics.EventRecorded(eventType)
	return recorded
}

func (st *state) recordAndCheckpoint(eventType string, severity event.Severity, attrs map[string]string, thread event.Thread) {
	st.record(eventType, severity, attrs, thread)
	if st.limiter != nil && !st.limiter.Allow() {
		st.metrics.CheckpointSkipped()
		return
	}
	st.writeCheckpoint()
}

// writeCheckpoint persists the current buffer. Failures are logged at
// debug level and counted; the checkpoint is best effort.
func (st *state) writeCheckpoint() {
	st.checkpointMutex.Lock()
	defer st.checkpointMutex.Unlock()

	report := st.snapshot(event.SourceLiveSnapshot, event.ReasonManualExport)
	if report.LastSeq() <= st.checkpointLastSeq {
		return
	}
	start := time.Now()
	err := st.store.WriteCheckpoint(report)
	st.metrics.CheckpointWritten(time.Since(start), err)
	if err != nil {
		st.logger.Debug("checkpoint write failed", "error", err)
		return
	}
	st.checkpointLastSeq = report.LastSeq()
}

// snapshot wraps the current buffer contents in an envelope.
func (st *state) snapshot(source event.ExportSource, reason event.CaptureReason) event.Envelope {
	return event.NewEnvelope(st.environment, source, reason, st.clock.Now().UnixMilli(), st.buffer.Snapshot())
}

// recoverPreviousSession turns a signal marker or Go crash output left
// by the previous process into a pending report.
func (st *state) recoverPreviousSession() {
	fallback := func() event.Envelope {
		return event.NewEnvelope(st.environment, event.SourcePendingCrash, event.ReasonStartupPendingDetection, st.clock.Now().UnixMilli(), nil)
	}

	result, err := crash.RecoverMarker(st.store, fallback, st.clock.Now())
	st.noteRecovery("signal marker", result, err, metrics.SourceSignal)

	result, err = crash.AdoptCrashOutput(st.store, fallback, st.clock.Now())
	st.noteRecovery("crash output", result, err, metrics.SourceCrashOutput)
}

func (st *state) noteRecovery(trace string, result crash.Result, err error, source string) {
	if err != nil {
		st.logger.Warn("crash recovery failed", "trace", trace, "error", err)
	}
	st.metrics.Recovered(string(result.Action))
	if result.Action == crash.ActionReconstructed {
		st.metrics.CrashReported(source)
		st.logger.Info("recovered crash from previous session",
			"trace", trace,
			"events", len(result.Envelope.Events),
			"session_id", result.Envelope.SessionID,
		)
	}
}

// installCrashCapture subscribes the signal marker handler and points
// the Go runtime's fatal error output at the pending directory.
// Failures leave the runtime running without that capture path.
func (st *state) installCrashCapture() {
	handler, err := signalmarker.Install(st.store.MarkerPath())
	switch {
	case errors.Is(err, signalmarker.ErrUnsupported):
		st.logger.Info("signal crash capture unavailable on this platform")
	case err != nil:
		st.logger.Warn("installing signal marker handler failed", "error", err)
	case handler.Path() != st.store.MarkerPath():
		// Another runtime in this process owns the handler.
		st.logger.Warn("signal marker handler already installed for another directory",
			"marker_path", handler.Path(),
		)
	default:
		st.signals = handler
	}

	st.registerCrashOutput()
}

// The Go runtime has one crash output per process. The first runtime
// to register it owns it until Close; later runtimes run without one.
var (
	crashOutputMutex sync.Mutex
	crashOutputOwner *state
)

func (st *state) registerCrashOutput() {
	crashOutputMutex.Lock()
	defer crashOutputMutex.Unlock()

	if crashOutputOwner != nil {
		st.logger.Warn("crash output already registered by another runtime",
			"crash_output_path", crashOutputOwner.store.CrashOutputPath(),
		)
		return
	}
	file, err := os.OpenFile(st.store.CrashOutputPath(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		st.logger.Warn("opening crash output file failed", "error", err)
		return
	}
	// SetCrashOutput duplicates the descriptor.
	defer file.Close()
	if err := debug.SetCrashOutput(file, debug.CrashOptions{}); err != nil {
		st.logger.Warn("registering crash output failed", "error", err)
		return
	}
	crashOutputOwner = st
	st.crashOutput = true
}

// releaseCrashOutput detaches the process crash output if st owns it.
func (st *state) releaseCrashOutput() {
	crashOutputMutex.Lock()
	defer crashOutputMutex.Unlock()

	if !st.crashOutput || crashOutputOwner != st {
		return
	}
	if err := debug.SetCrashOutput(nil, debug.CrashOptions{}); err != nil {
		st.logger.Debug("detaching crash output failed", "error", err)
	}
	crashOutputOwner = nil
	st.crashOutput = false
}
