// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binding exposes one process-wide CircleBox runtime to host
// languages.
//
// A host (a cgo export layer, a plugin loader, an embedded scripting
// engine) calls [Init] once, then either calls the function values of
// the returned [Table] directly or routes CBOR-encoded requests
// through [Dispatch]. [Shutdown] closes the runtime. The table carries
// [ABIVersion] so a host can refuse a table it was not built against.
package binding

import (
	"errors"
	"sync"

	"github.com/bureau-foundation/circlebox/lib/circlebox"
	"github.com/bureau-foundation/circlebox/lib/config"
	"github.com/bureau-foundation/circlebox/lib/event"
)

// ABIVersion identifies the shape of Table and of the Dispatch wire
// format. It changes whenever a field or method is added, removed, or
// changes meaning.
const ABIVersion = 1

// DefaultDebugEvents is the debugSnapshot size when a request does not
// give one.
const DefaultDebugEvents = 200

// ErrNotInitialized is returned by Dispatch before Init or after
// Shutdown.
var ErrNotInitialized = errors.New("circlebox binding not initialized")

// Table is the operation surface handed to a host. Every function is
// safe for concurrent use.
type Table struct {
	ABIVersion int

	Start                   func(cfg config.Config) error
	Breadcrumb              func(message string, attrs map[string]string)
	ExportLogs              func(formats []event.Format) ([]string, error)
	HasPendingCrashReport   func() bool
	ClearPendingCrashReport func() error
	DebugSnapshot           func(maxEvents int) []event.Event
}

// NewTable binds the operations of runtime.
func NewTable(runtime *circlebox.Runtime) Table {
	return Table{
		ABIVersion: ABIVersion,
		Start:      runtime.Start,
		Breadcrumb: func(message string, attrs map[string]string) {
			runtime.BreadcrumbOn(event.ThreadMain, message, attrs)
		},
		ExportLogs: func(formats []event.Format) ([]string, error) {
			return runtime.ExportLogs(formats...)
		},
		HasPendingCrashReport:   runtime.HasPendingCrashReport,
		ClearPendingCrashReport: runtime.ClearPendingCrashReport,
		DebugSnapshot:           runtime.DebugSnapshot,
	}
}

var (
	handleMutex sync.Mutex
	handle      *circlebox.Runtime
	table       Table
)

// Init creates the process-wide runtime. The runtime is not started;
// the host calls Start with its config. A second Init without an
// intervening Shutdown returns the existing table and ignores options.
func Init(options circlebox.Options) Table {
	handleMutex.Lock()
	defer handleMutex.Unlock()

	if handle == nil {
		handle = circlebox.New(options)
		table = NewTable(handle)
	}
	return table
}

// Current returns the table of the process-wide runtime.
func Current() (Table, error) {
	handleMutex.Lock()
	defer handleMutex.Unlock()

	if handle == nil {
		return Table{}, ErrNotInitialized
	}
	return table, nil
}

// Shutdown closes the process-wide runtime and forgets it, so a later
// Init creates a fresh one. Shutdown without Init does nothing.
func Shutdown() error {
	handleMutex.Lock()
	defer handleMutex.Unlock()

	if handle == nil {
		return nil
	}
	err := handle.Close()
	handle = nil
	table = Table{}
	return err
}
