// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binding

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/circlebox/lib/codec"
	"github.com/bureau-foundation/circlebox/lib/config"
	"github.com/bureau-foundation/circlebox/lib/event"
)

// Method names accepted by Dispatch.
const (
	MethodStart                   = "start"
	MethodBreadcrumb              = "breadcrumb"
	MethodExportLogs              = "exportLogs"
	MethodHasPendingCrashReport   = "hasPendingCrashReport"
	MethodClearPendingCrashReport = "clearPendingCrashReport"
	MethodDebugSnapshot           = "debugSnapshot"
)

// ErrUnknownMethod is returned by Dispatch for a method name it does
// not route.
var ErrUnknownMethod = errors.New("unknown binding method")

// BreadcrumbRequest is the body of a breadcrumb call.
type BreadcrumbRequest struct {
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// ExportLogsRequest is the body of an exportLogs call. An empty list
// exports every format.
type ExportLogsRequest struct {
	Formats []string `json:"formats,omitempty"`
}

// ExportLogsResponse lists the written files in canonical order.
type ExportLogsResponse struct {
	Paths []string `json:"paths"`
}

// PendingResponse answers hasPendingCrashReport.
type PendingResponse struct {
	Pending bool `json:"pending"`
}

// DebugSnapshotRequest is the body of a debugSnapshot call. A missing
// or zero MaxEvents means DefaultDebugEvents.
type DebugSnapshotRequest struct {
	MaxEvents int `json:"max_events,omitempty"`
}

// DebugSnapshotResponse carries events oldest first.
type DebugSnapshotResponse struct {
	Events []event.Event `json:"events"`
}

// emptyResponse is returned by methods without a result.
type emptyResponse struct{}

// Dispatch routes one CBOR request to the process-wide runtime.
func Dispatch(method string, request []byte) ([]byte, error) {
	current, err := Current()
	if err != nil {
		return nil, err
	}
	return current.Dispatch(method, request)
}

// Dispatch decodes request for method, calls the matching table
// function, and returns the CBOR-encoded response. An empty request
// is treated as a request with every field absent.
//
// The start request is a config map; keys it omits keep their
// defaults.
func (table Table) Dispatch(method string, request []byte) ([]byte, error) {
	switch method {
	case MethodStart:
		cfg := config.Default()
		if err := decodeRequest(method, request, cfg); err != nil {
			return nil, err
		}
		if err := table.Start(*cfg); err != nil {
			return nil, err
		}
		return codec.Marshal(emptyResponse{})

	case MethodBreadcrumb:
		var arguments BreadcrumbRequest
		if err := decodeRequest(method, request, &arguments); err != nil {
			return nil, err
		}
		table.Breadcrumb(arguments.Message, arguments.Attrs)
		return codec.Marshal(emptyResponse{})

	case MethodExportLogs:
		var arguments ExportLogsRequest
		if err := decodeRequest(method, request, &arguments); err != nil {
			return nil, err
		}
		formats := make([]event.Format, 0, len(arguments.Formats))
		for _, name := range arguments.Formats {
			format, err := event.ParseFormat(name)
			if err != nil {
				return nil, err
			}
			formats = append(formats, format)
		}
		paths, err := table.ExportLogs(formats)
		if err != nil {
			return nil, err
		}
		return codec.Marshal(ExportLogsResponse{Paths: paths})

	case MethodHasPendingCrashReport:
		return codec.Marshal(PendingResponse{Pending: table.HasPendingCrashReport()})

	case MethodClearPendingCrashReport:
		if err := table.ClearPendingCrashReport(); err != nil {
			return nil, err
		}
		return codec.Marshal(emptyResponse{})

	case MethodDebugSnapshot:
		var arguments DebugSnapshotRequest
		if err := decodeRequest(method, request, &arguments); err != nil {
			return nil, err
		}
		if arguments.MaxEvents == 0 {
			arguments.MaxEvents = DefaultDebugEvents
		}
		return codec.Marshal(DebugSnapshotResponse{Events: table.DebugSnapshot(arguments.MaxEvents)})

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

func decodeRequest(method string, request []byte, target any) error {
	if len(request) == 0 {
		return nil
	}
	if err := codec.Unmarshal(request, target); err != nil {
		return fmt.Errorf("decoding %s request: %w", method, err)
	}
	return nil
}
