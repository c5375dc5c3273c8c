// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package signalmarker

var signalNames = map[int32]string{
	4:  "SIGILL",
	5:  "SIGTRAP",
	6:  "SIGABRT",
	7:  "SIGBUS",
	8:  "SIGFPE",
	11: "SIGSEGV",
}

// Handler is a placeholder on platforms without POSIX signals.
type Handler struct{}

// Install always fails with ErrUnsupported on this platform.
func Install(path string) (*Handler, error) {
	return nil, ErrUnsupported
}

// Stop does nothing.
func (handler *Handler) Stop() {}

// Path returns the empty string.
func (handler *Handler) Path() string { return "" }
