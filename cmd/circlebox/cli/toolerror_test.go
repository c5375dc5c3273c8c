// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestToolError_ErrorWithoutHint(t *testing.T) {
	err := Validation("unknown format %q", "xml")
	if err.Error() != `unknown format "xml"` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestToolError_ErrorWithHint(t *testing.T) {
	err := NotFound("no pending crash report in %s", "/var/lib/app").
		WithHint("Run 'circlebox recover' to reconstruct one from a signal marker.")

	want := "no pending crash report in /var/lib/app\n\nRun 'circlebox recover' to reconstruct one from a signal marker."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Category != CategoryNotFound {
		t.Errorf("Category = %q, want %q", err.Category, CategoryNotFound)
	}
}

func TestToolError_UnwrapChain(t *testing.T) {
	inner := Internal("reading export: %w", os.ErrPermission)
	wrapped := fmt.Errorf("decode failed: %w", inner)

	if !errors.Is(wrapped, os.ErrPermission) {
		t.Error("errors.Is should see through ToolError to the wrapped cause")
	}
	var toolError *ToolError
	if !errors.As(wrapped, &toolError) {
		t.Fatal("errors.As should find the ToolError")
	}
	if toolError.Category != CategoryInternal {
		t.Errorf("Category = %q, want %q", toolError.Category, CategoryInternal)
	}
}

func TestExitError(t *testing.T) {
	var err error = &ExitError{Code: 2}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok || coder.ExitCode() != 2 {
		t.Fatalf("ExitError should expose ExitCode() = 2")
	}
	if err.Error() != "exit code 2" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestNewLogger(t *testing.T) {
	var text, structured bytes.Buffer
	newLogger(&text, true, false).Info("recovered", "action", "reconstructed")
	newLogger(&structured, false, false).Info("recovered", "action", "reconstructed")

	if !strings.Contains(text.String(), "action=reconstructed") {
		t.Errorf("terminal logger output = %q, want text format", text.String())
	}
	if !strings.Contains(structured.String(), `"action":"reconstructed"`) {
		t.Errorf("piped logger output = %q, want JSON format", structured.String())
	}

	var quiet bytes.Buffer
	newLogger(&quiet, false, false).Debug("hidden")
	if quiet.Len() != 0 {
		t.Errorf("debug output without verbose: %q", quiet.String())
	}
}
