// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides the shared terminal styling for the circlebox
// CLI: a color theme keyed by event severity and thread, and the
// scrollbar drawn beside the interactive event viewer.
//
// Styles are built from an explicit lipgloss renderer so callers
// decide the color profile. Piped output renders without escapes;
// the viewer forces ANSI256.
package tui
