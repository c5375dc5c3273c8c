// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/circlebox/lib/event"
)

// Theme defines the color palette for circlebox terminal output. All
// colors use lipgloss ANSI 256-color codes for broad terminal
// compatibility.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Severity colors.
	SeverityInfo  lipgloss.Color
	SeverityWarn  lipgloss.Color
	SeverityError lipgloss.Color
	SeverityFatal lipgloss.Color

	// Thread colors. Crash events use SeverityFatal.
	ThreadMain       lipgloss.Color
	ThreadBackground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	Accent           lipgloss.Color
}

// SeverityColor returns the color for severity, FaintText for unknown
// values.
func (theme Theme) SeverityColor(severity event.Severity) lipgloss.Color {
	switch severity {
	case event.SeverityInfo:
		return theme.SeverityInfo
	case event.SeverityWarn:
		return theme.SeverityWarn
	case event.SeverityError:
		return theme.SeverityError
	case event.SeverityFatal:
		return theme.SeverityFatal
	default:
		return theme.FaintText
	}
}

// ThreadColor returns the color for thread.
func (theme Theme) ThreadColor(thread event.Thread) lipgloss.Color {
	switch thread {
	case event.ThreadMain:
		return theme.ThreadMain
	case event.ThreadBackground:
		return theme.ThreadBackground
	case event.ThreadCrash:
		return theme.SeverityFatal
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SeverityInfo:  lipgloss.Color("114"), // green
	SeverityWarn:  lipgloss.Color("220"), // yellow/amber
	SeverityError: lipgloss.Color("208"), // orange
	SeverityFatal: lipgloss.Color("196"), // bright red

	ThreadMain:       lipgloss.Color("75"),  // blue
	ThreadBackground: lipgloss.Color("141"), // light purple

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	Accent:           lipgloss.Color("220"),
}

// NewRenderer returns a lipgloss renderer for w. With color false the
// renderer emits no escape sequences at all; with color true it is
// pinned to ANSI256 regardless of what w looks like.
func NewRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	// ColorProfile() re-detects from the environment unless the
	// profile is set explicitly.
	renderer.SetColorProfile(profile)
	return renderer
}
