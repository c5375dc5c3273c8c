// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderScrollbar draws a one-column scrollbar height rows tall for a
// view showing visibleLines of totalLines starting at scrollOffset.
// Content that fits entirely renders as a full-height thumb.
func RenderScrollbar(renderer *lipgloss.Renderer, theme Theme, height, totalLines, visibleLines, scrollOffset int) string {
	if height <= 0 {
		return ""
	}
	thumb := renderer.NewStyle().Foreground(theme.Accent).Render("┃")
	track := renderer.NewStyle().Foreground(theme.BorderColor).Render("│")

	first, size := thumbSpan(height, totalLines, visibleLines, scrollOffset)
	rows := make([]string, height)
	for row := range rows {
		if row >= first && row < first+size {
			rows[row] = thumb
		} else {
			rows[row] = track
		}
	}
	return strings.Join(rows, "\n")
}

// thumbSpan returns the first thumb row and the thumb length. The
// thumb is at least one row and never runs past the track.
func thumbSpan(height, totalLines, visibleLines, scrollOffset int) (int, int) {
	if totalLines <= 0 || totalLines <= visibleLines {
		return 0, height
	}
	size := max(height*visibleLines/totalLines, 1)
	hidden := totalLines - visibleLines
	first := 0
	if free := height - size; free > 0 {
		first = min(max(scrollOffset, 0)*free/hidden, free)
	}
	return first, size
}
