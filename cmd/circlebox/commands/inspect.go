// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/cli"
	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/tui"
)

// defaultInspectWidth is used when stdout is not a terminal.
const defaultInspectWidth = 100

func inspectCommand() *cli.Command {
	var (
		recent int
		color  string
	)

	return &cli.Command{
		Name:    "inspect",
		Summary: "Summarize an envelope for triage",
		Description: `Print a styled triage summary of an envelope: the environment it
was captured in, why and from where it was captured, event counts by
type, severity, and thread, and the most recent events.

Accepts the same inputs as "circlebox decode".`,
		Usage: "circlebox inspect [flags] <file>",
		Examples: []cli.Example{
			{
				Description: "Triage a pending crash report",
				Command:     "circlebox inspect pending/latest.circlebox",
			},
			{
				Description: "Show the last 25 events",
				Command:     "circlebox inspect --recent 25 export.json.gz",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.IntVarP(&recent, "recent", "n", envelope.DefaultMaxRecent, "number of most recent events to list")
			addColorFlag(flagSet, &color)
			return flagSet
		},
		Run: func(args []string) error {
			loaded, err := loadEnvelope("inspect", args)
			if err != nil {
				return err
			}
			colored, err := stdoutColor(color)
			if err != nil {
				return err
			}
			width := defaultInspectWidth
			if columns, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && columns > 0 {
				width = columns
			}
			_, err = io.WriteString(os.Stdout, renderInspect(loaded, max(recent, 0), tui.NewRenderer(os.Stdout, colored), width))
			return err
		},
	}
}

// renderInspect formats the triage summary of loaded. Event lines are
// truncated to width display columns.
func renderInspect(loaded event.Envelope, recent int, renderer *lipgloss.Renderer, width int) string {
	theme := tui.DefaultTheme
	summary := envelope.Summarize(loaded, "", recent)

	heading := renderer.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	label := renderer.NewStyle().Foreground(theme.FaintText).Width(12)
	faint := renderer.NewStyle().Foreground(theme.FaintText)

	var builder strings.Builder
	field := func(name, value string) {
		builder.WriteString(label.Render(name) + " " + value + "\n")
	}

	builder.WriteString(heading.Render("Envelope") + "\n")
	field("session", summary.SessionID)
	field("platform", summary.Platform)
	field("app", fmt.Sprintf("%s (build %s)", summary.AppVersion, summary.BuildNumber))
	field("os", summary.OSVersion)
	field("device", summary.DeviceModel)
	field("source", fmt.Sprintf("%s / %s", summary.ExportSource, summary.CaptureReason))
	field("generated", formatUnixMs(summary.GeneratedAtUnixMs))
	field("schema", fmt.Sprintf("v%d", summary.SchemaVersion))

	events := fmt.Sprintf("%d", summary.TotalEvents)
	if summary.DurationMs != nil {
		events += faint.Render(fmt.Sprintf(" over %s", time.Duration(*summary.DurationMs)*time.Millisecond))
	}
	field("events", events)
	if summary.CrashEventPresent {
		crash := renderer.NewStyle().Bold(true).Foreground(theme.SeverityFatal)
		field("crash", crash.Render("yes"))
	} else {
		field("crash", "no")
	}

	builder.WriteString("\n" + heading.Render("Counts") + "\n")
	field("type", formatCounts(summary.EventTypeCounts, nil))
	field("severity", formatCounts(summary.SeverityCounts, func(key string) lipgloss.Style {
		return renderer.NewStyle().Foreground(theme.SeverityColor(event.Severity(key)))
	}))
	field("thread", formatCounts(summary.ThreadCounts, func(key string) lipgloss.Style {
		return renderer.NewStyle().Foreground(theme.ThreadColor(event.Thread(key)))
	}))

	if len(summary.LastEvents) > 0 {
		builder.WriteString("\n" + heading.Render(fmt.Sprintf("Last %d events", len(summary.LastEvents))) + "\n")
		for _, recorded := range summary.LastEvents {
			builder.WriteString(ansi.Truncate(eventLine(renderer, theme, recorded), width, "…") + "\n")
		}
	}
	return builder.String()
}

// eventLine renders one event as "seq time severity thread type attrs".
func eventLine(renderer *lipgloss.Renderer, theme tui.Theme, recorded envelope.SummaryEvent) string {
	severity := renderer.NewStyle().Foreground(theme.SeverityColor(recorded.Severity)).Width(6)
	thread := renderer.NewStyle().Foreground(theme.ThreadColor(recorded.Thread)).Width(11)
	faint := renderer.NewStyle().Foreground(theme.FaintText)

	return fmt.Sprintf("%5d %s %s %s %s %s",
		recorded.Seq,
		faint.Render(time.UnixMilli(recorded.TimestampUnixMs).UTC().Format("15:04:05.000")),
		severity.Render(string(recorded.Severity)),
		thread.Render(string(recorded.Thread)),
		recorded.Type,
		faint.Render(formatAttrs(recorded.Attrs)),
	)
}

// formatAttrs renders attributes as sorted key=value pairs.
func formatAttrs(attrs map[string]string) string {
	pairs := make([]string, 0, len(attrs))
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		pairs = append(pairs, key+"="+attrs[key])
	}
	return strings.Join(pairs, " ")
}

// formatCounts renders counts in first-occurrence order. style, when
// non-nil, colors each key.
func formatCounts(counts envelope.Counts, style func(key string) lipgloss.Style) string {
	if counts.Len() == 0 {
		return "-"
	}
	parts := make([]string, 0, counts.Len())
	for _, key := range counts.Keys() {
		name := key
		if style != nil {
			name = style(key).Render(key)
		}
		parts = append(parts, fmt.Sprintf("%s=%d", name, counts.Get(key)))
	}
	return strings.Join(parts, " ")
}

func formatUnixMs(unixMs int64) string {
	return time.UnixMilli(unixMs).UTC().Format(time.RFC3339Nano)
}
