// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/circlebox/cmd/circlebox/cli"
	"github.com/bureau-foundation/circlebox/lib/envelope"
	"github.com/bureau-foundation/circlebox/lib/event"
	"github.com/bureau-foundation/circlebox/lib/tui"
)

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:    "view",
		Summary: "Browse an envelope's events interactively",
		Description: `Open a full-screen viewer over an envelope's events, oldest first.

Keys:
  j/k, arrows, pgup/pgdn   scroll
  g/G                      jump to first/last event
  s                        cycle the minimum severity shown
  q, esc, ctrl+c           quit

Accepts the same inputs as "circlebox decode".`,
		Usage: "circlebox view <file>",
		Examples: []cli.Example{
			{
				Description: "Browse the pending crash report",
				Command:     "circlebox view pending/latest.circlebox",
			},
		},
		Run: func(args []string) error {
			loaded, err := loadEnvelope("view", args)
			if err != nil {
				return err
			}
			if !cli.IsTerminal(os.Stdout) {
				return cli.Validation("view needs a terminal").
					WithHint("Use 'circlebox inspect' or 'circlebox decode' for piped output.")
			}
			program := tea.NewProgram(newViewModel(loaded, tui.NewRenderer(os.Stdout, true)), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}

// severityLevels is the cycle order of the viewer's severity floor.
var severityLevels = []event.Severity{event.SeverityInfo, event.SeverityWarn, event.SeverityError, event.SeverityFatal}

func severityRank(severity event.Severity) int {
	for index, level := range severityLevels {
		if level == severity {
			return index
		}
	}
	return 0
}

// viewModel is the bubbletea model of "circlebox view": a fixed
// header, a scrolling event list, and a one-line footer.
type viewModel struct {
	envelope event.Envelope
	renderer *lipgloss.Renderer
	theme    tui.Theme

	viewport viewport.Model
	ready    bool
	width    int
	height   int

	// minimum is an index into severityLevels.
	minimum int
}

func newViewModel(loaded event.Envelope, renderer *lipgloss.Renderer) viewModel {
	return viewModel{
		envelope: loaded,
		renderer: renderer,
		theme:    tui.DefaultTheme,
	}
}

func (model viewModel) Init() tea.Cmd { return nil }

func (model viewModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width, model.height = message.Width, message.Height
		bodyHeight := max(message.Height-2, 1)
		if !model.ready {
			model.viewport = viewport.New(max(message.Width-1, 1), bodyHeight)
			model.ready = true
		} else {
			model.viewport.Width = max(message.Width-1, 1)
			model.viewport.Height = bodyHeight
		}
		model.viewport.SetContent(model.body())
		return model, nil

	case tea.KeyMsg:
		switch message.String() {
		case "q", "esc", "ctrl+c":
			return model, tea.Quit
		case "g", "home":
			model.viewport.GotoTop()
			return model, nil
		case "G", "end":
			model.viewport.GotoBottom()
			return model, nil
		case "s":
			model.minimum = (model.minimum + 1) % len(severityLevels)
			if model.ready {
				model.viewport.SetContent(model.body())
				model.viewport.GotoTop()
			}
			return model, nil
		}
	}

	var command tea.Cmd
	model.viewport, command = model.viewport.Update(message)
	return model, command
}

func (model viewModel) View() string {
	if !model.ready {
		return "loading…"
	}
	scrollbar := tui.RenderScrollbar(model.renderer, model.theme, model.viewport.Height,
		model.viewport.TotalLineCount(), model.viewport.VisibleLineCount(), model.viewport.YOffset)
	body := lipgloss.JoinHorizontal(lipgloss.Top, model.viewport.View(), scrollbar)
	return model.header() + "\n" + body + "\n" + model.footer()
}

// visibleEvents returns the events at or above the severity floor.
func (model viewModel) visibleEvents() []event.Event {
	var events []event.Event
	for _, recorded := range model.envelope.Events {
		if severityRank(recorded.Severity) >= model.minimum {
			events = append(events, recorded)
		}
	}
	return events
}

func (model viewModel) body() string {
	events := model.visibleEvents()
	if len(events) == 0 {
		return model.renderer.NewStyle().Foreground(model.theme.FaintText).Render("no events at this severity")
	}
	lines := make([]string, len(events))
	for index, recorded := range events {
		line := eventLine(model.renderer, model.theme, envelope.SummaryEvent{
			Seq:             recorded.Seq,
			TimestampUnixMs: recorded.TimestampUnixMs,
			Type:            recorded.Type,
			Thread:          recorded.Thread,
			Severity:        recorded.Severity,
			Attrs:           recorded.Attrs,
		})
		lines[index] = ansi.Truncate(line, model.viewport.Width, "…")
	}
	return strings.Join(lines, "\n")
}

func (model viewModel) header() string {
	style := model.renderer.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground)
	text := fmt.Sprintf("%s  %s %s  %s/%s  %d events",
		model.envelope.SessionID, model.envelope.Platform, model.envelope.AppVersion,
		model.envelope.ExportSource, model.envelope.CaptureReason, len(model.envelope.Events))
	return style.Render(ansi.Truncate(text, max(model.width, 1), "…"))
}

func (model viewModel) footer() string {
	style := model.renderer.NewStyle().Foreground(model.theme.HelpText)
	text := fmt.Sprintf("severity ≥ %s  %d shown  %3.0f%%  s: severity  g/G: top/bottom  q: quit",
		severityLevels[model.minimum], len(model.visibleEvents()), model.viewport.ScrollPercent()*100)
	return style.Render(ansi.Truncate(text, max(model.width, 1), "…"))
}
