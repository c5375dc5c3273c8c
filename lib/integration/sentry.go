// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package integration

import (
	"strconv"

	"github.com/bureau-foundation/circlebox/lib/event"
)

// SentryBreadcrumb is one entry of a Sentry event's breadcrumbs list.
type SentryBreadcrumb struct {
	// Timestamp is seconds since the Unix epoch with millisecond
	// precision.
	Timestamp float64           `json:"timestamp"`
	Category  string            `json:"category"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data"`
}

// SentryBreadcrumbs converts the last limit events of report into
// Sentry breadcrumbs, oldest first. A limit of zero or less converts
// every event.
//
// The message is the event's "message" attribute, or its type when it
// has none. Data carries thread, severity, and seq followed by the
// event's attributes, which win on key collisions.
func SentryBreadcrumbs(report event.Envelope, limit int) []SentryBreadcrumb {
	events := report.Events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	breadcrumbs := make([]SentryBreadcrumb, 0, len(events))
	for _, recorded := range events {
		data := make(map[string]string, len(recorded.Attrs)+3)
		data["thread"] = string(recorded.Thread)
		data["severity"] = string(recorded.Severity)
		data["seq"] = strconv.FormatInt(recorded.Seq, 10)
		for key, value := range recorded.Attrs {
			data[key] = value
		}

		message, ok := recorded.Attrs["message"]
		if !ok {
			message = recorded.Type
		}
		breadcrumbs = append(breadcrumbs, SentryBreadcrumb{
			Timestamp: float64(recorded.TimestampUnixMs) / 1000,
			Category:  recorded.Type,
			Level:     SentryLevel(recorded.Severity),
			Message:   message,
			Data:      data,
		})
	}
	return breadcrumbs
}

// SentryLevel maps a severity onto Sentry's level names.
func SentryLevel(severity event.Severity) string {
	switch severity {
	case event.SeverityFatal:
		return "fatal"
	case event.SeverityError:
		return "error"
	case event.SeverityWarn:
		return "warning"
	default:
		return "info"
	}
}
