// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sanitize bounds and redacts event attribute values before
// they enter the ring buffer.
//
// Every value is truncated to the configured maximum length first, and
// only then checked against the email, phone, and card heuristics, so
// a long digit run cut below the card minimum is kept. Values under
// operational telemetry keys (byte counts, durations, signal numbers)
// are exempt from redaction because their digit runs are expected.
// Keys are never modified.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Redacted replaces any value that matches a sensitive pattern.
const Redacted = "[REDACTED]"

// Options controls sanitization. The zero value truncates nothing and
// redacts nothing.
type Options struct {
	// Enabled turns on pattern redaction. Truncation applies
	// regardless.
	Enabled bool

	// MaxLength is the maximum value length in runes. Values at or
	// below zero disable truncation.
	MaxLength int
}

var (
	emailPattern = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
)

// safeKeys are lowercase attribute keys whose values are numeric
// telemetry and never redacted.
var safeKeys = map[string]struct{}{
	"available_bytes":         {},
	"blocked_ms":              {},
	"threshold_ms":            {},
	"buffer_capacity":         {},
	"disk_check_interval_sec": {},
	"signal_number":           {},
	"uptime_ms":               {},
	"timestamp_unix_ms":       {},
}

// Sanitize returns a new map with every value truncated and, when
// enabled, redacted. The input map is not modified. A nil input yields
// an empty map.
func Sanitize(attrs map[string]string, options Options) map[string]string {
	result := make(map[string]string, len(attrs))
	for key, value := range attrs {
		result[key] = Value(key, value, options)
	}
	return result
}

// Value sanitizes a single attribute value stored under key.
func Value(key, value string, options Options) string {
	value = truncate(value, options.MaxLength)
	if !options.Enabled || IsSafeKey(key) {
		return value
	}
	if IsSensitive(value) {
		return Redacted
	}
	return value
}

// IsSafeKey reports whether key is on the operational allow-list,
// compared case-insensitively.
func IsSafeKey(key string) bool {
	_, ok := safeKeys[strings.ToLower(key)]
	return ok
}

// IsSensitive reports whether value looks like an email address, a
// phone number, or a payment card number.
func IsSensitive(value string) bool {
	return emailPattern.MatchString(value) ||
		phonePattern.MatchString(value) ||
		cardPattern.MatchString(value)
}

func truncate(value string, maxLength int) string {
	if maxLength <= 0 || len(value) <= maxLength {
		return value
	}
	if utf8.RuneCountInString(value) <= maxLength {
		return value
	}
	count := 0
	for index := range value {
		if count == maxLength {
			return value[:index]
		}
		count++
	}
	return value
}
