// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package integration maps CircleBox envelopes onto the payload
// shapes of third-party crash and analytics services.
//
// Nothing here talks to a network. Callers load an exported envelope
// with [LoadExport], map it with [SentryBreadcrumbs] or
// [PostHogEvent], and hand the result to the vendor SDK they already
// use.
package integration
