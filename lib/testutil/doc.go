// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds fixtures and channel helpers shared by the
// CircleBox test suites.
//
// RequireReceive and RequireClosed are the only wall-clock waits in
// the tests. Code under test reads time from lib/clock.
package testutil
