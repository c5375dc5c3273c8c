// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the circlebox CLI command tree.
//
// The commands operate on files a CircleBox runtime leaves behind: the
// pending crash report and checkpoint under <dir>/pending, exports
// under <dir>/exports, and any exported envelope copied off a device.
// None of them start a runtime. recover runs the same startup recovery
// a runtime would, so an operator can turn a signal marker or Go crash
// log into a pending report without launching the application.
package commands
