// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for CircleBox.
//
// A [Config] is either built in code from [Default] or loaded from a
// single file named by the CIRCLEBOX_CONFIG environment variable (via
// [Load]) or a --config flag (via [LoadFile]). There is no file
// discovery and environment variables never override values in the
// file; the only expansion is ${HOME} and ${VAR:-default} in
// Directory.
//
// Configuration problems never stop a runtime from starting. Values
// outside their valid range are clamped by [Config.Normalize], and
// [Config.Validate] reports what would be clamped for tools that want
// to show it.
//
// This package depends on no other CircleBox packages.
package config
