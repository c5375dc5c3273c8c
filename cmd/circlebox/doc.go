// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Circlebox is the operator CLI for CircleBox crash context files.
//
// Usage:
//
//	circlebox decode [--compact] [--color auto|always|never] <file>
//	circlebox inspect [--recent N] <file>
//	circlebox export [--format F]... [--out DIR] <file>
//	circlebox view <file>
//	circlebox pending [--dir DIR] [--clear]
//	circlebox recover [--dir DIR]
//	circlebox config [file]
//	circlebox --version
//
// See cmd/circlebox/commands for the command implementations.
package main
