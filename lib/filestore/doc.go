// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package filestore owns the on-disk layout of a CircleBox base
// directory:
//
//	pending/latest.circlebox      pending crash report (framed envelope)
//	pending/checkpoint.circlebox  last checkpoint (framed envelope)
//	pending/signal.marker         12-byte signal marker
//	pending/go-crash.log          Go runtime crash output
//	exports/circlebox-<ms>-<rand8>.<ext>
//
// Every envelope and export write goes through [WriteAtomic], so a
// reader never observes a partially written destination. Reads of
// envelope files treat undecodable content as absent rather than as an
// error: recovery and export fall back to "no prior data" instead of
// failing startup over a corrupt file.
package filestore
