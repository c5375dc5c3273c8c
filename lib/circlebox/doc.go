// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package circlebox is the in-process flight recorder.
//
// A [Runtime] keeps the most recent events of a process in a bounded
// ring buffer and writes a checkpoint of that buffer after each event.
// When the process crashes the last checkpoint becomes a pending crash
// report: immediately, for panics routed through lib/crash, or on the
// next [Runtime.Start], for fatal signals and Go runtime failures that
// leave a trace on disk. [Runtime.ExportLogs] renders either the
// pending report or a live snapshot into export files.
//
// Typical embedding:
//
//	rt := circlebox.New(circlebox.Options{
//		Directory:   filepath.Join(cacheDir, "circlebox"),
//		Environment: &environment.Host{AppVersion: version.Short()},
//		Logger:      logger,
//	})
//	if err := rt.Start(*config.Default()); err != nil {
//		return err
//	}
//	defer rt.Close()
//	defer crash.Capture(rt)
//
//	rt.Breadcrumb("checkout started", map[string]string{"cart_items": "3"})
//
// Every method is safe for concurrent use. Recording never blocks on
// anything but the ring buffer lock and the checkpoint write, and
// never returns an error.
package circlebox
