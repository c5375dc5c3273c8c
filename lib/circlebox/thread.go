// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package circlebox

import (
	"context"

	"github.com/bureau-foundation/circlebox/lib/event"
)

type threadKey struct{}

// WithThread returns a context whose breadcrumbs are tagged with
// thread. Goroutines have no identity of their own, so callers mark
// the context they pass down from their UI or main loop.
func WithThread(ctx context.Context, thread event.Thread) context.Context {
	return context.WithValue(ctx, threadKey{}, thread)
}

// ThreadFrom returns the thread category carried by ctx, or
// event.ThreadBackground when none was set.
func ThreadFrom(ctx context.Context) event.Thread {
	if thread, ok := ctx.Value(threadKey{}).(event.Thread); ok && thread.IsValid() {
		return thread
	}
	return event.ThreadBackground
}
