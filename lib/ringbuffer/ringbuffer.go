// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ringbuffer provides a fixed-capacity circular store that
// assigns monotonically increasing sequence numbers to its entries.
package ringbuffer

import "sync"

// Ring is a fixed-capacity circular buffer of T. Each Append receives
// the next sequence number, and new entries overwrite the oldest once
// the buffer is full.
//
// Sequence assignment and entry construction happen under the same
// lock, so sequence order always matches storage order even when many
// goroutines append concurrently. All methods are safe for concurrent
// use.
type Ring[T any] struct {
	mutex    sync.Mutex
	data     []T
	capacity int
	// writePosition is the slot the next Append fills (0 to
	// capacity-1). Once the ring has wrapped, it is also the slot of
	// the oldest retained entry.
	writePosition int
	// stored is the number of occupied slots, capped at capacity.
	stored int
	// nextSeq is the sequence number handed to the next Append.
	nextSeq int64
}

// New creates a ring with the given capacity. Capacities below 1 are
// coerced to 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		data:     make([]T, capacity),
		capacity: capacity,
	}
}

// Append reserves the next sequence number, calls build with it while
// holding the lock, and stores the result at the write cursor. build
// must not call back into the ring. Returns the stored value.
func (ring *Ring[T]) Append(build func(seq int64) T) T {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()

	seq := ring.nextSeq
	ring.nextSeq++

	value := build(seq)
	ring.data[ring.writePosition] = value
	ring.writePosition = (ring.writePosition + 1) % ring.capacity
	if ring.stored < ring.capacity {
		ring.stored++
	}
	return value
}

// Snapshot returns every retained entry, oldest first.
func (ring *Ring[T]) Snapshot() []T {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	return ring.lastLocked(ring.stored)
}

// Last returns the newest n entries, oldest first. n is clamped to the
// number of retained entries; n <= 0 returns an empty slice.
func (ring *Ring[T]) Last(n int) []T {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	if n > ring.stored {
		n = ring.stored
	}
	if n < 0 {
		n = 0
	}
	return ring.lastLocked(n)
}

// lastLocked copies the newest n entries. Must be called with
// ring.mutex held and 0 <= n <= ring.stored.
func (ring *Ring[T]) lastLocked(n int) []T {
	result := make([]T, n)

	// The newest entry sits just behind writePosition. Before the ring
	// wraps, writePosition == stored and the walk starts at index 0.
	readPosition := (ring.writePosition - n + ring.capacity) % ring.capacity
	for copied := 0; copied < n; {
		copyLength := n - copied
		if available := ring.capacity - readPosition; copyLength > available {
			copyLength = available
		}
		copy(result[copied:copied+copyLength], ring.data[readPosition:readPosition+copyLength])
		readPosition = (readPosition + copyLength) % ring.capacity
		copied += copyLength
	}
	return result
}

// Count returns the number of retained entries: min(appends, capacity).
func (ring *Ring[T]) Count() int {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	return ring.stored
}

// Capacity returns the fixed capacity of the ring.
func (ring *Ring[T]) Capacity() int {
	return ring.capacity
}

// NextSeq returns the sequence number the next Append will receive,
// which is also the total number of appends so far.
func (ring *Ring[T]) NextSeq() int64 {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	return ring.nextSeq
}
