// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observe

import "sync"

// DefaultHistoryBytes is the ring capacity used when the configuration
// does not set one. 64 KiB is several full 80x25 screens of ANSI art.
const DefaultHistoryBytes = 64 * 1024

// RingBuffer keeps the most recent output of one node, escape
// sequences and all, so an observer that attaches mid-session can
// replay what is on the caller's screen.
//
// Offsets are absolute: the first byte ever written is offset 0 and
// offsets never go backwards, even across [RingBuffer.Reset]. All
// methods are safe for concurrent use.
type RingBuffer struct {
	mutex sync.Mutex
	data  []byte
	// head is the index in data of the oldest retained byte.
	head int
	// size is how many bytes are retained, at most len(data).
	size int
	// end is the absolute offset one past the newest byte.
	end uint64
}

// NewRingBuffer returns a ring holding at most capacity bytes. A
// non-positive capacity selects [DefaultHistoryBytes].
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultHistoryBytes
	}
	return &RingBuffer{data: make([]byte, capacity)}
}

// Write appends p, discarding the oldest bytes once the ring is full.
// It never fails.
func (ring *RingBuffer) Write(p []byte) (int, error) {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()

	written := len(p)
	ring.end += uint64(written)
	capacity := len(ring.data)
	if written >= capacity {
		copy(ring.data, p[written-capacity:])
		ring.head, ring.size = 0, capacity
		return written, nil
	}
	tail := (ring.head + ring.size) % capacity
	n := copy(ring.data[tail:], p)
	copy(ring.data, p[n:])
	ring.size += written
	if ring.size > capacity {
		ring.head = (ring.head + ring.size - capacity) % capacity
		ring.size = capacity
	}
	return written, nil
}

// Snapshot returns a copy of the retained bytes together with the
// absolute offset one past the last of them.
func (ring *RingBuffer) Snapshot() ([]byte, uint64) {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	return ring.copyLocked(ring.size), ring.end
}

// ReadFrom returns the retained bytes at or after the absolute offset.
// An offset older than the ring's oldest byte yields everything
// retained; an offset at or past the end yields nil.
func (ring *RingBuffer) ReadFrom(offset uint64) []byte {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()

	if offset >= ring.end {
		return nil
	}
	count := ring.end - offset
	if count > uint64(ring.size) {
		count = uint64(ring.size)
	}
	return ring.copyLocked(int(count))
}

// copyLocked copies the newest count retained bytes.
func (ring *RingBuffer) copyLocked(count int) []byte {
	if count == 0 {
		return nil
	}
	capacity := len(ring.data)
	start := (ring.head + ring.size - count) % capacity
	result := make([]byte, count)
	n := copy(result, ring.data[start:min(start+count, capacity)])
	copy(result[n:], ring.data)
	return result
}

// Offset returns the absolute offset one past the newest byte.
func (ring *RingBuffer) Offset() uint64 {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	return ring.end
}

// Len returns the number of retained bytes.
func (ring *RingBuffer) Len() int {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	return ring.size
}

// Reset discards the retained bytes. The offset is preserved.
func (ring *RingBuffer) Reset() {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()
	ring.head, ring.size = 0, 0
}
