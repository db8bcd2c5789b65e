// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observe

import (
	"bytes"
	"testing"
)

func TestRingBufferBasicWriteRead(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(1024)

	ring.Write([]byte("hello"))
	ring.Write([]byte(" world"))

	got, offset := ring.Snapshot()
	if !bytes.Equal(got, []byte("hello world")) {
		t.Errorf("Snapshot: got %q, want %q", got, "hello world")
	}
	if offset != 11 {
		t.Errorf("offset: got %d, want 11", offset)
	}
}

func TestRingBufferReadFromOffset(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(1024)

	ring.Write([]byte("abcde"))
	ring.Write([]byte("fghij"))

	if got := ring.ReadFrom(5); !bytes.Equal(got, []byte("fghij")) {
		t.Errorf("ReadFrom(5): got %q, want %q", got, "fghij")
	}
	if got := ring.ReadFrom(ring.Offset()); got != nil {
		t.Errorf("ReadFrom(current): got %q, want nil", got)
	}
	if got := ring.ReadFrom(ring.Offset() + 100); got != nil {
		t.Errorf("ReadFrom(future): got %q, want nil", got)
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(10)

	// 15 bytes into a 10-byte ring: the first 5 are lost.
	ring.Write([]byte("abcdefghijklmno"))

	if got := ring.ReadFrom(0); !bytes.Equal(got, []byte("fghijklmno")) {
		t.Errorf("ReadFrom(0) after wrap: got %q, want %q", got, "fghijklmno")
	}
	if got := ring.ReadFrom(8); !bytes.Equal(got, []byte("ijklmno")) {
		t.Errorf("ReadFrom(8): got %q, want %q", got, "ijklmno")
	}
	if ring.Offset() != 15 {
		t.Errorf("Offset: got %d, want 15", ring.Offset())
	}
}

func TestRingBufferIncrementalWrites(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(10)

	for i := 0; i < 25; i++ {
		ring.Write([]byte{byte('a' + i%26)})
	}

	got, _ := ring.Snapshot()
	if want := []byte("pqrstuvwxy"); !bytes.Equal(got, want) {
		t.Errorf("Snapshot: got %q, want %q", got, want)
	}
	if ring.Len() != 10 {
		t.Errorf("Len: got %d, want 10", ring.Len())
	}
}

func TestRingBufferStraddlingWrites(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(8)

	ring.Write([]byte("12345"))
	ring.Write([]byte("6789"))
	ring.Write([]byte("ab"))

	got, _ := ring.Snapshot()
	if want := []byte("456789ab"); !bytes.Equal(got, want) {
		t.Errorf("Snapshot: got %q, want %q", got, want)
	}
}

func TestRingBufferWriteReportsFullLength(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(4)

	n, err := ring.Write([]byte("abcdefgh"))
	if n != 8 || err != nil {
		t.Errorf("Write: got (%d, %v), want (8, nil)", n, err)
	}
}

func TestRingBufferReset(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(16)

	ring.Write([]byte("first caller"))
	ring.Reset()
	ring.Write([]byte("next"))

	got, offset := ring.Snapshot()
	if !bytes.Equal(got, []byte("next")) {
		t.Errorf("Snapshot after Reset: got %q, want %q", got, "next")
	}
	if offset != 16 {
		t.Errorf("offset after Reset: got %d, want 16", offset)
	}
	if got := ring.ReadFrom(0); !bytes.Equal(got, []byte("next")) {
		t.Errorf("ReadFrom(0) after Reset: got %q", got)
	}
}

func TestRingBufferDefaultCapacity(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(0)
	ring.Write(make([]byte, DefaultHistoryBytes+1))
	if ring.Len() != DefaultHistoryBytes {
		t.Errorf("Len: got %d, want %d", ring.Len(), DefaultHistoryBytes)
	}
}
