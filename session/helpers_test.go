// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/termhost/lib/clock"
)

var testEpoch = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

// testChannel is an in-memory byte channel. Input is fed with Type;
// everything the session writes is collected for inspection.
type testChannel struct {
	inputReader *io.PipeReader
	inputWriter *io.PipeWriter

	mu     sync.Mutex
	output bytes.Buffer
}

func newTestChannel() *testChannel {
	reader, writer := io.Pipe()
	return &testChannel{inputReader: reader, inputWriter: writer}
}

func (c *testChannel) Read(p []byte) (int, error) { return c.inputReader.Read(p) }

func (c *testChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output.Write(p)
}

// Type sends keystrokes to the session.
func (c *testChannel) Type(t *testing.T, keys string) {
	t.Helper()
	if _, err := c.inputWriter.Write([]byte(keys)); err != nil {
		t.Fatalf("typing %q: %v", keys, err)
	}
}

// Output returns everything written so far.
func (c *testChannel) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output.String()
}

// TakeOutput returns and clears the collected output.
func (c *testChannel) TakeOutput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.output.String()
	c.output.Reset()
	return out
}

// Disconnect makes the session's next read fail with io.EOF.
func (c *testChannel) Disconnect() { c.inputWriter.Close() }

// newTestSession starts a session on a fresh test channel. A nil
// config.Clock is replaced with a fake clock, which is returned.
func newTestSession(t *testing.T, config Config) (*Session, *testChannel, *clock.FakeClock) {
	t.Helper()
	var fake *clock.FakeClock
	if config.Clock == nil {
		fake = clock.Fake(testEpoch)
		config.Clock = fake
	}
	channel := newTestChannel()
	s := New(channel, config)
	t.Cleanup(func() {
		s.Hangup()
		channel.Disconnect()
	})
	return s, channel, fake
}

// waitForOutput polls until the channel output contains want.
func waitForOutput(t *testing.T, channel *testChannel, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(channel.Output(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %q in output %q", want, channel.Output())
		}
		time.Sleep(time.Millisecond)
	}
}

// decodeAsync runs DecodeNext on its own goroutine.
func decodeAsync(ctx context.Context, s *Session) <-chan decodeResult {
	results := make(chan decodeResult, 1)
	go func() {
		event, err := s.DecodeNext(ctx)
		results <- decodeResult{event, err}
	}()
	return results
}

type decodeResult struct {
	event KeyEvent
	err   error
}

// steppingClock is a fake clock whose Sleep advances time instead of
// blocking, for pacing tests that run on the test goroutine.
type steppingClock struct {
	*clock.FakeClock
}

func (c steppingClock) Sleep(d time.Duration) { c.Advance(d) }
