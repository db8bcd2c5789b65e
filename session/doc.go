// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session is the per-connection terminal engine. Every screen a
// host application draws and every key it reads passes through a
// [Session]:
//
//   - [Session.Print] scans outgoing text for pipe codes, color and
//     macro escapes, and directives; paces output to the configured
//     bits per second; keeps the Saved Line used to redraw the current
//     line; and pauses when a screenful has been listed.
//   - [Session.DecodeNext] turns raw input bytes into key events,
//     waiting a bounded time for escape continuations, dispatching
//     session control keys, and enforcing idle timeouts.
//   - [Session.Input] is the line editor built on both.
//
// A Session is driven by one goroutine. The only concurrency is an
// internal reader goroutine that moves bytes from the channel into the
// session, and [Session.Hangup], which may be called from anywhere to
// end the session.
//
// Once the channel fails, the context is cancelled, or the session hangs
// up for an idle timeout, every blocking call returns [ErrHangup] and
// Print discards output.
package session
