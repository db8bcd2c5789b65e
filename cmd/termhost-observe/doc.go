// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Termhost-observe shows a node's live session on the local terminal.
// It attaches to termhostd's observer socket, replays the node's recent
// output, then follows along as the caller types. A status line is
// printed whenever a caller connects, logs on, or hangs up.
//
//	termhost-observe --config /etc/termhost.yaml 2
//
// Observation is read-only; press Ctrl-C to stop.
package main
