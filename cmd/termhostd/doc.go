// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Termhostd is the termhost daemon. It accepts telnet callers, gives
// each a free node, and runs the board's call flow on it. When every
// node is busy the caller is told so and disconnected. Live sessions
// are mirrored to a unix socket for termhost-observe.
//
// Configuration comes from --config or TERMHOST_CONFIG (see lib/config).
// SIGINT or SIGTERM hangs up every caller and exits.
package main
