// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package board runs calls: what a caller sees between connecting and
// hanging up. A call gets a [session.Session], is mirrored to the
// observer hub, logs on against the user store (or signs up with NEW),
// and then drives a small main menu that shows the display library,
// directive expressions, and the line editor.
//
// termhostd runs one [Call] per telnet connection on a node taken from
// [Nodes]. termhost-local runs a single call on the local console.
package board
