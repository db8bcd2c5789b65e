// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ansi implements the escape dialect spoken to remote terminals:
// a byte-at-a-time state machine that tracks the cursor and color the
// remote terminal is showing, and the encoders that produce sequences
// in that dialect.
//
// The dialect is the ANSI.SYS subset BBS clients have understood for
// decades: cursor movement (CUU/CUD/CUF/CUB/CUP), erase (ED 2, EL 0/1),
// save/restore cursor, and SGR with eight colors plus bright and blink.
// Colors are carried as a PC text-mode [Attribute] byte.
//
// [Machine] never asks the terminal where the cursor is. Its shadow
// position is derived entirely from the bytes written through it.
// [MakeSequence] emits the smallest SGR sequence that moves the terminal
// from one attribute to another.
package ansi
