// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package display loads the text files a BBS shows its callers: logon
// screens, menus and bulletins.
//
// Three formats are recognized by extension:
//
//   - .ans: ANSI art, sent raw after its SAUCE metadata record is
//     removed.
//   - .msg: plain text with pipe codes, sent as written. Bare line
//     feeds become CR LF.
//   - .md: Markdown, rendered to pipe-coded text wrapped to the
//     caller's screen width. Fenced code is syntax highlighted when
//     the caller has ANSI.
//
// The result is text for session.Print, which interprets the pipe
// codes. Rendered Markdown is cached by the BLAKE3 digest of the
// source and the render options.
package display
