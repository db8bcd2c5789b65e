// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ansi

import "strconv"

const esc = 0x1B

// Fixed sequences.
const (
	EraseDisplay   = "\x1b[2J"
	EraseLineRight = "\x1b[K"
	EraseLineLeft  = "\x1b[1K"
	SaveCursor     = "\x1b[s"
	RestoreCursor  = "\x1b[u"
	ResetAttribute = "\x1b[0m"
)

func csi(n int, final byte) string {
	if n < 1 {
		n = 1
	}
	buf := make([]byte, 0, 8)
	buf = append(buf, esc, '[')
	buf = strconv.AppendInt(buf, int64(n), 10)
	buf = append(buf, final)
	return string(buf)
}

// CursorUp moves the cursor up n rows.
func CursorUp(n int) string { return csi(n, 'A') }

// CursorDown moves the cursor down n rows.
func CursorDown(n int) string { return csi(n, 'B') }

// CursorForward moves the cursor right n columns.
func CursorForward(n int) string { return csi(n, 'C') }

// CursorBack moves the cursor left n columns.
func CursorBack(n int) string { return csi(n, 'D') }

// CursorPosition moves the cursor to a 1-based row and column.
func CursorPosition(row, col int) string {
	if row < 1 {
		row = 1
	}
	if col < 1 {
		col = 1
	}
	buf := make([]byte, 0, 12)
	buf = append(buf, esc, '[')
	buf = strconv.AppendInt(buf, int64(row), 10)
	buf = append(buf, ';')
	buf = strconv.AppendInt(buf, int64(col), 10)
	buf = append(buf, 'H')
	return string(buf)
}
