// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "github.com/bureau-foundation/termhost/lib/ansi"

// Cell is one character of the Saved Line with the attribute it was
// drawn in.
type Cell struct {
	Char byte
	Attr ansi.Attribute
}

// SavedLine holds what is on the caller's current line so it can be
// redrawn after a message or prompt overwrites it.
type SavedLine struct {
	cells []Cell
}

func (l *SavedLine) Append(c byte, attr ansi.Attribute) {
	l.cells = append(l.cells, Cell{Char: c, Attr: attr})
}

// Pop removes the last cell, if any.
func (l *SavedLine) Pop() {
	if len(l.cells) > 0 {
		l.cells = l.cells[:len(l.cells)-1]
	}
}

func (l *SavedLine) Clear() { l.cells = l.cells[:0] }

func (l *SavedLine) Len() int { return len(l.cells) }

// Cells returns a copy of the line.
func (l *SavedLine) Cells() []Cell {
	return append([]Cell(nil), l.cells...)
}

// Restore replaces the line with cells.
func (l *SavedLine) Restore(cells []Cell) {
	l.cells = append(l.cells[:0], cells...)
}

// String returns the characters without attributes.
func (l *SavedLine) String() string {
	text := make([]byte, len(l.cells))
	for i, cell := range l.cells {
		text[i] = cell.Char
	}
	return string(text)
}
