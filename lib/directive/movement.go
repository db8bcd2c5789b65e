// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directive

import (
	"strconv"
	"strings"
)

// Movement is a cursor operation requested by a [...] directive. X and
// Y are 0-based and -1 when no absolute position was given.
type Movement struct {
	Up, Down, Left, Right int
	X, Y                  int
	Newlines              int
	ClearScreen           bool
	ClearEOL              bool
	ClearBOL              bool
}

// HasPosition reports whether the movement includes an absolute target.
func (m Movement) HasPosition() bool { return m.X >= 0 && m.Y >= 0 }

// ParseMovement interprets the body of a [...] directive: an optional
// count (or "a;b" pair for H) followed by one terminator letter. A body
// that does not fit returns the original bracketed text.
func ParseMovement(body string) Interpreted {
	original := Text("[" + body + "]")
	if body == "" {
		return original
	}
	terminator := body[len(body)-1]
	params := body[:len(body)-1]
	move := Movement{X: -1, Y: -1}

	switch terminator {
	case 'A', 'B', 'C', 'D', 'N':
		count, ok := countParam(params, 1)
		if !ok {
			return original
		}
		switch terminator {
		case 'A':
			move.Up = count
		case 'B':
			move.Down = count
		case 'C':
			move.Right = count
		case 'D':
			move.Left = count
		case 'N':
			move.Newlines = count
		}

	case 'H':
		x, y := 0, 0
		if params != "" {
			first, second, found := strings.Cut(params, ";")
			if !found {
				return original
			}
			a, aok := countParam(first, 1)
			b, bok := countParam(second, 1)
			if !aok || !bok {
				return original
			}
			x, y = max(a-1, 0), max(b-1, 0)
		}
		move.X, move.Y = x, y

	case 'J':
		if params != "" && params != "2" {
			return original
		}
		move.ClearScreen = true

	case 'K':
		mode, ok := countParam(params, 0)
		if !ok {
			return original
		}
		switch mode {
		case 0:
			move.ClearEOL = true
		case 1:
			move.ClearBOL = true
		case 2:
			move.ClearEOL, move.ClearBOL = true, true
		default:
			return original
		}

	default:
		return original
	}
	return Interpreted{Kind: ResultMovement, Movement: move}
}

// countParam parses a run of digits, returning def for an empty string.
func countParam(s string, def int) (int, bool) {
	if s == "" {
		return def, true
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
