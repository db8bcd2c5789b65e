// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ansi

import (
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
)

func feed(m *Machine, s string) (consumed int) {
	for i := 0; i < len(s); i++ {
		if m.Write(s[i]) {
			consumed++
		}
	}
	return consumed
}

func TestMakeSequenceIdentityIsEmpty(t *testing.T) {
	t.Parallel()
	for a := 0; a < 256; a++ {
		if got := MakeSequence(Attribute(a), Attribute(a), true); got != "" {
			t.Fatalf("MakeSequence(%#02x, %#02x): got %q, want empty", a, a, got)
		}
	}
}

func TestMakeSequenceNotCapable(t *testing.T) {
	t.Parallel()
	if got := MakeSequence(0x0C, 0x07, false); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestMakeSequence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name            string
		target, current Attribute
		want            string
	}{
		{"bright red from default", 0x0C, 0x07, "\x1b[0;1;31;40m"},
		{"back to default", 0x07, 0x0C, "\x1b[0;37;40m"},
		{"color only", 0x02, 0x07, "\x1b[32;40m"},
		{"background only", 0x17, 0x07, "\x1b[37;44m"},
		{"blink on", 0x87, 0x07, "\x1b[0;5;37;40m"},
		{"bright cyan on blue", 0x1B, 0x07, "\x1b[0;1;36;44m"},
		{"yellow keeps bright", 0x0E, 0x0B, "\x1b[33;40m"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := MakeSequence(test.target, test.current, true)
			if got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
			if xansi.Strip(got) != "" {
				t.Errorf("sequence %q has printable residue %q", got, xansi.Strip(got))
			}
		})
	}
}

// Every delta the encoder produces must drive the machine to the
// target attribute.
func TestMakeSequenceDrivesMachine(t *testing.T) {
	t.Parallel()
	m := NewMachine(80, 24)
	for current := 0; current < 256; current++ {
		for target := 0; target < 256; target++ {
			m.SetAttr(Attribute(current))
			feed(m, MakeSequence(Attribute(target), Attribute(current), true))
			if m.Attr() != Attribute(target) {
				t.Fatalf("%#02x -> %#02x: machine ended at %#02x", current, target, m.Attr())
			}
		}
	}
}

func TestMachineTextAdvancesColumn(t *testing.T) {
	t.Parallel()
	m := NewMachine(80, 24)
	if consumed := feed(m, "Hello World"); consumed != 0 {
		t.Fatalf("consumed %d bytes of plain text", consumed)
	}
	if col, row := m.Position(); col != 12 || row != 1 {
		t.Fatalf("position: got (%d,%d), want (12,1)", col, row)
	}
}

func TestMachineWrapsAtWidth(t *testing.T) {
	t.Parallel()
	m := NewMachine(10, 5)
	feed(m, "0123456789ab")
	if col, row := m.Position(); col != 3 || row != 2 {
		t.Fatalf("position: got (%d,%d), want (3,2)", col, row)
	}
	feed(m, "\r\n\n")
	if col, row := m.Position(); col != 1 || row != 4 {
		t.Fatalf("position after CRLF LF: got (%d,%d), want (1,4)", col, row)
	}
}

func TestMachineMovement(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		wantCol int
		wantRow int
	}{
		{"\x1b[10;20H", 20, 10},
		{"\x1b[H", 1, 1},
		{"\x1b[5;5f", 5, 5},
		{"\x1b[10;10H\x1b[3A", 10, 7},
		{"\x1b[10;10H\x1b[B", 10, 11},
		{"\x1b[10;10H\x1b[4C", 14, 10},
		{"\x1b[10;10H\x1b[0D", 9, 10},
		{"\x1b[99A", 1, 1},
		{"\x1b[999;999H", 80, 24},
		{"\x1b[5;5H\x1b[2J", 1, 1},
		{"\x1b[5;5H\x1b[s\x1b[1;1H\x1b[u", 5, 5},
		{"\x1b[5;5H\x1b[u", 5, 5},
	}
	for _, test := range tests {
		m := NewMachine(80, 24)
		if consumed := feed(m, test.input); consumed != len(test.input) {
			t.Errorf("%q: consumed %d of %d bytes", test.input, consumed, len(test.input))
		}
		if col, row := m.Position(); col != test.wantCol || row != test.wantRow {
			t.Errorf("%q: position (%d,%d), want (%d,%d)", test.input, col, row, test.wantCol, test.wantRow)
		}
		if m.InSequence() {
			t.Errorf("%q: still in sequence", test.input)
		}
	}
}

func TestMachineMoveCallback(t *testing.T) {
	t.Parallel()
	m := NewMachine(80, 24)
	var moves [][2]int
	m.OnMove = func(col, row int) { moves = append(moves, [2]int{col, row}) }

	feed(m, "\x1b[3;4H\x1b[K\x1b[1m\x1b[3;4H")
	if len(moves) != 1 || moves[0] != [2]int{4, 3} {
		t.Fatalf("moves: got %v, want [[4 3]]", moves)
	}
}

func TestMachineAbortedPrefixReleasesBytes(t *testing.T) {
	t.Parallel()
	m := NewMachine(80, 24)

	if !m.Write(0x1B) {
		t.Fatal("ESC not consumed")
	}
	if m.Write('x') {
		t.Fatal("byte after a lone ESC reported as consumed")
	}
	if m.InSequence() {
		t.Fatal("machine still in sequence")
	}
	if col, _ := m.Position(); col != 2 {
		t.Fatalf("column: got %d, want 2", col)
	}
}

func TestMachineMoveCallbackIgnoresText(t *testing.T) {
	t.Parallel()
	m := NewMachine(10, 24)
	moves := 0
	m.OnMove = func(int, int) { moves++ }

	feed(m, "abcdefghijkl\r\n\b\t")
	if moves != 0 {
		t.Fatalf("text moves reported: got %d, want 0", moves)
	}
}

func TestMachineDiscardsMalformedSequence(t *testing.T) {
	t.Parallel()
	m := NewMachine(80, 24)
	m.SetAttr(0x1E)
	feed(m, "\x1b[12!")
	if m.InSequence() {
		t.Fatal("machine still in sequence after bad terminator")
	}
	if m.Attr() != 0x1E {
		t.Fatalf("attribute changed to %#02x", m.Attr())
	}
	if col, _ := m.Position(); col != 1 {
		t.Fatalf("column: got %d, want 1", col)
	}
	if m.Write('A') {
		t.Fatal("text after aborted sequence reported as consumed")
	}
}

func TestMachineOversizedSequence(t *testing.T) {
	t.Parallel()
	m := NewMachine(80, 24)
	m.Write(0x1B)
	m.Write('[')
	for i := 0; i < MaxSequence; i++ {
		m.Write('1')
	}
	if !m.InSequence() {
		t.Fatal("machine left sequence before limit")
	}
	m.Write('1')
	if m.InSequence() {
		t.Fatal("oversized sequence not abandoned")
	}
	if col, row := m.Position(); col != 1 || row != 1 {
		t.Fatalf("position: got (%d,%d), want (1,1)", col, row)
	}
}

func TestMachineResetIdempotent(t *testing.T) {
	t.Parallel()
	once := NewMachine(80, 24)
	twice := NewMachine(80, 24)
	for _, m := range []*Machine{once, twice} {
		feed(m, "\x1b[5;5H\x1b[s\x1b[1;33m\x1b[12")
	}
	once.Reset()
	twice.Reset()
	twice.Reset()

	if once.InSequence() || twice.InSequence() {
		t.Fatal("in sequence after Reset")
	}
	if once.Attr() != DefaultAttribute || twice.Attr() != DefaultAttribute {
		t.Fatalf("attributes after Reset: %#02x, %#02x", once.Attr(), twice.Attr())
	}
	// The saved cursor is gone: restore is a no-op.
	feed(once, "\x1b[1;1H\x1b[u")
	feed(twice, "\x1b[1;1H\x1b[u")
	c1, r1 := once.Position()
	c2, r2 := twice.Position()
	if c1 != 1 || r1 != 1 || c2 != 1 || r2 != 1 {
		t.Fatalf("positions after restore: (%d,%d), (%d,%d)", c1, r1, c2, r2)
	}
}

func TestDialect(t *testing.T) {
	t.Parallel()
	tests := []struct{ got, want string }{
		{CursorUp(3), "\x1b[3A"},
		{CursorDown(0), "\x1b[1B"},
		{CursorForward(12), "\x1b[12C"},
		{CursorBack(1), "\x1b[1D"},
		{CursorPosition(10, 20), "\x1b[10;20H"},
		{CursorPosition(0, -4), "\x1b[1;1H"},
	}
	for _, test := range tests {
		if test.got != test.want {
			t.Errorf("got %q, want %q", test.got, test.want)
		}
		if width := xansi.StringWidth(test.got); width != 0 {
			t.Errorf("%q: visible width %d, want 0", test.got, width)
		}
	}
}
