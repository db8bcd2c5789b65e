// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ansi

type state uint8

const (
	stateIdle state = iota
	// stateEscape: ESC buffered, waiting for '['.
	stateEscape
	stateSequence
)

// MaxSequence is the longest parameter string accepted before a
// sequence is abandoned.
const MaxSequence = 80

// Machine shadows the remote terminal: it consumes every byte sent to
// the terminal and tracks the cursor position and attribute the
// terminal is displaying as a result.
//
// Machine is not safe for concurrent use. A session owns exactly one.
type Machine struct {
	width  int
	height int

	state  state
	params []byte

	col  int
	row  int
	attr Attribute

	savedCol int
	savedRow int
	hasSaved bool

	// OnMove is called after an escape sequence changes the cursor
	// position, with the new 1-based column and row. Text and control
	// characters moving the cursor do not call it.
	OnMove func(col, row int)
}

// NewMachine returns a Machine for a width x height screen with the
// cursor at the home position.
func NewMachine(width, height int) *Machine {
	m := &Machine{params: make([]byte, 0, MaxSequence)}
	m.Resize(width, height)
	m.Reset()
	m.col, m.row = 1, 1
	return m
}

// Resize changes the screen dimensions, clamping the cursor into them.
func (m *Machine) Resize(width, height int) {
	if width < 1 {
		width = 80
	}
	if height < 1 {
		height = 24
	}
	m.width, m.height = width, height
	m.col = clamp(m.col, 1, width)
	m.row = clamp(m.row, 1, height)
}

// Width returns the screen width in columns.
func (m *Machine) Width() int { return m.width }

// Height returns the screen height in rows.
func (m *Machine) Height() int { return m.height }

// Position returns the 1-based cursor column and row.
func (m *Machine) Position() (col, row int) { return m.col, m.row }

// SetPosition moves the shadow cursor without emitting anything.
func (m *Machine) SetPosition(col, row int) {
	m.col = clamp(col, 1, m.width)
	m.row = clamp(row, 1, m.height)
}

// Attr returns the shadow attribute.
func (m *Machine) Attr() Attribute { return m.attr }

// SetAttr sets the shadow attribute directly.
func (m *Machine) SetAttr(a Attribute) { m.attr = a }

// InSequence reports whether the machine is between an ESC and the end
// of its sequence.
func (m *Machine) InSequence() bool { return m.state != stateIdle }

// Reset abandons any partial sequence, restores the default attribute,
// and forgets the saved cursor. The cursor position is kept.
func (m *Machine) Reset() {
	m.state = stateIdle
	m.params = m.params[:0]
	m.attr = DefaultAttribute
	m.hasSaved = false
	m.savedCol, m.savedRow = 0, 0
}

// Write feeds one byte that is being sent to the terminal. It returns
// true when the byte belongs to an escape sequence and false when the
// terminal will treat it as text or a control character.
func (m *Machine) Write(b byte) bool {
	switch m.state {
	case stateEscape:
		if b == '[' {
			m.state = stateSequence
			m.params = m.params[:0]
			return true
		}
		m.state = stateIdle
		if b == esc {
			m.state = stateEscape
			return true
		}
		m.advance(b)
		return false

	case stateSequence:
		if (b >= '0' && b <= '9') || b == ';' || b == '?' {
			if len(m.params) >= MaxSequence {
				m.abort()
				return true
			}
			m.params = append(m.params, b)
			return true
		}
		handler, ok := terminators[b]
		if !ok {
			m.abort()
			return true
		}
		col, row := m.col, m.row
		handler(m, parseParams(m.params))
		m.state = stateIdle
		m.params = m.params[:0]
		if (col != m.col || row != m.row) && m.OnMove != nil {
			m.OnMove(m.col, m.row)
		}
		return true
	}

	if b == esc {
		m.state = stateEscape
		return true
	}
	m.advance(b)
	return false
}

func (m *Machine) abort() {
	m.state = stateIdle
	m.params = m.params[:0]
}

// advance applies a non-sequence byte to the cursor.
func (m *Machine) advance(b byte) {
	switch {
	case b == '\r':
		m.col = 1
	case b == '\n':
		if m.row < m.height {
			m.row++
		}
	case b == '\b':
		if m.col > 1 {
			m.col--
		}
	case b == '\t':
		m.col = (m.col-1)/8*8 + 9
		if m.col > m.width {
			m.col = m.width
		}
	case b == 0x0C:
		m.col, m.row = 1, 1
	case b < 0x20 || b == 0x7F:
	default:
		m.col++
		if m.col > m.width {
			m.col = 1
			if m.row < m.height {
				m.row++
			}
		}
	}
}

// parseParams splits "n;n;n" into integers; absent values are -1.
func parseParams(raw []byte) []int {
	if len(raw) == 0 {
		return nil
	}
	params := make([]int, 0, 4)
	value := -1
	for _, b := range raw {
		switch {
		case b == ';':
			params = append(params, value)
			value = -1
		case b >= '0' && b <= '9':
			if value < 0 {
				value = 0
			}
			if value < 10000 {
				value = value*10 + int(b-'0')
			}
		}
	}
	return append(params, value)
}

// param returns params[i], or def when it is absent or zero.
func param(params []int, i, def int) int {
	if i >= len(params) || params[i] <= 0 {
		return def
	}
	return params[i]
}

var terminators = map[byte]func(*Machine, []int){
	'A': func(m *Machine, p []int) { m.row = clamp(m.row-param(p, 0, 1), 1, m.height) },
	'B': func(m *Machine, p []int) { m.row = clamp(m.row+param(p, 0, 1), 1, m.height) },
	'C': func(m *Machine, p []int) { m.col = clamp(m.col+param(p, 0, 1), 1, m.width) },
	'D': func(m *Machine, p []int) { m.col = clamp(m.col-param(p, 0, 1), 1, m.width) },
	'H': (*Machine).cursorPosition,
	'f': (*Machine).cursorPosition,
	'J': func(m *Machine, p []int) {
		if len(p) > 0 && p[0] == 2 {
			m.col, m.row = 1, 1
		}
	},
	'K': func(*Machine, []int) {},
	'm': (*Machine).selectGraphicRendition,
	's': func(m *Machine, _ []int) {
		m.savedCol, m.savedRow, m.hasSaved = m.col, m.row, true
	},
	'u': func(m *Machine, _ []int) {
		if m.hasSaved {
			m.col, m.row = m.savedCol, m.savedRow
		}
	},
}

func (m *Machine) cursorPosition(p []int) {
	m.row = clamp(param(p, 0, 1), 1, m.height)
	m.col = clamp(param(p, 1, 1), 1, m.width)
}

func (m *Machine) selectGraphicRendition(p []int) {
	if len(p) == 0 {
		m.attr = DefaultAttribute
		return
	}
	for _, code := range p {
		switch {
		case code <= 0:
			m.attr = DefaultAttribute
		case code == 1:
			m.attr |= bright
		case code == 5:
			m.attr |= blink
		case code == 22:
			m.attr &^= bright
		case code == 25:
			m.attr &^= blink
		case code >= 30 && code <= 37:
			m.attr = m.attr&^0x07 | Attribute(pcToANSI[code-30])
		case code == 39:
			m.attr = m.attr&^0x07 | 0x07
		case code >= 40 && code <= 47:
			m.attr = m.attr&^0x70 | Attribute(pcToANSI[code-40])<<4
		case code == 49:
			m.attr &^= 0x70
		}
	}
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
