// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "fmt"

// KeyKind classifies a KeyEvent.
type KeyKind uint8

const (
	// KeyNone is a no-op event, such as an unrecognized escape sequence.
	KeyNone KeyKind = iota
	KeyChar
	KeyCommand
	// KeyExtended is a key announced by the extended-key prefix; Code
	// carries ExtendedOffset plus the scan code.
	KeyExtended
)

// Command is a logical editing key.
type Command uint8

const (
	CommandNone Command = iota
	CommandEscape
	CommandUp
	CommandDown
	CommandLeft
	CommandRight
	CommandHome
	CommandEnd
	CommandPageUp
	CommandPageDown
	CommandInsert
	CommandDelete
)

var commandNames = [...]string{
	CommandNone:     "none",
	CommandEscape:   "escape",
	CommandUp:       "up",
	CommandDown:     "down",
	CommandLeft:     "left",
	CommandRight:    "right",
	CommandHome:     "home",
	CommandEnd:      "end",
	CommandPageUp:   "page-up",
	CommandPageDown: "page-down",
	CommandInsert:   "insert",
	CommandDelete:   "delete",
}

func (c Command) String() string {
	if int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// KeyEvent is one decoded key.
type KeyEvent struct {
	Kind    KeyKind
	Char    byte
	Command Command
	Code    int
}

func (k KeyEvent) String() string {
	switch k.Kind {
	case KeyChar:
		return fmt.Sprintf("char(%q)", k.Char)
	case KeyCommand:
		return k.Command.String()
	case KeyExtended:
		return fmt.Sprintf("extended(%d)", k.Code)
	}
	return "none"
}

func charEvent(b byte) KeyEvent       { return KeyEvent{Kind: KeyChar, Char: b} }
func commandEvent(c Command) KeyEvent { return KeyEvent{Kind: KeyCommand, Command: c} }

// Control bytes with fixed meanings.
const (
	keyEscape    = 0x1B
	keyExtended  = 0x00
	keyBackspace = 0x08
	keyDelete    = 0x7F
	keyTab       = 0x09
	keyEnter     = 0x0D
	keyCtrlC     = 0x03
	keyCtrlL     = 0x0C
	keyCtrlN     = 0x0E
	keyCtrlP     = 0x10
	keyCtrlR     = 0x12
	keyCtrlT     = 0x14
	keyCtrlU     = 0x15
	keyCtrlV     = 0x16
	keyCtrlW     = 0x17
	keyCtrlX     = 0x18
	colorEscape  = 0x03
	macroEscape  = 0x0F
	pipeSentinel = '|'
)

// ExtendedOffset is added to the scan code of an extended key.
const ExtendedOffset = 256

// escapeCommands maps the final byte of ESC [ x and ESC O x.
var escapeCommands = map[byte]Command{
	'A': CommandUp,
	'B': CommandDown,
	'C': CommandRight,
	'D': CommandLeft,
	'H': CommandHome,
	'F': CommandEnd,
	'K': CommandEnd,
	'V': CommandPageUp,
	'U': CommandPageDown,
	'@': CommandInsert,
}

// tildeCommands maps ESC [ n ~.
var tildeCommands = map[int]Command{
	1: CommandHome,
	2: CommandInsert,
	3: CommandDelete,
	4: CommandEnd,
	5: CommandPageUp,
	6: CommandPageDown,
	7: CommandHome,
	8: CommandEnd,
}

// numpadCommands is the digit layout of a PC keypad with num lock off.
var numpadCommands = map[byte]Command{
	'8': CommandUp,
	'2': CommandDown,
	'4': CommandLeft,
	'6': CommandRight,
	'7': CommandHome,
	'1': CommandEnd,
	'9': CommandPageUp,
	'3': CommandPageDown,
	'0': CommandInsert,
	'.': CommandDelete,
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
