// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"strings"

	"github.com/bureau-foundation/termhost/lib/ansi"
	"github.com/bureau-foundation/termhost/lib/lang"
)

// LineEnd records what ended a line of input.
type LineEnd uint8

const (
	// LineEnter: the caller pressed Enter.
	LineEnter LineEnd = iota
	// LineEdge: the cursor reached the last screen column.
	LineEdge
	// LineFull: the buffer was full and Wrap was set.
	LineFull
	// LinePrevious: Backspace on an empty buffer with AllowPrevious.
	LinePrevious
)

// LineOptions adjusts Input.
type LineOptions struct {
	// Rollover is text returned by the previous Input call. It is shown
	// and placed at the start of the buffer.
	Rollover string

	// AllowPrevious makes Backspace on an empty buffer return
	// LinePrevious instead of being ignored.
	AllowPrevious bool

	// Wrap ends input when a character is typed into a full buffer,
	// carrying that character into the rollover.
	Wrap bool

	// Password echoes '*' for every character.
	Password bool

	// Upper folds letters to upper case.
	Upper bool
}

// LineResult is the outcome of Input.
type LineResult struct {
	Text string

	// Rollover is the partial word taken off the end of the line when it
	// ended on anything but Enter. Pass it back as LineOptions.Rollover.
	Rollover string

	End LineEnd
}

// Previous reports whether the caller asked to go back a field.
func (r LineResult) Previous() bool { return r.End == LinePrevious }

// lineEditor is the state of one Input call.
type lineEditor struct {
	s         *Session
	ctx       context.Context
	maxlen    int
	options   LineOptions
	buffer    []byte
	startAttr ansi.Attribute
}

// Input reads one line of at most maxlen bytes, echoing as the caller
// types. Color pairs inserted with Ctrl-P count against maxlen.
func (s *Session) Input(ctx context.Context, maxlen int, options LineOptions) (LineResult, error) {
	if maxlen < 1 {
		maxlen = 1
	}
	e := &lineEditor{
		s:         s,
		ctx:       ctx,
		maxlen:    maxlen,
		options:   options,
		buffer:    make([]byte, 0, maxlen),
		startAttr: s.machine.Attr(),
	}
	e.prefill(options.Rollover)
	s.flush()

	var overflow []byte
	end := LineEnter
	for {
		if s.Hungup() {
			return LineResult{}, ErrHangup
		}
		if col, _ := s.machine.Position(); col >= s.machine.Width() && len(e.buffer) < maxlen {
			end = LineEdge
			break
		}

		key, err := s.DecodeNext(ctx)
		if err != nil {
			return LineResult{}, err
		}
		if key.Kind != KeyChar {
			continue
		}
		c := key.Char

		if c == keyEnter {
			break
		}
		switch c {
		case keyBackspace, keyDelete:
			if len(e.buffer) == 0 {
				if options.AllowPrevious {
					e.previous()
					return LineResult{End: LinePrevious}, nil
				}
				continue
			}
			e.backspace()

		case keyCtrlW:
			e.eraseWord()

		case keyCtrlX:
			for len(e.buffer) > 0 {
				e.backspace()
			}

		case keyCtrlP:
			next, err := s.DecodeNext(ctx)
			if err != nil {
				return LineResult{}, err
			}
			if next.Kind == KeyChar && isDigit(next.Char) {
				e.insertColor(next.Char)
			}

		case keyTab:
			for spaces := 8 - e.visibleLength()%8; spaces > 0 && len(e.buffer) < maxlen; spaces-- {
				e.insert(' ')
			}

		default:
			if c < 0x20 {
				continue
			}
			if options.Upper && c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			if len(e.buffer) >= maxlen {
				if options.Wrap {
					overflow = append(overflow, c)
					end = LineFull
					break
				}
				continue
			}
			e.insert(c)
		}
		s.flush()
		if end == LineFull {
			break
		}
	}

	result := LineResult{End: end}
	if end != LineEnter {
		result.Rollover = e.rollover() + string(overflow)
	}
	result.Text = string(e.buffer)
	s.Newline(ctx)
	return result, nil
}

// prefill places rollover text in the buffer, keeping its color pairs.
func (e *lineEditor) prefill(text string) {
	for i := 0; i < len(text) && len(e.buffer) < e.maxlen; i++ {
		if text[i] == colorEscape && i+1 < len(text) && isDigit(text[i+1]) {
			e.insertColor(text[i+1])
			i++
			continue
		}
		e.insert(text[i])
	}
}

// insertColor appends a color pair when it fits.
func (e *lineEditor) insertColor(digit byte) {
	if len(e.buffer)+2 > e.maxlen {
		return
	}
	e.buffer = append(e.buffer, colorEscape, digit)
	e.s.Palette(int(digit - '0'))
}

func (e *lineEditor) insert(c byte) {
	e.buffer = append(e.buffer, c)
	echo := c
	if e.options.Password {
		echo = '*'
	}
	e.s.putChar(e.ctx, echo)
}

// backspace removes the last character, or the whole color pair when
// the buffer ends in one.
func (e *lineEditor) backspace() {
	n := len(e.buffer)
	if n >= 2 && e.buffer[n-2] == colorEscape && isDigit(e.buffer[n-1]) {
		e.buffer = e.buffer[:n-2]
		e.restoreColor()
		return
	}
	e.buffer = e.buffer[:n-1]
	e.eraseCell()
}

func (e *lineEditor) eraseCell() {
	e.s.putChar(e.ctx, '\b')
	e.s.putChar(e.ctx, ' ')
	e.s.putChar(e.ctx, '\b')
}

// restoreColor selects the color of the last pair still in the buffer.
func (e *lineEditor) restoreColor() {
	for i := len(e.buffer) - 2; i >= 0; i-- {
		if e.buffer[i] == colorEscape && isDigit(e.buffer[i+1]) {
			e.s.Palette(int(e.buffer[i+1] - '0'))
			return
		}
	}
	e.s.SetColor(e.startAttr)
}

// eraseWord removes trailing spaces and then the word before them.
func (e *lineEditor) eraseWord() {
	for len(e.buffer) > 0 && e.buffer[len(e.buffer)-1] == ' ' {
		e.backspace()
	}
	for len(e.buffer) > 0 && e.buffer[len(e.buffer)-1] != ' ' {
		e.backspace()
	}
}

func (e *lineEditor) visibleLength() int { return visibleWidth(e.buffer) }

// visibleWidth counts the screen cells text occupies; color pairs take
// none.
func visibleWidth(text []byte) int {
	n := 0
	for i := 0; i < len(text); i++ {
		if text[i] == colorEscape && i+1 < len(text) && isDigit(text[i+1]) {
			i++
			continue
		}
		n++
	}
	return n
}

// rollover takes the trailing partial word off the line when the last
// space is past the middle of the current column.
func (e *lineEditor) rollover() string {
	last := len(e.buffer) - 1
	space := last
	for space > 0 && e.buffer[space] != ' ' {
		space--
	}
	col, _ := e.s.machine.Position()
	if space == last || e.buffer[space] != ' ' || visibleWidth(e.buffer[:space]) <= (col-1)/2 {
		return ""
	}
	word := string(e.buffer[space+1:])
	for range visibleWidth(e.buffer[space+1:]) + 1 {
		e.eraseCell()
	}
	e.buffer = e.buffer[:space]
	if strings.IndexByte(word, colorEscape) >= 0 {
		e.restoreColor()
	}
	return word
}

func (e *lineEditor) previous() {
	s := e.s
	if s.config.ANSI {
		s.putChar(e.ctx, '\r')
		s.sendSequence(ansi.CursorUp(1))
	} else {
		s.write(e.ctx, s.strings.Get(lang.LinePrevious))
		s.putChar(e.ctx, '\r')
		s.putChar(e.ctx, '\n')
	}
	s.flush()
}
