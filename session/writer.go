// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bureau-foundation/termhost/lib/ansi"
	"github.com/bureau-foundation/termhost/lib/directive"
)

// minPaceSleep is the smallest lag behind the rate cap worth sleeping
// for.
const minPaceSleep = 10 * time.Millisecond

// Print writes text to the caller and returns the number of visible
// characters emitted. Text may contain:
//
//	|00-|15   foreground color      |16-|23   background color
//	|#0-|#9   user palette color    |@X       macro X
//	|{expr}   directive expression  |[move]   cursor movement
//	^C digit  palette color         ^O^O X    macro X
//
// Anything else, including a sentinel that does not form one of these,
// is sent as is. Print stops early when the caller quits at a pause
// prompt; check Aborted.
func (s *Session) Print(ctx context.Context, text string) int {
	if s.Hungup() {
		return 0
	}
	s.stopOutput = false
	s.paceStart = time.Time{}
	s.paceBytes = 0
	visible := s.write(ctx, text)
	s.flush()
	return visible
}

// Printf formats and prints.
func (s *Session) Printf(ctx context.Context, format string, args ...any) int {
	return s.Print(ctx, fmt.Sprintf(format, args...))
}

// write is Print without the per-call resets, for output produced while
// a Print is already in progress.
func (s *Session) write(ctx context.Context, text string) int {
	visible := 0
	for i := 0; i < len(text); {
		if s.stopOutput || s.Hungup() {
			break
		}
		c := text[i]
		switch {
		case c == pipeSentinel && i+1 < len(text):
			if consumed, shown, ok := s.pipeCode(ctx, text[i+1:]); ok {
				visible += shown
				i += 1 + consumed
				continue
			}
		case c == colorEscape && i+1 < len(text) && isDigit(text[i+1]):
			s.Palette(int(text[i+1] - '0'))
			i += 2
			continue
		case c == macroEscape && i+2 < len(text) && text[i+1] == macroEscape:
			visible += s.emit(ctx, s.directives.Macro(text[i+2]))
			i += 3
			continue
		}
		if s.putChar(ctx, c) {
			visible++
		}
		i++
	}
	return visible
}

// pipeCode interprets the text after a '|'. It reports how many bytes it
// consumed and whether the text formed a code at all.
func (s *Session) pipeCode(ctx context.Context, rest string) (consumed, shown int, ok bool) {
	switch rest[0] {
	case '#':
		if len(rest) >= 2 && isDigit(rest[1]) {
			s.Palette(int(rest[1] - '0'))
			return 2, 0, true
		}

	case '@':
		if len(rest) >= 2 {
			return 2, s.emit(ctx, s.directives.Macro(rest[1])), true
		}

	case '{':
		if end := strings.IndexByte(rest, '}'); end > 0 {
			return end + 1, s.apply(ctx, s.directives.Evaluate(rest[1:end])), true
		}

	case '[':
		if end := strings.IndexByte(rest, ']'); end > 0 {
			return end + 1, s.apply(ctx, directive.ParseMovement(rest[1:end])), true
		}

	default:
		if len(rest) >= 2 && isDigit(rest[0]) && isDigit(rest[1]) {
			n := int(rest[0]-'0')*10 + int(rest[1]-'0')
			switch {
			case n < 16:
				s.SetColor(s.machine.Attr().WithForeground(n))
			case n < 24:
				s.SetColor(s.machine.Attr().WithBackground(n - 16))
			default:
				return 0, 0, false
			}
			return 2, 0, true
		}
	}
	return 0, 0, false
}

// apply carries out an interpreted directive.
func (s *Session) apply(ctx context.Context, result directive.Interpreted) int {
	shown := 0
	if result.Kind == directive.ResultMovement {
		s.move(ctx, result.Movement)
	} else {
		shown = s.emit(ctx, result.Text)
	}
	if result.Pause {
		s.Pause(ctx)
	}
	return shown
}

// emit sends text through the character primitive without looking for
// codes, so expanded values cannot inject further directives.
func (s *Session) emit(ctx context.Context, text string) int {
	visible := 0
	for i := 0; i < len(text) && !s.stopOutput; i++ {
		if s.putChar(ctx, text[i]) {
			visible++
		}
	}
	return visible
}

// putChar is the character primitive. It reports whether b was a
// visible character.
func (s *Session) putChar(ctx context.Context, b byte) bool {
	if s.Hungup() {
		return false
	}
	consumed := s.machine.Write(b)
	s.send(b)
	if consumed {
		return false
	}
	col, row := s.machine.Position()
	switch {
	case b == '\n':
		s.saved.Clear()
		s.lineRow = row
		s.afterNewline(ctx)
		return false
	case b == '\b':
		s.saved.Pop()
		return false
	case b < 0x20 || b == keyDelete:
		return false
	}
	if col == 1 {
		// b filled the last column and the terminal wrapped, leaving
		// the cursor on an empty line.
		s.saved.Clear()
		s.lineRow = row
		return true
	}
	s.saved.Append(b, s.machine.Attr())
	return true
}

// cursorMoved runs when an escape sequence moves the shadow cursor. A
// move to another row leaves the Saved Line behind.
func (s *Session) cursorMoved(_, row int) {
	if row != s.lineRow {
		s.saved.Clear()
		s.lineRow = row
	}
}

func (s *Session) afterNewline(ctx context.Context) {
	if s.callbacks.CheckHangup != nil && s.callbacks.CheckHangup() {
		s.Hangup()
		return
	}
	s.linesListed++
	if s.pauseEnabled && s.linesListed >= s.config.Height-1 {
		s.Pause(ctx)
	}
}

// sendSequence emits an escape sequence generated by the session. The
// shadow machine sees it but the Saved Line does not.
func (s *Session) sendSequence(sequence string) {
	for i := 0; i < len(sequence); i++ {
		s.machine.Write(sequence[i])
		s.send(sequence[i])
	}
}

// send puts one byte on the wire, holding it back as needed to stay
// under the rate cap.
func (s *Session) send(b byte) {
	if s.config.BPS > 0 {
		s.pace()
	}
	if err := s.out.WriteByte(b); err != nil {
		s.hangupWith(fmt.Errorf("writing to channel: %w", err))
		return
	}
	s.paceBytes++
}

func (s *Session) pace() {
	now := s.clock.Now()
	if s.paceStart.IsZero() {
		s.paceStart = now
		return
	}
	bytesPerSecond := max(s.config.BPS/10, 1)
	due := s.paceStart.Add(time.Duration(s.paceBytes) * time.Second / time.Duration(bytesPerSecond))
	if ahead := due.Sub(now); ahead >= minPaceSleep {
		s.flush()
		s.clock.Sleep(ahead)
	}
}

func (s *Session) flush() error {
	if err := s.out.Flush(); err != nil {
		s.hangupWith(fmt.Errorf("flushing channel: %w", err))
		return err
	}
	return nil
}

// SetColor changes the current attribute, sending the minimal SGR change
// when the caller has ANSI.
func (s *Session) SetColor(attr ansi.Attribute) {
	s.sendSequence(ansi.MakeSequence(attr, s.machine.Attr(), s.config.ANSI))
	s.machine.SetAttr(attr)
}

// Palette selects color n (0-9) from the user palette.
func (s *Session) Palette(n int) {
	if n < 0 || n >= len(s.config.Palette) {
		return
	}
	s.SetColor(s.config.Palette[n])
}

// Newline ends the current line.
func (s *Session) Newline(ctx context.Context) {
	s.putChar(ctx, '\r')
	s.putChar(ctx, '\n')
	s.flush()
}

// ClearScreen clears the screen and homes the cursor. Without ANSI it
// sends a form feed.
func (s *Session) ClearScreen() {
	if s.config.ANSI {
		s.sendSequence(ansi.EraseDisplay + ansi.CursorPosition(1, 1))
	} else {
		s.machine.Write(0x0C)
		s.send(0x0C)
	}
	s.linesListed = 0
	s.saved.Clear()
	s.lineRow = 1
}

// GotoXY moves to the 0-based column x and row y. Ignored without ANSI.
func (s *Session) GotoXY(x, y int) {
	if !s.config.ANSI {
		return
	}
	s.sendSequence(ansi.CursorPosition(y+1, x+1))
}

// move performs a [...] directive.
func (s *Session) move(ctx context.Context, m directive.Movement) {
	if m.ClearScreen {
		s.ClearScreen()
	}
	if m.HasPosition() {
		s.GotoXY(m.X, m.Y)
	}
	if s.config.ANSI {
		for _, step := range []struct {
			count    int
			sequence func(int) string
		}{
			{m.Up, ansi.CursorUp},
			{m.Down, ansi.CursorDown},
			{m.Right, ansi.CursorForward},
			{m.Left, ansi.CursorBack},
		} {
			if step.count > 0 {
				s.sendSequence(step.sequence(step.count))
			}
		}
		if m.ClearBOL {
			s.sendSequence(ansi.EraseLineLeft)
		}
		if m.ClearEOL {
			s.sendSequence(ansi.EraseLineRight)
		}
	}
	for range m.Newlines {
		s.putChar(ctx, '\r')
		s.putChar(ctx, '\n')
	}
}

// RedrawLine redraws the Saved Line in its original colors.
func (s *Session) RedrawLine(ctx context.Context) {
	line := s.saved.Cells()
	attr := s.machine.Attr()
	s.putChar(ctx, '\r')
	if s.config.ANSI {
		s.sendSequence(ansi.EraseLineRight)
	}
	s.replay(ctx, line)
	s.SetColor(attr)
	s.flush()
}

// replay draws cells from the cursor position.
func (s *Session) replay(ctx context.Context, cells []Cell) {
	s.saved.Clear()
	for _, cell := range cells {
		s.SetColor(cell.Attr)
		s.putChar(ctx, cell.Char)
	}
}
