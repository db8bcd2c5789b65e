// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/bureau-foundation/termhost/lib/display"
	"github.com/bureau-foundation/termhost/lib/lang"
	"github.com/bureau-foundation/termhost/lib/userstore"
	"github.com/bureau-foundation/termhost/session"
)

// BulletinName is the display file shown by the B command.
const BulletinName = "bulletin"

// maxExpressionLength bounds what E accepts.
const maxExpressionLength = 70

// menu runs the main menu until the caller says goodbye.
func (c *Call) menu(ctx context.Context, s *session.Session, user *userstore.User) error {
	for {
		c.applyResize(s)
		s.ClearAborted()
		s.Print(ctx, c.text(lang.MenuPrompt))
		choice, err := hotkey(ctx, s, "BEIG?")
		if err != nil {
			return err
		}
		s.Print(ctx, string(choice)+"\r\n")

		switch choice {
		case 'B':
			if err := c.bulletin(ctx, s); err != nil {
				return err
			}
		case 'E':
			if err := c.expression(ctx, s); err != nil {
				return err
			}
		case 'I':
			if err := c.typeLines(ctx, s); err != nil {
				return err
			}
		case 'G':
			c.logger.Info("caller said goodbye", "name", user.Name)
			s.Print(ctx, c.text(lang.Goodbye))
			return nil
		default:
			s.Print(ctx, c.text(lang.UnknownCommand))
		}
	}
}

// hotkey waits for one of choices, folded to upper case.
func hotkey(ctx context.Context, s *session.Session, choices string) (byte, error) {
	for {
		key, err := s.DecodeNext(ctx)
		if err != nil {
			return 0, err
		}
		if key.Kind != session.KeyChar {
			continue
		}
		upper := key.Char
		if upper >= 'a' && upper <= 'z' {
			upper -= 'a' - 'A'
		}
		if strings.IndexByte(choices, upper) >= 0 {
			return upper, nil
		}
	}
}

func (c *Call) bulletin(ctx context.Context, s *session.Session) error {
	content, err := c.board.config.Display.Find(BulletinName, display.Options{Width: c.width, ANSI: c.line.ANSI})
	if errors.Is(err, fs.ErrNotExist) {
		s.Print(ctx, c.text(lang.NoBulletin))
		return nil
	}
	if err != nil {
		c.logger.Warn("loading bulletin", "error", err)
		s.Print(ctx, c.text(lang.NoBulletin))
		return nil
	}
	s.Print(ctx, content)
	return nil
}

// expression evaluates what the caller types as a directive, so
// user.*, session.* and system.* values and the if function can be
// tried interactively. An expression wider than the screen continues
// on the next line.
func (c *Call) expression(ctx context.Context, s *session.Session) error {
	s.Print(ctx, c.text(lang.MenuExpression))
	var typed strings.Builder
	rollover := ""
	for {
		maxlen := max(maxExpressionLength-typed.Len(), len(rollover)+1)
		answer, err := s.Input(ctx, maxlen, session.LineOptions{Rollover: rollover})
		if err != nil {
			return err
		}
		typed.WriteString(answer.Text)
		if answer.End == session.LineEnter {
			break
		}
		// A non-empty rollover means the line was split at a space.
		rollover = answer.Rollover
		if rollover != "" {
			typed.WriteByte(' ')
		}
	}
	if expr := strings.TrimSpace(typed.String()); expr != "" {
		s.Print(ctx, "|{"+expr+"}\r\n")
	}
	return nil
}

// typeLines lets the caller type with word wrap until a blank line.
func (c *Call) typeLines(ctx context.Context, s *session.Session) error {
	s.Print(ctx, c.text(lang.MenuInput))
	lines := 0
	rollover := ""
	for {
		answer, err := s.Input(ctx, c.width-1, session.LineOptions{Rollover: rollover, AllowPrevious: true})
		if err != nil {
			return err
		}
		if answer.Previous() {
			continue
		}
		rollover = answer.Rollover
		if answer.Text == "" && rollover == "" {
			break
		}
		lines++
	}
	s.Printf(ctx, c.text(lang.MenuInputDone), lines)
	return nil
}
