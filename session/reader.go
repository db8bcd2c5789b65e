// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"time"

	"github.com/bureau-foundation/termhost/lib/lang"
)

// EscapeWait is how long a lone ESC waits for the rest of a sequence
// before it is reported as the Escape command.
const EscapeWait = time.Second

// maxEscapeParams bounds the parameter bytes read for ESC [ n ~ forms.
const maxEscapeParams = 8

// DecodeNext blocks until the caller presses a key and returns it as an
// event. Session control keys are handled here and never returned.
func (s *Session) DecodeNext(ctx context.Context) (KeyEvent, error) {
	for {
		b, err := s.getKey(ctx)
		if err != nil {
			return KeyEvent{}, err
		}

		switch {
		case b == keyEscape:
			return s.decodeEscape(ctx)

		case b == keyExtended:
			next, err := s.nextByte(ctx, EscapeWait)
			if errors.Is(err, errTimeout) {
				return KeyEvent{Kind: KeyNone}, nil
			}
			if err != nil {
				return KeyEvent{}, err
			}
			code := ExtendedOffset + int(next)
			if s.callbacks.SysopKey != nil && s.callbacks.SysopKey(code) {
				continue
			}
			return KeyEvent{Kind: KeyExtended, Code: code}, nil

		case b < 0x20:
			if s.expandKeyMacro(b) || s.controlAction(ctx, b) {
				continue
			}

		case s.numpad:
			if command, ok := numpadCommands[b]; ok {
				return commandEvent(command), nil
			}
		}
		return charEvent(b), nil
	}
}

// decodeEscape reads what follows an ESC.
func (s *Session) decodeEscape(ctx context.Context) (KeyEvent, error) {
	b, err := s.nextByte(ctx, EscapeWait)
	if errors.Is(err, errTimeout) {
		return commandEvent(CommandEscape), nil
	}
	if err != nil {
		return KeyEvent{}, err
	}
	if b != '[' && b != 'O' {
		s.pushBack(b)
		return commandEvent(CommandEscape), nil
	}

	b, err = s.nextByte(ctx, EscapeWait)
	if err == nil && (b == '[' || b == 'O') {
		b, err = s.nextByte(ctx, EscapeWait)
	}
	if errors.Is(err, errTimeout) {
		return KeyEvent{Kind: KeyNone}, nil
	}
	if err != nil {
		return KeyEvent{}, err
	}

	if command, ok := escapeCommands[b]; ok {
		return commandEvent(command), nil
	}
	if !isDigit(b) {
		s.logger.Debug("unknown escape sequence", "final", string(rune(b)))
		return KeyEvent{Kind: KeyNone}, nil
	}
	return s.decodeTilde(ctx, b)
}

// decodeTilde finishes ESC [ n ~ and ESC [ n ; m X sequences.
func (s *Session) decodeTilde(ctx context.Context, first byte) (KeyEvent, error) {
	n := int(first - '0')
	inFirst := true
	for range maxEscapeParams {
		b, err := s.nextByte(ctx, EscapeWait)
		if errors.Is(err, errTimeout) {
			return KeyEvent{Kind: KeyNone}, nil
		}
		if err != nil {
			return KeyEvent{}, err
		}
		switch {
		case isDigit(b):
			if inFirst {
				n = n*10 + int(b-'0')
			}
		case b == ';':
			inFirst = false
		case b == '~':
			if command, ok := tildeCommands[n]; ok {
				return commandEvent(command), nil
			}
			return KeyEvent{Kind: KeyNone}, nil
		default:
			if command, ok := escapeCommands[b]; ok {
				return commandEvent(command), nil
			}
			return KeyEvent{Kind: KeyNone}, nil
		}
	}
	return KeyEvent{Kind: KeyNone}, nil
}

// expandKeyMacro queues the configured text for a macro key.
func (s *Session) expandKeyMacro(b byte) bool {
	if !s.macrosEnabled {
		return false
	}
	text := s.config.KeyMacros[b]
	if text == "" {
		return false
	}
	s.pushBack([]byte(text)...)
	return true
}

// controlAction runs the session action bound to a control key and
// reports whether the key was consumed.
func (s *Session) controlAction(ctx context.Context, b byte) bool {
	switch b {
	case keyCtrlN:
		s.macrosEnabled = !s.macrosEnabled
		return true

	case keyCtrlT:
		if s.callbacks.ShowTimeLeft != nil {
			s.callbacks.ShowTimeLeft()
			return true
		}
		line := s.saved.Cells()
		attr := s.machine.Attr()
		s.Print(ctx, s.strings.Get(lang.TimeLeft))
		s.SetColor(attr)
		s.replay(ctx, line)
		s.flush()
		return true

	case keyCtrlU:
		if s.callbacks.ShowInstances == nil {
			return false
		}
		s.callbacks.ShowInstances()
		return true

	case keyCtrlR:
		s.RedrawLine(ctx)
		return true

	case keyCtrlL:
		if s.config.Abilities&AbilityToggleAvailable == 0 || s.callbacks.ToggleAvailable == nil {
			return false
		}
		s.callbacks.ToggleAvailable()
		return true

	case keyCtrlV:
		if s.config.Abilities&AbilityToggleInvisible == 0 || s.callbacks.ToggleInvisible == nil {
			return false
		}
		s.callbacks.ToggleInvisible()
		return true
	}
	return false
}
