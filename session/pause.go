// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"time"

	"github.com/bureau-foundation/termhost/lib/ansi"
	"github.com/bureau-foundation/termhost/lib/clock"
	"github.com/bureau-foundation/termhost/lib/lang"
)

// Pause prompt timing.
const (
	PauseWarningDelay = 120 * time.Second
	PauseLimit        = 180 * time.Second
)

// PauseResult is how a pause prompt ended.
type PauseResult uint8

const (
	PauseContinue PauseResult = iota
	// PauseQuit: the caller asked to stop the listing. Aborted is set.
	PauseQuit
	// PauseNonStop: the caller turned pausing off for the session.
	PauseNonStop
	// PauseTimedOut: no key within PauseLimit. The rest of the output is
	// abandoned.
	PauseTimedOut
	PauseHangup
)

func (r PauseResult) String() string {
	switch r {
	case PauseContinue:
		return "continue"
	case PauseQuit:
		return "quit"
	case PauseNonStop:
		return "non-stop"
	case PauseTimedOut:
		return "timed-out"
	case PauseHangup:
		return "hangup"
	}
	return "unknown"
}

// Pause shows the "more?" prompt and waits for a key. Message delivery
// is suspended while the prompt is up, and the lines-listed counter is
// reset on entry.
func (s *Session) Pause(ctx context.Context) PauseResult {
	if s.Hungup() {
		return PauseHangup
	}
	s.linesListed = 0
	s.messagesSuspended = true
	defer func() { s.messagesSuspended = false }()

	line := s.saved.Cells()
	attr := s.machine.Attr()
	width := s.write(ctx, s.strings.Get(lang.PausePrompt))
	s.flush()

	restore := func() {
		s.erasePrompt(ctx, width)
		s.SetColor(attr)
		s.saved.Restore(line)
		s.flush()
	}

	start := s.clock.Now()
	warned := false
	for {
		s.poll()
		if s.Hungup() {
			return PauseHangup
		}

		elapsed := clock.Since(s.clock, start)
		if elapsed >= PauseLimit {
			restore()
			s.stopOutput = true
			s.aborted = true
			s.logger.Debug("pause prompt timed out")
			return PauseTimedOut
		}
		if !warned && elapsed >= PauseWarningDelay {
			warned = true
			s.erasePrompt(ctx, width)
			width = s.write(ctx, s.strings.Get(lang.PauseWarning))
			s.flush()
		}

		wait := PauseWarningDelay - elapsed
		if warned {
			wait = PauseLimit - elapsed
		}
		if s.config.PollInterval > 0 && s.config.PollInterval < wait {
			wait = s.config.PollInterval
		}

		b, err := s.nextByte(ctx, wait)
		if errors.Is(err, errTimeout) {
			continue
		}
		if err != nil {
			return PauseHangup
		}
		s.lastInput = s.clock.Now()
		if b == keyEscape {
			if _, err := s.decodeEscape(ctx); err != nil {
				return PauseHangup
			}
		}
		restore()

		switch b {
		case 'N', 'n', 'Q', 'q', keyCtrlC:
			s.aborted = true
			s.stopOutput = true
			return PauseQuit
		case '=':
			s.pauseEnabled = false
			return PauseNonStop
		}
		return PauseContinue
	}
}

// erasePrompt removes width characters to the left of the cursor.
func (s *Session) erasePrompt(ctx context.Context, width int) {
	if width <= 0 {
		return
	}
	if s.config.ANSI {
		s.sendSequence(ansi.CursorBack(width) + ansi.EraseLineRight)
		return
	}
	for range width {
		s.putChar(ctx, '\b')
		s.putChar(ctx, ' ')
		s.putChar(ctx, '\b')
	}
}
