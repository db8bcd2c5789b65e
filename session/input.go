// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"time"

	"github.com/bureau-foundation/termhost/lib/clock"
	"github.com/bureau-foundation/termhost/lib/lang"
)

// IdleWarningLead is how long before the idle limit the warning fires.
const IdleWarningLead = time.Minute

var errTimeout = errors.New("timed out waiting for input")

// nextByte returns the next input byte. A positive timeout bounds the
// wait and yields errTimeout when it expires.
func (s *Session) nextByte(ctx context.Context, timeout time.Duration) (byte, error) {
	if len(s.pending) > 0 {
		b := s.pending[0]
		s.pending = s.pending[1:]
		return b, nil
	}
	if s.Hungup() {
		return 0, ErrHangup
	}

	var expired <-chan time.Time
	if timeout > 0 {
		expired = s.clock.After(timeout)
	}
	select {
	case chunk, ok := <-s.incoming:
		if !ok {
			s.hangupWith(s.readErr)
			return 0, ErrHangup
		}
		s.pending = chunk[1:]
		return chunk[0], nil
	case <-expired:
		return 0, errTimeout
	case <-ctx.Done():
		s.hangupWith(ctx.Err())
		return 0, ErrHangup
	case <-s.done:
		return 0, ErrHangup
	}
}

// pushBack returns bytes to the front of the input queue.
func (s *Session) pushBack(b ...byte) {
	pending := make([]byte, 0, len(b)+len(s.pending))
	pending = append(pending, b...)
	s.pending = append(pending, s.pending...)
}

func (s *Session) idleLimit() time.Duration {
	if s.config.Privileged {
		return s.config.PrivilegedIdleTimeout
	}
	return s.config.IdleTimeout
}

// getKey waits for one input byte while enforcing the idle limit. Each
// wait iteration polls the host callbacks first.
func (s *Session) getKey(ctx context.Context) (byte, error) {
	for {
		s.poll()
		if s.Hungup() {
			return 0, ErrHangup
		}
		if err := s.flush(); err != nil {
			return 0, ErrHangup
		}

		var wait time.Duration
		if limit := s.idleLimit(); limit > 0 {
			idle := clock.Since(s.clock, s.lastInput)
			if idle >= limit {
				s.logger.Info("idle limit reached", "limit", limit)
				s.hangupWith(ErrIdleTimeout)
				return 0, ErrHangup
			}
			warnAt := limit - IdleWarningLead
			if !s.idleWarned && warnAt > 0 && idle >= warnAt {
				s.idleWarned = true
				s.warnIdle(ctx)
			}
			if s.idleWarned || warnAt <= 0 {
				wait = limit - idle
			} else {
				wait = warnAt - idle
			}
		}
		if s.config.PollInterval > 0 && (wait <= 0 || s.config.PollInterval < wait) {
			wait = s.config.PollInterval
		}

		b, err := s.nextByte(ctx, wait)
		if errors.Is(err, errTimeout) {
			continue
		}
		if err != nil {
			return 0, err
		}
		s.lastInput = s.clock.Now()
		if s.idleWarned {
			s.idleWarned = false
			s.clearIdleWarning(ctx)
		}
		return b, nil
	}
}

func (s *Session) warnIdle(ctx context.Context) {
	if s.callbacks.IdleWarning != nil {
		s.callbacks.IdleWarning()
		return
	}
	line := s.saved.Cells()
	attr := s.machine.Attr()
	s.Print(ctx, s.strings.Get(lang.IdleWarning))
	s.SetColor(attr)
	s.replay(ctx, line)
	s.flush()
}

func (s *Session) clearIdleWarning(ctx context.Context) {
	if s.callbacks.WarningCleared != nil {
		s.callbacks.WarningCleared()
		return
	}
	if text := s.strings.Get(lang.IdleCleared); text != "" {
		s.Print(ctx, text)
	}
}
