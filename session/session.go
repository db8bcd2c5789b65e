// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/termhost/lib/ansi"
	"github.com/bureau-foundation/termhost/lib/clock"
	"github.com/bureau-foundation/termhost/lib/directive"
	"github.com/bureau-foundation/termhost/lib/lang"
	"github.com/bureau-foundation/termhost/lib/netutil"
)

// ErrHangup is returned by every blocking operation once the session
// has ended.
var ErrHangup = errors.New("session hung up")

// ErrIdleTimeout is the hangup cause when no key arrived within the idle
// limit.
var ErrIdleTimeout = errors.New("idle timeout")

// outputBufferSize bounds how much output is held before it is written
// to the channel.
const outputBufferSize = 4096

// Ability gates privileged control keys.
type Ability uint8

const (
	// AbilityToggleAvailable allows Ctrl-L to toggle chat availability.
	AbilityToggleAvailable Ability = 1 << iota
	// AbilityToggleInvisible allows Ctrl-V to toggle invisibility.
	AbilityToggleInvisible
)

// Callbacks are the host actions a session invokes. Any may be nil.
type Callbacks struct {
	// CheckHangup is polled while waiting and at every newline; true
	// ends the session.
	CheckHangup func() bool

	// PumpMessages delivers inter-node messages. Not called while the
	// pause prompt is showing.
	PumpMessages func()

	// Yield is called once per wait iteration.
	Yield func()

	ShowTimeLeft    func()
	ShowInstances   func()
	ToggleAvailable func()
	ToggleInvisible func()

	// SysopKey receives extended keys (see ExtendedOffset) and reports
	// whether it handled them.
	SysopKey func(code int) bool

	// IdleWarning fires once when the idle limit is a minute away.
	IdleWarning func()

	// WarningCleared fires when input arrives after an IdleWarning.
	WarningCleared func()
}

// SystemInfo describes the host for the system.* variables.
type SystemInfo struct {
	Name    string
	Sysop   string
	Phone   string
	Version string
}

// DefaultPalette is the user color table selected by |#0 through |#9.
var DefaultPalette = [10]ansi.Attribute{0x07, 0x0B, 0x0E, 0x05, 0x1F, 0x02, 0x0C, 0x09, 0x06, 0x03}

// Config configures a Session. Zero values take the documented defaults.
type Config struct {
	// Node is the node number shown in session.node.
	Node int

	// Width and Height are the screen size; default 80x24.
	Width  int
	Height int

	// BPS caps output at this many bits per second (10 bits per byte).
	// Zero is unlimited.
	BPS int

	// ANSI enables escape sequences. Without it colors and cursor
	// movement are suppressed.
	ANSI bool

	// PauseEnabled pauses output after Height-1 lines.
	PauseEnabled bool

	// IdleTimeout and PrivilegedIdleTimeout end the session when no key
	// arrives for that long. Zero disables the limit.
	IdleTimeout           time.Duration
	PrivilegedIdleTimeout time.Duration
	Privileged            bool

	Abilities Ability

	// Palette is the user color table; the zero value selects
	// DefaultPalette.
	Palette [10]ansi.Attribute

	NumpadMode bool

	// KeyMacros maps control keys to text typed on the caller's behalf
	// while macro keys are enabled (Ctrl-N toggles them).
	KeyMacros map[byte]string

	// PollInterval bounds how long a wait runs before CheckHangup,
	// PumpMessages, and Yield are called again. Zero waits until input
	// or the next timeout threshold.
	PollInterval time.Duration

	// TimeLimit is the time allowed for this call, for session.timeleft.
	TimeLimit time.Duration

	System  SystemInfo
	Strings *lang.Table

	// Mirror receives a copy of everything written to the channel.
	// Mirror errors never affect the session.
	Mirror io.Writer

	Clock     clock.Clock
	Logger    *slog.Logger
	Callbacks Callbacks
}

// Session is one caller's terminal. Create with New.
type Session struct {
	config    Config
	callbacks Callbacks
	clock     clock.Clock
	logger    *slog.Logger
	strings   *lang.Table

	out        *bufio.Writer
	machine    *ansi.Machine
	directives *directive.Context
	saved      SavedLine
	// lineRow is the screen row the Saved Line was drawn on.
	lineRow int

	incoming <-chan []byte
	readErr  error
	pending  []byte

	done      chan struct{}
	closeOnce sync.Once
	hungUp    atomic.Bool
	causeMu   sync.Mutex
	cause     error

	connectedAt time.Time
	lastInput   time.Time
	idleWarned  bool

	linesListed       int
	pauseEnabled      bool
	aborted           bool
	stopOutput        bool
	macrosEnabled     bool
	numpad            bool
	messagesSuspended bool

	paceStart time.Time
	paceBytes int64
}

// New starts a session on channel. The session reads from channel on an
// internal goroutine until the channel returns an error, so the host
// must close the channel when the connection ends.
func New(channel io.ReadWriter, config Config) *Session {
	if channel == nil {
		panic("session: nil channel")
	}
	if config.Width <= 0 {
		config.Width = 80
	}
	if config.Height <= 0 {
		config.Height = 24
	}
	if config.Palette == ([10]ansi.Attribute{}) {
		config.Palette = DefaultPalette
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	var destination io.Writer = channel
	if config.Mirror != nil {
		destination = mirrorWriter{primary: channel, mirror: config.Mirror}
	}

	incoming := make(chan []byte, 16)
	s := &Session{
		config:        config,
		callbacks:     config.Callbacks,
		clock:         config.Clock,
		logger:        config.Logger.With("node", config.Node),
		strings:       config.Strings,
		out:           bufio.NewWriterSize(destination, outputBufferSize),
		machine:       ansi.NewMachine(config.Width, config.Height),
		incoming:      incoming,
		done:          make(chan struct{}),
		pauseEnabled:  config.PauseEnabled,
		macrosEnabled: true,
		numpad:        config.NumpadMode,
	}
	s.lineRow = 1
	s.machine.OnMove = s.cursorMoved
	s.connectedAt = s.clock.Now()
	s.lastInput = s.connectedAt
	s.directives = directive.NewContext(s, s.logger)
	s.directives.Register("session", directive.ProviderFunc(s.sessionVariable))
	s.directives.Register("system", directive.ProviderFunc(s.systemVariable))

	go s.readLoop(channel, incoming)
	return s
}

func (s *Session) readLoop(r io.Reader, incoming chan<- []byte) {
	defer close(incoming)
	buffer := make([]byte, 512)
	for {
		n, err := r.Read(buffer)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buffer[:n])
			select {
			case incoming <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.readErr = err
			return
		}
	}
}

// Directives returns the session's directive context so the host can
// register providers (user.*, msg.*) and functions.
func (s *Session) Directives() *directive.Context { return s.directives }

// Machine exposes the shadow terminal state.
func (s *Session) Machine() *ansi.Machine { return s.machine }

// SavedLine returns the redraw buffer for the current line.
func (s *Session) SavedLine() *SavedLine { return &s.saved }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// ANSI reports whether escape sequences are enabled.
func (s *Session) ANSI() bool { return s.config.ANSI }

// Resize changes the screen dimensions, for example after a telnet
// NAWS update.
func (s *Session) Resize(width, height int) {
	if width > 0 {
		s.config.Width = width
	}
	if height > 0 {
		s.config.Height = height
	}
	s.machine.Resize(s.config.Width, s.config.Height)
}

// SetPrivileged switches between the normal and privileged idle limits.
func (s *Session) SetPrivileged(privileged bool, abilities Ability) {
	s.config.Privileged = privileged
	s.config.Abilities = abilities
}

// Aborted reports whether the caller quit at a pause prompt. Listing
// loops check it between items.
func (s *Session) Aborted() bool { return s.aborted }

// ClearAborted resets the abort flag before the next listing.
func (s *Session) ClearAborted() { s.aborted = false }

// PauseEnabled reports whether screen pausing is on.
func (s *Session) PauseEnabled() bool { return s.pauseEnabled }

// LinesListed returns the lines printed since the last pause.
func (s *Session) LinesListed() int { return s.linesListed }

// MacrosEnabled reports the state toggled by Ctrl-N.
func (s *Session) MacrosEnabled() bool { return s.macrosEnabled }

// SetNumpad switches numeric keypad mode.
func (s *Session) SetNumpad(on bool) { s.numpad = on }

// Hangup ends the session. Safe to call from any goroutine and more
// than once.
func (s *Session) Hangup() { s.hangupWith(nil) }

func (s *Session) hangupWith(cause error) {
	s.closeOnce.Do(func() {
		s.causeMu.Lock()
		s.cause = cause
		s.causeMu.Unlock()
		s.hungUp.Store(true)
		close(s.done)
		switch {
		case cause == nil:
			s.logger.Info("session hung up")
		case errors.Is(cause, ErrIdleTimeout) || netutil.IsExpectedCloseError(cause):
			s.logger.Info("session hung up", "reason", cause)
		default:
			s.logger.Warn("session hung up", "error", cause)
		}
	})
}

// Hungup reports whether the session has ended.
func (s *Session) Hungup() bool { return s.hungUp.Load() }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Cause returns why the session ended, or nil.
func (s *Session) Cause() error {
	s.causeMu.Lock()
	defer s.causeMu.Unlock()
	return s.cause
}

// Close flushes pending output and hangs up.
func (s *Session) Close() error {
	err := s.flush()
	s.Hangup()
	return err
}

// poll runs the per-iteration host callbacks.
func (s *Session) poll() {
	if s.callbacks.CheckHangup != nil && s.callbacks.CheckHangup() {
		s.Hangup()
	}
	if !s.messagesSuspended && s.callbacks.PumpMessages != nil {
		s.callbacks.PumpMessages()
	}
	if s.callbacks.Yield != nil {
		s.callbacks.Yield()
	}
}

// SetFlag implements directive.Flags for the set function.
func (s *Session) SetFlag(name, value string) bool {
	switch name {
	case "pause":
		on, ok := parseSwitch(value)
		if ok {
			s.pauseEnabled = on
		}
		return ok
	case "lines":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return false
		}
		s.linesListed = n
		return true
	case "macros":
		on, ok := parseSwitch(value)
		if ok {
			s.macrosEnabled = on
		}
		return ok
	case "numpad":
		on, ok := parseSwitch(value)
		if ok {
			s.numpad = on
		}
		return ok
	}
	return false
}

func parseSwitch(value string) (bool, bool) {
	switch strings.ToLower(value) {
	case "on", "yes", "true", "1":
		return true, true
	case "off", "no", "false", "0":
		return false, true
	}
	return false, false
}

// TimeLeft returns the remaining call time, or zero without a limit.
func (s *Session) TimeLeft() time.Duration {
	if s.config.TimeLimit <= 0 {
		return 0
	}
	left := s.config.TimeLimit - clock.Since(s.clock, s.connectedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (s *Session) sessionVariable(attribute string) (string, bool) {
	switch attribute {
	case "node":
		return strconv.Itoa(s.config.Node), true
	case "timeleft":
		return strconv.Itoa(int(s.TimeLeft() / time.Minute)), true
	case "bps":
		return strconv.Itoa(s.config.BPS), true
	case "width":
		return strconv.Itoa(s.config.Width), true
	case "height":
		return strconv.Itoa(s.config.Height), true
	case "ansi":
		return strconv.FormatBool(s.config.ANSI), true
	case "pause":
		return strconv.FormatBool(s.pauseEnabled), true
	case "lines":
		return strconv.Itoa(s.linesListed), true
	}
	return "", false
}

func (s *Session) systemVariable(attribute string) (string, bool) {
	switch attribute {
	case "name":
		return s.config.System.Name, true
	case "sysop":
		return s.config.System.Sysop, true
	case "phone":
		return s.config.System.Phone, true
	case "version":
		return s.config.System.Version, true
	case "time":
		return s.clock.Now().Format("15:04:05"), true
	case "date":
		return s.clock.Now().Format("01/02/06"), true
	}
	return "", false
}

// mirrorWriter copies successful writes to a secondary writer whose
// errors are ignored.
type mirrorWriter struct {
	primary io.Writer
	mirror  io.Writer
}

func (w mirrorWriter) Write(p []byte) (int, error) {
	n, err := w.primary.Write(p)
	if n > 0 {
		_, _ = w.mirror.Write(p[:n])
	}
	return n, err
}
