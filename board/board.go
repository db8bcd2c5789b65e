// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/termhost/lib/ansi"
	"github.com/bureau-foundation/termhost/lib/clock"
	"github.com/bureau-foundation/termhost/lib/config"
	"github.com/bureau-foundation/termhost/lib/display"
	"github.com/bureau-foundation/termhost/lib/lang"
	"github.com/bureau-foundation/termhost/lib/userstore"
	"github.com/bureau-foundation/termhost/lib/version"
	"github.com/bureau-foundation/termhost/observe"
	"github.com/bureau-foundation/termhost/session"
)

// Config holds what every call shares.
type Config struct {
	System  config.SystemConfig
	Session config.SessionConfig

	Users   *userstore.Store
	Display *display.Library
	Strings *lang.Table

	// Hub mirrors calls to observers. Nil disables mirroring.
	Hub *observe.Hub

	Clock  clock.Clock
	Logger *slog.Logger
}

// Board runs calls.
type Board struct {
	config  Config
	palette [10]ansi.Attribute
	clock   clock.Clock
	logger  *slog.Logger
}

// New returns a Board. Users, Display and Strings are required.
func New(cfg Config) *Board {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	palette := session.DefaultPalette
	for index, value := range cfg.Session.Palette {
		if index < len(palette) {
			palette[index] = ansi.Attribute(value)
		}
	}
	return &Board{config: cfg, palette: palette, clock: cfg.Clock, logger: cfg.Logger}
}

// Line describes the connection a call runs on.
type Line struct {
	Channel io.ReadWriter
	Node    int
	Remote  string

	// Width and Height are the caller's screen size when known; zero
	// takes the configured session size.
	Width  int
	Height int
	ANSI   bool
}

// Call is one caller's visit.
type Call struct {
	board  *Board
	line   Line
	mirror *observe.Mirror
	logger *slog.Logger

	width  int
	height int

	resizeMu      sync.Mutex
	pendingWidth  int
	pendingHeight int
}

// NewCall prepares a call on line. Run starts it.
func (b *Board) NewCall(line Line) *Call {
	if line.Width <= 0 {
		line.Width = b.config.Session.Width
	}
	if line.Height <= 0 {
		line.Height = b.config.Session.Height
	}
	call := &Call{
		board:  b,
		line:   line,
		logger: b.logger.With("node", line.Node),
		width:  line.Width,
		height: line.Height,
	}
	if b.config.Hub != nil {
		call.mirror = b.config.Hub.Mirror(line.Node)
	}
	return call
}

// Resize records a new screen size. It may be called from any
// goroutine; the session picks the size up the next time it waits for
// a key.
func (c *Call) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.resizeMu.Lock()
	c.pendingWidth, c.pendingHeight = width, height
	c.resizeMu.Unlock()
	if c.mirror != nil {
		c.mirror.Resize(width, height)
	}
}

// applyResize runs on the session goroutine.
func (c *Call) applyResize(s *session.Session) {
	c.resizeMu.Lock()
	width, height := c.pendingWidth, c.pendingHeight
	c.pendingWidth, c.pendingHeight = 0, 0
	c.resizeMu.Unlock()
	if width == 0 {
		return
	}
	c.width, c.height = width, height
	s.Resize(width, height)
	c.logger.Debug("screen resized", "width", width, "height", height)
}

// Run plays the call until the caller says goodbye or hangs up. A
// hangup is not an error; Run fails only when the user store does.
func (c *Call) Run(ctx context.Context) error {
	cfg := c.board.config
	sessionConfig := session.Config{
		Node:                  c.line.Node,
		Width:                 c.width,
		Height:                c.height,
		BPS:                   cfg.Session.BPS,
		ANSI:                  c.line.ANSI,
		PauseEnabled:          cfg.Session.Pause,
		IdleTimeout:           cfg.Session.IdleTimeout.Std(),
		PrivilegedIdleTimeout: cfg.Session.PrivilegedIdleTimeout.Std(),
		Palette:               c.board.palette,
		PollInterval:          cfg.Session.PollInterval.Std(),
		TimeLimit:             cfg.Session.TimeLimit.Std(),
		System: session.SystemInfo{
			Name:    cfg.System.Name,
			Sysop:   cfg.System.Sysop,
			Phone:   cfg.System.Phone,
			Version: version.Short(),
		},
		Strings: cfg.Strings,
		Clock:   c.board.clock,
		Logger:  c.logger,
	}
	if c.mirror != nil {
		c.mirror.Connect(c.line.Remote, c.width, c.height, c.board.clock.Now())
		defer c.mirror.Disconnect()
		sessionConfig.Mirror = c.mirror
	}

	var s *session.Session
	sessionConfig.Callbacks.Yield = func() { c.applyResize(s) }
	s = session.New(c.line.Channel, sessionConfig)
	defer s.Close()

	c.logger.Info("call started", "remote", c.line.Remote, "ansi", c.line.ANSI)
	err := c.play(ctx, s)
	if errors.Is(err, session.ErrHangup) || errors.Is(err, errLogonFailed) {
		c.logger.Info("call ended", "reason", err)
		return nil
	}
	return err
}

func (c *Call) play(ctx context.Context, s *session.Session) error {
	user, err := c.logon(ctx, s)
	if err != nil {
		return err
	}
	return c.menu(ctx, s, user)
}
