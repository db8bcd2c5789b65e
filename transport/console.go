// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package transport

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Console is the local terminal as a session channel: stdin in raw
// mode for keys, stdout for output.
type Console struct {
	in     *os.File
	out    *os.File
	state  *term.State
	ansi   bool
	logger *slog.Logger

	resize    chan os.Signal
	done      chan struct{}
	closeOnce sync.Once

	sizeMu   sync.Mutex
	onResize ResizeFunc
}

// OpenConsole switches in to raw mode. Close restores it.
func OpenConsole(in, out *os.File, logger *slog.Logger) (*Console, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !term.IsTerminal(int(in.Fd())) {
		return nil, fmt.Errorf("console: %s is not a terminal", in.Name())
	}
	state, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return nil, fmt.Errorf("console: raw mode: %w", err)
	}

	profile := termenv.NewOutput(out).EnvColorProfile()
	c := &Console{
		in:     in,
		out:    out,
		state:  state,
		ansi:   profile != termenv.Ascii,
		logger: logger,
		resize: make(chan os.Signal, 1),
		done:   make(chan struct{}),
	}
	signal.Notify(c.resize, unix.SIGWINCH)
	go c.watchResize()

	logger.Debug("console opened", "ansi", c.ansi)
	return c, nil
}

// ANSI reports whether the terminal renders color.
func (c *Console) ANSI() bool {
	return c.ansi
}

// Size returns the terminal size in columns and rows.
func (c *Console) Size() (width, height int, err error) {
	return term.GetSize(int(c.out.Fd()))
}

// OnResize registers fn to receive size changes.
func (c *Console) OnResize(fn ResizeFunc) {
	c.sizeMu.Lock()
	c.onResize = fn
	c.sizeMu.Unlock()
}

func (c *Console) watchResize() {
	for {
		select {
		case <-c.done:
			return
		case <-c.resize:
			width, height, err := c.Size()
			if err != nil {
				c.logger.Debug("console size", "error", err)
				continue
			}
			c.sizeMu.Lock()
			fn := c.onResize
			c.sizeMu.Unlock()
			if fn != nil {
				fn(width, height)
			}
		}
	}
}

func (c *Console) Read(p []byte) (int, error) {
	return c.in.Read(p)
}

func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// Close restores the terminal mode.
func (c *Console) Close() error {
	var err error
	c.closeOnce.Do(func() {
		signal.Stop(c.resize)
		close(c.done)
		err = term.Restore(int(c.in.Fd()), c.state)
	})
	return err
}
