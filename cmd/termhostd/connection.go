// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"net"

	"github.com/bureau-foundation/termhost/board"
	"github.com/bureau-foundation/termhost/lib/config"
	"github.com/bureau-foundation/termhost/lib/lang"
	"github.com/bureau-foundation/termhost/session"
	"github.com/bureau-foundation/termhost/transport"
)

type daemon struct {
	cfg     *config.Config
	nodes   *board.Nodes
	board   *board.Board
	prompts *lang.Table
	logger  *slog.Logger
}

// handle runs one caller's connection from accept to hangup.
func (d *daemon) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	logger := d.logger.With("remote", remote)

	// Closing the connection ends the session's reader, so a shutdown
	// reaches callers blocked at a prompt.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var channel io.ReadWriter = conn
	var telnet *transport.TelnetConn
	if d.cfg.Listen.Telnet {
		telnet = transport.NewTelnetConn(conn, logger)
		if err := telnet.Negotiate(); err != nil {
			logger.Debug("telnet negotiation failed", "error", err)
			return
		}
		channel = telnet
	}
	if d.cfg.Listen.UTF8 {
		channel = transport.NewUTF8Channel(channel)
	}

	node, ok := d.nodes.Acquire()
	if !ok {
		logger.Info("refused caller: all nodes busy", "nodes", d.nodes.Count())
		refusal := session.New(channel, session.Config{
			ANSI:    d.cfg.Session.ANSI,
			Strings: d.prompts,
			Logger:  logger,
		})
		refusal.Print(ctx, d.prompts.Get(lang.NodesBusy))
		refusal.Close()
		return
	}
	defer d.nodes.Release(node)

	line := board.Line{
		Channel: channel,
		Node:    node,
		Remote:  remote,
		ANSI:    d.cfg.Session.ANSI,
	}
	if telnet != nil {
		line.Width, line.Height, _ = telnet.Size()
	}
	call := d.board.NewCall(line)
	if telnet != nil {
		telnet.OnResize(call.Resize)
	}
	if err := call.Run(ctx); err != nil {
		logger.Error("call failed", "node", node, "error", err)
	}
}
