// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/termhost/board"
	"github.com/bureau-foundation/termhost/lib/config"
	"github.com/bureau-foundation/termhost/lib/display"
	"github.com/bureau-foundation/termhost/lib/lang"
	"github.com/bureau-foundation/termhost/lib/process"
	"github.com/bureau-foundation/termhost/lib/userstore"
	"github.com/bureau-foundation/termhost/lib/version"
	"github.com/bureau-foundation/termhost/transport"
)

// localNode is the node number shown for console calls. Network
// nodes start at 1.
const localNode = 0

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		logFile     string
		cp437       bool
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("termhost-local", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to termhost.yaml (default: $TERMHOST_CONFIG)")
	flagSet.StringVar(&logFile, "log-file", "", "write JSON logs to this file (the terminal is in use)")
	flagSet.BoolVar(&cp437, "cp437", false, "send CP437 bytes untranslated (for a terminal with a CP437 font)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("termhost-local %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := slog.New(slog.DiscardHandler)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer file.Close()
		logger = slog.New(slog.NewJSONHandler(file, nil))
	}

	ctx, stop := process.SignalContext(context.Background())
	defer stop()

	prompts, err := lang.LoadFile(cfg.Paths.Strings)
	if err != nil {
		return err
	}
	users, err := userstore.Open(ctx, userstore.Config{Path: cfg.Paths.Database, Logger: logger})
	if err != nil {
		return fmt.Errorf("opening user store: %w", err)
	}
	defer users.Close()

	console, err := transport.OpenConsole(os.Stdin, os.Stdout, logger)
	if err != nil {
		return err
	}
	defer console.Close()

	var channel io.ReadWriter = console
	if !cp437 {
		channel = transport.NewUTF8Channel(console)
	}
	line := board.Line{
		Channel: channel,
		Node:    localNode,
		Remote:  "console",
		ANSI:    console.ANSI(),
	}
	if width, height, err := console.Size(); err == nil {
		line.Width, line.Height = width, height
	}

	call := board.New(board.Config{
		System:  cfg.System,
		Session: cfg.Session,
		Users:   users,
		Display: display.NewLibrary(cfg.Paths.Display, 0, logger),
		Strings: prompts,
		Logger:  logger,
	}).NewCall(line)
	console.OnResize(call.Resize)
	return call.Run(ctx)
}
