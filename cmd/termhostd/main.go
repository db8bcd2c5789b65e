// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/termhost/board"
	"github.com/bureau-foundation/termhost/lib/config"
	"github.com/bureau-foundation/termhost/lib/display"
	"github.com/bureau-foundation/termhost/lib/lang"
	"github.com/bureau-foundation/termhost/lib/process"
	"github.com/bureau-foundation/termhost/lib/userstore"
	"github.com/bureau-foundation/termhost/lib/version"
	"github.com/bureau-foundation/termhost/observe"
	"github.com/bureau-foundation/termhost/transport"
)

// ObserveSocketName is the hub socket's file name inside the configured
// observe socket directory.
const ObserveSocketName = "termhostd.sock"

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		logLevel    string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("termhostd", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to termhost.yaml (default: $TERMHOST_CONFIG)")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("termhostd %s\n", version.Full())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := process.SignalContext(context.Background())
	defer stop()

	return serve(ctx, cfg, logger, nil)
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serve runs the daemon until ctx ends. ready, when set, receives the
// caller listener's address once it is accepting.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, ready func(address string)) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	prompts, err := lang.LoadFile(cfg.Paths.Strings)
	if err != nil {
		return err
	}

	users, err := userstore.Open(ctx, userstore.Config{Path: cfg.Paths.Database, Logger: logger})
	if err != nil {
		return fmt.Errorf("opening user store: %w", err)
	}
	defer users.Close()
	if count, err := users.Count(ctx); err == nil && count == 0 {
		logger.Warn("no users yet: the first caller to sign up with NEW becomes sysop")
	}

	var background sync.WaitGroup
	defer background.Wait()

	var hub *observe.Hub
	if cfg.Observe.Enabled {
		compression, err := observe.ParseCompression(cfg.Observe.Compression)
		if err != nil {
			return err
		}
		hub = observe.NewHub(observe.HubConfig{
			HistoryBytes:  cfg.Observe.HistoryBytes,
			Compression:   compression,
			AuthorizePeer: sameUser,
			Logger:        logger,
		})
		for node := 1; node <= cfg.Nodes.Count; node++ {
			hub.Mirror(node)
		}
		socketPath := filepath.Join(cfg.Paths.ObserveSockets, ObserveSocketName)
		observeListener, err := observe.Listen(socketPath)
		if err != nil {
			return err
		}
		defer os.Remove(socketPath)
		logger.Info("observe listener started", "socket", socketPath)
		background.Add(1)
		go func() {
			defer background.Done()
			if err := hub.Serve(ctx, observeListener); err != nil {
				logger.Error("observe listener failed", "error", err)
			}
		}()
	}

	d := &daemon{
		cfg:   cfg,
		nodes: board.NewNodes(cfg.Nodes.Count),
		board: board.New(board.Config{
			System:  cfg.System,
			Session: cfg.Session,
			Users:   users,
			Display: display.NewLibrary(cfg.Paths.Display, 0, logger),
			Strings: prompts,
			Hub:     hub,
			Logger:  logger,
		}),
		prompts: prompts,
		logger:  logger,
	}

	listener, err := transport.NewTCPListener(cfg.Listen.Address, logger)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Listen.Address, err)
	}
	defer listener.Close()
	logger.Info("termhostd started",
		"version", version.Short(),
		"address", listener.Address(),
		"nodes", cfg.Nodes.Count,
		"telnet", cfg.Listen.Telnet,
		"utf8", cfg.Listen.UTF8,
	)
	if ready != nil {
		ready(listener.Address())
	}

	err = listener.Serve(ctx, d.handle)
	logger.Info("termhostd stopped")
	return err
}

// sameUser admits observers running as the daemon's own user or root.
func sameUser(uid int) bool {
	return uid == 0 || uid == os.Getuid()
}
