// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/pflag"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/bureau-foundation/termhost/lib/config"
	"github.com/bureau-foundation/termhost/lib/process"
	"github.com/bureau-foundation/termhost/lib/version"
	"github.com/bureau-foundation/termhost/observe"
)

// daemonSocketName matches the socket termhostd creates in the
// configured observe socket directory.
const daemonSocketName = "termhostd.sock"

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		socketPath  string
		cp437       bool
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("termhost-observe", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to termhost.yaml, used to find the observer socket")
	flagSet.StringVar(&socketPath, "socket", "", "observer socket path (overrides --config)")
	flagSet.BoolVar(&cp437, "cp437", false, "write CP437 bytes untranslated")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: termhost-observe [flags] <node>\n\nFlags:\n")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("termhost-observe %s\n", version.Info())
		return nil
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return fmt.Errorf("expected one node number, got %d arguments", flagSet.NArg())
	}
	node, err := strconv.Atoi(flagSet.Arg(0))
	if err != nil || node < 1 {
		return fmt.Errorf("node must be a positive number, got %q", flagSet.Arg(0))
	}

	if socketPath == "" {
		socketPath, err = socketFromConfig(configPath)
		if err != nil {
			return err
		}
	}

	ctx, stop := process.SignalContext(context.Background())
	defer stop()

	var output io.Writer = os.Stdout
	if !cp437 {
		output = transform.NewWriter(os.Stdout, charmap.CodePage437.NewDecoder())
	}
	banner := newBanner(os.Stderr)
	return observe.Attach(ctx, socketPath, node, output, observe.Events{
		Metadata: banner.Metadata,
		Resize:   banner.Resize,
	})
}

func socketFromConfig(configPath string) (string, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return "", fmt.Errorf("finding the observer socket: %w (or pass --socket)", err)
	}
	if !cfg.Observe.Enabled {
		return "", fmt.Errorf("observation is disabled in the configuration")
	}
	return filepath.Join(cfg.Paths.ObserveSockets, daemonSocketName), nil
}
