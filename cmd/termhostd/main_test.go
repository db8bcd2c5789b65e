// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/termhost/lib/config"
	"github.com/bureau-foundation/termhost/lib/testutil"
	"github.com/bureau-foundation/termhost/lib/userstore"
	"github.com/bureau-foundation/termhost/observe"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Listen.Address = "127.0.0.1:0"
	cfg.Listen.Telnet = false
	cfg.Nodes.Count = 1
	cfg.Session.ANSI = false
	cfg.Session.Pause = false
	cfg.System.Name = "Lair"
	cfg.Paths.Root = root
	cfg.Paths.Database = filepath.Join(root, "users.db")
	cfg.Paths.Display = filepath.Join(root, "display")
	cfg.Paths.ObserveSockets = testutil.SocketDir(t)
	return cfg
}

// startDaemon runs serve until the test ends and returns the caller
// address.
func startDaemon(t *testing.T, cfg *config.Config) (string, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	addresses := make(chan string, 1)
	served := make(chan error, 1)
	go func() {
		served <- serve(ctx, cfg, nil, func(address string) { addresses <- address })
	}()
	var address string
	select {
	case address = <-addresses:
	case err := <-served:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not start")
	}
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, served, 10*time.Second, "serve did not return"); err != nil {
			t.Errorf("serve: %v", err)
		}
	})
	return address, cancel
}

// caller is a client connection that collects everything received.
type caller struct {
	conn   net.Conn
	mutex  sync.Mutex
	output bytes.Buffer
	closed chan struct{}
}

func dial(t *testing.T, address string) *caller {
	t.Helper()
	conn, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	c := &caller{conn: conn, closed: make(chan struct{})}
	go func() {
		defer close(c.closed)
		buffer := make([]byte, 1024)
		for {
			n, err := conn.Read(buffer)
			c.mutex.Lock()
			c.output.Write(buffer[:n])
			c.mutex.Unlock()
			if err != nil {
				return
			}
		}
	}()
	return c
}

func (c *caller) Output() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.output.String()
}

func (c *caller) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !strings.Contains(c.Output(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("never received %q; got %q", want, c.Output())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (c *caller) send(t *testing.T, keys string) {
	t.Helper()
	if _, err := io.WriteString(c.conn, keys); err != nil {
		t.Fatalf("sending %q: %v", keys, err)
	}
}

func TestSignupAndGoodbye(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	address, _ := startDaemon(t, cfg)

	c := dial(t, address)
	c.waitFor(t, "Enter your name or number, or NEW:")
	c.send(t, "new\r")
	c.waitFor(t, "Choose a handle:")
	c.send(t, "smaug\r")
	c.waitFor(t, "Choose a password:")
	c.send(t, "gold\r")
	c.waitFor(t, "Welcome, SMAUG. You are on node 1.")
	c.send(t, "g")
	c.waitFor(t, "Thanks for calling Lair.")
	testutil.RequireClosed(t, c.closed, 10*time.Second, "daemon did not hang up after goodbye")

	users, err := userstore.Open(context.Background(), userstore.Config{Path: cfg.Paths.Database})
	if err != nil {
		t.Fatal(err)
	}
	defer users.Close()
	user, err := users.ByName(context.Background(), "SMAUG")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if !user.Sysop() || user.Logons != 1 {
		t.Errorf("got SL %d logons %d, want sysop with one logon", user.SL, user.Logons)
	}
}

func TestRefusesWhenNodesBusy(t *testing.T) {
	t.Parallel()
	address, _ := startDaemon(t, testConfig(t))

	first := dial(t, address)
	first.waitFor(t, "Enter your name")

	second := dial(t, address)
	second.waitFor(t, "All nodes are busy.")
	testutil.RequireClosed(t, second.closed, 10*time.Second, "busy caller not disconnected")
	if strings.Contains(second.Output(), "|") {
		t.Errorf("pipe codes leaked to the refused caller: %q", second.Output())
	}
}

func TestShutdownHangsUpCallers(t *testing.T) {
	t.Parallel()
	address, cancel := startDaemon(t, testConfig(t))

	c := dial(t, address)
	c.waitFor(t, "Enter your name")
	cancel()
	testutil.RequireClosed(t, c.closed, 10*time.Second, "caller still connected after shutdown")
}

func TestTelnetNegotiation(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Listen.Telnet = true
	address, _ := startDaemon(t, cfg)

	c := dial(t, address)
	c.waitFor(t, "Enter your name")
	// IAC WILL ECHO comes first.
	if out := c.Output(); !strings.HasPrefix(out, "\xff\xfb\x01") {
		t.Errorf("no telnet negotiation at the start of %q", out)
	}
}

func TestSessionIsObservable(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	address, _ := startDaemon(t, cfg)

	c := dial(t, address)
	c.waitFor(t, "Enter your name")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var watched syncBuffer
	users := make(chan observe.Metadata, 8)
	attached := make(chan error, 1)
	go func() {
		attached <- observe.Attach(ctx, filepath.Join(cfg.Paths.ObserveSockets, ObserveSocketName), 1, &watched,
			observe.Events{Metadata: func(m observe.Metadata) { users <- m }})
	}()
	first := testutil.RequireReceive(t, users, 10*time.Second, "no metadata from the hub")
	if first.Idle() {
		t.Errorf("node 1 reported idle with a caller on it: %+v", first)
	}

	c.send(t, "NEW\rbilbo\rring\r")
	c.waitFor(t, "Welcome, BILBO.")
	deadline := time.Now().Add(10 * time.Second)
	for !strings.Contains(watched.String(), "Welcome, BILBO.") {
		if time.Now().After(deadline) {
			t.Fatalf("observer never saw the welcome: %q", watched.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := testutil.RequireReceive(t, attached, 10*time.Second, "Attach did not return"); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Attach: %v", err)
	}
}

func TestObserverHistoryIncludesPrompt(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Observe.Compression = "lz4"
	address, _ := startDaemon(t, cfg)

	c := dial(t, address)
	c.waitFor(t, "Enter your name")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var watched syncBuffer
	go observe.Attach(ctx, filepath.Join(cfg.Paths.ObserveSockets, ObserveSocketName), 1, &watched, observe.Events{})
	deadline := time.Now().Add(10 * time.Second)
	for !strings.Contains(watched.String(), "Enter your name") {
		if time.Now().After(deadline) {
			t.Fatalf("history did not replay the logon prompt: %q", watched.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type syncBuffer struct {
	mutex  sync.Mutex
	buffer bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.Write(p)
}

func (b *syncBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buffer.String()
}
