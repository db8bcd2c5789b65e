// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bureau-foundation/termhost/lib/clock"
	"github.com/bureau-foundation/termhost/lib/config"
	"github.com/bureau-foundation/termhost/lib/display"
	"github.com/bureau-foundation/termhost/lib/testutil"
	"github.com/bureau-foundation/termhost/lib/userstore"
	"github.com/bureau-foundation/termhost/observe"
)

var epoch = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

// testLine is an in-memory caller: keys go in through Type and
// everything the board sends is collected.
type testLine struct {
	inputReader *io.PipeReader
	inputWriter *io.PipeWriter

	mutex  sync.Mutex
	output bytes.Buffer
}

func newTestLine() *testLine {
	reader, writer := io.Pipe()
	return &testLine{inputReader: reader, inputWriter: writer}
}

func (l *testLine) Read(p []byte) (int, error) { return l.inputReader.Read(p) }

func (l *testLine) Write(p []byte) (int, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.output.Write(p)
}

func (l *testLine) Type(t *testing.T, keys string) {
	t.Helper()
	if _, err := l.inputWriter.Write([]byte(keys)); err != nil {
		t.Fatalf("typing %q: %v", keys, err)
	}
}

func (l *testLine) Output() string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.output.String()
}

type testBoard struct {
	board      *Board
	users      *userstore.Store
	displayDir string
	hub        *observe.Hub
}

func newTestBoard(t *testing.T) *testBoard {
	t.Helper()
	fake := clock.Fake(epoch)
	users, err := userstore.Open(context.Background(), userstore.Config{
		Path:       filepath.Join(t.TempDir(), "users.db"),
		BcryptCost: bcrypt.MinCost,
		Clock:      fake,
	})
	if err != nil {
		t.Fatalf("opening user store: %v", err)
	}
	t.Cleanup(func() { users.Close() })

	displayDir := t.TempDir()
	hub := observe.NewHub(observe.HubConfig{})
	board := New(Config{
		System:  config.SystemConfig{Name: "Test Board", Sysop: "Smaug"},
		Session: config.SessionConfig{Width: 80, Height: 24, PrivilegedLevel: 200},
		Users:   users,
		Display: display.NewLibrary(displayDir, 0, nil),
		Hub:     hub,
		Clock:   fake,
	})
	return &testBoard{board: board, users: users, displayDir: displayDir, hub: hub}
}

// run starts a call on node 1 and returns its line and result.
func (b *testBoard) run(t *testing.T, before func(*Call)) (*testLine, <-chan error) {
	t.Helper()
	line := newTestLine()
	call := b.board.NewCall(Line{Channel: line, Node: 1, Remote: "192.0.2.10:5555"})
	if before != nil {
		before(call)
	}
	done := make(chan error, 1)
	go func() { done <- call.Run(context.Background()) }()
	return line, done
}

func (b *testBoard) createUser(t *testing.T, name, password string, sl int) *userstore.User {
	t.Helper()
	user, err := b.users.Create(context.Background(), userstore.User{Name: name, SL: sl}, password)
	if err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
	return user
}

func waitCall(t *testing.T, done <-chan error) {
	t.Helper()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "call did not finish"); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestFirstNewUserIsSysop(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	line, done := b.run(t, nil)
	line.Type(t, "new\rsmaug\rgold\rG")
	waitCall(t, done)

	user, err := b.users.ByName(context.Background(), "SMAUG")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if !user.Sysop() {
		t.Errorf("first user SL %d, want sysop", user.SL)
	}
	if user.Logons != 1 || !user.LastOn.Equal(epoch) {
		t.Errorf("logon not recorded: logons %d last on %v", user.Logons, user.LastOn)
	}
	out := line.Output()
	if !strings.Contains(out, "Welcome, SMAUG. You are on node 1.") {
		t.Errorf("welcome missing from %q", out)
	}
	if !strings.Contains(out, "Thanks for calling Test Board.") {
		t.Errorf("goodbye missing from %q", out)
	}
}

func TestSecondNewUserIsNotSysop(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	b.createUser(t, "SYSOP", "root", userstore.SysopLevel)

	line, done := b.run(t, nil)
	line.Type(t, "NEW\rSysop\rpass\rNEW\rBilbo\rring\rG")
	waitCall(t, done)

	if !strings.Contains(line.Output(), "That handle is taken.") {
		t.Errorf("taken handle not reported: %q", line.Output())
	}
	user, err := b.users.ByName(context.Background(), "BILBO")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if user.Sysop() {
		t.Error("second user was made sysop")
	}
}

func TestLogonGivesThreeAttempts(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	b.createUser(t, "SMAUG", "gold", 50)

	line, done := b.run(t, nil)
	line.Type(t, "smaug\rsilver\rsmaug\rcopper\rnobody\rgold\r")
	waitCall(t, done)

	out := line.Output()
	if got := strings.Count(out, "Incorrect logon."); got != 3 {
		t.Errorf("failures shown: got %d, want 3 in %q", got, out)
	}
	if strings.Contains(out, "Welcome") {
		t.Error("caller welcomed after three failures")
	}
	user, err := b.users.ByName(context.Background(), "SMAUG")
	if err != nil {
		t.Fatal(err)
	}
	if user.IllegalLogons != 2 || user.Logons != 0 {
		t.Errorf("got illegal %d logons %d, want 2 and 0", user.IllegalLogons, user.Logons)
	}
}

func TestLogonByNumberAndExpression(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	b.createUser(t, "SMAUG", "gold", 50)

	line, done := b.run(t, nil)
	line.Type(t, "1\rgold\r")
	line.Type(t, "e")
	line.Type(t, "user.name\r")
	line.Type(t, "E")
	line.Type(t, `if "user.sl >= 200", "staff", "caller"`+"\r")
	line.Type(t, "g")
	waitCall(t, done)

	out := line.Output()
	if !strings.Contains(out, "user.name\r\nSMAUG\r\n") {
		t.Errorf("user.name not evaluated: %q", out)
	}
	if !strings.Contains(out, "\r\ncaller\r\n") {
		t.Errorf("if not evaluated: %q", out)
	}
}

func TestExpressionContinuesPastScreenEdge(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	b.createUser(t, "SMAUG", "gold", 250)

	line, done := b.run(t, func(call *Call) { call.width = 30 })
	line.Type(t, "SMAUG\rgold\r")
	line.Type(t, "E")
	line.Type(t, `if "user.sl >= 200", "staff", "caller"`+"\r")
	line.Type(t, "G")
	waitCall(t, done)

	out := line.Output()
	if !strings.Contains(out, "\r\nstaff\r\n") {
		t.Errorf("split expression not evaluated whole: %q", out)
	}
	if strings.Contains(out, "Unknown command") {
		t.Errorf("expression keys leaked into the menu: %q", out)
	}
}

func TestBulletin(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	b.createUser(t, "SMAUG", "gold", 50)
	if err := os.WriteFile(filepath.Join(b.displayDir, "bulletin.msg"), []byte("Today on |{system.name}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	line, done := b.run(t, nil)
	line.Type(t, "smaug\rgold\rBG")
	waitCall(t, done)

	if out := line.Output(); !strings.Contains(out, "Today on Test Board\r\n") {
		t.Errorf("bulletin missing from %q", out)
	}
}

func TestMissingBulletin(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	b.createUser(t, "SMAUG", "gold", 50)

	line, done := b.run(t, nil)
	line.Type(t, "smaug\rgold\rbg")
	waitCall(t, done)

	if out := line.Output(); !strings.Contains(out, "No bulletin today.") {
		t.Errorf("missing bulletin not reported: %q", out)
	}
}

func TestTypeLines(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	b.createUser(t, "SMAUG", "gold", 50)

	line, done := b.run(t, nil)
	line.Type(t, "smaug\rgold\rI")
	line.Type(t, "one\rtwo\r\r")
	line.Type(t, "G")
	waitCall(t, done)

	if out := line.Output(); !strings.Contains(out, "You typed 2 lines.") {
		t.Errorf("line count missing from %q", out)
	}
}

func TestResizeReachesSession(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	b.createUser(t, "SMAUG", "gold", 50)

	line, done := b.run(t, func(call *Call) { call.Resize(100, 30) })
	line.Type(t, "smaug\rgold\rEsession.width\rG")
	waitCall(t, done)

	if out := line.Output(); !strings.Contains(out, "session.width\r\n100\r\n") {
		t.Errorf("width not applied: %q", out)
	}
}

func TestHangupDuringLogon(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	line, done := b.run(t, nil)
	line.Type(t, "smau")
	line.inputWriter.Close()
	waitCall(t, done)
}

func TestCallIsMirrored(t *testing.T) {
	t.Parallel()
	b := newTestBoard(t)
	b.createUser(t, "SMAUG", "gold", 50)

	line, done := b.run(t, nil)
	line.Type(t, "smaug\rgold\r")
	mirror := b.hub.Mirror(1)
	deadline := time.Now().Add(5 * time.Second)
	for mirror.Metadata().User != "SMAUG" {
		if time.Now().After(deadline) {
			t.Fatalf("mirror never saw the logon: %+v", mirror.Metadata())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := mirror.Metadata().Remote; got != "192.0.2.10:5555" {
		t.Errorf("remote: got %q", got)
	}

	line.Type(t, "G")
	waitCall(t, done)
	if !mirror.Metadata().Idle() {
		t.Errorf("node not idle after the call: %+v", mirror.Metadata())
	}
}
