// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lang

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/jsonc"
)

// Keys of the built-in strings.
const (
	PausePrompt    = "pause.prompt"
	PauseWarning   = "pause.warning"
	IdleWarning    = "idle.warning"
	IdleCleared    = "idle.cleared"
	LinePrevious   = "line.previous"
	TimeLeft       = "session.timeleft"
	LogonName      = "logon.name"
	LogonPassword  = "logon.password"
	LogonFailed    = "logon.failed"
	LogonWelcome   = "logon.welcome"
	NodesBusy      = "nodes.busy"
	Goodbye        = "goodbye"
	MenuPrompt     = "menu.prompt"
	UnknownCommand = "menu.unknown"

	NewUserName     = "newuser.name"
	NewUserPassword = "newuser.password"
	NewUserTaken    = "newuser.taken"

	MenuExpression = "menu.expression"
	MenuInput      = "menu.input"
	MenuInputDone  = "menu.input.done"
	NoBulletin     = "menu.nobulletin"
)

var defaults = map[string]string{
	PausePrompt:    "|#3More? |#1[|#2Y/n/=|#1]|#0 ",
	PauseWarning:   "|#6More? [Y/n/=]|#0 ",
	IdleWarning:    "\r\n|#6Are you still there? You will be disconnected in one minute.|#0\r\n",
	IdleCleared:    "",
	LinePrevious:   "[PREV]",
	TimeLeft:       "\r\n|#1Time remaining this call: |#2|@T|#1 minutes.|#0\r\n",
	LogonName:      "|#2Enter your name or number, or NEW: |#0",
	LogonPassword:  "|#2Password: |#0",
	LogonFailed:    "|#6Incorrect logon.|#0\r\n",
	LogonWelcome:   "\r\n|#1Welcome, |#2|@N|#1. You are on node |#2|@h|#1.|#0\r\n",
	NodesBusy:      "All nodes are busy. Please call back later.\r\n",
	Goodbye:        "\r\n|#1Thanks for calling |#2|@Y|#1.|#0\r\n",
	MenuPrompt:     "\r\n|#1Main menu |#2[B]|#1ulletin |#2[E]|#1xpression |#2[I]|#1nput |#2[G]|#1oodbye: |#0",
	UnknownCommand: "|#6Unknown command.|#0\r\n",

	NewUserName:     "|#2Choose a handle: |#0",
	NewUserPassword: "|#2Choose a password: |#0",
	NewUserTaken:    "|#6That handle is taken.|#0\r\n",

	MenuExpression: "|#2Expression, for example |#1if \"user.sl >= 200\", \"staff\", \"caller\"|#0\r\n|#2> |#0",
	MenuInput:      "|#1Type a few lines. A blank line ends.|#0\r\n",
	MenuInputDone:  "|#1You typed |#2%d|#1 lines.|#0\r\n",
	NoBulletin:     "|#6No bulletin today.|#0\r\n",
}

// Table maps keys to strings.
type Table struct {
	strings map[string]string
}

// Default returns a Table of the built-in strings.
func Default() *Table {
	t := &Table{strings: make(map[string]string, len(defaults))}
	for key, value := range defaults {
		t.strings[key] = value
	}
	return t
}

// Parse overlays the JSONC object in data onto the built-in strings.
func Parse(data []byte) (*Table, error) {
	var overrides map[string]string
	if err := json.Unmarshal(jsonc.ToJSON(data), &overrides); err != nil {
		return nil, fmt.Errorf("parsing strings: %w", err)
	}
	t := Default()
	for key, value := range overrides {
		t.strings[key] = value
	}
	return t, nil
}

// LoadFile reads a JSONC strings file. An empty path returns the
// built-in table.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Get returns the string for key, or "" when the key is unknown. A nil
// Table reads the built-in strings.
func (t *Table) Get(key string) string {
	if t == nil {
		return defaults[key]
	}
	return t.strings[key]
}

// Keys returns every key in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.strings))
	for key := range t.strings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
