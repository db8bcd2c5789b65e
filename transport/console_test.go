// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package transport

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenConsoleRejectsNonTerminal(t *testing.T) {
	file, err := os.Create(filepath.Join(t.TempDir(), "not-a-tty"))
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	if _, err := OpenConsole(file, file, nil); err == nil {
		t.Fatal("OpenConsole accepted a regular file")
	}
}
