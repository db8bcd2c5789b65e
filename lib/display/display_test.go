// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadByExtension(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"art.ans":   "\x1b[1mART\x1b[0m\x1a",
		"menu.msg":  "|#2Menu\n|#1[Q]uit\r\n",
		"news.md":   "# News\n",
		"notes.txt": "?",
	})
	library := NewLibrary(dir, 0, nil)

	tests := []struct {
		file string
		want string
	}{
		{"art.ans", "\x1b[1mART\x1b[0m"},
		{"menu.msg", "|#2Menu\r\n|#1[Q]uit\r\n"},
		{"news.md", "|#2News\r\n|#2====|#0\r\n"},
	}
	for _, test := range tests {
		got, err := library.Load(filepath.Join(dir, test.file), Options{})
		if err != nil {
			t.Fatalf("Load(%s): %v", test.file, err)
		}
		if got != test.want {
			t.Errorf("Load(%s): got %q, want %q", test.file, got, test.want)
		}
	}

	if _, err := library.Load(filepath.Join(dir, "notes.txt"), Options{}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("txt: got %v, want ErrUnknownFormat", err)
	}
	if _, err := library.Load(filepath.Join(dir, "absent.msg"), Options{}); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing: got %v, want fs.ErrNotExist", err)
	}
}

func TestFindPrefersANSI(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{
		"logon.ans": "ansi art",
		"logon.msg": "plain text",
		"bye.md":    "Bye\n",
	})
	library := NewLibrary(dir, 0, nil)

	if got, err := library.Find("logon", Options{ANSI: true}); err != nil || got != "ansi art" {
		t.Errorf("ANSI caller: got %q, %v", got, err)
	}
	if got, err := library.Find("logon", Options{}); err != nil || got != "plain text" {
		t.Errorf("plain caller: got %q, %v", got, err)
	}
	if got, err := library.Find("bye", Options{ANSI: true}); err != nil || got != "|#0Bye|#0\r\n" {
		t.Errorf("markdown fallback: got %q, %v", got, err)
	}
	if _, err := library.Find("missing", Options{}); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing: got %v, want fs.ErrNotExist", err)
	}
}

func TestRenderCache(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, map[string]string{"a.md": "alpha\n", "b.md": "beta\n"})
	library := NewLibrary(dir, 2, nil)
	load := func(name string, width int) {
		t.Helper()
		if _, err := library.Load(filepath.Join(dir, name), Options{Width: width}); err != nil {
			t.Fatal(err)
		}
	}

	load("a.md", 80)
	load("a.md", 80)
	if got := library.Cached(); got != 1 {
		t.Errorf("after repeat load: cached %d, want 1", got)
	}
	load("a.md", 40)
	if got := library.Cached(); got != 2 {
		t.Errorf("after a new width: cached %d, want 2", got)
	}
	load("b.md", 80)
	if got := library.Cached(); got != 2 {
		t.Errorf("limit exceeded: cached %d, want 2", got)
	}
}

func TestDigestCoversOptions(t *testing.T) {
	t.Parallel()
	source := []byte("same")
	base := digest(source, Options{Width: 80})
	if digest(source, Options{Width: 80}) != base {
		t.Error("digest not stable")
	}
	if digest(source, Options{Width: 80, ANSI: true}) == base {
		t.Error("digest ignores ANSI")
	}
	if digest([]byte("other"), Options{Width: 80}) == base {
		t.Error("digest ignores source")
	}
}
