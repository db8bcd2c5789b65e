// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zeebo/blake3"
)

// ErrUnknownFormat is returned for a file whose extension is not one
// of .ans, .msg or .md.
var ErrUnknownFormat = errors.New("display: unknown file format")

// Options describe the caller's terminal.
type Options struct {
	// Width is the screen width in columns. Zero means 80.
	Width int
	ANSI  bool
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 80
	}
	return o
}

// Digest identifies a rendered result.
type Digest [32]byte

// digest covers the source and every option that changes the render.
func digest(source []byte, options Options) Digest {
	hasher := blake3.New()
	hasher.Write(source)
	var tail [9]byte
	binary.BigEndian.PutUint64(tail[:8], uint64(options.Width))
	if options.ANSI {
		tail[8] = 1
	}
	hasher.Write(tail[:])
	var sum Digest
	copy(sum[:], hasher.Sum(nil))
	return sum
}

// Library loads display files, caching rendered Markdown. It is safe
// for concurrent use.
type Library struct {
	root   string
	limit  int
	logger *slog.Logger

	mu      sync.Mutex
	entries map[Digest]string
	order   []Digest
}

// NewLibrary returns a Library resolving names under root and keeping
// at most limit rendered results (64 when limit is zero).
func NewLibrary(root string, limit int, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if limit <= 0 {
		limit = 64
	}
	return &Library{root: root, limit: limit, logger: logger, entries: make(map[Digest]string)}
}

// Load reads and prepares the file at path for the caller's terminal.
func (l *Library) Load(path string, options Options) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("display: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ans":
		return string(StripSAUCE(source)), nil
	case ".msg":
		return crlf(string(source)), nil
	case ".md":
		return l.render(source, options), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

func (l *Library) render(source []byte, options Options) string {
	options = options.withDefaults()
	key := digest(source, options)

	l.mu.Lock()
	cached, ok := l.entries[key]
	l.mu.Unlock()
	if ok {
		return cached
	}

	rendered := Markdown(source, options)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[key]; !ok {
		if len(l.order) >= l.limit {
			delete(l.entries, l.order[0])
			l.order = l.order[1:]
		}
		l.entries[key] = rendered
		l.order = append(l.order, key)
	}
	return rendered
}

// Cached reports how many rendered results the library holds.
func (l *Library) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Find loads the display file called name under the library root,
// trying name.ans first for ANSI callers, then name.msg and name.md.
func (l *Library) Find(name string, options Options) (string, error) {
	extensions := []string{".msg", ".md"}
	if options.ANSI {
		extensions = []string{".ans", ".msg", ".md"}
	}
	for _, extension := range extensions {
		path := filepath.Join(l.root, name+extension)
		content, err := l.Load(path, options)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		l.logger.Debug("display file", "name", name, "path", path)
		return content, nil
	}
	return "", fmt.Errorf("display: %s: %w", name, fs.ErrNotExist)
}

var defaultLibrary = NewLibrary("", 0, nil)

// Load reads the file at path using a shared cache.
func Load(path string, options Options) (string, error) {
	return defaultLibrary.Load(path, options)
}

// crlf turns bare line feeds into CR LF.
func crlf(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
