// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/termhost/observe"
)

func TestStatusLine(t *testing.T) {
	t.Parallel()
	connected := time.Date(2026, 5, 1, 21, 4, 5, 0, time.Local)
	tests := []struct {
		name     string
		metadata observe.Metadata
		want     string
	}{
		{
			"idle",
			observe.Metadata{Node: 3, Width: 80, Height: 24},
			"[node 3] waiting for a caller",
		},
		{
			"logging on",
			observe.Metadata{Node: 1, Remote: "192.0.2.4:99", Width: 80, Height: 25, ConnectedAt: connected},
			"[node 1] logging on from 192.0.2.4:99 80x25 since 21:04:05",
		},
		{
			"logged on",
			observe.Metadata{Node: 2, User: "SMAUG", Width: 132, Height: 43, ConnectedAt: connected},
			"[node 2] SMAUG 132x43 since 21:04:05",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := ansi.Strip(statusLine(test.metadata)); got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
		})
	}
}

func TestBannerWritesLines(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	b := newBanner(&out)
	b.Metadata(observe.Metadata{Node: 1})
	b.Resize(100, 30)
	got := ansi.Strip(out.String())
	if !strings.Contains(got, "[node 1] waiting for a caller\r\n") || !strings.Contains(got, "resized 100x30\r\n") {
		t.Errorf("got %q", got)
	}
}

func TestSocketFromConfig(t *testing.T) {
	t.Parallel()
	if _, err := socketFromConfig("/nonexistent/termhost.yaml"); err == nil {
		t.Error("expected error for a missing config file")
	}
}
