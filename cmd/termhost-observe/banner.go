// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/termhost/observe"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
)

// banner prints a status line for each metadata update.
type banner struct {
	out io.Writer
}

func newBanner(out io.Writer) *banner {
	return &banner{out: out}
}

func (b *banner) Metadata(metadata observe.Metadata) {
	fmt.Fprintf(b.out, "\r\n%s\r\n", statusLine(metadata))
}

func (b *banner) Resize(width, height int) {
	fmt.Fprintf(b.out, "\r\n%s %s\r\n", labelStyle.Render("resized"), valueStyle.Render(fmt.Sprintf("%dx%d", width, height)))
}

// statusLine describes a node in one line.
func statusLine(metadata observe.Metadata) string {
	label := labelStyle.Render(fmt.Sprintf("[node %d]", metadata.Node))
	if metadata.Idle() {
		return label + " " + idleStyle.Render("waiting for a caller")
	}
	parts := []string{}
	if metadata.User != "" {
		parts = append(parts, valueStyle.Render(metadata.User))
	} else {
		parts = append(parts, idleStyle.Render("logging on"))
	}
	if metadata.Remote != "" {
		parts = append(parts, "from "+valueStyle.Render(metadata.Remote))
	}
	parts = append(parts,
		valueStyle.Render(fmt.Sprintf("%dx%d", metadata.Width, metadata.Height)),
		"since "+valueStyle.Render(metadata.ConnectedAt.Local().Format("15:04:05")),
	)
	return label + " " + strings.Join(parts, " ")
}
