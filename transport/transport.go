// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"net"
)

// Listener accepts caller connections.
type Listener interface {
	// Accept waits for the next connection. It returns ctx.Err()
	// when ctx ends first and net.ErrClosed after Close.
	Accept(ctx context.Context) (net.Conn, error)

	// Address returns the listening address in "host:port" form.
	Address() string

	Close() error
}

// ResizeFunc receives a new window size in columns and rows.
type ResizeFunc func(width, height int)
