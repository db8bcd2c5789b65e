// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

var _ Listener = (*TCPListener)(nil)

// TCPListener accepts inbound caller connections on a TCP address.
type TCPListener struct {
	listener *net.TCPListener
	logger   *slog.Logger
}

// NewTCPListener listens on address (":2323", "0.0.0.0:23"). Use
// "127.0.0.1:0" for a random port.
func NewTCPListener(address string, logger *slog.Logger) (*TCPListener, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return &TCPListener{listener: listener.(*net.TCPListener), logger: logger}, nil
}

// Accept waits for a connection or for ctx to end.
func (l *TCPListener) Accept(ctx context.Context) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		// Unblock the pending Accept; the deadline is cleared before
		// the next call.
		l.listener.SetDeadline(time.Now())
	})
	conn, err := l.listener.Accept()
	if !stop() {
		if conn != nil {
			conn.Close()
		}
		l.listener.SetDeadline(time.Time{})
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Serve accepts connections until ctx ends or the listener closes,
// running handler for each on its own goroutine. It waits for every
// handler to return. A clean shutdown returns nil.
func (l *TCPListener) Serve(ctx context.Context, handler func(context.Context, net.Conn)) error {
	var handlers sync.WaitGroup
	defer handlers.Wait()

	for {
		conn, err := l.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}
		l.logger.Debug("connection accepted", "remote", conn.RemoteAddr().String())
		handlers.Add(1)
		go func() {
			defer handlers.Done()
			handler(ctx, conn)
		}()
	}
}

// Address returns the TCP address in "host:port" form.
func (l *TCPListener) Address() string {
	return l.listener.Addr().String()
}

// Close stops the listener.
func (l *TCPListener) Close() error {
	return l.listener.Close()
}
