// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
)

// ErrRefused is returned by [Attach] when the hub rejects the request.
var ErrRefused = errors.New("observe: attach refused")

// Events receives the non-output frames of an observed node. Nil
// fields are skipped.
type Events struct {
	// Metadata is called when attaching and whenever a caller
	// connects, logs on, or hangs up.
	Metadata func(Metadata)

	// Resize is called when the caller's screen size changes.
	Resize func(width, height int)
}

// Attach connects to the hub socket, asks for node, and copies the
// node's history followed by its live output to output. It returns nil
// when ctx ends or the hub closes the connection.
func Attach(ctx context.Context, socketPath string, node int, output io.Writer, events Events) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", socketPath, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := WriteMessage(conn, NewAttachMessage(node)); err != nil {
		return err
	}

	for {
		message, err := ReadMessage(conn)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		switch message.Type {
		case MessageTypeData:
			if _, err := output.Write(message.Payload); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
		case MessageTypeHistory:
			history, err := DecodeHistory(message.Payload)
			if err != nil {
				return err
			}
			if _, err := output.Write(history); err != nil {
				return fmt.Errorf("writing history: %w", err)
			}
		case MessageTypeMetadata:
			metadata, err := ParseMetadataPayload(message.Payload)
			if err != nil {
				return err
			}
			if events.Metadata != nil {
				events.Metadata(metadata)
			}
		case MessageTypeResize:
			columns, rows, err := ParseResizePayload(message.Payload)
			if err != nil {
				return err
			}
			if events.Resize != nil {
				events.Resize(int(columns), int(rows))
			}
		case MessageTypeError:
			return fmt.Errorf("%w: %s", ErrRefused, message.Payload)
		}
	}
}
