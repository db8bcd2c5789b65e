// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bureau-foundation/termhost/lib/codec"
)

// Message types. Every frame is a 5-byte header (1 byte type, 4 byte
// big-endian payload length) followed by the payload.
const (
	// MessageTypeData carries raw session output, CP437 bytes and ANSI
	// sequences exactly as the caller received them.
	MessageTypeData byte = 0x01

	// MessageTypeResize carries the caller's screen size: columns then
	// rows, each a big-endian uint16.
	MessageTypeResize byte = 0x02

	// MessageTypeHistory carries the node's recent output, sent once
	// after Metadata. See [EncodeHistory] for the payload layout.
	MessageTypeHistory byte = 0x03

	// MessageTypeMetadata carries a CBOR-encoded [Metadata]. Sent on
	// attach and again whenever a caller logs on or hangs up.
	MessageTypeMetadata byte = 0x04

	// MessageTypeAttach is the observer's only frame: the node number
	// to watch as a big-endian uint16.
	MessageTypeAttach byte = 0x05

	// MessageTypeError carries a UTF-8 reason the hub refused the
	// attach. The hub closes the connection after sending it.
	MessageTypeError byte = 0x06
)

const messageHeaderLength = 5

// maxPayloadLength bounds a single frame. A history frame is at most
// the configured ring size, which is far below this.
const maxPayloadLength = 16 * 1024 * 1024

// ErrPayloadTooLarge is returned by [ReadMessage] and [WriteMessage]
// for a frame whose payload exceeds 16 MiB.
var ErrPayloadTooLarge = errors.New("observe: payload too large")

// Message is a single observer protocol frame.
type Message struct {
	Type    byte
	Payload []byte
}

// WriteMessage writes one framed message to w.
func WriteMessage(w io.Writer, message Message) error {
	if len(message.Payload) > maxPayloadLength {
		return fmt.Errorf("write message: %d bytes: %w", len(message.Payload), ErrPayloadTooLarge)
	}
	frame := make([]byte, messageHeaderLength+len(message.Payload))
	frame[0] = message.Type
	binary.BigEndian.PutUint32(frame[1:messageHeaderLength], uint32(len(message.Payload)))
	copy(frame[messageHeaderLength:], message.Payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// ReadMessage reads one framed message from r.
func ReadMessage(r io.Reader) (Message, error) {
	var header [messageHeaderLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Message{}, fmt.Errorf("read message header: %w", err)
	}
	payloadLength := binary.BigEndian.Uint32(header[1:])
	if payloadLength > maxPayloadLength {
		return Message{}, fmt.Errorf("read message: %d bytes: %w", payloadLength, ErrPayloadTooLarge)
	}
	payload := make([]byte, payloadLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, fmt.Errorf("read message payload: %w", err)
	}
	return Message{Type: header[0], Payload: payload}, nil
}

// NewDataMessage wraps raw session output.
func NewDataMessage(data []byte) Message {
	return Message{Type: MessageTypeData, Payload: data}
}

// NewResizeMessage encodes a screen size.
func NewResizeMessage(columns, rows uint16) Message {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], columns)
	binary.BigEndian.PutUint16(payload[2:4], rows)
	return Message{Type: MessageTypeResize, Payload: payload}
}

// ParseResizePayload decodes a resize payload.
func ParseResizePayload(payload []byte) (columns, rows uint16, err error) {
	if len(payload) != 4 {
		return 0, 0, fmt.Errorf("resize payload must be 4 bytes, got %d", len(payload))
	}
	return binary.BigEndian.Uint16(payload[0:2]), binary.BigEndian.Uint16(payload[2:4]), nil
}

// NewAttachMessage asks the hub for a node.
func NewAttachMessage(node int) Message {
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, uint16(node))
	return Message{Type: MessageTypeAttach, Payload: payload}
}

// ParseAttachPayload decodes the requested node number.
func ParseAttachPayload(payload []byte) (int, error) {
	if len(payload) != 2 {
		return 0, fmt.Errorf("attach payload must be 2 bytes, got %d", len(payload))
	}
	return int(binary.BigEndian.Uint16(payload)), nil
}

// NewErrorMessage carries a refusal reason.
func NewErrorMessage(reason string) Message {
	return Message{Type: MessageTypeError, Payload: []byte(reason)}
}

// Metadata describes who is on a node. User and Remote are empty and
// ConnectedAt is zero while the node is waiting for a caller.
type Metadata struct {
	Node        int       `cbor:"node"`
	User        string    `cbor:"user,omitempty"`
	Remote      string    `cbor:"remote,omitempty"`
	Width       int       `cbor:"width"`
	Height      int       `cbor:"height"`
	ConnectedAt time.Time `cbor:"connected_at"`
}

// Idle reports whether no caller is connected.
func (metadata Metadata) Idle() bool {
	return metadata.ConnectedAt.IsZero()
}

// NewMetadataMessage encodes metadata as CBOR.
func NewMetadataMessage(metadata Metadata) (Message, error) {
	payload, err := codec.Marshal(metadata)
	if err != nil {
		return Message{}, fmt.Errorf("encoding metadata: %w", err)
	}
	return Message{Type: MessageTypeMetadata, Payload: payload}, nil
}

// ParseMetadataPayload decodes a metadata payload.
func ParseMetadataPayload(payload []byte) (Metadata, error) {
	var metadata Metadata
	if err := codec.Unmarshal(payload, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("decoding metadata: %w", err)
	}
	return metadata, nil
}
