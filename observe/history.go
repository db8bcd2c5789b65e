// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observe

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a history payload body is compressed.
// The values are written on the wire.
type Compression uint8

const (
	// CompressionNone stores the history as is. Also used whenever the
	// selected algorithm would not shrink the data.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level. ANSI screens are
	// repetitive text and compress several times over.
	CompressionZstd Compression = 2
)

// historyHeaderLength is the tag byte plus the uncompressed length.
const historyHeaderLength = 5

// String returns the configuration name of the compression.
func (compression Compression) String() string {
	switch compression {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(compression))
	}
}

// ParseCompression maps a configuration name to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown history compression %q", name)
	}
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("observe: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("observe: zstd decoder initialization failed: " + err.Error())
	}
}

// NewHistoryMessage wraps a payload built by [EncodeHistory].
func NewHistoryMessage(payload []byte) Message {
	return Message{Type: MessageTypeHistory, Payload: payload}
}

// EncodeHistory builds a history payload: one compression tag byte,
// the uncompressed length as a big-endian uint32, then the body.
func EncodeHistory(data []byte, compression Compression) ([]byte, error) {
	var body []byte
	switch compression {
	case CompressionNone:
	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// Zero means the block is incompressible.
		if written > 0 {
			body = destination[:written]
		}
	case CompressionZstd:
		body = zstdEncoder.EncodeAll(data, nil)
	default:
		return nil, fmt.Errorf("unsupported history compression %d", compression)
	}
	if body == nil || len(body) >= len(data) {
		compression, body = CompressionNone, data
	}

	payload := make([]byte, historyHeaderLength+len(body))
	payload[0] = byte(compression)
	binary.BigEndian.PutUint32(payload[1:historyHeaderLength], uint32(len(data)))
	copy(payload[historyHeaderLength:], body)
	return payload, nil
}

// DecodeHistory reverses [EncodeHistory]. The decoded length must match
// the length recorded in the header.
func DecodeHistory(payload []byte) ([]byte, error) {
	if len(payload) < historyHeaderLength {
		return nil, fmt.Errorf("history payload too short: %d bytes", len(payload))
	}
	compression := Compression(payload[0])
	size := int(binary.BigEndian.Uint32(payload[1:historyHeaderLength]))
	if size > maxPayloadLength {
		return nil, fmt.Errorf("history of %d bytes: %w", size, ErrPayloadTooLarge)
	}
	body := payload[historyHeaderLength:]

	var data []byte
	switch compression {
	case CompressionNone:
		data = body
	case CompressionLZ4:
		data = make([]byte, size)
		read, err := lz4.UncompressBlock(body, data)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		data = data[:read]
	case CompressionZstd:
		var err error
		data, err = zstdDecoder.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported history compression %d", compression)
	}
	if len(data) != size {
		return nil, fmt.Errorf("%s history: got %d bytes, header says %d", compression, len(data), size)
	}
	return data, nil
}
