// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// UTF8Channel adapts a UTF-8 terminal to a session that speaks CP437.
// Outgoing bytes at or above 0x80 become their UTF-8 glyphs. Incoming
// runes are mapped back to CP437, with '?' for runes CP437 lacks.
type UTF8Channel struct {
	inner io.ReadWriter

	raw     []byte
	partial []byte
	ready   []byte
}

// NewUTF8Channel wraps inner.
func NewUTF8Channel(inner io.ReadWriter) *UTF8Channel {
	return &UTF8Channel{inner: inner, raw: make([]byte, 1024)}
}

// Write translates p and writes it. The count returned is of bytes
// from p.
func (c *UTF8Channel) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+len(p)/2)
	for _, b := range p {
		if b < utf8.RuneSelf {
			out = append(out, b)
			continue
		}
		out = utf8.AppendRune(out, charmap.CodePage437.DecodeByte(b))
	}
	if _, err := c.inner.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read returns CP437 bytes for the runes received. A rune split across
// reads is held until it completes.
func (c *UTF8Channel) Read(p []byte) (int, error) {
	for len(c.ready) == 0 {
		n, err := c.inner.Read(c.raw)
		c.partial = append(c.partial, c.raw[:n]...)
		c.decode(err != nil)
		if len(c.ready) == 0 && err != nil {
			return 0, err
		}
	}
	n := copy(p, c.ready)
	c.ready = c.ready[n:]
	return n, nil
}

// decode moves every complete rune from partial to ready. At end of
// input an incomplete tail is flushed as '?'.
func (c *UTF8Channel) decode(final bool) {
	data := c.partial
	for len(data) > 0 {
		if data[0] < utf8.RuneSelf {
			c.ready = append(c.ready, data[0])
			data = data[1:]
			continue
		}
		if !utf8.FullRune(data) && !final {
			break
		}
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if b, ok := charmap.CodePage437.EncodeRune(r); ok && r != utf8.RuneError {
			c.ready = append(c.ready, b)
		} else {
			c.ready = append(c.ready, '?')
		}
	}
	c.partial = append(c.partial[:0], data...)
}
