// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ansi

import "strconv"

// Attribute is a PC text-mode color byte: foreground in bits 0-2,
// bright in bit 3, background in bits 4-6, blink in bit 7.
type Attribute uint8

// DefaultAttribute is light gray on black.
const DefaultAttribute Attribute = 0x07

const (
	bright Attribute = 0x08
	blink  Attribute = 0x80

	// modeBits are the bits that can only be cleared with SGR 0.
	modeBits = bright | blink
)

// Foreground returns the foreground color index (0-7, without bright).
func (a Attribute) Foreground() int { return int(a & 0x07) }

// Background returns the background color index (0-7).
func (a Attribute) Background() int { return int(a>>4) & 0x07 }

// Bright reports whether the bright (bold) bit is set.
func (a Attribute) Bright() bool { return a&bright != 0 }

// Blink reports whether the blink bit is set.
func (a Attribute) Blink() bool { return a&blink != 0 }

// WithForeground returns a with its foreground replaced by color 0-15.
// Colors 8-15 set the bright bit.
func (a Attribute) WithForeground(color int) Attribute {
	return a&0xF0 | Attribute(color&0x0F)
}

// WithBackground returns a with its background replaced by color 0-7.
func (a Attribute) WithBackground(color int) Attribute {
	return a&0x8F | Attribute(color&0x07)<<4
}

// pcToANSI maps a PC color index to the ANSI color number. The table is
// its own inverse.
var pcToANSI = [8]int{0, 4, 2, 6, 1, 5, 3, 7}

// MakeSequence returns the SGR sequence that changes a terminal showing
// current into one showing target. It returns "" when the two are equal
// or the terminal is not ANSI capable.
//
// Bright and blink can only be turned off by SGR 0, so when either
// differs the sequence resets and re-asserts everything. Otherwise the
// foreground and background are always emitted together.
func MakeSequence(target, current Attribute, capable bool) string {
	if !capable || target == current {
		return ""
	}
	buf := make([]byte, 0, 16)
	buf = append(buf, esc, '[')
	if (target^current)&modeBits != 0 {
		buf = append(buf, '0', ';')
		if target.Bright() {
			buf = append(buf, '1', ';')
		}
		if target.Blink() {
			buf = append(buf, '5', ';')
		}
	}
	buf = strconv.AppendInt(buf, int64(30+pcToANSI[target.Foreground()]), 10)
	buf = append(buf, ';')
	buf = strconv.AppendInt(buf, int64(40+pcToANSI[target.Background()]), 10)
	buf = append(buf, 'm')
	return string(buf)
}
