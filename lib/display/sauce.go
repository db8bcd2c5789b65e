// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package display

import "bytes"

const (
	sauceSize       = 128
	sauceCommentLen = 64
	// sauceComments is the offset of the comment line count within
	// the record.
	sauceComments = 104
	endOfFile     = 0x1A
)

// StripSAUCE removes a trailing SAUCE record, its comment block and
// the end-of-file marker before them. Data without a record loses
// only trailing end-of-file markers.
func StripSAUCE(data []byte) []byte {
	if len(data) >= sauceSize {
		start := len(data) - sauceSize
		record := data[start:]
		if bytes.HasPrefix(record, []byte("SAUCE00")) {
			data = data[:start]
			if comments := int(record[sauceComments]); comments > 0 {
				blockStart := len(data) - 5 - comments*sauceCommentLen
				if blockStart >= 0 && bytes.HasPrefix(data[blockStart:], []byte("COMNT")) {
					data = data[:blockStart]
				}
			}
		}
	}
	return bytes.TrimRight(data, "\x1a")
}
