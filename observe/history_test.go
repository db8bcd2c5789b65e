// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package observe

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"
)

func TestHistoryRoundTrip(t *testing.T) {
	t.Parallel()
	screen := []byte(strings.Repeat("\x1b[1;33m|07 Welcome to the Lair \x1b[0m\r\n", 50))
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			t.Parallel()
			payload, err := EncodeHistory(screen, compression)
			if err != nil {
				t.Fatalf("EncodeHistory: %v", err)
			}
			if Compression(payload[0]) != compression {
				t.Errorf("tag: got %s, want %s", Compression(payload[0]), compression)
			}
			if compression != CompressionNone && len(payload) >= len(screen) {
				t.Errorf("%s did not shrink a repetitive screen: %d >= %d", compression, len(payload), len(screen))
			}
			got, err := DecodeHistory(payload)
			if err != nil {
				t.Fatalf("DecodeHistory: %v", err)
			}
			if !bytes.Equal(got, screen) {
				t.Error("decoded history differs from the original")
			}
		})
	}
}

func TestHistoryIncompressibleFallsBackToNone(t *testing.T) {
	t.Parallel()
	noise := make([]byte, 4096)
	rand.Read(noise)
	for _, compression := range []Compression{CompressionLZ4, CompressionZstd} {
		payload, err := EncodeHistory(noise, compression)
		if err != nil {
			t.Fatal(err)
		}
		if Compression(payload[0]) != CompressionNone {
			t.Errorf("%s: tag %s, want none for random data", compression, Compression(payload[0]))
		}
		got, err := DecodeHistory(payload)
		if err != nil || !bytes.Equal(got, noise) {
			t.Errorf("%s: round trip failed: %v", compression, err)
		}
	}
}

func TestHistoryEmpty(t *testing.T) {
	t.Parallel()
	payload, err := EncodeHistory(nil, CompressionZstd)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeHistory(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %q, want empty", got)
	}
}

func TestDecodeHistoryErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		payload []byte
	}{
		{"short header", []byte{0, 0, 0}},
		{"length mismatch", []byte{byte(CompressionNone), 0, 0, 0, 9, 'a'}},
		{"unknown tag", []byte{9, 0, 0, 0, 0}},
		{"corrupt lz4", []byte{byte(CompressionLZ4), 0, 0, 0, 40, 0xff, 0xff, 0xff}},
		{"corrupt zstd", []byte{byte(CompressionZstd), 0, 0, 0, 40, 1, 2, 3, 4}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if _, err := DecodeHistory(test.payload); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseCompression(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"none", "lz4", "zstd"} {
		compression, err := ParseCompression(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if compression.String() != name {
			t.Errorf("got %s, want %s", compression, name)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("expected error for gzip")
	}
}
