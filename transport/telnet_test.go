// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/bureau-foundation/termhost/lib/testutil"
)

func newTelnetPair(t *testing.T) (*TelnetConn, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return NewTelnetConn(server, nil), client
}

// readData reads exactly n data bytes from the telnet side.
func readData(t *testing.T, conn *TelnetConn, n int) <-chan []byte {
	t.Helper()
	result := make(chan []byte, 1)
	go func() {
		buffer := make([]byte, n)
		if _, err := io.ReadFull(conn, buffer); err != nil {
			result <- nil
			return
		}
		result <- buffer
	}()
	return result
}

func TestTelnetNegotiate(t *testing.T) {
	t.Parallel()
	conn, client := newTelnetPair(t)
	go conn.Negotiate()

	got := make([]byte, 9)
	if _, err := io.ReadFull(client, got); err != nil {
		t.Fatal(err)
	}
	want := []byte{255, 251, 1, 255, 251, 3, 255, 253, 31}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTelnetFiltersCommands(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain", []byte("hello"), "hello"},
		{"nop", []byte{'a', 255, 241, 'b'}, "ab"},
		{"escaped iac", []byte{'a', 255, 255, 'b'}, "a\xffb"},
		{"cr nul", []byte("a\r\x00b"), "a\rb"},
		{"cr lf", []byte("a\r\nb"), "a\rb"},
		{"lone lf", []byte("a\nb"), "a\nb"},
		{"acknowledgement", []byte{255, 253, 1, 'x'}, "x"},
		{"unknown subnegotiation", []byte{255, 250, 24, 0, 'v', 't', 255, 240, 'y'}, "y"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			conn, client := newTelnetPair(t)
			result := readData(t, conn, len(test.want))
			go client.Write(test.input)
			got := testutil.RequireReceive(t, result, 5*time.Second, "telnet data")
			if string(got) != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
		})
	}
}

func TestTelnetRefusesUnknownOptions(t *testing.T) {
	t.Parallel()
	conn, client := newTelnetPair(t)
	result := readData(t, conn, 1)
	go client.Write([]byte{255, 253, 24, 255, 251, 36, 'z'})

	replies := make([]byte, 6)
	if _, err := io.ReadFull(client, replies); err != nil {
		t.Fatal(err)
	}
	want := []byte{255, 252, 24, 255, 254, 36}
	if !bytes.Equal(replies, want) {
		t.Errorf("replies: got %v, want %v", replies, want)
	}
	if got := testutil.RequireReceive(t, result, 5*time.Second, "data"); string(got) != "z" {
		t.Errorf("data: got %q", got)
	}
}

func TestTelnetWindowSize(t *testing.T) {
	t.Parallel()
	conn, client := newTelnetPair(t)

	sizes := make(chan [2]int, 2)
	conn.OnResize(func(width, height int) { sizes <- [2]int{width, height} })

	result := readData(t, conn, 1)
	// Width 255 is sent as 0 IAC IAC inside the subnegotiation.
	go client.Write([]byte{255, 250, 31, 0, 255, 255, 0, 50, 255, 240, 'k'})

	if got := testutil.RequireReceive(t, result, 5*time.Second, "data"); string(got) != "k" {
		t.Errorf("data: got %q", got)
	}
	size := testutil.RequireReceive(t, sizes, 5*time.Second, "resize")
	if size != [2]int{255, 50} {
		t.Errorf("resize: got %v, want [255 50]", size)
	}
	if width, height, ok := conn.Size(); !ok || width != 255 || height != 50 {
		t.Errorf("Size: got %d x %d, %v", width, height, ok)
	}

	late := make(chan [2]int, 1)
	conn.OnResize(func(width, height int) { late <- [2]int{width, height} })
	if got := testutil.RequireReceive(t, late, time.Second, "size on registration"); got != size {
		t.Errorf("late registration: got %v, want %v", got, size)
	}
}

func TestTelnetWriteDoublesIAC(t *testing.T) {
	t.Parallel()
	conn, client := newTelnetPair(t)

	written := make(chan int, 1)
	go func() {
		n, _ := conn.Write([]byte{'a', 255, 'b'})
		written <- n
	}()

	got := make([]byte, 4)
	if _, err := io.ReadFull(client, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{'a', 255, 255, 'b'}) {
		t.Errorf("got %v", got)
	}
	if n := testutil.RequireReceive(t, written, 5*time.Second, "write count"); n != 3 {
		t.Errorf("Write returned %d, want 3", n)
	}
}
