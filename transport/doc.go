// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport provides the byte channels a BBS session runs
// over.
//
// [TCPListener] accepts caller connections and hands each to a
// handler. [TelnetConn] wraps a TCP connection with the telnet option
// handling every BBS client expects: the server echoes and suppresses
// go-ahead, the client reports its window size (NAWS), IAC sequences
// are filtered out of the input, and outgoing 0xFF bytes are doubled.
// [UTF8Channel] translates between the session's CP437 bytes and a
// UTF-8 terminal. [Console] runs a session on the local terminal in
// raw mode, for sysop logons.
//
// Every channel is an io.ReadWriter; the session package never sees
// telnet commands or character set translation.
package transport
