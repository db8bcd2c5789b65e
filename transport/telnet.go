// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"log/slog"
	"net"
	"sync"
)

// Telnet command and option codes (RFC 854, 857, 858, 1073).
const (
	telnetSE   = 240
	telnetNOP  = 241
	telnetSB   = 250
	telnetWILL = 251
	telnetWONT = 252
	telnetDO   = 253
	telnetDONT = 254
	telnetIAC  = 255

	optionEcho            = 1
	optionSuppressGoAhead = 3
	optionNAWS            = 31
)

// maxSubnegotiation bounds a buffered SB payload. NAWS needs four
// bytes; anything longer is discarded.
const maxSubnegotiation = 64

type telnetState int

const (
	stateData telnetState = iota
	stateIAC
	stateOption
	stateSubnegotiation
	stateSubnegotiationIAC
)

// TelnetConn is a net.Conn that speaks the server side of telnet.
// Reads return only data bytes; writes escape IAC.
type TelnetConn struct {
	net.Conn

	logger *slog.Logger

	writeMu sync.Mutex

	// Read-side state, owned by the reading goroutine.
	state   telnetState
	verb    byte
	sb      []byte
	afterCR bool
	raw     []byte

	sizeMu   sync.Mutex
	width    int
	height   int
	onResize ResizeFunc
}

// NewTelnetConn wraps conn. Call Negotiate before starting the
// session.
func NewTelnetConn(conn net.Conn, logger *slog.Logger) *TelnetConn {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TelnetConn{Conn: conn, logger: logger, raw: make([]byte, 4096)}
}

// Negotiate offers server-side echo and suppress-go-ahead and asks the
// client for its window size.
func (t *TelnetConn) Negotiate() error {
	return t.writeRaw([]byte{
		telnetIAC, telnetWILL, optionEcho,
		telnetIAC, telnetWILL, optionSuppressGoAhead,
		telnetIAC, telnetDO, optionNAWS,
	})
}

// OnResize registers fn to receive NAWS window size reports. A size
// already reported is delivered immediately.
func (t *TelnetConn) OnResize(fn ResizeFunc) {
	t.sizeMu.Lock()
	t.onResize = fn
	width, height := t.width, t.height
	t.sizeMu.Unlock()
	if fn != nil && width > 0 && height > 0 {
		fn(width, height)
	}
}

// Size returns the last window size the client reported.
func (t *TelnetConn) Size() (width, height int, ok bool) {
	t.sizeMu.Lock()
	defer t.sizeMu.Unlock()
	return t.width, t.height, t.width > 0 && t.height > 0
}

// Read returns data bytes with telnet commands removed. A CR followed
// by NUL or LF is returned as a lone CR.
func (t *TelnetConn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		limit := min(len(p), len(t.raw))
		n, err := t.Conn.Read(t.raw[:limit])
		out := 0
		for _, b := range t.raw[:n] {
			if t.filter(b) {
				p[out] = b
				out++
			}
		}
		if out > 0 || err != nil {
			return out, err
		}
	}
}

// filter advances the protocol state by one byte and reports whether
// b is data for the caller.
func (t *TelnetConn) filter(b byte) bool {
	switch t.state {
	case stateData:
		if b == telnetIAC {
			t.state = stateIAC
			return false
		}
		if t.afterCR && (b == 0 || b == '\n') {
			t.afterCR = false
			return false
		}
		t.afterCR = b == '\r'
		return true

	case stateIAC:
		t.state = stateData
		switch b {
		case telnetIAC:
			t.afterCR = false
			return true
		case telnetWILL, telnetWONT, telnetDO, telnetDONT:
			t.verb = b
			t.state = stateOption
		case telnetSB:
			t.sb = t.sb[:0]
			t.state = stateSubnegotiation
		case telnetNOP:
		default:
			t.logger.Debug("telnet command ignored", "command", b)
		}
		return false

	case stateOption:
		t.state = stateData
		t.answer(t.verb, b)
		return false

	case stateSubnegotiation:
		if b == telnetIAC {
			t.state = stateSubnegotiationIAC
		} else if len(t.sb) < maxSubnegotiation {
			t.sb = append(t.sb, b)
		}
		return false

	case stateSubnegotiationIAC:
		switch b {
		case telnetSE:
			t.state = stateData
			t.subnegotiation(t.sb)
		case telnetIAC:
			t.state = stateSubnegotiation
			if len(t.sb) < maxSubnegotiation {
				t.sb = append(t.sb, telnetIAC)
			}
		default:
			// Malformed: treat IAC x as the end of the block.
			t.state = stateData
		}
		return false
	}
	return false
}

// answer refuses options the server does not implement. Requests for
// options it already offered are acknowledgements and need no reply.
func (t *TelnetConn) answer(verb, option byte) {
	var reply byte
	switch verb {
	case telnetDO:
		if option == optionEcho || option == optionSuppressGoAhead {
			return
		}
		reply = telnetWONT
	case telnetWILL:
		if option == optionNAWS {
			return
		}
		reply = telnetDONT
	default:
		return
	}
	if err := t.writeRaw([]byte{telnetIAC, reply, option}); err != nil {
		t.logger.Debug("telnet reply failed", "error", err)
	}
}

func (t *TelnetConn) subnegotiation(payload []byte) {
	if len(payload) != 5 || payload[0] != optionNAWS {
		return
	}
	width := int(payload[1])<<8 | int(payload[2])
	height := int(payload[3])<<8 | int(payload[4])
	if width == 0 || height == 0 {
		return
	}

	t.sizeMu.Lock()
	t.width, t.height = width, height
	fn := t.onResize
	t.sizeMu.Unlock()

	t.logger.Debug("window size", "width", width, "height", height)
	if fn != nil {
		fn(width, height)
	}
}

// Write sends p with every 0xFF doubled. The count returned is of
// bytes from p.
func (t *TelnetConn) Write(p []byte) (int, error) {
	escaped := p
	for i, b := range p {
		if b == telnetIAC {
			escaped = make([]byte, 0, len(p)+8)
			escaped = append(escaped, p[:i]...)
			for _, b := range p[i:] {
				escaped = append(escaped, b)
				if b == telnetIAC {
					escaped = append(escaped, telnetIAC)
				}
			}
			break
		}
	}
	if err := t.writeRaw(escaped); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (t *TelnetConn) writeRaw(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err := t.Conn.Write(data)
	return err
}
