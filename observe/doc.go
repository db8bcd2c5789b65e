// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package observe lets the sysop watch a caller's session live.
//
// Every node has a [Mirror]. The daemon tees the session's output into
// it, and the mirror keeps the most recent output in a [RingBuffer] and
// forwards each write to attached observers. Mirror writes never fail
// and never block on an observer: an observer whose queue fills is
// dropped.
//
// A [Hub] owns the mirrors and serves them on a unix socket. The wire
// format is a sequence of framed messages, each a type byte, a 4-byte
// big-endian payload length, and the payload:
//
//	observer -> hub   Attach(node)
//	hub -> observer   Metadata, History, then Data and Resize as they happen
//
// Metadata payloads are CBOR (see lib/codec). History payloads carry a
// compression tag (none, lz4, zstd) and the uncompressed length ahead of
// the body. On linux the hub reads the peer's uid from the socket and
// can refuse it through [HubConfig].AuthorizePeer.
//
// [Attach] is the client side used by termhost-observe.
package observe
