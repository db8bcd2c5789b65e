// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds termhost's CBOR configuration.
//
// The observer protocol carries a small metadata record per attached
// node (node number, user, remote address, screen size, connection
// time). Those records are CBOR with Core Deterministic Encoding
// (RFC 8949 §4.2), so the same logical record always produces the same
// bytes, and times are encoded as RFC 3339 strings.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types carried only over the observer socket use `cbor` struct tags.
package codec
