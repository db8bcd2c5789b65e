// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for termhost binaries:
// reporting a fatal error from main() when the structured logger may
// not exist yet, and the signal context every binary runs under.
package process
