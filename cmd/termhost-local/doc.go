// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Termhost-local runs one call on the local terminal, the way a sysop
// logs on at the console. It uses the same configuration, user
// database, display files and prompt strings as termhostd, and needs no
// network listener.
package main
