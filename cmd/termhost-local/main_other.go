// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package main

import (
	"errors"

	"github.com/bureau-foundation/termhost/lib/process"
)

func main() {
	process.Fatal(errors.New("termhost-local needs a unix terminal"))
}
