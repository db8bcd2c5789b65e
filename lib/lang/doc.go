// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lang holds the prompt strings a session prints on its own
// behalf: the pause prompt, idle warnings, logon prompts.
//
// Every key has a built-in default. An operator may override any subset
// from a JSONC file (JSON with comments and trailing commas):
//
//	{
//	  // shown when a screenful has been listed
//	  "pause.prompt": "|#3-- more --|#0 ",
//	}
//
// Strings may contain pipe codes and directives; they are printed
// through the session writer like any other content.
package lang
