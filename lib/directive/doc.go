// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package directive interprets the inline directives that content can
// embed in plain text:
//
//   - @X, a single-character macro that expands to one session or user
//     field (see [Context.Macro]);
//   - {expr}, an expression evaluated against registered context
//     providers and functions (see [Context.Evaluate]);
//   - [nX], cursor movement shorthand (see [ParseMovement]).
//
// The session writer finds the sentinels while scanning output and hands
// the directive body to this package. Everything here is fail-soft: a
// directive that cannot be parsed or resolved comes back as its original
// literal text, or as an empty string for unknown macros. Nothing returns
// an error to the writer.
//
// Variables are dotted names ("user.sl", "msg.title"). The part before
// the first dot selects providers registered under that prefix, tried in
// registration order:
//
//	ctx := directive.NewContext(flags, logger)
//	ctx.Register("user", record)
//	ctx.Evaluate(`if "user.sl >= 200", "Senior", "Junior"`)
//
// Functions receive the remaining tokens of the expression unevaluated.
// The built-in set is pause, set, and if; [Context.RegisterFunction]
// adds more without touching the tokenizer.
package directive
