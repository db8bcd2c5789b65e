// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directive

import (
	"strings"
)

// ResultKind tags an Interpreted result.
type ResultKind uint8

const (
	ResultText ResultKind = iota
	ResultMovement
)

// Interpreted is the outcome of one directive: text to print or a cursor
// movement to perform. Pause asks the writer to run its pause prompt
// after printing Text.
type Interpreted struct {
	Kind     ResultKind
	Text     string
	Movement Movement
	Pause    bool
}

// Text returns a text result.
func Text(s string) Interpreted { return Interpreted{Kind: ResultText, Text: s} }

// Evaluate interprets the body of a {...} directive. Unresolvable
// variables make the whole directive evaluate to its original text.
func (c *Context) Evaluate(expr string) Interpreted {
	original := "{" + expr + "}"
	tokens := c.Tokenize(expr)
	if len(tokens) == 0 {
		return Text("")
	}

	if tokens[0].Kind == Function {
		fn := c.functions[tokens[0].Value]
		c.pauseRequested = false
		out := fn(c, tokens[1:])
		result := Text(out)
		result.Pause = c.pauseRequested
		c.pauseRequested = false
		return result
	}

	var out strings.Builder
	for _, token := range tokens {
		value, ok := c.value(token)
		if !ok {
			c.logger.Debug("unresolved directive", "expression", expr, "token", token.Value)
			return Text(original)
		}
		out.WriteString(value)
	}
	return Text(out.String())
}

// value evaluates a single token. Function names outside the leading
// position do not evaluate.
func (c *Context) value(token Token) (string, bool) {
	switch token.Kind {
	case NumberLiteral, StringLiteral:
		return token.Value, true
	case Variable:
		return c.Lookup(token.Value)
	default:
		return "", false
	}
}

func pauseFunction(c *Context, _ []Token) string {
	c.pauseRequested = true
	return ""
}

// setFunction handles "set name value" and "set name=value".
func setFunction(c *Context, args []Token) string {
	if len(args) < 2 {
		c.logger.Debug("set needs a name and a value", "arguments", len(args))
		return ""
	}
	name, value := args[0].Value, args[1].Value
	if c.flags == nil || !c.flags.SetFlag(name, value) {
		c.logger.Debug("set rejected", "name", name, "value", value)
	}
	return ""
}

// ifFunction handles "if condition, then, else". The condition is an
// expression string; then and else are evaluated as single tokens.
func ifFunction(c *Context, args []Token) string {
	if len(args) == 0 {
		return ""
	}
	truth, err := c.Condition(args[0].Value)
	if err != nil {
		c.logger.Debug("bad condition", "condition", args[0].Value, "error", err)
	}
	branch := 2
	if truth {
		branch = 1
	}
	if branch >= len(args) {
		return ""
	}
	value, ok := c.value(args[branch])
	if !ok {
		return ""
	}
	return value
}
