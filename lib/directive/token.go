// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directive

import "strings"

// TokenKind classifies a Token.
type TokenKind uint8

const (
	Variable TokenKind = iota
	NumberLiteral
	StringLiteral
	Function
)

func (k TokenKind) String() string {
	switch k {
	case Variable:
		return "variable"
	case NumberLiteral:
		return "number"
	case StringLiteral:
		return "string"
	case Function:
		return "function"
	default:
		return "unknown"
	}
}

// Token is one lexical element of an expression.
type Token struct {
	Kind  TokenKind
	Value string
}

// builtinFunctions are the names Tokenize treats as functions when no
// Context is involved.
var builtinFunctions = map[string]bool{"pause": true, "set": true, "if": true}

// Tokenize splits expr using the built-in function names.
func Tokenize(expr string) []Token {
	return tokenize(expr, func(name string) bool { return builtinFunctions[name] })
}

func tokenize(expr string, isFunction func(string) bool) []Token {
	var tokens []Token
	for i := 0; i < len(expr); {
		ch := expr[i]
		switch {
		case ch == '"':
			end := strings.IndexByte(expr[i+1:], '"')
			if end < 0 {
				tokens = append(tokens, Token{StringLiteral, expr[i+1:]})
				i = len(expr)
				continue
			}
			tokens = append(tokens, Token{StringLiteral, expr[i+1 : i+1+end]})
			i += end + 2

		case isDigit(ch):
			start := i
			for i < len(expr) && isDigit(expr[i]) {
				i++
			}
			tokens = append(tokens, Token{NumberLiteral, expr[start:i]})

		case isNameByte(ch):
			start := i
			for i < len(expr) && isNameByte(expr[i]) {
				i++
			}
			name := strings.ToLower(strings.TrimSpace(expr[start:i]))
			kind := Variable
			if isFunction(name) && !followedByAssign(expr[i:]) {
				kind = Function
			}
			tokens = append(tokens, Token{kind, name})

		default:
			// Whitespace, '=', ',', signs and anything else separate
			// tokens.
			i++
		}
	}
	return tokens
}

func followedByAssign(rest string) bool {
	rest = strings.TrimLeft(rest, " \t")
	return strings.HasPrefix(rest, "=")
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isNameByte(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '.'
}
