// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directive

import (
	"log/slog"
	"strings"
)

// Provider resolves the attribute part of a dotted variable name
// ("sl" in "user.sl").
type Provider interface {
	Lookup(attribute string) (string, bool)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(attribute string) (string, bool)

func (f ProviderFunc) Lookup(attribute string) (string, bool) { return f(attribute) }

// Flags is the session state the set function may change. SetFlag
// reports whether name was recognized and value accepted.
type Flags interface {
	SetFlag(name, value string) bool
}

// Func implements a named directive function. args are the tokens
// following the function name, unevaluated.
type Func func(ctx *Context, args []Token) string

type registration struct {
	prefix   string
	provider Provider
}

// Context holds everything directive evaluation reads from: providers,
// functions, macros, and the session flags. A Context belongs to one
// session and is not safe for concurrent use.
type Context struct {
	providers []registration
	functions map[string]Func
	macros    map[byte]Macro
	flags     Flags
	logger    *slog.Logger

	pauseRequested bool
}

// NewContext returns a Context with the built-in functions and macro
// table. flags may be nil, in which case set changes nothing.
func NewContext(flags Flags, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Context{
		functions: map[string]Func{
			"pause": pauseFunction,
			"set":   setFunction,
			"if":    ifFunction,
		},
		macros: make(map[byte]Macro, len(defaultMacros)),
		flags:  flags,
		logger: logger,
	}
	for code, macro := range defaultMacros {
		c.macros[code] = macro
	}
	return c
}

// Register appends provider to the lookup order for prefix. Earlier
// registrations for the same prefix win.
func (c *Context) Register(prefix string, provider Provider) {
	c.providers = append(c.providers, registration{strings.ToLower(prefix), provider})
}

// Unregister removes every provider registered under prefix.
func (c *Context) Unregister(prefix string) {
	prefix = strings.ToLower(prefix)
	kept := c.providers[:0]
	for _, r := range c.providers {
		if r.prefix != prefix {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(c.providers); i++ {
		c.providers[i] = registration{}
	}
	c.providers = kept
}

// RegisterFunction adds or replaces a function. Names are case-folded.
func (c *Context) RegisterFunction(name string, fn Func) {
	c.functions[strings.ToLower(name)] = fn
}

// Lookup resolves a dotted variable name through the providers.
func (c *Context) Lookup(name string) (string, bool) {
	name = strings.ToLower(name)
	prefix, attribute, _ := strings.Cut(name, ".")
	for _, r := range c.providers {
		if r.prefix != prefix {
			continue
		}
		if value, ok := r.provider.Lookup(attribute); ok {
			return value, true
		}
	}
	return "", false
}

// Tokenize splits expr, classifying names registered as functions.
func (c *Context) Tokenize(expr string) []Token {
	return tokenize(expr, func(name string) bool {
		_, ok := c.functions[name]
		return ok
	})
}
