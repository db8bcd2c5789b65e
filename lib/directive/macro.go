// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directive

// Macro produces the expansion of one @X code.
type Macro func(ctx *Context) string

// Field returns a Macro that prints a variable, or nothing when the
// variable does not resolve.
func Field(name string) Macro {
	return func(ctx *Context) string {
		value, _ := ctx.Lookup(name)
		return value
	}
}

var defaultMacros = map[byte]Macro{
	'a': Field("user.language"),
	'A': Field("user.age"),
	'b': Field("user.timebank"),
	'B': Field("user.birthday"),
	'c': Field("user.country"),
	'C': Field("user.city"),
	'd': Field("user.dsl"),
	'D': Field("user.downloads"),
	'e': Field("user.netemailsent"),
	'E': Field("user.emailsent"),
	'f': Field("user.firston"),
	'F': Field("user.feedbacksent"),
	'g': Field("user.gold"),
	'G': Field("user.messagesread"),
	'h': Field("session.node"),
	'H': Field("system.sysop"),
	'i': Field("user.illegallogons"),
	'I': Field("user.callsign"),
	'j': Field("session.fileconf"),
	'J': Field("session.messageconf"),
	'k': Field("user.downloadkb"),
	'K': Field("user.uploadkb"),
	'l': Field("user.logons"),
	'L': Field("user.laston"),
	'm': Field("user.messagesposted"),
	'M': Field("user.mailwaiting"),
	'n': Field("user.note"),
	'N': Field("user.name"),
	'o': Field("user.timeontoday"),
	'O': Field("user.timesontoday"),
	'p': Field("user.phone"),
	'P': Field("system.phone"),
	'r': Field("user.lastbps"),
	'R': Field("user.realname"),
	's': Field("user.street"),
	'S': Field("user.sl"),
	't': Field("system.time"),
	'T': Field("session.timeleft"),
	'u': Field("session.messagesub"),
	'U': Field("user.uploads"),
	'v': Field("system.date"),
	'V': Field("system.version"),
	'w': Field("session.width"),
	'W': Field("session.submessages"),
	'x': Field("session.bps"),
	'X': Field("user.sex"),
	'y': Field("user.computer"),
	'Y': Field("system.name"),
	'z': Field("user.state"),
	'Z': Field("user.zip"),
	'#': Field("user.number"),
	'@': func(*Context) string { return "@" },
}

// Macro expands the @X code. Unknown codes expand to "".
func (c *Context) Macro(code byte) string {
	macro, ok := c.macros[code]
	if !ok {
		c.logger.Debug("unknown macro", "code", string(rune(code)))
		return ""
	}
	return macro(c)
}

// RegisterMacro adds or replaces the expansion for code.
func (c *Context) RegisterMacro(code byte, macro Macro) {
	c.macros[code] = macro
}
