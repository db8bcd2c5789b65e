// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directive

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition evaluates a boolean expression such as
// `user.sl >= 200 && !user.sysop`. Operands are numbers, quoted strings,
// or variable names; a variable that does not resolve stands for its own
// name. Comparisons are numeric when both sides are integers. A bare
// operand is true unless it is empty, "0", "false", "no", or "off".
func (c *Context) Condition(expr string) (bool, error) {
	lexemes, err := lexCondition(expr)
	if err != nil {
		return false, err
	}
	p := &conditionParser{ctx: c, lexemes: lexemes}
	result, err := p.or()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.lexemes) {
		return false, fmt.Errorf("unexpected %q", p.lexemes[p.pos].text)
	}
	return result, nil
}

type lexemeKind uint8

const (
	lexOperand lexemeKind = iota
	lexQuoted
	lexOperator
)

type lexeme struct {
	kind lexemeKind
	text string
}

var conditionOperators = []string{"==", "!=", "<=", ">=", "&&", "||", "<", ">", "!", "(", ")", "="}

func lexCondition(expr string) ([]lexeme, error) {
	var out []lexeme
	for i := 0; i < len(expr); {
		ch := expr[i]
		if ch == ' ' || ch == '\t' {
			i++
			continue
		}
		if ch == '"' || ch == '\'' {
			end := strings.IndexByte(expr[i+1:], ch)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			out = append(out, lexeme{lexQuoted, expr[i+1 : i+1+end]})
			i += end + 2
			continue
		}
		matched := false
		for _, op := range conditionOperators {
			if strings.HasPrefix(expr[i:], op) {
				i += len(op)
				if op == "=" {
					op = "=="
				}
				out = append(out, lexeme{lexOperator, op})
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		start := i
		for i < len(expr) && !strings.ContainsRune(" \t\"'=!<>&|()", rune(expr[i])) {
			i++
		}
		if start == i {
			return nil, fmt.Errorf("unexpected %q at offset %d", ch, i)
		}
		out = append(out, lexeme{lexOperand, expr[start:i]})
	}
	return out, nil
}

type conditionParser struct {
	ctx     *Context
	lexemes []lexeme
	pos     int
}

func (p *conditionParser) peekOperator(op string) bool {
	return p.pos < len(p.lexemes) && p.lexemes[p.pos].kind == lexOperator && p.lexemes[p.pos].text == op
}

func (p *conditionParser) or() (bool, error) {
	left, err := p.and()
	if err != nil {
		return false, err
	}
	for p.peekOperator("||") {
		p.pos++
		right, err := p.and()
		if err != nil {
			return false, err
		}
		left = left || right
	}
	return left, nil
}

func (p *conditionParser) and() (bool, error) {
	left, err := p.unary()
	if err != nil {
		return false, err
	}
	for p.peekOperator("&&") {
		p.pos++
		right, err := p.unary()
		if err != nil {
			return false, err
		}
		left = left && right
	}
	return left, nil
}

func (p *conditionParser) unary() (bool, error) {
	if p.peekOperator("!") {
		p.pos++
		value, err := p.unary()
		return !value, err
	}
	if p.peekOperator("(") {
		p.pos++
		value, err := p.or()
		if err != nil {
			return false, err
		}
		if !p.peekOperator(")") {
			return false, fmt.Errorf("missing )")
		}
		p.pos++
		return value, nil
	}
	return p.comparison()
}

func (p *conditionParser) comparison() (bool, error) {
	left, err := p.operand()
	if err != nil {
		return false, err
	}
	if p.pos >= len(p.lexemes) || p.lexemes[p.pos].kind != lexOperator {
		return truthy(left), nil
	}
	op := p.lexemes[p.pos].text
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
	default:
		return truthy(left), nil
	}
	p.pos++
	right, err := p.operand()
	if err != nil {
		return false, err
	}
	return compare(left, op, right), nil
}

func (p *conditionParser) operand() (string, error) {
	if p.pos >= len(p.lexemes) {
		return "", fmt.Errorf("missing operand")
	}
	l := p.lexemes[p.pos]
	switch l.kind {
	case lexQuoted:
		p.pos++
		return l.text, nil
	case lexOperand:
		p.pos++
		if _, err := strconv.Atoi(l.text); err == nil {
			return l.text, nil
		}
		if value, ok := p.ctx.Lookup(l.text); ok {
			return value, nil
		}
		return l.text, nil
	default:
		return "", fmt.Errorf("unexpected %q", l.text)
	}
}

func compare(left, op, right string) bool {
	var order int
	l, lerr := strconv.Atoi(strings.TrimSpace(left))
	r, rerr := strconv.Atoi(strings.TrimSpace(right))
	if lerr == nil && rerr == nil {
		switch {
		case l < r:
			order = -1
		case l > r:
			order = 1
		}
	} else {
		order = strings.Compare(left, right)
	}
	switch op {
	case "==":
		return order == 0
	case "!=":
		return order != 0
	case "<":
		return order < 0
	case "<=":
		return order <= 0
	case ">":
		return order > 0
	default:
		return order >= 0
	}
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}
