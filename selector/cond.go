// cond.go: the small boolean expression grammar used by `if:` and
// `expr-switch:` selectors (spec §4.D: "COND is a filter-expression
// (§4.I)"). The filter package's leaves are boolean-valued on a record;
// this is just the textual front end that parses COND into a filter.Filter
// tree, supporting `&&`, `||`, `!`, parens, and two comparisons:
//
//	level <= NAME | level < NAME | level >= NAME | level > NAME | level == NAME | level != NAME
//	name ~= REGEX
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package selector

import (
	"regexp"
	"strings"

	"github.com/agilira/elog/filter"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
)

type condParser struct {
	s   string
	pos int
}

// ParseCondition compiles a boolean filter-expression string into a
// filter.Filter, for use as the COND of an `if:` or `expr-switch:` arm.
func ParseCondition(s string) (filter.Filter, error) {
	p := &condParser{s: s}
	f, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, &FormatError{Kind: BadArgs, Position: p.pos, Detail: "unexpected trailing input in condition: " + s}
	}
	return f, nil
}

func (p *condParser) skipSpace() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *condParser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.s[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *condParser) parseOr() (filter.Filter, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := []filter.Filter{left}
	for p.consume("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return filter.Or(terms...), nil
}

func (p *condParser) parseAnd() (filter.Filter, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	terms := []filter.Filter{left}
	for p.consume("&&") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return filter.And(terms...), nil
}

func (p *condParser) parseUnary() (filter.Filter, error) {
	p.skipSpace()
	if p.consume("!") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return filter.Not(inner), nil
	}
	return p.parsePrimary()
}

func (p *condParser) parsePrimary() (filter.Filter, error) {
	p.skipSpace()
	if p.consume("(") {
		f, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.consume(")") {
			return nil, &FormatError{Kind: BadNesting, Position: p.pos, Detail: "expected ')' in condition"}
		}
		return f, nil
	}
	if p.consume("true") {
		return filter.FilterFunc(func(*record.LogRecord) bool { return true }), nil
	}
	if p.consume("false") {
		return filter.FilterFunc(func(*record.LogRecord) bool { return false }), nil
	}
	return p.parseComparison()
}

func (p *condParser) parseComparison() (filter.Filter, error) {
	p.skipSpace()
	rest := p.s[p.pos:]
	switch {
	case strings.HasPrefix(rest, "level"):
		p.pos += len("level")
		op, err := p.parseCompareOp()
		if err != nil {
			return nil, err
		}
		name := p.parseWord()
		lvl, err := level.Parse(name)
		if err != nil {
			return nil, &FormatError{Kind: BadArgs, Position: p.pos, Detail: "bad level name: " + name}
		}
		return filter.LevelMatch(op, lvl), nil
	case strings.HasPrefix(rest, "name~="):
		p.pos += len("name~=")
		pattern := p.parseWord()
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &FormatError{Kind: BadArgs, Position: p.pos, Detail: "bad regex: " + pattern}
		}
		return filter.NameMatch(filter.FieldSource, "", re), nil
	default:
		return nil, &FormatError{Kind: BadArgs, Position: p.pos, Detail: "unrecognized condition term: " + rest}
	}
}

func (p *condParser) parseCompareOp() (filter.CompareOp, error) {
	p.skipSpace()
	for _, c := range []struct {
		tok string
		op  filter.CompareOp
	}{
		{"<=", filter.Le}, {">=", filter.Ge}, {"==", filter.Eq}, {"!=", filter.Ne}, {"<", filter.Lt}, {">", filter.Gt},
	} {
		if p.consume(c.tok) {
			return c.op, nil
		}
	}
	return 0, &FormatError{Kind: BadArgs, Position: p.pos, Detail: "expected comparison operator"}
}

func (p *condParser) parseWord() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != ' ' && p.s[p.pos] != ')' {
		p.pos++
	}
	return p.s[start:p.pos]
}
