// grammar.go: the recursive-descent compiler for format strings
// (spec §4.D). Literal text is copied verbatim; `${name[:arg]*}` opens a
// selector, whose args are split on top-level `:` (top-level meaning not
// inside a nested `${...}`, since the grammar's only nesting mechanism is
// another selector).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package selector

import (
	"strconv"
	"strings"

	"github.com/agilira/elog/level"
)

// Compile parses a format string into an ordered list of Nodes using reg
// to resolve selector names. Compilation failures return *FormatError.
func Compile(format string, reg *Registry) ([]Node, error) {
	nodes, pos, err := compileUntil(format, 0, reg)
	if err != nil {
		return nil, err
	}
	if pos != len(format) {
		return nil, &FormatError{Kind: BadNesting, Position: pos, Detail: "unexpected trailing input"}
	}
	return nodes, nil
}

// compileUntil compiles the literal-and-selector mix in s starting at pos,
// returning the compiled nodes and the position reached (always len(s) on
// success — kept as a return value so recursive calls share one shape).
func compileUntil(s string, pos int, reg *Registry) ([]Node, int, error) {
	var nodes []Node
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, &textNode{text: lit.String()})
			lit.Reset()
		}
	}
	for pos < len(s) {
		if s[pos] == '$' && pos+1 < len(s) && s[pos+1] == '{' {
			flushLit()
			inner, end, err := extractBraced(s, pos)
			if err != nil {
				return nil, 0, err
			}
			node, err := compileSelector(inner, pos+2, reg)
			if err != nil {
				return nil, 0, err
			}
			nodes = append(nodes, node)
			pos = end
			continue
		}
		lit.WriteByte(s[pos])
		pos++
	}
	flushLit()
	return nodes, pos, nil
}

// extractBraced returns the content between the '{' at start+1 and its
// matching '}' (tracking nested "${" occurrences so a selector can embed
// sub-selectors, e.g. switch's `${case: ...}` arms), plus the index just
// past the matching '}'.
func extractBraced(s string, start int) (string, int, error) {
	depth := 1
	i := start + 2 // skip "${"
	contentStart := i
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], "${"):
			depth++
			i += 2
		case s[i] == '}':
			depth--
			if depth == 0 {
				return s[contentStart:i], i + 1, nil
			}
			i++
		default:
			i++
		}
	}
	return "", 0, &FormatError{Kind: UnclosedBrace, Position: start, Detail: "unclosed '${' selector"}
}

// splitTopLevel splits s on ':' that is not nested inside a "${...}" span.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "${"):
			depth++
			cur.WriteString("${")
			i++
		case s[i] == '}' && depth > 0:
			depth--
			cur.WriteByte('}')
		case s[i] == ':' && depth == 0:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(s[i])
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// compileSelector compiles the content of one ${...} span. basePos is the
// offset of the first content byte, for error reporting.
func compileSelector(content string, basePos int, reg *Registry) (Node, error) {
	parts := splitTopLevel(content)
	name := strings.TrimSpace(parts[0])
	args := parts[1:]
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}

	switch name {
	case "env":
		return compileEnv(args, basePos)
	case "const-str":
		return &constNode{str: strings.Join(args, ":")}, nil
	case "const-int":
		return compileConstInt(args, basePos)
	case "const-level":
		return compileConstLevel(args, basePos)
	case "const-time":
		return &constNode{str: strings.Join(args, ":")}, nil
	case "if":
		return compileIf(args, basePos, reg)
	case "switch":
		return compileSwitch(args, basePos, reg)
	case "expr-switch":
		return compileExprSwitch(args, basePos, reg)
	case "fmt":
		return compileFmt(args, basePos)
	}
	if fk, ok := fieldNames[name]; ok {
		return compileField(fk, args), nil
	}
	if ctor, ok := reg.lookup(name); ok {
		return ctor(args)
	}
	return nil, &FormatError{Kind: UnknownSelector, Position: basePos, Detail: "unknown selector: " + name}
}

func compileField(fk FieldKind, args []string) Node {
	justify := 0
	for _, a := range args {
		if v, err := strconv.Atoi(a); err == nil {
			justify = v
		}
	}
	return &fieldNode{kind: fk, justify: justify}
}

func compileEnv(args []string, basePos int) (Node, error) {
	for _, a := range args {
		if strings.HasPrefix(a, "name=") {
			return &envNode{name: strings.TrimPrefix(a, "name=")}, nil
		}
	}
	if len(args) == 1 {
		return &envNode{name: args[0]}, nil
	}
	return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "env: requires name=VAR"}
}

func compileConstInt(args []string, basePos int) (Node, error) {
	if len(args) != 1 {
		return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "const-int: requires exactly one argument"}
	}
	v, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "const-int: not an integer: " + args[0]}
	}
	return &constNode{isInt: true, intVal: v}, nil
}

func compileConstLevel(args []string, basePos int) (Node, error) {
	if len(args) != 1 {
		return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "const-level: requires exactly one argument"}
	}
	lvl, err := level.Parse(args[0])
	if err != nil {
		return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "const-level: " + err.Error()}
	}
	return &constNode{isLevel: true, lvlVal: lvl}, nil
}

func compileIf(args []string, basePos int, reg *Registry) (Node, error) {
	if len(args) < 2 {
		return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "if: requires COND : THEN [: ELSE]"}
	}
	cond, err := ParseCondition(args[0])
	if err != nil {
		return nil, err
	}
	thenNodes, _, err := compileUntil(args[1], 0, reg)
	if err != nil {
		return nil, err
	}
	var elseNodes []Node
	if len(args) >= 3 {
		elseNodes, _, err = compileUntil(strings.Join(args[2:], ":"), 0, reg)
		if err != nil {
			return nil, err
		}
	}
	return &ifNode{cond: cond, thenBranch: thenNodes, elseBranch: elseNodes}, nil
}

// armContent strips one arm's outer "${...}" wrapper (e.g. "${case: X : Y}")
// and returns the top-level-split parts of its interior.
func armContent(arm string, basePos int) ([]string, error) {
	trimmed := strings.TrimSpace(arm)
	if !strings.HasPrefix(trimmed, "${") {
		return nil, &FormatError{Kind: BadNesting, Position: basePos, Detail: "expected ${case:...} or ${default:...} arm, got: " + arm}
	}
	inner, _, err := extractBraced(trimmed, 0)
	if err != nil {
		return nil, err
	}
	parts := splitTopLevel(inner)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

// compileSwitch handles `switch: VALUE_EXPR : ${case: CONST : EXPR} ... : ${default: EXPR}`.
func compileSwitch(args []string, basePos int, reg *Registry) (Node, error) {
	if len(args) < 1 {
		return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "switch: requires a value expression"}
	}
	valueExpr, _, err := compileUntil(args[0], 0, reg)
	if err != nil {
		return nil, err
	}
	n := &switchNode{valueExpr: valueExpr}
	for _, arm := range args[1:] {
		parts, err := armContent(arm, basePos)
		if err != nil {
			return nil, err
		}
		switch parts[0] {
		case "case":
			if len(parts) != 3 {
				return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "case: requires CONST : EXPR"}
			}
			body, _, err := compileUntil(parts[2], 0, reg)
			if err != nil {
				return nil, err
			}
			n.cases = append(n.cases, switchCase{constant: parts[1], body: body})
		case "default":
			if len(parts) != 2 {
				return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "default: requires EXPR"}
			}
			body, _, err := compileUntil(parts[1], 0, reg)
			if err != nil {
				return nil, err
			}
			n.def = body
		default:
			return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "switch: unexpected arm: " + parts[0]}
		}
	}
	return n, nil
}

// compileExprSwitch handles `expr-switch: ${case: COND : EXPR} ... : ${default: EXPR}`.
func compileExprSwitch(args []string, basePos int, reg *Registry) (Node, error) {
	n := &exprSwitchNode{}
	for _, arm := range args {
		parts, err := armContent(arm, basePos)
		if err != nil {
			return nil, err
		}
		switch parts[0] {
		case "case":
			if len(parts) != 3 {
				return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "case: requires COND : EXPR"}
			}
			cond, err := ParseCondition(parts[1])
			if err != nil {
				return nil, err
			}
			body, _, err := compileUntil(parts[2], 0, reg)
			if err != nil {
				return nil, err
			}
			n.cases = append(n.cases, switchCase{cond: cond, body: body})
		case "default":
			if len(parts) != 2 {
				return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "default: requires EXPR"}
			}
			body, _, err := compileUntil(parts[1], 0, reg)
			if err != nil {
				return nil, err
			}
			n.def = body
		default:
			return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "expr-switch: unexpected arm: " + parts[0]}
		}
	}
	return n, nil
}

// compileFmt handles `fmt:DIRECTIVE`, translating a small set of ANSI
// directive names into escape codes. Unknown directives are passed
// through as a no-op rather than failing compilation, since terminal
// capability sets vary.
func compileFmt(args []string, basePos int) (Node, error) {
	if len(args) == 0 {
		return nil, &FormatError{Kind: BadArgs, Position: basePos, Detail: "fmt: requires a directive"}
	}
	code, ok := ansiCode(strings.Join(args, ":"))
	if !ok {
		return &fmtNode{code: nil}, nil
	}
	return &fmtNode{code: []byte(code)}, nil
}
