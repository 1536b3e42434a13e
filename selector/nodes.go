// nodes.go: compiled selector node types (spec §4.D, §4.E).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package selector

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/elog/filter"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
)

// Context is the per-record state a compiled node tree emits against.
// ResolvedText carries the already-expanded message for binary records
// (template + args resolved by the format package before Emit is called);
// for text records it is simply Record.Text.
type Context struct {
	Record       *record.LogRecord
	ResolvedText string
	Proc         *ProcessInfo
}

// Node is one compiled element of a format string.
type Node interface {
	Emit(ctx *Context, recept Receptor)
}

// pad applies the spec §4.D justification rule: positive n left-justifies
// (pads trailing spaces) to width n, negative n right-justifies (pads
// leading spaces) to width -n, zero leaves s untouched.
func pad(s string, n int) string {
	if n == 0 {
		return s
	}
	width := n
	if width < 0 {
		width = -width
	}
	if len(s) >= width {
		return s
	}
	fill := strings.Repeat(" ", width-len(s))
	if n > 0 {
		return s + fill
	}
	return fill + s
}

// textNode is literal text copied verbatim.
type textNode struct{ text string }

func (n *textNode) Emit(_ *Context, recept Receptor) { recept.ReceiveRaw([]byte(n.text)) }

// fmtNode pushes an ANSI directive; it produces byte output but consumes
// no record field (spec §4.D).
type fmtNode struct{ code []byte }

func (n *fmtNode) Emit(_ *Context, recept Receptor) { recept.ReceiveRaw(n.code) }

// FieldKind enumerates the record-derived and process-derived selectors.
type FieldKind int

const (
	FieldRID FieldKind = iota
	FieldTime
	FieldTimeEpoch
	FieldLevel
	FieldTID
	FieldTName
	FieldSrc
	FieldMod
	FieldFile
	FieldLine
	FieldFunc
	FieldMsg
	FieldHost
	FieldUser
	FieldOSName
	FieldOSVer
	FieldApp
	FieldProg
	FieldPID
)

var fieldNames = map[string]FieldKind{
	"rid":        FieldRID,
	"time":       FieldTime,
	"time_epoch": FieldTimeEpoch,
	"level":      FieldLevel,
	"tid":        FieldTID,
	"tname":      FieldTName,
	"src":        FieldSrc,
	"mod":        FieldSrc,
	"file":       FieldFile,
	"line":       FieldLine,
	"func":       FieldFunc,
	"msg":        FieldMsg,
	"host":       FieldHost,
	"user":       FieldUser,
	"os_name":    FieldOSName,
	"os_ver":     FieldOSVer,
	"app":        FieldApp,
	"prog":       FieldProg,
	"pid":        FieldPID,
}

// fieldNode emits a single record- or process-derived field, with an
// optional justification width.
type fieldNode struct {
	kind    FieldKind
	justify int
}

func (n *fieldNode) Emit(ctx *Context, recept Receptor) {
	r := ctx.Record
	switch n.kind {
	case FieldRID:
		emitNamedInt(recept, namedRID, int64(r.RecordID))
	case FieldTime:
		recept.ReceiveTime(r.TimestampWall)
	case FieldTimeEpoch:
		recept.ReceiveInt(r.TimestampWall.UnixNano())
	case FieldLevel:
		recept.ReceiveLevel(r.Level)
	case FieldTID:
		emitNamedInt(recept, namedNone, int64(r.ThreadID))
	case FieldTName:
		emitNamed(recept, namedNone, strconv.FormatUint(r.ThreadID, 10))
	case FieldSrc:
		name := ""
		if r.Source != nil {
			name = r.Source.QualifiedName()
		}
		emitNamed(recept, namedSrc, pad(name, n.justify))
	case FieldFile:
		emitNamed(recept, namedNone, pad(r.Location.File, n.justify))
	case FieldLine:
		recept.ReceiveInt(int64(r.Location.Line))
	case FieldFunc:
		emitNamed(recept, namedNone, pad(r.Location.Func, n.justify))
	case FieldMsg:
		emitNamed(recept, namedMsg, ctx.ResolvedText)
	case FieldHost:
		emitNamed(recept, namedHost, pad(ctx.Proc.Host, n.justify))
	case FieldUser:
		emitNamed(recept, namedUser, pad(ctx.Proc.User, n.justify))
	case FieldOSName:
		emitNamed(recept, namedNone, ctx.Proc.OSName)
	case FieldOSVer:
		emitNamed(recept, namedNone, ctx.Proc.OSVer)
	case FieldApp:
		emitNamed(recept, namedProg, pad(ctx.Proc.App, n.justify))
	case FieldProg:
		emitNamed(recept, namedProg, pad(ctx.Proc.Prog, n.justify))
	case FieldPID:
		emitNamedInt(recept, namedPID, int64(ctx.Proc.PID))
	}
}

// envNode emits an OS environment variable's value.
type envNode struct{ name string }

func (n *envNode) Emit(_ *Context, recept Receptor) {
	recept.ReceiveString(os.Getenv(n.name))
}

// constNode emits a fixed value baked in at compile time.
type constNode struct {
	str      string
	isInt    bool
	intVal   int64
	isLevel  bool
	lvlVal   level.Level
	isTime   bool
}

func (n *constNode) Emit(_ *Context, recept Receptor) {
	switch {
	case n.isInt:
		recept.ReceiveInt(n.intVal)
	case n.isLevel:
		recept.ReceiveLevel(n.lvlVal)
	default:
		recept.ReceiveString(n.str)
	}
}

// ifNode implements `if: COND : THEN [: ELSE]`.
type ifNode struct {
	cond       filter.Filter
	thenBranch []Node
	elseBranch []Node
}

func (n *ifNode) Emit(ctx *Context, recept Receptor) {
	branch := n.elseBranch
	if n.cond.Match(ctx.Record) {
		branch = n.thenBranch
	}
	for _, child := range branch {
		child.Emit(ctx, recept)
	}
}

// switchCase is one `${case: CONST : EXPR}` arm of a switch/expr-switch.
type switchCase struct {
	constant string
	cond     filter.Filter // used only by expr-switch
	body     []Node
}

// switchNode implements N-way value-equality branching.
type switchNode struct {
	valueExpr []Node
	cases     []switchCase
	def       []Node
}

func (n *switchNode) Emit(ctx *Context, recept Receptor) {
	var sb strings.Builder
	collector := &collectingReceptor{Receptor: recept, buf: &sb}
	for _, ve := range n.valueExpr {
		ve.Emit(ctx, collector)
	}
	value := sb.String()
	for _, c := range n.cases {
		if c.constant == value {
			for _, child := range c.body {
				child.Emit(ctx, recept)
			}
			return
		}
	}
	for _, child := range n.def {
		child.Emit(ctx, recept)
	}
}

// exprSwitchNode implements predicate branching: the first case whose
// filter-expression matches wins.
type exprSwitchNode struct {
	cases []switchCase
	def   []Node
}

func (n *exprSwitchNode) Emit(ctx *Context, recept Receptor) {
	for _, c := range n.cases {
		if c.cond != nil && c.cond.Match(ctx.Record) {
			for _, child := range c.body {
				child.Emit(ctx, recept)
			}
			return
		}
	}
	for _, child := range n.def {
		child.Emit(ctx, recept)
	}
}

// collectingReceptor renders a value-expr's emissions to a plain string
// for switch's value-equality comparison.
type collectingReceptor struct {
	Receptor
	buf *strings.Builder
}

func (c *collectingReceptor) ReceiveInt(v int64)         { fmt.Fprintf(c.buf, "%d", v) }
func (c *collectingReceptor) ReceiveString(v string)     { c.buf.WriteString(v) }
func (c *collectingReceptor) ReceiveLevel(v level.Level) { c.buf.WriteString(v.String()) }
func (c *collectingReceptor) ReceiveRaw(b []byte)        { c.buf.Write(b) }
func (c *collectingReceptor) ReceiveTime(v time.Time)    { c.buf.WriteString(v.Format(time.RFC3339Nano)) }
