// formatter.go: the Formatter contract (spec §4.E) — compiles a format
// string once via package selector, then walks the compiled node list for
// every record, resolving binary payloads first.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package format

import (
	"bytes"
	"strconv"
	"time"

	"github.com/agilira/elog/formatcache"
	"github.com/agilira/elog/internal/bufferpool"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
	"github.com/agilira/elog/selector"
)

// DefaultFormat is "a space-separated composition of time level [tid]
// source msg" (spec §4.E).
const DefaultFormat = "${time} ${level} [${tid}] ${src} ${msg}"

// Formatter holds one compiled selector tree plus the shared resources a
// record needs to resolve against it.
type Formatter struct {
	nodes []selector.Node
	proc  *selector.ProcessInfo
	cache *formatcache.Cache
	udt   *UDTRegistry
}

// Compile parses formatStr with reg and binds it to proc/cache/udt for
// later Format calls.
func Compile(formatStr string, reg *selector.Registry, proc *selector.ProcessInfo, cache *formatcache.Cache, udt *UDTRegistry) (*Formatter, error) {
	nodes, err := selector.Compile(formatStr, reg)
	if err != nil {
		return nil, err
	}
	return &Formatter{nodes: nodes, proc: proc, cache: cache, udt: udt}, nil
}

// Format walks the compiled selector tree for rec, emitting into recept.
// Binary records are resolved to text first (spec §4.E: "binary records
// first pass through the resolver").
func (f *Formatter) Format(rec *record.LogRecord, recept selector.Receptor) error {
	resolvedText := rec.Text
	if rec.IsBinary() {
		text, err := ResolveBinary(rec, f.cache, f.udt)
		if err != nil {
			return err
		}
		resolvedText = text
	}
	ctx := &selector.Context{Record: rec, ResolvedText: resolvedText, Proc: f.proc}
	for _, n := range f.nodes {
		n.Emit(ctx, recept)
	}
	return nil
}

// TextReceptor is the BY_TYPE concrete formatter: it converts every typed
// call into bytes in a growable buffer, with no semantic routing (spec
// §4.E "a concrete formatter... converts to bytes"). Its backing buffer
// comes from the shared bufferpool so repeated Reset/Format cycles across
// many targets draw from one process-wide pool instead of each target
// growing its own buffer unbounded.
type TextReceptor struct {
	buf *bytes.Buffer
}

// NewTextReceptor creates a TextReceptor backed by a pooled buffer.
func NewTextReceptor() *TextReceptor { return &TextReceptor{buf: bufferpool.Get()} }

func (r *TextReceptor) ReceiveInt(v int64)     { r.buf.WriteString(strconv.FormatInt(v, 10)) }
func (r *TextReceptor) ReceiveString(v string) { r.buf.WriteString(v) }
func (r *TextReceptor) ReceiveTime(v time.Time) {
	r.buf.WriteString(v.UTC().Format(time.RFC3339Nano))
}
func (r *TextReceptor) ReceiveLevel(v level.Level) { r.buf.WriteString(v.String()) }
func (r *TextReceptor) ReceiveRaw(b []byte)        { r.buf.Write(b) }

// Bytes returns the accumulated buffer contents.
func (r *TextReceptor) Bytes() []byte { return r.buf.Bytes() }

// String returns the accumulated buffer contents as a string.
func (r *TextReceptor) String() string { return r.buf.String() }

// Reset returns the current buffer to the pool and draws a fresh one,
// ready for the next record. Safe to call on a zero-value TextReceptor
// (e.g. one built with new(TextReceptor) rather than NewTextReceptor).
func (r *TextReceptor) Reset() {
	if r.buf != nil {
		bufferpool.Put(r.buf)
	}
	r.buf = bufferpool.Get()
}
