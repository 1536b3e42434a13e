// logger.go: the per-call-site fast path (spec §4.G) and the composed
// call-site macros (once, once_thread, every_n, moderate).
//
// Cheap-reject-first discipline: level check first, then conditional
// caller capture, then record assembly. Go has no call-site-static
// storage, so where §4.G says "the guard is static to the call-site",
// elog asks the caller to hold the guard in a package-level variable
// instead of trying to key state off runtime.Caller (§9 endorses either
// approach).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package elog

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/agilira/elog/filter"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
	"github.com/agilira/elog/source"
)

// Logger is a cached handle to one log source (spec §4.G step 1: "resolve
// logger once; cache"). Obtain one per call-site group via Engine.Logger
// and reuse it — it carries no other state, so sharing across goroutines
// is safe.
type Logger struct {
	engine *Engine
	node   *source.Node
}

// Logger resolves (creating missing ancestors) the source named by the
// dotted path and returns a cached handle to it.
func (e *Engine) Logger(qualifiedName string) *Logger {
	node, _ := e.sources.Define(qualifiedName, true)
	return &Logger{engine: e, node: node}
}

// Node returns the underlying source-tree node, for callers that need
// direct access to SetLevel/BindTarget/GrantPasskey.
func (l *Logger) Node() *source.Node { return l.node }

// CanLog is the cheap reject (spec §4.G step 2): a relaxed atomic read,
// no allocation.
func (l *Logger) CanLog(lvl level.Level) bool {
	return lvl.Enabled(l.node.EffectiveLevel())
}

// Log assembles and dispatches a text record if lvl passes the source's
// effective level and filter (spec §4.G steps 2-6). skip is the number of
// additional stack frames above Log to attribute the call site to (0 means
// Log's immediate caller).
func (l *Logger) Log(lvl level.Level, msg string, skip int) {
	if !l.CanLog(lvl) {
		return
	}
	rec := l.assemble(lvl, skip+1)
	rec.Text = msg
	l.dispatch(rec)
}

// LogBinary assembles and dispatches a binary (cached-template) record.
// templateID is expected to come from a call-site-held
// formatcache.Cache.GetOrCache result (spec §4.G "Binary macros... compute
// template_id... exactly once per call-site"); args/argCount come from a
// format.Encoder the caller filled in.
func (l *Logger) LogBinary(lvl level.Level, templateID uint32, args []byte, argCount int, skip int) {
	if !l.CanLog(lvl) {
		return
	}
	rec := l.assemble(lvl, skip+1)
	rec.Flags |= record.Binary
	rec.TemplateID = templateID
	rec.Args = args
	rec.ArgCount = argCount
	l.dispatch(rec)
}

func (l *Logger) assemble(lvl level.Level, skip int) *record.LogRecord {
	rec := &record.LogRecord{
		RecordID: l.engine.counter.Next(),
		Level:    lvl,
		ThreadID: goroutineID(),
		Source:   l.node,
	}
	if pc, file, line, ok := runtime.Caller(skip + 1); ok {
		rec.Location = record.SourceLocation{File: file, Line: line}
		if fn := runtime.FuncForPC(pc); fn != nil {
			rec.Location.Func = fn.Name()
		}
	}
	rec.TimestampWall = l.engine.timeSrc.Now()
	rec.TimestampMono = l.engine.timeSrc.NowNano()
	return rec
}

// dispatch runs the source-level filter (spec §4.G step 5), the
// life-sign hook (SPEC_FULL.md's life-sign supplement, spliced in exactly
// where step 5 sits, before target dispatch), then hands off to the
// target table.
func (l *Logger) dispatch(rec *record.LogRecord) {
	if f := l.node.Filter(); f != nil && !f.Match(rec) {
		return
	}
	if lsf := l.node.LifeSignFilter(); lsf != nil && lsf.Match(rec) {
		rec.Flags |= record.LifeSignCandidate
		l.engine.DispatchLifeSign(rec)
	}
	l.engine.targets.Dispatch(rec)
}

// goroutineID extracts the runtime's goroutine id for LogRecord.ThreadID
// and OnceThreadGuard. Go exposes no public API for this; parsing
// runtime.Stack's header line is the common workaround (the same trick
// used by most goroutine-id debugging packages) since the id is otherwise
// only visible in panic output.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		if id, err := strconv.ParseUint(string(b[:i]), 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// --- composed call-site macros (spec §4.G) -----------------------------

// OnceGuard passes exactly once across the entire process (spec §8:
// "once passes exactly once across the entire process").
type OnceGuard struct {
	fired atomic.Bool
}

// Allow reports whether this call should proceed, flipping the guard on
// the first true return.
func (g *OnceGuard) Allow() bool {
	return g.fired.CompareAndSwap(false, true)
}

// OnceThreadGuard passes exactly once per goroutine (spec's "once_thread",
// adapted to Go's goroutine-scoped equivalent of a thread-local: one
// guard entry per goroutineID()).
type OnceThreadGuard struct {
	fired sync.Map
}

// Allow reports whether this goroutine's first call should proceed.
func (g *OnceThreadGuard) Allow() bool {
	_, loaded := g.fired.LoadOrStore(goroutineID(), struct{}{})
	return !loaded
}

// EveryNGuard passes exactly ceil(K/N) of K sequential calls (spec §8).
type EveryNGuard struct {
	n       int64
	counter int64
}

// NewEveryNGuard creates a guard that admits every nth call, and the
// first call, so K calls produce ceil(K/n) admissions.
func NewEveryNGuard(n int64) *EveryNGuard {
	if n <= 0 {
		n = 1
	}
	return &EveryNGuard{n: n, counter: n - 1} // first Allow() lands on a multiple of n
}

// Allow reports whether this call is the nth since the last admission.
func (g *EveryNGuard) Allow() bool {
	c := atomic.AddInt64(&g.counter, 1)
	return c%g.n == 0
}

// ModerateGuard wraps filter.RateLimit as a call-site macro (spec's
// "moderate": "an embedded rate-limiter filter").
type ModerateGuard struct {
	f filter.Filter
}

// NewModerateGuard builds a guard admitting at most maxMsgs per window.
func NewModerateGuard(maxMsgs int64, window int64, unit filter.TimeUnit) *ModerateGuard {
	return &ModerateGuard{f: filter.RateLimit(maxMsgs, window, unit, nil)}
}

// Allow reports whether the current window has room for another message.
// rec may be nil; RateLimit's leaf does not inspect record contents.
func (g *ModerateGuard) Allow(rec *record.LogRecord) bool {
	if rec == nil {
		rec = &record.LogRecord{}
	}
	return g.f.Match(rec)
}

// LogOnce logs msg through guard at most once for the guard's lifetime.
func (l *Logger) LogOnce(guard *OnceGuard, lvl level.Level, msg string) {
	if guard.Allow() {
		l.Log(lvl, msg, 1)
	}
}

// LogOnceThread logs msg through guard at most once per goroutine.
func (l *Logger) LogOnceThread(guard *OnceThreadGuard, lvl level.Level, msg string) {
	if guard.Allow() {
		l.Log(lvl, msg, 1)
	}
}

// LogEveryN logs msg through guard roughly every Nth call.
func (l *Logger) LogEveryN(guard *EveryNGuard, lvl level.Level, msg string) {
	if guard.Allow() {
		l.Log(lvl, msg, 1)
	}
}

// LogModerate logs msg through guard, subject to its rate limit.
func (l *Logger) LogModerate(guard *ModerateGuard, lvl level.Level, msg string) {
	if !l.CanLog(lvl) {
		return
	}
	if guard.Allow(nil) {
		l.Log(lvl, msg, 1)
	}
}
