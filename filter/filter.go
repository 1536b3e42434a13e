// filter.go: composable record predicates (spec §4.I).
//
// The rate-limiting leaf's token-window arithmetic generalizes a fixed
// Initial/Thereafter sampling scheme to an explicit rate_limit(max, window)
// contract with a discard-summary emission on window rollover.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package filter

import (
	"regexp"
	"sync/atomic"
	"time"

	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
)

// Filter decides whether a record should pass. Implementations must be
// safe for concurrent use: the same Filter instance is shared by every
// logging thread once published.
type Filter interface {
	Match(r *record.LogRecord) bool
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(r *record.LogRecord) bool

// Match implements Filter.
func (f FilterFunc) Match(r *record.LogRecord) bool { return f(r) }

// --- combinators -----------------------------------------------------

type andFilter []Filter

func (a andFilter) Match(r *record.LogRecord) bool {
	for _, f := range a {
		if !f.Match(r) {
			return false
		}
	}
	return true
}

// And combines filters with short-circuiting conjunction.
func And(filters ...Filter) Filter { return andFilter(filters) }

type orFilter []Filter

func (o orFilter) Match(r *record.LogRecord) bool {
	for _, f := range o {
		if f.Match(r) {
			return true
		}
	}
	return false
}

// Or combines filters with short-circuiting disjunction.
func Or(filters ...Filter) Filter { return orFilter(filters) }

type notFilter struct{ inner Filter }

func (n notFilter) Match(r *record.LogRecord) bool { return !n.inner.Match(r) }

// Not negates a filter.
func Not(f Filter) Filter { return notFilter{f} }

// --- leaves ------------------------------------------------------------

// CompareOp is a level comparison operator.
type CompareOp int

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// LevelMatch passes records whose level compares as `op` against `threshold`.
// Since Level is "smaller = more severe", Lt/Le/Gt/Ge compare on that scale
// directly: no special-casing is needed beyond using Level's natural order.
func LevelMatch(op CompareOp, threshold level.Level) Filter {
	return FilterFunc(func(r *record.LogRecord) bool {
		switch op {
		case Eq:
			return r.Level == threshold
		case Ne:
			return r.Level != threshold
		case Lt:
			return r.Level < threshold
		case Le:
			return r.Level <= threshold
		case Gt:
			return r.Level > threshold
		case Ge:
			return r.Level >= threshold
		default:
			return false
		}
	})
}

// Field selects which record attribute NameMatch compares against.
type Field int

const (
	FieldSource Field = iota
	FieldFile
	FieldFunc
	FieldThread
)

func fieldValue(r *record.LogRecord, f Field) string {
	switch f {
	case FieldSource:
		if r.Source != nil {
			return r.Source.QualifiedName()
		}
		return ""
	case FieldFile:
		return r.Location.File
	case FieldFunc:
		return r.Location.Func
	default:
		return ""
	}
}

// NameMatch passes records whose field equals literal (regex == nil) or
// matches regex.
func NameMatch(field Field, literal string, re *regexp.Regexp) Filter {
	return FilterFunc(func(r *record.LogRecord) bool {
		v := fieldValue(r, field)
		if re != nil {
			return re.MatchString(v)
		}
		return v == literal
	})
}

// CountN passes every Nth call to Match (spec §4.I leaf). This is the
// filter-algebra primitive; the call-site every_n macro (spec §4.G,
// tested by §8's ceil(K/N) property) is a distinct construct built on top
// of a per-call-site counter — see the root package's EveryN guard.
func CountN(n int64) Filter {
	if n <= 0 {
		n = 1
	}
	var counter int64
	return FilterFunc(func(r *record.LogRecord) bool {
		c := atomic.AddInt64(&counter, 1)
		return c%n == 0
	})
}

// TimeUnit scales a rate_limit window.
type TimeUnit time.Duration

const (
	Milliseconds TimeUnit = TimeUnit(time.Millisecond)
	Seconds      TimeUnit = TimeUnit(time.Second)
	Minutes      TimeUnit = TimeUnit(time.Minute)
)

// DiscardSummaryEmitter is invoked by RateLimit the first time a window
// with discards closes successfully, so the caller can synthesize a
// "discarded N messages" record the way the spec's pre-init-queue-style
// mechanism replays a replacement record.
type DiscardSummaryEmitter func(discarded int64)

// RateLimit implements token-bucket-by-window semantics: at most maxMsgs
// successes per window (window*unit). On the first success after a
// window that had discards, onSummary (if non-nil) is invoked with the
// discard count accumulated during that window.
func RateLimit(maxMsgs int64, window int64, unit TimeUnit, onSummary DiscardSummaryEmitter) Filter {
	d := time.Duration(window) * time.Duration(unit)
	if d <= 0 {
		d = time.Second
	}
	rl := &rateLimiter{windowNanos: d.Nanoseconds(), maxMsgs: maxMsgs, onSummary: onSummary}
	rl.windowStart = time.Now().UnixNano()
	return rl
}

type rateLimiter struct {
	windowNanos int64
	maxMsgs     int64
	onSummary   DiscardSummaryEmitter

	windowStart int64 // unix nanos, atomic
	count       int64 // successes in the current window, atomic
	discarded   int64 // discards accumulated in the current window, atomic
}

func (rl *rateLimiter) Match(r *record.LogRecord) bool {
	now := time.Now().UnixNano()
	start := atomic.LoadInt64(&rl.windowStart)
	if now-start >= rl.windowNanos {
		if atomic.CompareAndSwapInt64(&rl.windowStart, start, now) {
			prevCount := atomic.SwapInt64(&rl.count, 0)
			prevDiscarded := atomic.SwapInt64(&rl.discarded, 0)
			_ = prevCount
			if prevDiscarded > 0 && rl.onSummary != nil {
				rl.onSummary(prevDiscarded)
			}
		}
	}
	n := atomic.AddInt64(&rl.count, 1)
	if n <= rl.maxMsgs {
		return true
	}
	atomic.AddInt64(&rl.count, -1)
	atomic.AddInt64(&rl.discarded, 1)
	return false
}
