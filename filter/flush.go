// flush.go: composable "should flush" predicates (spec §4.I).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package filter

import "time"

// FlushInput is the state a flush policy evaluates: bytes/messages written
// since the last flush, and the current wall clock.
type FlushInput struct {
	BytesSinceFlush int64
	MsgsSinceFlush  int64
	Now             time.Time
}

// FlushPolicy decides whether a target should flush now.
type FlushPolicy interface {
	ShouldFlush(in FlushInput) bool
}

// FlushPolicyFunc adapts a plain function to FlushPolicy.
type FlushPolicyFunc func(in FlushInput) bool

// ShouldFlush implements FlushPolicy.
func (f FlushPolicyFunc) ShouldFlush(in FlushInput) bool { return f(in) }

// FlushCount flushes once at least n messages have accumulated.
func FlushCount(n int64) FlushPolicy {
	return FlushPolicyFunc(func(in FlushInput) bool { return in.MsgsSinceFlush >= n })
}

// FlushSize flushes once at least n bytes have accumulated.
func FlushSize(n int64) FlushPolicy {
	return FlushPolicyFunc(func(in FlushInput) bool { return in.BytesSinceFlush >= n })
}

// FlushTime flushes once at least d has elapsed since a reference instant;
// the returned policy tracks its own "last flushed at" clock, advanced
// each time it answers true (the target is expected to honor that answer).
func FlushTime(d time.Duration) FlushPolicy {
	last := time.Now()
	return FlushPolicyFunc(func(in FlushInput) bool {
		if in.Now.Sub(last) >= d {
			last = in.Now
			return true
		}
		return false
	})
}

// FlushImmediate always flushes.
func FlushImmediate() FlushPolicy {
	return FlushPolicyFunc(func(FlushInput) bool { return true })
}

// FlushNever never flushes (the target relies on OS buffering or an
// external flusher).
func FlushNever() FlushPolicy {
	return FlushPolicyFunc(func(FlushInput) bool { return false })
}

// FlushAnd combines flush policies with conjunction.
func FlushAnd(policies ...FlushPolicy) FlushPolicy {
	return FlushPolicyFunc(func(in FlushInput) bool {
		for _, p := range policies {
			if !p.ShouldFlush(in) {
				return false
			}
		}
		return true
	})
}

// FlushOr combines flush policies with disjunction. Note it evaluates
// every policy (rather than short-circuiting) so that stateful policies
// like FlushTime all get to observe this tick.
func FlushOr(policies ...FlushPolicy) FlushPolicy {
	return FlushPolicyFunc(func(in FlushInput) bool {
		any := false
		for _, p := range policies {
			if p.ShouldFlush(in) {
				any = true
			}
		}
		return any
	})
}

// FlushNot negates a flush policy.
func FlushNot(p FlushPolicy) FlushPolicy {
	return FlushPolicyFunc(func(in FlushInput) bool { return !p.ShouldFlush(in) })
}
