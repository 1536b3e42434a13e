// epochgc.go: epoch-based reclamation for lock-free structures shared
// between logging threads and the reconfiguration path.
//
// Uses internal/zephyroslite's padding/atomics conventions (cache-line
// padded counters, per-slot striping) for the concurrency texture; the
// minimum-epoch oracle is internal/rollingbitset (§4.A/§4.B).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package epochgc

import (
	"sync"
	"time"

	"github.com/agilira/elog/internal/rollingbitset"
	"github.com/agilira/elog/internal/zephyroslite"
)

// DefaultRecycleEvery is how many retires accumulate before a retiring
// thread triggers a recycle pass, absent an explicit override.
const DefaultRecycleEvery = 1024

// retiredObject is one entry on a thread's retire list: an opaque object
// plus the thunk that knows how to destroy it, and the epoch at which it
// was retired.
type retiredObject struct {
	epoch   int64
	destroy func()
}

// threadSlot is one logging thread's private state: its GC slot id (also
// used by stats striping), and its retire list.
type threadSlot struct {
	inUse   zephyroslite.AtomicPaddedInt64 // 0 = free, 1 = owned
	mu      sync.Mutex
	retired []retiredObject
	count   int
}

// GC coordinates deferred reclamation across an unbounded number of
// logical epochs and a bounded number of concurrent threads.
type GC struct {
	currentEpoch zephyroslite.AtomicPaddedInt64
	active       *rollingbitset.Set

	slots        []threadSlot
	recycleEvery int

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// Token identifies a thread's claimed slot; callers keep it for the
// lifetime of the goroutine, or rebind per logger, caching expensive-to-
// resolve state the way a per-logger field would.
type Token struct {
	gc  *GC
	idx int
}

// New creates a GC with room for maxThreads concurrent slot owners and a
// rolling bitset ring sized generously relative to maxThreads.
func New(maxThreads int) *GC {
	if maxThreads <= 0 {
		maxThreads = 256
	}
	words := nextPow2(maxThreads * 4)
	return &GC{
		active:       rollingbitset.New(words),
		slots:        make([]threadSlot, maxThreads),
		recycleEvery: DefaultRecycleEvery,
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	if p < 64 {
		p = 64
	}
	return p
}

// AssignSlot claims a free slot for the calling thread via linear probe.
// Callers should call this once per goroutine/thread and reuse the Token;
// Release gives the slot back (e.g. from a thread-exit hook).
func (g *GC) AssignSlot() *Token {
	for i := range g.slots {
		if g.slots[i].inUse.CompareAndSwap(0, 1) {
			g.slots[i].mu.Lock()
			g.slots[i].retired = g.slots[i].retired[:0]
			g.slots[i].count = 0
			g.slots[i].mu.Unlock()
			return &Token{gc: g, idx: i}
		}
	}
	// Table exhausted: degrade gracefully by sharing slot 0 rather than
	// panicking on the hot path. Statistics striping will alias, which is
	// safe (sum-on-read), just less precise under extreme thread counts.
	return &Token{gc: g, idx: 0}
}

// Release returns the slot to the free pool, after flushing any retired
// objects regardless of epoch (the thread can no longer hold references).
func (t *Token) Release() {
	slot := &t.gc.slots[t.idx]
	slot.mu.Lock()
	for _, r := range slot.retired {
		r.destroy()
	}
	slot.retired = slot.retired[:0]
	slot.count = 0
	slot.mu.Unlock()
	slot.inUse.Store(0)
}

// SlotIndex returns the stats-striping index backing this token.
func (t *Token) SlotIndex() int { return t.idx }

// BeginEpoch captures the current global epoch. Per spec §4.B, begin only
// marks an epoch as active for the calling thread; the rolling bitset is
// written exclusively by EndEpoch (insert means "ended", not "began" — a
// begun-but-not-ended epoch must stay outside the bitset, or
// QueryFullPrefix could advance past a reader still using it).
func (g *GC) BeginEpoch() int64 {
	return g.currentEpoch.Load()
}

// EndEpoch marks e as no longer active for the calling thread.
//
// Note: RollingBitset requires each value inserted exactly once; begin
// epochs that collide (two threads observe the same `e`) are deduplicated
// by Insert's already-set fast path, so EndEpoch is safe to call once per
// BeginEpoch even under contention.
func (g *GC) EndEpoch(e int64) {
	g.active.Insert(e)
}

// AdvanceEpoch bumps the global epoch, returning the new value. Call this
// before publishing a replacement pointer so objects retired afterward
// carry an epoch no in-flight reader could have begun.
func (g *GC) AdvanceEpoch() int64 {
	return g.currentEpoch.Add(1)
}

// ScopedEpoch is a RAII-style guard: Begin on construction, End on Close,
// exposing the captured epoch for passing to Retire.
type ScopedEpoch struct {
	gc    *GC
	epoch int64
}

// Enter begins a scoped epoch.
func (g *GC) Enter() *ScopedEpoch {
	return &ScopedEpoch{gc: g, epoch: g.BeginEpoch()}
}

// Epoch returns the captured epoch.
func (s *ScopedEpoch) Epoch() int64 { return s.epoch }

// Close ends the scoped epoch.
func (s *ScopedEpoch) Close() { s.gc.EndEpoch(s.epoch) }

// Retire pushes obj's destructor onto the calling thread's retire list,
// tagged with the epoch at which it was retired. Every managed object
// carries its own destroy thunk; the GC never calls a generic deleter.
func (t *Token) Retire(retiredAt int64, destroy func()) {
	slot := &t.gc.slots[t.idx]
	slot.mu.Lock()
	slot.retired = append(slot.retired, retiredObject{epoch: retiredAt, destroy: destroy})
	slot.count++
	due := slot.count >= t.gc.recycleEvery
	slot.mu.Unlock()
	if due {
		t.gc.Recycle()
	}
}

// Recycle reclaims every retired entry, across every thread slot, whose
// retired-at epoch is at or below the confirmed-ended prefix. A retiree is
// tagged with the epoch AdvanceEpoch returned (the first epoch no in-flight
// reader could have begun), so every reader that might still hold the old
// pointer began at an epoch strictly below that tag; once the rolling
// bitset's prefix reaches the tag itself, all of them are confirmed ended.
func (g *GC) Recycle() {
	min := g.active.QueryFullPrefix()
	for i := range g.slots {
		slot := &g.slots[i]
		slot.mu.Lock()
		if len(slot.retired) == 0 {
			slot.mu.Unlock()
			continue
		}
		kept := slot.retired[:0]
		var reclaim []retiredObject
		for _, r := range slot.retired {
			if r.epoch <= min {
				reclaim = append(reclaim, r)
			} else {
				kept = append(kept, r)
			}
		}
		slot.retired = kept
		slot.count = len(kept)
		slot.mu.Unlock()
		for _, r := range reclaim {
			r.destroy()
		}
	}
}

// StartBackgroundSweep launches a goroutine that calls Recycle on a fixed
// period, for installations that log too rarely for the every-N-retires
// trigger to fire promptly. Stop must be called to release it.
func (g *GC) StartBackgroundSweep(period time.Duration) {
	g.sweepOnce.Do(func() {
		g.sweepStop = make(chan struct{})
		go func() {
			t := time.NewTicker(period)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					g.Recycle()
				case <-g.sweepStop:
					return
				}
			}
		}()
	})
}

// StopBackgroundSweep stops the sweep goroutine started by
// StartBackgroundSweep, if any.
func (g *GC) StopBackgroundSweep() {
	g.sweepOnce.Do(func() {}) // no-op if never started
	if g.sweepStop != nil {
		select {
		case <-g.sweepStop:
			// already closed
		default:
			close(g.sweepStop)
		}
	}
}

// MinActiveEpoch exposes the rolling bitset's current lower bound, useful
// for tests and diagnostics.
func (g *GC) MinActiveEpoch() int64 {
	return g.active.QueryFullPrefix()
}

// CurrentEpoch returns the current global epoch without advancing it.
func (g *GC) CurrentEpoch() int64 {
	return g.currentEpoch.Load()
}
