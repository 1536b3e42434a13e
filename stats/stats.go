// stats.go: thread-striped statistics (spec §4.J).
//
// Built on internal/zephyroslite's cache-line padded atomics: each counter
// is an array of AtomicPaddedInt64 indexed by the logging thread's
// epoch-GC slot, summed on read to avoid a shared cache line on the hot
// path.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package stats

import "github.com/agilira/elog/internal/zephyroslite"

// Kind enumerates the counters a target tracks.
type Kind int

const (
	MsgDiscarded Kind = iota
	MsgSubmitted
	MsgWritten
	MsgFailWrite
	BytesSubmitted
	BytesWritten
	BytesFailWrite
	FlushSubmitted
	FlushExecuted
	FlushFailed
	FlushDiscarded
	numKinds
)

// Stats is a per-target statistics block: one striped counter array per
// Kind, striped across up to maxSlots concurrent logging threads.
type Stats struct {
	maxSlots int
	counters [numKinds][]zephyroslite.AtomicPaddedInt64
}

// New creates a Stats block striped across maxSlots epoch-GC slots.
func New(maxSlots int) *Stats {
	if maxSlots <= 0 {
		maxSlots = 256
	}
	s := &Stats{maxSlots: maxSlots}
	for k := range s.counters {
		s.counters[k] = make([]zephyroslite.AtomicPaddedInt64, maxSlots)
	}
	return s
}

// Add increments the counter of the given kind in the stripe owned by slot.
func (s *Stats) Add(slot int, kind Kind, delta int64) {
	if slot < 0 || slot >= s.maxSlots {
		slot = 0
	}
	s.counters[kind][slot].Add(delta)
}

// AddByThread increments the counter of the given kind in the stripe
// owned by threadID, mapping the caller's logging-thread id onto one of
// maxSlots stripes. This is what lets Target.Log (which has no epoch-GC
// slot of its own to hand down — it only sees the record) actually stripe
// by the calling thread instead of every goroutine contending on stripe 0
// (spec §4.J: "indexed by the thread's GC slot").
func (s *Stats) AddByThread(threadID uint64, kind Kind, delta int64) {
	s.Add(int(threadID%uint64(s.maxSlots)), kind, delta)
}

// Sum returns the process-wide total for kind, summed across every stripe.
func (s *Stats) Sum(kind Kind) int64 {
	var total int64
	for i := range s.counters[kind] {
		total += s.counters[kind][i].Load()
	}
	return total
}

// ResetSlot zeroes every counter's stripe for slot. Sum adds every stripe,
// so the counts previously recorded in that stripe drop out of the totals.
func (s *Stats) ResetSlot(slot int) {
	if slot < 0 || slot >= s.maxSlots {
		return
	}
	for k := range s.counters {
		s.counters[k][slot].Store(0)
	}
}

// Snapshot is a point-in-time, process-wide view of a Stats block.
type Snapshot struct {
	MsgDiscarded    int64
	MsgSubmitted    int64
	MsgWritten      int64
	MsgFailWrite    int64
	BytesSubmitted  int64
	BytesWritten    int64
	BytesFailWrite  int64
	FlushSubmitted  int64
	FlushExecuted   int64
	FlushFailed     int64
	FlushDiscarded  int64
}

// Snap sums every stripe into a single Snapshot.
func (s *Stats) Snap() Snapshot {
	return Snapshot{
		MsgDiscarded:   s.Sum(MsgDiscarded),
		MsgSubmitted:   s.Sum(MsgSubmitted),
		MsgWritten:     s.Sum(MsgWritten),
		MsgFailWrite:   s.Sum(MsgFailWrite),
		BytesSubmitted: s.Sum(BytesSubmitted),
		BytesWritten:   s.Sum(BytesWritten),
		BytesFailWrite: s.Sum(BytesFailWrite),
		FlushSubmitted: s.Sum(FlushSubmitted),
		FlushExecuted:  s.Sum(FlushExecuted),
		FlushFailed:    s.Sum(FlushFailed),
		FlushDiscarded: s.Sum(FlushDiscarded),
	}
}

// LevelCounters aggregates per-level message counts for the engine as a
// whole (spec §4.J: "Global engine also aggregates per-level message counts").
type LevelCounters struct {
	counts []zephyroslite.AtomicPaddedInt64
}

// NewLevelCounters creates a counter block with room for n levels.
func NewLevelCounters(n int) *LevelCounters {
	return &LevelCounters{counts: make([]zephyroslite.AtomicPaddedInt64, n)}
}

// Inc increments the counter for the given level index.
func (l *LevelCounters) Inc(levelIdx int) {
	if levelIdx < 0 || levelIdx >= len(l.counts) {
		return
	}
	l.counts[levelIdx].Add(1)
}

// Get returns the counter for the given level index.
func (l *LevelCounters) Get(levelIdx int) int64 {
	if levelIdx < 0 || levelIdx >= len(l.counts) {
		return 0
	}
	return l.counts[levelIdx].Load()
}
