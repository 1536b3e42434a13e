// timesource.go: the lazy time source backing LogRecord.TimestampWall
// (spec §3: "acquired lazily if a 'lazy time source' is enabled — a
// background task samples wall-clock at a configured resolution").
//
// A background ticker refreshes an atomic nanosecond reading so the
// logger fast path never calls time.Now() directly. The wall-clock read
// itself is delegated to github.com/agilira/go-timecache, so the refresh
// loop below only owns the configurable resolution, not the clock read.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package timesource

import (
	"sync/atomic"
	"time"

	timecache "github.com/agilira/go-timecache"
)

// Source is the minimal clock the logger fast path needs.
type Source interface {
	Now() time.Time
	NowNano() int64
}

// eagerSource calls through to the shared clock directly, for engines
// that leave the lazy time source disabled (spec §3's default path).
type eagerSource struct{}

func (eagerSource) Now() time.Time { return timecache.Now() }
func (eagerSource) NowNano() int64 { return timecache.Now().UnixNano() }

// NewEager returns a Source with no background refresh: every call reads
// the clock directly.
func NewEager() Source { return eagerSource{} }

// ResolutionUnit scales a lazy-time-source resolution value.
type ResolutionUnit int

const (
	Microseconds ResolutionUnit = iota
	Milliseconds
	Seconds
)

// Resolution is the "value + unit" pair spec §3's engine params accept for
// `lazy_time_resolution`.
type Resolution struct {
	Value int64
	Unit  ResolutionUnit
}

// Duration converts the resolution to a time.Duration, defaulting to
// 500µs for a non-positive value.
func (r Resolution) Duration() time.Duration {
	if r.Value <= 0 {
		return 500 * time.Microsecond
	}
	switch r.Unit {
	case Milliseconds:
		return time.Duration(r.Value) * time.Millisecond
	case Seconds:
		return time.Duration(r.Value) * time.Second
	default:
		return time.Duration(r.Value) * time.Microsecond
	}
}

// LazySource samples timecache.Now() on a background ticker into an
// atomic nanosecond reading, so the hot path is a single atomic load.
type LazySource struct {
	nanos int64
	stop  chan struct{}
}

// NewLazy starts a background sampler at the given resolution and returns
// a Source backed by it. Call Stop when the engine terminates.
func NewLazy(resolution time.Duration) *LazySource {
	if resolution <= 0 {
		resolution = 500 * time.Microsecond
	}
	ls := &LazySource{stop: make(chan struct{})}
	atomic.StoreInt64(&ls.nanos, timecache.Now().UnixNano())
	go ls.run(resolution)
	return ls
}

func (ls *LazySource) run(resolution time.Duration) {
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			atomic.StoreInt64(&ls.nanos, timecache.Now().UnixNano())
		case <-ls.stop:
			return
		}
	}
}

// Now returns the last sampled wall-clock reading.
func (ls *LazySource) Now() time.Time { return time.Unix(0, atomic.LoadInt64(&ls.nanos)) }

// NowNano returns the last sampled wall-clock reading in Unix nanoseconds.
func (ls *LazySource) NowNano() int64 { return atomic.LoadInt64(&ls.nanos) }

// Stop halts the background sampler. Safe to call once.
func (ls *LazySource) Stop() { close(ls.stop) }
