// console.go: a reference Target that writes formatted records to a
// terminal, colorizing by level when the destination is a TTY.
//
// The level-to-color table runs atop package format's selector-based
// formatter instead of a hardcoded field layout, and is wrapped as a
// target.Target with hot-swappable formatter/filter/flush-policy slots
// (spec §4.H "replace").
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package consoletarget

import (
	"bufio"
	"io"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/elog/filter"
	"github.com/agilira/elog/format"
	"github.com/agilira/elog/internal/elogerr"
	"github.com/agilira/elog/internal/epochgc"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
	"github.com/agilira/elog/stats"
	"github.com/agilira/elog/target"
)

// swapSlots is how many concurrent Log/Replace callers a target's own
// formatter/filter/flush-policy slots need to tolerate; a target has no
// visibility into the engine's thread budget, so it keeps its own small
// private epoch domain.
const swapSlots = 8

// ANSI color codes for level-based highlighting, applied only when
// Colorize is true.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

func colorFor(lvl level.Level) string {
	switch lvl {
	case level.Fatal, level.Error:
		return colorRed
	case level.Warn:
		return colorYellow
	case level.Notice, level.Info:
		return colorBlue
	case level.Debug, level.Trace:
		return colorCyan
	default:
		return colorWhite
	}
}

// Target writes formatted log records to an io.Writer, by default
// os.Stderr or os.Stdout depending on the scheme host (console://stderr,
// console://stdout).
type Target struct {
	mu         sync.Mutex
	w          *bufio.Writer
	colorize   bool
	formatter  *target.FormatterSlot
	filterer   *target.FilterSlot
	flusher    *target.FlushPolicySlot
	st         *stats.Stats
	recept     format.TextReceptor
	running    atomic.Bool
	levelFloor atomic.Int32

	msgsSinceFlush  int64
	bytesSinceFlush int64
}

// New builds a console target writing to w. formatter may be nil, in
// which case the engine's default format (or SetFormatter) supplies one
// before the first Log call; colorize controls ANSI highlighting.
func New(w io.Writer, formatter *format.Formatter, colorize bool) *Target {
	gc := epochgc.New(swapSlots)
	t := &Target{
		w:        bufio.NewWriter(w),
		colorize: colorize,
		st:       stats.New(16),
	}
	t.formatter = target.NewFormatterSlot(gc, formatter)
	t.filterer = target.NewFilterSlot(gc, nil)
	t.flusher = target.NewFlushPolicySlot(gc, filter.FlushImmediate())
	t.levelFloor.Store(int32(level.Diag))
	return t
}

func init() {
	target.DefaultSchemes.Register("console", func(u *url.URL) (target.Target, error) {
		colorize := true
		if v := u.Query().Get("color"); v == "false" || v == "0" {
			colorize = false
		}
		switch u.Host {
		case "", "stderr":
			return New(os.Stderr, nil, colorize), nil
		case "stdout":
			return New(os.Stdout, nil, colorize), nil
		default:
			return nil, elogerr.New(elogerr.CodeInvalidConfig, "elog: consoletarget: unknown host "+u.Host+" (want stderr or stdout)")
		}
	})
}

// SetFormatter installs f (through Replace) only if no formatter is set
// yet; used by config.Apply to seed a config-level default before the
// target is ever added to an engine.
func (t *Target) SetFormatter(f *format.Formatter) {
	if t.formatter.Load() == nil {
		t.formatter.Replace(f)
	}
}

// ReplaceFormatter hot-swaps the formatter (spec §4.H replace).
func (t *Target) ReplaceFormatter(f *format.Formatter) { t.formatter.Replace(f) }

// ReplaceFilter hot-swaps the per-target filter.
func (t *Target) ReplaceFilter(f filter.Filter) { t.filterer.Replace(f) }

// ReplaceFlushPolicy hot-swaps the flush policy.
func (t *Target) ReplaceFlushPolicy(p filter.FlushPolicy) { t.flusher.Replace(p) }

// SetLevelFloor changes the minimum severity this target accepts (records
// strictly less severe than floor, i.e. rec.Level > floor, are rejected
// before filtering or formatting). Defaults to level.Diag, the least
// severe level, which accepts everything.
func (t *Target) SetLevelFloor(floor level.Level) { t.levelFloor.Store(int32(floor)) }

// LevelFloor implements target.LevelFloor.
func (t *Target) LevelFloor() level.Level { return level.Level(t.levelFloor.Load()) }

// Start implements target.Target.
func (t *Target) Start() error {
	t.running.Store(true)
	return nil
}

// Stop implements target.Target, flushing any buffered output.
func (t *Target) Stop() error {
	t.running.Store(false)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

// Log implements target.Target. Ordering follows the target log-internals
// contract: quick reject on running/level floor, then target filter, then
// submitted stats, then the write itself, then the flush-policy check and
// written stats.
func (t *Target) Log(rec *record.LogRecord) {
	if !t.running.Load() || rec.Level > t.LevelFloor() {
		t.st.AddByThread(rec.ThreadID, stats.MsgDiscarded, 1)
		return
	}
	if f := t.filterer.Load(); f != nil && !f.Match(rec) {
		t.st.AddByThread(rec.ThreadID, stats.MsgDiscarded, 1)
		return
	}
	f := t.formatter.Load()
	if f == nil {
		t.st.AddByThread(rec.ThreadID, stats.MsgFailWrite, 1)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.recept.Reset()
	if err := f.Format(rec, &t.recept); err != nil {
		t.st.AddByThread(rec.ThreadID, stats.MsgFailWrite, 1)
		return
	}
	line := t.recept.Bytes()
	t.st.AddByThread(rec.ThreadID, stats.MsgSubmitted, 1)
	t.st.AddByThread(rec.ThreadID, stats.BytesSubmitted, int64(len(line))+1)

	if t.colorize {
		c := colorFor(rec.Level)
		t.w.WriteString(c)
		t.w.Write(line)
		t.w.WriteString(colorReset)
	} else {
		t.w.Write(line)
	}
	t.w.WriteByte('\n')
	t.msgsSinceFlush++
	t.bytesSinceFlush += int64(len(line)) + 1
	t.st.AddByThread(rec.ThreadID, stats.MsgWritten, 1)
	t.st.AddByThread(rec.ThreadID, stats.BytesWritten, int64(len(line))+1)

	if p := t.flusher.Load(); p != nil {
		input := filter.FlushInput{MsgsSinceFlush: t.msgsSinceFlush, BytesSinceFlush: t.bytesSinceFlush, Now: time.Now()}
		if p.ShouldFlush(input) {
			t.w.Flush()
			t.msgsSinceFlush, t.bytesSinceFlush = 0, 0
			t.st.AddByThread(rec.ThreadID, stats.FlushExecuted, 1)
		}
	}
}

// Flush implements target.Target.
func (t *Target) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

// Stats implements target.Target.
func (t *Target) Stats() *stats.Stats { return t.st }

// IsCaughtUp implements target.Target: console writes are synchronous, so
// the target is always caught up.
func (t *Target) IsCaughtUp() bool { return true }
