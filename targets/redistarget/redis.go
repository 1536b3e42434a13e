// redis.go: a reference Target pushing formatted records into a Redis
// list or stream.
//
// go-redis/redis/v8 is used here via its own documented client idiom
// (redis.NewClient, RPush/XAdd, context-scoped calls), structured the
// same way as the other reference targets: synchronous formatting in
// Log, a private epoch domain for the formatter/filter/flush-policy
// slots (consoletarget, kafkatarget).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package redistarget

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/agilira/elog/filter"
	"github.com/agilira/elog/format"
	"github.com/agilira/elog/internal/elogerr"
	"github.com/agilira/elog/internal/epochgc"
	"github.com/agilira/elog/record"
	"github.com/agilira/elog/stats"
	"github.com/agilira/elog/target"
)

const swapSlots = 8

// Mode selects the Redis data structure a Target pushes into.
type Mode int

const (
	// ModeList pushes each formatted line via RPUSH.
	ModeList Mode = iota
	// ModeStream adds each formatted line as a stream entry via XADD.
	ModeStream
)

// Target pushes formatted log lines into a Redis list or stream.
type Target struct {
	client *redis.Client
	key    string
	mode   Mode
	ctx    context.Context

	formatter *target.FormatterSlot
	filterer  *target.FilterSlot
	flusher   *target.FlushPolicySlot

	st      *stats.Stats
	recepts sync.Pool
}

// New builds a Redis target writing to key in the given mode.
func New(addr, key string, mode Mode, formatter *format.Formatter) (*Target, error) {
	if addr == "" {
		return nil, elogerr.New(elogerr.CodeInvalidConfig, "elog: redistarget: missing address")
	}
	if key == "" {
		return nil, elogerr.New(elogerr.CodeInvalidConfig, "elog: redistarget: missing key")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	gc := epochgc.New(swapSlots)
	t := &Target{
		client: client,
		key:    key,
		mode:   mode,
		ctx:    context.Background(),
		st:     stats.New(16),
	}
	t.formatter = target.NewFormatterSlot(gc, formatter)
	t.filterer = target.NewFilterSlot(gc, nil)
	t.flusher = target.NewFlushPolicySlot(gc, filter.FlushImmediate())
	t.recepts.New = func() any { return new(format.TextReceptor) }
	return t, nil
}

func init() {
	target.DefaultSchemes.Register("redis", func(u *url.URL) (target.Target, error) {
		key := strings.TrimPrefix(u.Path, "/")
		mode := ModeList
		if v := u.Query().Get("mode"); v == "stream" {
			mode = ModeStream
		}
		return New(u.Host, key, mode, nil)
	})
}

// SetFormatter installs f if no formatter is set yet.
func (t *Target) SetFormatter(f *format.Formatter) {
	if t.formatter.Load() == nil {
		t.formatter.Replace(f)
	}
}

// ReplaceFormatter hot-swaps the formatter.
func (t *Target) ReplaceFormatter(f *format.Formatter) { t.formatter.Replace(f) }

// ReplaceFilter hot-swaps the per-target filter.
func (t *Target) ReplaceFilter(f filter.Filter) { t.filterer.Replace(f) }

// ReplaceFlushPolicy hot-swaps the flush policy.
func (t *Target) ReplaceFlushPolicy(p filter.FlushPolicy) { t.flusher.Replace(p) }

// Start implements target.Target: go-redis manages its own connection
// pool lazily, so there's nothing to start eagerly beyond a reachability
// check.
func (t *Target) Start() error {
	return t.client.Ping(t.ctx).Err()
}

// Stop closes the underlying connection pool.
func (t *Target) Stop() error {
	return t.client.Close()
}

// Log implements target.Target: formats synchronously, then pushes.
func (t *Target) Log(rec *record.LogRecord) {
	if f := t.filterer.Load(); f != nil && !f.Match(rec) {
		t.st.AddByThread(rec.ThreadID, stats.MsgDiscarded, 1)
		return
	}
	f := t.formatter.Load()
	if f == nil {
		t.st.AddByThread(rec.ThreadID, stats.MsgFailWrite, 1)
		return
	}

	recept := t.recepts.Get().(*format.TextReceptor)
	recept.Reset()
	err := f.Format(rec, recept)
	line := recept.Bytes()
	owned := make([]byte, len(line))
	copy(owned, line)
	t.recepts.Put(recept)

	if err != nil {
		t.st.AddByThread(rec.ThreadID, stats.MsgFailWrite, 1)
		return
	}

	t.st.AddByThread(rec.ThreadID, stats.MsgSubmitted, 1)
	t.st.AddByThread(rec.ThreadID, stats.BytesSubmitted, int64(len(owned)))

	var pushErr error
	switch t.mode {
	case ModeStream:
		pushErr = t.client.XAdd(t.ctx, &redis.XAddArgs{
			Stream: t.key,
			Values: map[string]interface{}{"line": owned},
		}).Err()
	default:
		pushErr = t.client.RPush(t.ctx, t.key, owned).Err()
	}

	if pushErr != nil {
		t.st.AddByThread(rec.ThreadID, stats.MsgFailWrite, 1)
		t.st.AddByThread(rec.ThreadID, stats.BytesFailWrite, int64(len(owned)))
		return
	}
	t.st.AddByThread(rec.ThreadID, stats.MsgWritten, 1)
	t.st.AddByThread(rec.ThreadID, stats.BytesWritten, int64(len(owned)))
}

// Flush implements target.Target: each push is already synchronous, so
// this is a no-op.
func (t *Target) Flush() error { return nil }

// Stats implements target.Target.
func (t *Target) Stats() *stats.Stats { return t.st }

// IsCaughtUp implements target.Target: pushes are synchronous within Log.
func (t *Target) IsCaughtUp() bool { return true }
