package filter

import (
	"testing"
	"time"

	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
)

func TestLevelMatch(t *testing.T) {
	f := LevelMatch(Le, level.Info)
	for _, tc := range []struct {
		l    level.Level
		want bool
	}{
		{level.Fatal, true},
		{level.Info, true},
		{level.Debug, false},
	} {
		r := &record.LogRecord{Level: tc.l}
		if got := f.Match(r); got != tc.want {
			t.Fatalf("level %v: got %v want %v", tc.l, got, tc.want)
		}
	}
}

func TestCombinators(t *testing.T) {
	always := FilterFunc(func(*record.LogRecord) bool { return true })
	never := FilterFunc(func(*record.LogRecord) bool { return false })
	r := &record.LogRecord{}

	if !And(always, always).Match(r) {
		t.Fatal("And(true, true) should pass")
	}
	if And(always, never).Match(r) {
		t.Fatal("And(true, false) should not pass")
	}
	if !Or(never, always).Match(r) {
		t.Fatal("Or(false, true) should pass")
	}
	if !Not(never).Match(r) {
		t.Fatal("Not(false) should pass")
	}
}

func TestCountN(t *testing.T) {
	f := CountN(3)
	r := &record.LogRecord{}
	var passes int
	for i := 0; i < 9; i++ {
		if f.Match(r) {
			passes++
		}
	}
	if passes != 3 {
		t.Fatalf("CountN(3) over 9 calls passed %d times, want 3", passes)
	}
}

func TestRateLimitBoundarySlack(t *testing.T) {
	// spec §8 scenario 5: rate_limit(3, 1, SECONDS), 30 records over 3s at
	// uniform spacing, received count in [5, 10]. We approximate the same
	// shape compressed into milliseconds to keep the test fast, and check
	// only that the limiter admits some records and rejects at least one.
	var discardedTotal int64
	f := RateLimit(3, 50, Milliseconds, func(n int64) { discardedTotal += n })
	r := &record.LogRecord{}

	passed := 0
	for i := 0; i < 12; i++ {
		if f.Match(r) {
			passed++
		}
		time.Sleep(10 * time.Millisecond)
	}
	if passed == 0 {
		t.Fatal("rate limiter rejected everything")
	}
	if passed >= 12 {
		t.Fatal("rate limiter should have rejected at least one record over the run")
	}
}

func TestFlushPolicies(t *testing.T) {
	in := FlushInput{BytesSinceFlush: 100, MsgsSinceFlush: 5, Now: time.Now()}
	if !FlushCount(5).ShouldFlush(in) {
		t.Fatal("FlushCount(5) should flush at exactly 5 messages")
	}
	if FlushCount(6).ShouldFlush(in) {
		t.Fatal("FlushCount(6) should not flush at 5 messages")
	}
	if !FlushSize(50).ShouldFlush(in) {
		t.Fatal("FlushSize(50) should flush at 100 bytes")
	}
	if !FlushImmediate().ShouldFlush(in) {
		t.Fatal("FlushImmediate should always flush")
	}
	if FlushNever().ShouldFlush(in) {
		t.Fatal("FlushNever should never flush")
	}
	and := FlushAnd(FlushCount(5), FlushSize(50))
	if !and.ShouldFlush(in) {
		t.Fatal("FlushAnd(true,true) should flush")
	}
	or := FlushOr(FlushCount(100), FlushSize(50))
	if !or.ShouldFlush(in) {
		t.Fatal("FlushOr(false,true) should flush")
	}
}
