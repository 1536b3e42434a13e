package elog

import (
	"testing"

	"github.com/agilira/elog/filter"
	"github.com/agilira/elog/format"
	"github.com/agilira/elog/level"
)

func TestLogBinaryDispatchesTemplateRecord(t *testing.T) {
	e, err := New(EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	tg := newRecordingTarget()
	if _, err := e.Targets().Add(tg, 0); err != nil {
		t.Fatal(err)
	}

	id := e.FormatCache().GetOrCache("user {} connected")
	enc := format.NewEncoder()
	enc.String("alice")

	logger := e.Logger("app.auth")
	logger.LogBinary(level.Info, id, enc.Bytes(), enc.Count(), 0)

	tg.mu.Lock()
	defer tg.mu.Unlock()
	if len(tg.received) != 1 {
		t.Fatalf("expected 1 record delivered, got %d", len(tg.received))
	}
}

func TestLogModerateRespectsRateLimit(t *testing.T) {
	e, err := New(EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	tg := newRecordingTarget()
	if _, err := e.Targets().Add(tg, 0); err != nil {
		t.Fatal(err)
	}

	logger := e.Logger("app.chatty")
	guard := NewModerateGuard(2, 1, filter.Minutes)
	for i := 0; i < 10; i++ {
		logger.LogModerate(guard, level.Info, "tick")
	}

	got := tg.all()
	if len(got) != 2 {
		t.Fatalf("expected exactly 2 admitted records under the rate limit, got %d", len(got))
	}
}
