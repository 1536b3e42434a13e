package config

import (
	"net/url"
	"sync"
	"testing"

	elog "github.com/agilira/elog"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
	"github.com/agilira/elog/stats"
	"github.com/agilira/elog/target"
)

type fakeConfigTarget struct {
	mu        sync.Mutex
	received  []string
	st        *stats.Stats
	formatter interface{}
}

func (f *fakeConfigTarget) Start() error { return nil }
func (f *fakeConfigTarget) Stop() error  { return nil }
func (f *fakeConfigTarget) Log(rec *record.LogRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, rec.Text)
}
func (f *fakeConfigTarget) Flush() error        { return nil }
func (f *fakeConfigTarget) Stats() *stats.Stats { return f.st }
func (f *fakeConfigTarget) IsCaughtUp() bool    { return true }

func init() {
	target.DefaultSchemes.Register("configtest", func(u *url.URL) (target.Target, error) {
		return &fakeConfigTarget{st: stats.New(8)}, nil
	})
}

func TestApplyWiresLevelAndTarget(t *testing.T) {
	e, err := elog.New(elog.EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	tree := Map{
		"log_level": String("warn"),
		"log_target": Map{
			"url": String("configtest://local"),
		},
	}
	if err := Apply(e, tree); err != nil {
		t.Fatal(err)
	}

	logger := e.Logger("anything")
	if logger.CanLog(level.Info) {
		t.Fatal("expected root level to be raised to warn")
	}
	if !logger.CanLog(level.Warn) {
		t.Fatal("expected warn to still be enabled")
	}
}

func TestApplyWiresMultipleTargets(t *testing.T) {
	e, err := elog.New(elog.EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	tree := Map{
		"log_target": Array{
			Map{"url": String("configtest://a")},
			Map{"url": String("configtest://b")},
		},
	}
	if err := Apply(e, tree); err != nil {
		t.Fatal(err)
	}

	count := 0
	e.Targets().ForEachTarget(func(id uint32, tgt target.Target) { count++ })
	if count != 2 {
		t.Fatalf("expected 2 targets installed, got %d", count)
	}
}

func TestApplyRejectsUnknownScheme(t *testing.T) {
	e, err := elog.New(elog.EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	tree := Map{"log_target": Map{"url": String("nope://x")}}
	if err := Apply(e, tree); err == nil {
		t.Fatal("expected unknown scheme to error")
	}
}

func TestApplyPerSourceLevelOverride(t *testing.T) {
	e, err := elog.New(elog.EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	tree := Map{"app.worker.log_level": String("error")}
	if err := Apply(e, tree); err != nil {
		t.Fatal(err)
	}

	logger := e.Logger("app.worker")
	if logger.CanLog(level.Warn) {
		t.Fatal("expected app.worker to be raised to error")
	}
	if !logger.CanLog(level.Error) {
		t.Fatal("expected error to still be enabled")
	}
}

func TestApplyRateLimitInstallsFilter(t *testing.T) {
	e, err := elog.New(elog.EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	tree := Map{"rate_limit": Map{"max": Int(1), "window": Int(1), "unit": String("minutes")}}
	if err := Apply(e, tree); err != nil {
		t.Fatal(err)
	}
	if e.Sources().Root().Filter() == nil {
		t.Fatal("expected rate_limit to install a root filter")
	}
}
