package config

import (
	"os"
	"path/filepath"
	"testing"

	elog "github.com/agilira/elog"
	"github.com/agilira/elog/level"
)

func TestWatchConfigAppliesInitialLevelOnStart(t *testing.T) {
	e, err := elog.New(elog.EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	dir := t.TempDir()
	path := filepath.Join(dir, "elog.json")
	if err := os.WriteFile(path, []byte(`{"log_level":"error"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	w, err := WatchConfig(e, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	logger := e.Logger("anything")
	if logger.CanLog(level.Warn) {
		t.Fatal("expected initial load to raise root level to error")
	}
}

func TestWatchConfigMissingFileErrors(t *testing.T) {
	e, err := elog.New(elog.EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	if _, err := WatchConfig(e, "/nonexistent/elog.json"); err == nil {
		t.Fatal("expected missing config file to error")
	}
}
