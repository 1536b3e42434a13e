package consoletarget

import (
	"bytes"
	"strings"
	"testing"

	elog "github.com/agilira/elog"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/target"
)

func TestTargetWritesFormattedLineWithoutColor(t *testing.T) {
	e, err := elog.New(elog.EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	f, err := e.CompileFormat("${level} ${msg}")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	tgt := New(&buf, f, false)
	if _, err := e.Targets().Add(tgt, 0); err != nil {
		t.Fatal(err)
	}

	logger := e.Logger("app")
	logger.Log(level.Info, "hello", 0)
	tgt.Flush()

	if got := buf.String(); !strings.Contains(got, "INFO hello") {
		t.Fatalf("expected formatted line, got %q", got)
	}
	if strings.Contains(buf.String(), "\033[") {
		t.Fatal("expected no ANSI codes when colorize is false")
	}
}

func TestTargetColorizesByLevel(t *testing.T) {
	e, err := elog.New(elog.EngineParams{})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Terminate()

	f, err := e.CompileFormat("${msg}")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	tgt := New(&buf, f, true)
	if _, err := e.Targets().Add(tgt, 0); err != nil {
		t.Fatal(err)
	}

	logger := e.Logger("app")
	logger.Log(level.Error, "boom", 0)
	tgt.Flush()

	if !strings.Contains(buf.String(), colorRed) {
		t.Fatal("expected error-level line to carry the red ANSI code")
	}
}

func TestSchemeRejectsUnknownHost(t *testing.T) {
	if _, err := target.DefaultSchemes.Build("console://weird"); err == nil {
		t.Fatal("expected unknown host to error")
	}
}
