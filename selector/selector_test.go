package selector

import (
	"strings"
	"testing"
	"time"

	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
)

// stringReceptor is a minimal Receptor that renders everything to text,
// used to exercise compiled node trees without a full formatter.
type stringReceptor struct{ sb strings.Builder }

func (s *stringReceptor) ReceiveInt(v int64)         { s.sb.WriteString(itoa(v)) }
func (s *stringReceptor) ReceiveString(v string)     { s.sb.WriteString(v) }
func (s *stringReceptor) ReceiveTime(v time.Time)    { s.sb.WriteString(v.Format(time.RFC3339)) }
func (s *stringReceptor) ReceiveLevel(v level.Level) { s.sb.WriteString(v.String()) }
func (s *stringReceptor) ReceiveRaw(b []byte)        { s.sb.Write(b) }

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func render(t *testing.T, format string, rec *record.LogRecord) string {
	t.Helper()
	reg := NewRegistry()
	nodes, err := Compile(format, reg)
	if err != nil {
		t.Fatalf("compile %q: %v", format, err)
	}
	recept := &stringReceptor{}
	ctx := &Context{Record: rec, ResolvedText: rec.Text, Proc: &ProcessInfo{Host: "h", App: "elog"}}
	for _, n := range nodes {
		n.Emit(ctx, recept)
	}
	return recept.sb.String()
}

func TestLiteralTextAndMsg(t *testing.T) {
	rec := &record.LogRecord{Text: "hello world"}
	got := render(t, "prefix ${msg} suffix", rec)
	if got != "prefix hello world suffix" {
		t.Fatalf("got %q", got)
	}
}

func TestLevelSelector(t *testing.T) {
	rec := &record.LogRecord{Level: level.Warn}
	if got := render(t, "${level}", rec); got != "WARN" {
		t.Fatalf("got %q", got)
	}
}

func TestFieldJustify(t *testing.T) {
	rec := &record.LogRecord{Text: "x"}
	rec.Source = nil
	rec.Location.File = "a.go"
	got := render(t, "[${file:8}]", rec)
	if got != "[a.go    ]" {
		t.Fatalf("got %q", got)
	}
	got = render(t, "[${file:-8}]", rec)
	if got != "[    a.go]" {
		t.Fatalf("got %q", got)
	}
}

func TestIfSelector(t *testing.T) {
	rec := &record.LogRecord{Level: level.Error}
	got := render(t, "${if:level<=ERROR:critical:normal}", rec)
	if got != "critical" {
		t.Fatalf("got %q", got)
	}
	rec.Level = level.Debug
	got = render(t, "${if:level<=ERROR:critical:normal}", rec)
	if got != "normal" {
		t.Fatalf("got %q", got)
	}
}

func TestSwitchSelector(t *testing.T) {
	rec := &record.LogRecord{Level: level.Info}
	format := "${switch:${level}:${case:INFO:is-info}:${default:other}}"
	if got := render(t, format, rec); got != "is-info" {
		t.Fatalf("got %q", got)
	}
	rec.Level = level.Debug
	if got := render(t, format, rec); got != "other" {
		t.Fatalf("got %q", got)
	}
}

func TestExprSwitchSelector(t *testing.T) {
	rec := &record.LogRecord{Level: level.Fatal}
	format := "${expr-switch:${case:level<=ERROR:severe}:${default:mild}}"
	if got := render(t, format, rec); got != "severe" {
		t.Fatalf("got %q", got)
	}
	rec.Level = level.Diag
	if got := render(t, format, rec); got != "mild" {
		t.Fatalf("got %q", got)
	}
}

func TestFmtDirective(t *testing.T) {
	rec := &record.LogRecord{Text: "x"}
	got := render(t, "${fmt:begin-fg-color=red}x${fmt:default}", rec)
	if got != "\x1b[31mx\x1b[0m" {
		t.Fatalf("got %q", got)
	}
}

func TestConstAndEnv(t *testing.T) {
	t.Setenv("ELOG_SELECTOR_TEST_VAR", "fromenv")
	rec := &record.LogRecord{}
	got := render(t, "${const-str:fixed} ${env:name=ELOG_SELECTOR_TEST_VAR}", rec)
	if got != "fixed fromenv" {
		t.Fatalf("got %q", got)
	}
}

func TestUnknownSelectorError(t *testing.T) {
	reg := NewRegistry()
	_, err := Compile("${bogus}", reg)
	if err == nil {
		t.Fatal("expected error for unknown selector")
	}
	fe, ok := err.(*FormatError)
	if !ok || fe.Kind != UnknownSelector {
		t.Fatalf("expected UnknownSelector, got %v", err)
	}
}

func TestUnclosedBraceError(t *testing.T) {
	reg := NewRegistry()
	_, err := Compile("${msg", reg)
	if err == nil {
		t.Fatal("expected error for unclosed brace")
	}
	fe, ok := err.(*FormatError)
	if !ok || fe.Kind != UnclosedBrace {
		t.Fatalf("expected UnclosedBrace, got %v", err)
	}
}

func TestCustomRegisteredSelector(t *testing.T) {
	reg := NewRegistry()
	reg.Register("shout", func(args []string) (Node, error) {
		word := "hi"
		if len(args) > 0 {
			word = args[0]
		}
		return &textNode{text: strings.ToUpper(word) + "!"}, nil
	})
	nodes, err := Compile("${shout:hello}", reg)
	if err != nil {
		t.Fatal(err)
	}
	recept := &stringReceptor{}
	for _, n := range nodes {
		n.Emit(&Context{Record: &record.LogRecord{}, Proc: &ProcessInfo{}}, recept)
	}
	if recept.sb.String() != "HELLO!" {
		t.Fatalf("got %q", recept.sb.String())
	}
}

func TestDefaultTextFormatterShape(t *testing.T) {
	rec := &record.LogRecord{Level: level.Info, ThreadID: 7, Text: "ready"}
	got := render(t, "${time} ${level} [${tid}] ${src} ${msg}", rec)
	if !strings.Contains(got, "INFO") || !strings.HasSuffix(got, "ready") {
		t.Fatalf("unexpected default shape: %q", got)
	}
}
