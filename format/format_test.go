package format

import (
	"strings"
	"testing"
	"time"

	"github.com/agilira/elog/formatcache"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
	"github.com/agilira/elog/selector"
)

func TestDefaultFormatTextRecord(t *testing.T) {
	reg := selector.NewRegistry()
	proc := &selector.ProcessInfo{Host: "h1", App: "svc"}
	cache := formatcache.New()
	f, err := Compile(DefaultFormat, reg, proc, cache, nil)
	if err != nil {
		t.Fatal(err)
	}
	rec := &record.LogRecord{
		Level:         level.Info,
		ThreadID:      42,
		TimestampWall: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Text:          "ready",
	}
	recept := NewTextReceptor()
	if err := f.Format(rec, recept); err != nil {
		t.Fatal(err)
	}
	got := recept.String()
	if !strings.Contains(got, "INFO") || !strings.Contains(got, "42") || !strings.HasSuffix(got, "ready") {
		t.Fatalf("unexpected default format output: %q", got)
	}
}

func TestFormatResolvesBinaryRecord(t *testing.T) {
	cache := formatcache.New()
	id := cache.GetOrCache("user {} logged in from {}")

	enc := NewEncoder()
	enc.String("alice")
	enc.String("10.0.0.1")

	rec := &record.LogRecord{
		Flags:      record.Binary,
		TemplateID: id,
		Args:       enc.Bytes(),
		ArgCount:   enc.Count(),
	}

	text, err := ResolveBinary(rec, cache, nil)
	if err != nil {
		t.Fatal(err)
	}
	if text != "user alice logged in from 10.0.0.1" {
		t.Fatalf("got %q", text)
	}
}

func TestFormatBinaryRecordThroughFormatter(t *testing.T) {
	reg := selector.NewRegistry()
	proc := &selector.ProcessInfo{}
	cache := formatcache.New()
	id := cache.GetOrCache("count={}")

	enc := NewEncoder()
	enc.Int64(7)

	f, err := Compile("${msg}", reg, proc, cache, nil)
	if err != nil {
		t.Fatal(err)
	}
	rec := &record.LogRecord{
		Flags:      record.Binary,
		TemplateID: id,
		Args:       enc.Bytes(),
		ArgCount:   enc.Count(),
	}
	recept := NewTextReceptor()
	if err := f.Format(rec, recept); err != nil {
		t.Fatal(err)
	}
	if recept.String() != "count=7" {
		t.Fatalf("got %q", recept.String())
	}
}

func TestFormatCacheMissReturnsError(t *testing.T) {
	cache := formatcache.New()
	rec := &record.LogRecord{Flags: record.Binary, TemplateID: 999, ArgCount: 0}
	if _, err := ResolveBinary(rec, cache, nil); err == nil {
		t.Fatal("expected error for unknown template id")
	}
}

func TestUDTRoundTrip(t *testing.T) {
	udt := NewUDTRegistry()
	type point struct{ x, y int }
	const pointCode = UserCodeBase

	udt.Register(pointCode,
		func(v interface{}) []byte {
			p := v.(point)
			return []byte{byte(p.x), byte(p.y)}
		},
		func(payload []byte) string {
			return "(" + string(rune('0'+payload[0])) + "," + string(rune('0'+payload[1])) + ")"
		},
	)

	cache := formatcache.New()
	id := cache.GetOrCache("at {}")

	payload, ok := udt.Encode(pointCode, point{x: 1, y: 2})
	if !ok {
		t.Fatal("encode should succeed")
	}
	enc := NewEncoder()
	enc.UDT(pointCode, payload)

	rec := &record.LogRecord{Flags: record.Binary, TemplateID: id, Args: enc.Bytes(), ArgCount: enc.Count()}
	text, err := ResolveBinary(rec, cache, udt)
	if err != nil {
		t.Fatal(err)
	}
	if text != "at (1,2)" {
		t.Fatalf("got %q", text)
	}
}

func TestUDTUnregisteredCodeFallsBackToPlaceholder(t *testing.T) {
	cache := formatcache.New()
	id := cache.GetOrCache("value={}")
	enc := NewEncoder()
	enc.UDT(2048, []byte{1, 2, 3})
	rec := &record.LogRecord{Flags: record.Binary, TemplateID: id, Args: enc.Bytes(), ArgCount: enc.Count()}
	text, err := ResolveBinary(rec, cache, NewUDTRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "<udt:2048>") {
		t.Fatalf("got %q", text)
	}
}
