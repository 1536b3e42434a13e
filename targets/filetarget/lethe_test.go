package filetarget

import (
	"path/filepath"
	"testing"

	"github.com/agilira/elog/internal/lethe"
)

// fakeLetheSink implements both fileSink and lethe.LetheWriter, letting a
// test observe whether writeEntry takes the WriteOwned fast path once one
// is detected.
type fakeLetheSink struct {
	ownedCalls int
	plainCalls int
}

func (s *fakeLetheSink) Write(p []byte) (int, error)     { s.plainCalls++; return len(p), nil }
func (s *fakeLetheSink) Sync() error                      { return nil }
func (s *fakeLetheSink) Close() error                     { return nil }
func (s *fakeLetheSink) WriteOwned(p []byte) (int, error) { s.ownedCalls++; return len(p), nil }
func (s *fakeLetheSink) GetOptimalBufferSize() int        { return 4096 }
func (s *fakeLetheSink) SupportsHotReload() bool          { return false }

func TestDetectLetheCapabilitiesRecognizesFakeSink(t *testing.T) {
	sink := &fakeLetheSink{}
	if lethe.DetectLetheCapabilities(sink) == nil {
		t.Fatal("expected fakeLetheSink to be detected as a LetheWriter")
	}
	if lethe.DetectLetheCapabilities(&struct{}{}) != nil {
		t.Fatal("expected a plain struct not to be detected as a LetheWriter")
	}
}

func TestWriteEntryPrefersLetheFastPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lethe.log")

	tgt, err := New(path, 0, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tgt.file.Close()

	sink := &fakeLetheSink{}
	tgt.file = sink
	tgt.lw = lethe.DetectLetheCapabilities(sink)
	if tgt.lw == nil {
		t.Fatal("expected the fake sink to be detected as a LetheWriter")
	}

	tgt.writeEntry(&entry{data: []byte("hello\n")})

	if sink.ownedCalls != 1 {
		t.Fatalf("expected WriteOwned to be called once, got %d", sink.ownedCalls)
	}
	if sink.plainCalls != 0 {
		t.Fatalf("expected Write not to be called when a LetheWriter is present, got %d", sink.plainCalls)
	}
}
