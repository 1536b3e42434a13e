package level

import "testing"

func TestEnabledOrdering(t *testing.T) {
	// Emitting one record per level against an INFO threshold should admit
	// Fatal..Info and reject Trace/Debug/Diag (scenario 1 in spec §8).
	threshold := Info
	admitted := []Level{}
	for _, l := range []Level{Fatal, Error, Warn, Notice, Info, Trace, Debug, Diag} {
		if l.Enabled(threshold) {
			admitted = append(admitted, l)
		}
	}
	want := []Level{Fatal, Error, Warn, Notice, Info}
	if len(admitted) != len(want) {
		t.Fatalf("got %v, want %v", admitted, want)
	}
	for i := range want {
		if admitted[i] != want[i] {
			t.Fatalf("got %v, want %v", admitted, want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, l := range All() {
		parsed, err := Parse(l.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", l.String(), err)
		}
		if parsed != l {
			t.Fatalf("Parse(%s) = %v, want %v", l.String(), parsed, l)
		}
	}
	if _, err := Parse("bogus"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestApplyPropagation(t *testing.T) {
	if got := Apply(Set, Debug, Warn); got != Warn {
		t.Fatalf("Set: got %v want %v", got, Warn)
	}
	// Restrict(Warn) pulls a more-verbose (numerically larger) Debug down to Warn.
	if got := Apply(Restrict, Debug, Warn); got != Warn {
		t.Fatalf("Restrict: got %v want %v", got, Warn)
	}
	if got := Apply(Restrict, Error, Warn); got != Error {
		t.Fatalf("Restrict should not touch already-stricter level: got %v want %v", got, Error)
	}
	// Loose(Warn) raises a stricter (numerically smaller) Error up to Warn.
	if got := Apply(Loose, Error, Warn); got != Warn {
		t.Fatalf("Loose: got %v want %v", got, Warn)
	}
	if got := Apply(Loose, Debug, Warn); got != Debug {
		t.Fatalf("Loose should not touch already-looser level: got %v want %v", got, Debug)
	}
	if got := Apply(None, Debug, Warn); got != Debug {
		t.Fatalf("None: got %v want %v", got, Debug)
	}
}

func TestParsePropagationSigil(t *testing.T) {
	cases := map[byte]PropagationMode{'*': Set, '+': Loose, '-': Restrict}
	for sigil, want := range cases {
		got, err := ParsePropagationSigil(sigil)
		if err != nil || got != want {
			t.Fatalf("sigil %q: got %v, %v", sigil, got, err)
		}
	}
	if _, err := ParsePropagationSigil('?'); err == nil {
		t.Fatal("expected error for unknown sigil")
	}
}
