package source

import (
	"regexp"
	"testing"

	"github.com/agilira/elog/internal/epochgc"
	"github.com/agilira/elog/level"
)

func newTestTree() *Tree {
	return NewTree(epochgc.New(8))
}

func TestDefineCreatesIntermediates(t *testing.T) {
	tr := newTestTree()
	n, err := tr.Define("a.b.c", true)
	if err != nil {
		t.Fatal(err)
	}
	if n.QualifiedName() != "a.b.c" {
		t.Fatalf("got %q", n.QualifiedName())
	}
	if _, ok := tr.Lookup("a.b"); !ok {
		t.Fatal("intermediate a.b should exist")
	}
	if _, err := tr.Define("x.y", false); err == nil {
		t.Fatal("expected MissingIntermediate error")
	}
}

func TestSetLevelPropagation(t *testing.T) {
	tr := newTestTree()
	root := tr.Root()
	tr.SetLevel(root, level.Debug, level.None)

	a, _ := tr.Define("svc.a", true)
	b, _ := tr.Define("svc.a.b", true)
	tr.SetLevel(a, level.Warn, level.Set)
	if a.EffectiveLevel() != level.Warn || b.EffectiveLevel() != level.Warn {
		t.Fatalf("SET propagation failed: a=%v b=%v", a.EffectiveLevel(), b.EffectiveLevel())
	}

	// RESTRICT(Error) pulls descendants looser than Error down to Error.
	tr.SetLevel(a, level.Error, level.Restrict)
	if a.EffectiveLevel() != level.Error {
		t.Fatalf("node itself should be set to Error, got %v", a.EffectiveLevel())
	}
	if b.EffectiveLevel() > level.Error {
		t.Fatalf("RESTRICT should pull descendant <= Error, got %v", b.EffectiveLevel())
	}

	// LOOSE(Diag) raises descendants stricter than Diag up to Diag.
	tr.SetLevel(a, level.Diag, level.Loose)
	if b.EffectiveLevel() < level.Diag {
		t.Fatalf("LOOSE should raise descendant >= Diag, got %v", b.EffectiveLevel())
	}
}

func TestBindTargetAndPasskey(t *testing.T) {
	tr := newTestTree()
	n, _ := tr.Define("svc", true)

	tr.BindTarget(n, 3, true)
	if n.AffinityMask()&(1<<3) == 0 {
		t.Fatal("bit 3 should be set")
	}
	tr.BindTarget(n, 3, false)
	if n.AffinityMask()&(1<<3) != 0 {
		t.Fatal("bit 3 should be cleared")
	}

	tr.GrantPasskey(n, 42)
	if !n.HasPasskey(42) {
		t.Fatal("passkey 42 should be granted")
	}
	tr.RevokePasskey(n, 42)
	if n.HasPasskey(42) {
		t.Fatal("passkey 42 should be revoked")
	}
}

func TestForEachRegexFilter(t *testing.T) {
	tr := newTestTree()
	tr.Define("svc.api", true)
	tr.Define("svc.worker", true)
	tr.Define("infra.db", true)

	var names []string
	tr.ForEach(regexp.MustCompile(`^svc\.`), nil, func(n *Node) { names = append(names, n.QualifiedName()) })
	if len(names) != 2 {
		t.Fatalf("expected 2 svc.* nodes, got %v", names)
	}
}
