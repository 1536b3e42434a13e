// source.go: the hierarchical log-source name tree (spec §4.F).
//
// An atomic level field gives the lock-free effective-level read on the
// hot path, generalized here to a full rooted name tree with per-node
// affinity mask, passkeys, and a hot-swappable per-level filter retired
// through epoch GC (spec §4.B).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package source

import (
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/agilira/elog/filter"
	"github.com/agilira/elog/internal/elogerr"
	"github.com/agilira/elog/internal/epochgc"
	"github.com/agilira/elog/level"
)

// filterBox lets an interface value be stored behind atomic.Pointer, which
// requires a concrete pointee type.
type filterBox struct{ f filter.Filter }

// Node is one entry in the source tree. The qualified name is fixed at
// creation; effective level, affinity mask, and the two filter slots are
// lock-free to read from any thread.
type Node struct {
	id            uint32
	qualifiedName string
	parent        *Node

	mu       sync.Mutex // guards children and passkeys only
	children map[string]*Node
	passkeys []uint32

	effectiveLevel atomic.Int32
	affinityMask   atomic.Uint64

	perLevelFilter atomic.Pointer[filterBox]
	lifeSignFilter atomic.Pointer[filterBox]
}

// ID returns the node's process-unique id.
func (n *Node) ID() uint32 { return n.id }

// QualifiedName returns the dotted path from the root.
func (n *Node) QualifiedName() string { return n.qualifiedName }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// EffectiveLevel returns the current threshold via a relaxed atomic load —
// the hot-path check in the logger fast path (spec §4.G step 2).
func (n *Node) EffectiveLevel() level.Level {
	return level.Level(n.effectiveLevel.Load())
}

// AffinityMask returns the current target-affinity mask.
func (n *Node) AffinityMask() uint64 { return n.affinityMask.Load() }

// HasPasskey reports whether this node currently holds passkey (0 never matches).
func (n *Node) HasPasskey(passkey uint32) bool {
	if passkey == 0 {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, p := range n.passkeys {
		if p == passkey {
			return true
		}
	}
	return false
}

// Filter returns the current per-level filter, or nil if none is installed.
func (n *Node) Filter() filter.Filter {
	if b := n.perLevelFilter.Load(); b != nil {
		return b.f
	}
	return nil
}

// LifeSignFilter returns the current life-sign filter, or nil.
func (n *Node) LifeSignFilter() filter.Filter {
	if b := n.lifeSignFilter.Load(); b != nil {
		return b.f
	}
	return nil
}

// Tree is the rooted source hierarchy plus the epoch GC that protects its
// hot-swappable filter pointers.
type Tree struct {
	gc     *epochgc.GC
	root   *Node
	nextID atomic.Uint32
	envTok *epochgc.Token // used for retiring swapped filters outside a logging thread
}

// NewTree creates a tree with only the root node (empty qualified name).
func NewTree(gc *epochgc.GC) *Tree {
	t := &Tree{gc: gc}
	t.root = &Node{id: 0, qualifiedName: "", children: make(map[string]*Node)}
	t.root.effectiveLevel.Store(int32(level.Info))
	t.envTok = gc.AssignSlot()
	return t
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Define resolves path (a dotted name) to a node, optionally creating
// missing intermediate ancestors. When createMissing is false and an
// intermediate segment does not exist, it returns MissingIntermediate.
func (t *Tree) Define(path string, createMissing bool) (*Node, error) {
	if path == "" {
		return t.root, nil
	}
	segments := strings.Split(path, ".")
	cur := t.root
	built := ""
	for _, seg := range segments {
		if built == "" {
			built = seg
		} else {
			built = built + "." + seg
		}
		cur.mu.Lock()
		child, ok := cur.children[seg]
		if !ok {
			if !createMissing {
				cur.mu.Unlock()
				return nil, elogerr.New(elogerr.CodeMissingIntermediate, "elog: missing intermediate source: "+built)
			}
			child = t.newChild(cur, seg, built)
			cur.children[seg] = child
		}
		cur.mu.Unlock()
		cur = child
	}
	return cur, nil
}

// newChild allocates a node inheriting its parent's effective level, then
// applies the per-source environment override (spec §4.F): on first
// creation, <dotted_name>_log_level (dots -> underscores) is consulted.
func (t *Tree) newChild(parent *Node, segment, qualifiedName string) *Node {
	n := &Node{
		id:            t.nextID.Add(1),
		qualifiedName: qualifiedName,
		parent:        parent,
		children:      make(map[string]*Node),
	}
	n.effectiveLevel.Store(parent.effectiveLevel.Load())
	n.affinityMask.Store(parent.affinityMask.Load())

	envName := strings.ReplaceAll(qualifiedName, ".", "_") + "_log_level"
	if v, ok := os.LookupEnv(envName); ok {
		if lvl, err := level.Parse(v); err == nil {
			n.effectiveLevel.Store(int32(lvl))
		}
	}
	return n
}

// Lookup finds an existing node without creating anything.
func (t *Tree) Lookup(path string) (*Node, bool) {
	n, err := t.Define(path, false)
	if err != nil {
		return nil, false
	}
	return n, true
}

// SetLevel applies lvl to node under the given propagation mode (spec §3).
func (t *Tree) SetLevel(node *Node, lvl level.Level, mode level.PropagationMode) {
	node.effectiveLevel.Store(int32(lvl))
	if mode == level.None {
		return
	}
	t.walkDescendants(node, func(child *Node) {
		cur := level.Level(child.effectiveLevel.Load())
		child.effectiveLevel.Store(int32(level.Apply(mode, cur, lvl)))
	})
}

func (t *Tree) walkDescendants(node *Node, visit func(*Node)) {
	node.mu.Lock()
	kids := make([]*Node, 0, len(node.children))
	for _, c := range node.children {
		kids = append(kids, c)
	}
	node.mu.Unlock()
	for _, c := range kids {
		visit(c)
		t.walkDescendants(c, visit)
	}
}

// BindTarget sets or clears the affinity bit for a target id < 64. Targets
// with id >= 64 bypass the affinity mask entirely and must instead be
// granted a passkey via GrantPasskey (spec's two routing mechanisms;
// §9 flags this boundary as ambiguous in the source material — elog
// keeps both mechanisms live rather than deprecating one, since each
// covers a case the other cannot: the mask gives cheap group routing for
// the first 64 targets, while passkeys scale to any slot id).
func (t *Tree) BindTarget(node *Node, targetID uint32, bind bool) {
	if targetID >= 64 {
		return
	}
	bit := uint64(1) << targetID
	for {
		old := node.affinityMask.Load()
		var next uint64
		if bind {
			next = old | bit
		} else {
			next = old &^ bit
		}
		if node.affinityMask.CompareAndSwap(old, next) {
			return
		}
	}
}

// GrantPasskey adds a passkey to node's accepted set, allowing a target
// whose slot id is >= 64 (or any target wanting private routing) to reach
// this subtree regardless of the affinity mask.
func (t *Tree) GrantPasskey(node *Node, passkey uint32) {
	if passkey == 0 {
		return
	}
	node.mu.Lock()
	defer node.mu.Unlock()
	for _, p := range node.passkeys {
		if p == passkey {
			return
		}
	}
	node.passkeys = append(node.passkeys, passkey)
}

// RevokePasskey removes a passkey from node's accepted set.
func (t *Tree) RevokePasskey(node *Node, passkey uint32) {
	node.mu.Lock()
	defer node.mu.Unlock()
	for i, p := range node.passkeys {
		if p == passkey {
			node.passkeys = append(node.passkeys[:i], node.passkeys[i+1:]...)
			return
		}
	}
}

// SetFilter atomically installs f as node's per-level filter, retiring the
// previous one (if any) through epoch GC rather than freeing it directly,
// since an in-flight logging thread may still hold a reference.
func (t *Tree) SetFilter(node *Node, f filter.Filter) {
	e := t.gc.AdvanceEpoch()
	var next *filterBox
	if f != nil {
		next = &filterBox{f: f}
	}
	old := node.perLevelFilter.Swap(next)
	if old != nil {
		t.envTok.Retire(e, func() {})
	}
}

// SetLifeSignFilter atomically installs f as node's life-sign filter.
func (t *Tree) SetLifeSignFilter(node *Node, f filter.Filter) {
	e := t.gc.AdvanceEpoch()
	var next *filterBox
	if f != nil {
		next = &filterBox{f: f}
	}
	old := node.lifeSignFilter.Swap(next)
	if old != nil {
		t.envTok.Retire(e, func() {})
	}
}

// ForEach visits every node (root included) whose qualified name matches
// include (nil means "match everything") and does not match exclude (nil
// means "exclude nothing").
func (t *Tree) ForEach(include, exclude *regexp.Regexp, visit func(*Node)) {
	var walk func(*Node)
	walk = func(n *Node) {
		name := n.qualifiedName
		matches := include == nil || include.MatchString(name)
		excluded := exclude != nil && exclude.MatchString(name)
		if matches && !excluded {
			visit(n)
		}
		n.mu.Lock()
		kids := make([]*Node, 0, len(n.children))
		for _, c := range n.children {
			kids = append(kids, c)
		}
		n.mu.Unlock()
		for _, c := range kids {
			walk(c)
		}
	}
	walk(t.root)
}
