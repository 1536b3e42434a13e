// tree.go: the configuration-tree value model the core consumes (spec §6:
// "a tree of nodes of types {Map, Array, String, Int, Bool}"). Parsing
// config files into this tree is out of scope (spec §1); callers build
// trees directly or decode them from whatever source they already use.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package config

import "github.com/agilira/elog/internal/elogerr"

// Kind identifies a Node's concrete type.
type Kind int

const (
	KindMap Kind = iota
	KindArray
	KindString
	KindInt
	KindBool
)

// Node is one value in the configuration tree.
type Node interface {
	Kind() Kind
}

// Map is an unordered set of key/value pairs (a plain Go map, so
// iteration order is not defined; spec §6 never relies on top-level key
// order, only on array order within a Map's value).
type Map map[string]Node

// Kind implements Node.
func (Map) Kind() Kind { return KindMap }

// Array is an ordered list of nodes, used for repeated keys like multiple
// log_target entries.
type Array []Node

// Kind implements Node.
func (Array) Kind() Kind { return KindArray }

// String is a leaf string value.
type String string

// Kind implements Node.
func (String) Kind() Kind { return KindString }

// Int is a leaf integer value.
type Int int64

// Kind implements Node.
func (Int) Kind() Kind { return KindInt }

// Bool is a leaf boolean value.
type Bool bool

// Kind implements Node.
func (Bool) Kind() Kind { return KindBool }

// Get looks up key in m, returning (nil, false) if absent.
func (m Map) Get(key string) (Node, bool) {
	n, ok := m[key]
	return n, ok
}

// GetString looks up key in m and type-asserts it to String.
func (m Map) GetString(key string) (string, bool) {
	n, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := n.(String)
	return string(s), ok
}

// GetInt looks up key in m and type-asserts it to Int.
func (m Map) GetInt(key string) (int64, bool) {
	n, ok := m[key]
	if !ok {
		return 0, false
	}
	i, ok := n.(Int)
	return int64(i), ok
}

// GetBool looks up key in m and type-asserts it to Bool.
func (m Map) GetBool(key string) (bool, bool) {
	n, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := n.(Bool)
	return bool(b), ok
}

// GetMap looks up key in m and type-asserts it to Map.
func (m Map) GetMap(key string) (Map, bool) {
	n, ok := m[key]
	if !ok {
		return nil, false
	}
	child, ok := n.(Map)
	return child, ok
}

// Entries normalizes a key's value to a slice of Map for iteration,
// accepting either a single Map (one entry) or an Array of Map (several),
// matching spec §6's "Multiple entries allowed" for log_target.
func (m Map) Entries(key string) ([]Map, error) {
	n, ok := m[key]
	if !ok {
		return nil, nil
	}
	switch v := n.(type) {
	case Map:
		return []Map{v}, nil
	case Array:
		out := make([]Map, 0, len(v))
		for _, item := range v {
			child, ok := item.(Map)
			if !ok {
				return nil, elogerr.New(elogerr.CodeInvalidConfig, "elog: config: "+key+" array entries must be maps")
			}
			out = append(out, child)
		}
		return out, nil
	default:
		return nil, elogerr.New(elogerr.CodeInvalidConfig, "elog: config: "+key+" must be a map or array of maps")
	}
}
