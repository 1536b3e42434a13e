// receptor.go: the two receptor styles selectors emit into (spec §4.E).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package selector

import (
	"time"

	"github.com/agilira/elog/level"
)

// Receptor is the BY_TYPE style: selectors hand it typed values and a
// concrete formatter (text, JSON-like) decides how to render them. Every
// formatter backend implements at least this much.
type Receptor interface {
	ReceiveInt(v int64)
	ReceiveString(v string)
	ReceiveTime(v time.Time)
	ReceiveLevel(v level.Level)
	// ReceiveRaw emits bytes that bypass type-aware formatting entirely —
	// used by fmt: directives (ANSI escapes) and literal text spans.
	ReceiveRaw(b []byte)
}

// NamedReceptor is the BY_NAME style: in addition to the typed calls, a
// backend that maps fields to columns/attributes (databases, tracing
// systems) can receive semantic field identity without string
// round-tripping. A formatter checks for this interface via a type
// assertion and prefers it over the generic calls when present.
type NamedReceptor interface {
	Receptor
	ReceiveHostName(v string)
	ReceiveUserName(v string)
	ReceiveProcessID(v int)
	ReceiveProgramName(v string)
	ReceiveLogMsg(v string)
	ReceiveSourceName(v string)
	ReceiveRecordID(v uint64)
}

type namedField int

const (
	namedNone namedField = iota
	namedHost
	namedUser
	namedProg
	namedMsg
	namedSrc
	namedPID
	namedRID
)

// emitNamed routes a string value to the matching NamedReceptor call when
// recept supports it; otherwise it falls back to the generic string call.
func emitNamed(recept Receptor, field namedField, s string) {
	nr, ok := recept.(NamedReceptor)
	if !ok {
		recept.ReceiveString(s)
		return
	}
	switch field {
	case namedHost:
		nr.ReceiveHostName(s)
	case namedUser:
		nr.ReceiveUserName(s)
	case namedProg:
		nr.ReceiveProgramName(s)
	case namedMsg:
		nr.ReceiveLogMsg(s)
	case namedSrc:
		nr.ReceiveSourceName(s)
	default:
		nr.ReceiveString(s)
	}
}

// emitNamedInt routes an integer value to the matching NamedReceptor call
// when recept supports it; otherwise it falls back to the generic int call.
func emitNamedInt(recept Receptor, field namedField, v int64) {
	nr, ok := recept.(NamedReceptor)
	if !ok {
		recept.ReceiveInt(v)
		return
	}
	switch field {
	case namedPID:
		nr.ReceiveProcessID(int(v))
	case namedRID:
		nr.ReceiveRecordID(uint64(v))
	default:
		nr.ReceiveInt(v)
	}
}
