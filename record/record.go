// record.go: the language-agnostic LogRecord data model (spec §3).
//
// A common log-entry shape — timestamp, level, message, caller, fields —
// generalized here to two payload shapes (text vs. cached-template binary)
// and a source-affinity model.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package record

import (
	"sync/atomic"
	"time"

	"github.com/agilira/elog/level"
)

// Flags is a bitset of record-level markers.
type Flags uint32

const (
	// Binary indicates Payload is (TemplateID, Args, ArgCount) rather than Text.
	Binary Flags = 1 << iota
	// HasStackTrace indicates StackTrace is populated.
	HasStackTrace
	// LifeSignCandidate marks a record eligible for the life-sign hook.
	LifeSignCandidate
)

// Has reports whether all bits in want are set.
func (f Flags) Has(want Flags) bool { return f&want == want }

// SourceHandle is the minimal view of a log-source node a record needs:
// its identity for routing decisions. Defined here (rather than importing
// the source package) so record has no dependency on the source tree —
// source.Node satisfies this interface structurally.
type SourceHandle interface {
	ID() uint32
	QualifiedName() string
	HasPasskey(passkey uint32) bool
	AffinityMask() uint64
}

// SourceLocation is the non-owning call-site identity captured by the
// logging macro: file/line/function are expected to be static-storage
// string literals, matching spec §3.
type SourceLocation struct {
	File string
	Line int
	Func string
}

// LogRecord is a value type, not owned by the core after dispatch
// completes (spec §3). Targets that need to retain data from it must copy
// what they need during their synchronous log() call.
type LogRecord struct {
	RecordID uint64

	// TimestampMono is a monotonic nanosecond reading; TimestampWall is the
	// paired wall-clock reading, populated lazily when a lazy time source
	// is enabled (see the timesource package).
	TimestampMono int64
	TimestampWall time.Time

	Level      level.Level
	ThreadID   uint64
	Location   SourceLocation
	Source     SourceHandle
	Flags      Flags
	StackTrace string

	// Text is the formatted message when Flags does not have Binary set.
	Text string

	// Binary payload: valid when Flags.Has(Binary).
	TemplateID uint32
	Args       []byte
	ArgCount   int
}

// IsBinary reports whether the record carries a cached-template payload.
func (r *LogRecord) IsBinary() bool { return r.Flags.Has(Binary) }

// Counter is a process-unique, strictly increasing record id source
// (spec §3 invariant: record_id is strictly increasing within a process).
// The zero value starts at 1 on first use; 0 is reserved to mean "no record".
type Counter struct {
	next uint64
}

// Next returns the next strictly increasing id.
func (c *Counter) Next() uint64 {
	return atomic.AddUint64(&c.next, 1)
}
