// binary.go: the primitive argument encoding used by binary log macros
// (spec §4.G "Encode arguments into a per-thread scratch buffer using the
// UDT/primitive encoders").
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package format

import (
	"encoding/binary"
	"math"
)

// Tag identifies the wire shape of one encoded argument.
type Tag byte

const (
	TagInt64 Tag = iota
	TagUint64
	TagFloat64
	TagString
	TagBool
	TagTime
	TagLevel
	TagUDT
)

// Encoder appends primitive and UDT-encoded arguments to a scratch buffer,
// matching the call-site's declared argument order. Reusable across calls
// via Reset, so a thread-local Encoder avoids a per-record allocation.
type Encoder struct {
	buf   []byte
	count int
}

// NewEncoder creates an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Reset clears the buffer for reuse.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.count = 0
}

// Bytes returns the encoded argument buffer built so far.
func (e *Encoder) Bytes() []byte { return e.buf }

// Count returns the number of arguments encoded so far.
func (e *Encoder) Count() int { return e.count }

func (e *Encoder) putUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

// Int64 appends a signed integer argument.
func (e *Encoder) Int64(v int64) {
	e.buf = append(e.buf, byte(TagInt64))
	e.putUint64(uint64(v))
	e.count++
}

// Uint64 appends an unsigned integer argument.
func (e *Encoder) Uint64(v uint64) {
	e.buf = append(e.buf, byte(TagUint64))
	e.putUint64(v)
	e.count++
}

// Float64 appends a floating-point argument.
func (e *Encoder) Float64(v float64) {
	e.buf = append(e.buf, byte(TagFloat64))
	e.putUint64(math.Float64bits(v))
	e.count++
}

// String appends a length-prefixed string argument.
func (e *Encoder) String(v string) {
	e.buf = append(e.buf, byte(TagString))
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(v)))
	e.buf = append(e.buf, length[:]...)
	e.buf = append(e.buf, v...)
	e.count++
}

// Bool appends a boolean argument.
func (e *Encoder) Bool(v bool) {
	e.buf = append(e.buf, byte(TagBool))
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
	e.count++
}

// TimeUnixNano appends a timestamp argument, encoded as Unix nanoseconds.
func (e *Encoder) TimeUnixNano(v int64) {
	e.buf = append(e.buf, byte(TagTime))
	e.putUint64(uint64(v))
	e.count++
}

// Level appends a log-level argument.
func (e *Encoder) Level(v int8) {
	e.buf = append(e.buf, byte(TagLevel), byte(v))
	e.count++
}

// UDT appends a user-defined-type argument: a 16-bit code reserved from
// the user code base, followed by a length-prefixed opaque payload
// produced by the type's registered encoder.
func (e *Encoder) UDT(code uint16, payload []byte) {
	e.buf = append(e.buf, byte(TagUDT))
	var codeBuf [2]byte
	binary.LittleEndian.PutUint16(codeBuf[:], code)
	e.buf = append(e.buf, codeBuf[:]...)
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(payload)))
	e.buf = append(e.buf, length[:]...)
	e.buf = append(e.buf, payload...)
	e.count++
}
