// named.go: a concrete BY_NAME receptor (spec §4.E) that captures fields
// into semantic slots instead of a byte stream, so a formatter compiled
// from an ordinary selector string can feed a column- or attribute-based
// sink (SQL rows, OTel span attributes) without the sink re-parsing text.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package format

import (
	"strconv"
	"time"

	"github.com/agilira/elog/level"
)

// ColumnReceptor captures one record's selected fields by name. Selectors
// with no semantic identity (env vars, literal text, raw escapes) fall
// into Extra, concatenated in emission order.
type ColumnReceptor struct {
	Time        time.Time
	Level       level.Level
	HostName    string
	UserName    string
	ProcessID   int
	ProgramName string
	Message     string
	SourceName  string
	RecordID    uint64
	Extra       string
}

// NewColumnReceptor creates an empty ColumnReceptor.
func NewColumnReceptor() *ColumnReceptor { return &ColumnReceptor{} }

func (r *ColumnReceptor) ReceiveInt(v int64)        { r.Extra += strconv.FormatInt(v, 10) }
func (r *ColumnReceptor) ReceiveString(v string)    { r.Extra += v }
func (r *ColumnReceptor) ReceiveTime(v time.Time)   { r.Time = v }
func (r *ColumnReceptor) ReceiveLevel(v level.Level) { r.Level = v }
func (r *ColumnReceptor) ReceiveRaw(b []byte)       { r.Extra += string(b) }

func (r *ColumnReceptor) ReceiveHostName(v string)    { r.HostName = v }
func (r *ColumnReceptor) ReceiveUserName(v string)    { r.UserName = v }
func (r *ColumnReceptor) ReceiveProcessID(v int)      { r.ProcessID = v }
func (r *ColumnReceptor) ReceiveProgramName(v string) { r.ProgramName = v }
func (r *ColumnReceptor) ReceiveLogMsg(v string)      { r.Message = v }
func (r *ColumnReceptor) ReceiveSourceName(v string)  { r.SourceName = v }
func (r *ColumnReceptor) ReceiveRecordID(v uint64)    { r.RecordID = v }

// Reset clears all fields for reuse across records.
func (r *ColumnReceptor) Reset() { *r = ColumnReceptor{} }
