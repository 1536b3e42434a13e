// errors.go: error kinds for the elog core, backed by go-errors.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package elogerr

import (
	"github.com/agilira/go-errors"
)

// Error codes surfaced by the core, per spec §7.
const (
	CodeInvalidConfig      errors.ErrorCode = "ELOG_INVALID_CONFIG"
	CodeParseError         errors.ErrorCode = "ELOG_PARSE_ERROR"
	CodeUnknownSelector    errors.ErrorCode = "ELOG_UNKNOWN_SELECTOR"
	CodeUnknownFilter      errors.ErrorCode = "ELOG_UNKNOWN_FILTER"
	CodeUnknownFlushPolicy errors.ErrorCode = "ELOG_UNKNOWN_FLUSH_POLICY"
	CodeUnknownScheme      errors.ErrorCode = "ELOG_UNKNOWN_SCHEME"
	CodeTableFull          errors.ErrorCode = "ELOG_TABLE_FULL"
	CodeNotFound           errors.ErrorCode = "ELOG_NOT_FOUND"
	CodeConcurrentRemove   errors.ErrorCode = "ELOG_CONCURRENT_REMOVE"
	CodeDuplicateName      errors.ErrorCode = "ELOG_DUPLICATE_NAME"
	CodeFormatCacheMiss    errors.ErrorCode = "ELOG_FORMAT_CACHE_MISS"
	CodeIoError            errors.ErrorCode = "ELOG_IO_ERROR"
	CodeAlreadyInit        errors.ErrorCode = "ELOG_ALREADY_INITIALIZED"
	CodeNotInit            errors.ErrorCode = "ELOG_NOT_INITIALIZED"
	CodeMissingIntermediate errors.ErrorCode = "ELOG_MISSING_INTERMEDIATE"
)

// New builds a typed error with the given code and message, tagged with
// the "elog_core" component so callers can tell engine-originated failures
// from target-originated ones in logs and diagnostics.
func New(code errors.ErrorCode, msg string) *errors.Error {
	return errors.New(code, msg).WithContext("component", "elog_core")
}

// Wrap builds a typed error carrying cause as its underlying error.
func Wrap(cause error, code errors.ErrorCode, msg string) *errors.Error {
	return errors.Wrap(cause, code, msg).WithContext("component", "elog_core")
}

// HasCode reports whether err was produced with the given code.
func HasCode(err error, code errors.ErrorCode) bool {
	return errors.HasCode(err, code)
}
