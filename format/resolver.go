// resolver.go: expands a binary record's (template_id, args) into a text
// buffer using `{}` placeholders, the "user-selected format-library style"
// §4.E calls for — the {}-placeholder convention common to structured
// Go loggers and the Rust/Go template ecosystems alike.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package format

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/elog/formatcache"
	"github.com/agilira/elog/internal/elogerr"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
)

// ResolveBinary expands rec's cached template against its encoded
// arguments, substituting each `{}` placeholder in template order.
// Trailing placeholders beyond ArgCount are left as literal `{}`; trailing
// arguments beyond the placeholder count are appended, comma-separated,
// after the rendered template — both are defensive fallbacks for a
// template/call-site mismatch rather than a hard failure, since dropping
// an argument silently would be worse than a slightly malformed line.
func ResolveBinary(rec *record.LogRecord, cache *formatcache.Cache, udt *UDTRegistry) (string, error) {
	template, ok := cache.Get(rec.TemplateID)
	if !ok {
		return "", elogerr.New(elogerr.CodeFormatCacheMiss, "elog: binary record references unknown template id")
	}
	values, err := decodeArgs(rec.Args, rec.ArgCount, udt)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	vi := 0
	rest := template
	for {
		idx := strings.Index(rest, "{}")
		if idx < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:idx])
		if vi < len(values) {
			out.WriteString(values[vi])
			vi++
		} else {
			out.WriteString("{}")
		}
		rest = rest[idx+2:]
	}
	for ; vi < len(values); vi++ {
		out.WriteString(", ")
		out.WriteString(values[vi])
	}
	return out.String(), nil
}

func decodeArgs(buf []byte, count int, udt *UDTRegistry) ([]string, error) {
	values := make([]string, 0, count)
	pos := 0
	for i := 0; i < count; i++ {
		if pos >= len(buf) {
			return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated binary argument buffer")
		}
		tag := Tag(buf[pos])
		pos++
		switch tag {
		case TagInt64:
			if pos+8 > len(buf) {
				return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated int64 argument")
			}
			v := int64(binary.LittleEndian.Uint64(buf[pos : pos+8]))
			pos += 8
			values = append(values, strconv.FormatInt(v, 10))
		case TagUint64:
			if pos+8 > len(buf) {
				return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated uint64 argument")
			}
			v := binary.LittleEndian.Uint64(buf[pos : pos+8])
			pos += 8
			values = append(values, strconv.FormatUint(v, 10))
		case TagFloat64:
			if pos+8 > len(buf) {
				return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated float64 argument")
			}
			bits := binary.LittleEndian.Uint64(buf[pos : pos+8])
			pos += 8
			values = append(values, strconv.FormatFloat(math.Float64frombits(bits), 'g', -1, 64))
		case TagString:
			if pos+4 > len(buf) {
				return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated string argument length")
			}
			n := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
			pos += 4
			if pos+n > len(buf) {
				return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated string argument body")
			}
			values = append(values, string(buf[pos:pos+n]))
			pos += n
		case TagBool:
			if pos >= len(buf) {
				return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated bool argument")
			}
			values = append(values, strconv.FormatBool(buf[pos] != 0))
			pos++
		case TagTime:
			if pos+8 > len(buf) {
				return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated time argument")
			}
			nanos := int64(binary.LittleEndian.Uint64(buf[pos : pos+8]))
			pos += 8
			values = append(values, time.Unix(0, nanos).UTC().Format(time.RFC3339Nano))
		case TagLevel:
			if pos >= len(buf) {
				return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated level argument")
			}
			values = append(values, level.Level(int8(buf[pos])).String())
			pos++
		case TagUDT:
			if pos+6 > len(buf) {
				return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated UDT argument header")
			}
			code := binary.LittleEndian.Uint16(buf[pos : pos+2])
			n := int(binary.LittleEndian.Uint32(buf[pos+2 : pos+6]))
			pos += 6
			if pos+n > len(buf) {
				return nil, elogerr.New(elogerr.CodeParseError, "elog: truncated UDT argument payload")
			}
			payload := buf[pos : pos+n]
			pos += n
			if udt != nil {
				if s, ok := udt.Decode(code, payload); ok {
					values = append(values, s)
					continue
				}
			}
			values = append(values, "<udt:"+strconv.Itoa(int(code))+">")
		default:
			return nil, elogerr.New(elogerr.CodeParseError, "elog: unknown argument tag in binary record")
		}
	}
	return values, nil
}
