// json.go: decodes a JSON document into the configuration tree (spec §6
// leaves the concrete file format open; JSON is the format the watcher in
// this package reads).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package config

import (
	"encoding/json"

	"github.com/agilira/elog/internal/elogerr"
)

// DecodeJSON parses raw JSON bytes into a configuration Map. JSON objects
// become Map, arrays become Array, strings become String, booleans become
// Bool, and numbers become Int (fractional JSON numbers are truncated,
// since the tree has no Float kind).
func DecodeJSON(data []byte) (Map, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, elogerr.Wrap(err, elogerr.CodeParseError, "elog: config: invalid JSON")
	}
	return mapFromJSON(raw), nil
}

func mapFromJSON(raw map[string]interface{}) Map {
	out := make(Map, len(raw))
	for k, v := range raw {
		out[k] = nodeFromJSON(v)
	}
	return out
}

func nodeFromJSON(v interface{}) Node {
	switch val := v.(type) {
	case map[string]interface{}:
		return mapFromJSON(val)
	case []interface{}:
		arr := make(Array, len(val))
		for i, item := range val {
			arr[i] = nodeFromJSON(item)
		}
		return arr
	case string:
		return String(val)
	case bool:
		return Bool(val)
	case float64:
		return Int(int64(val))
	case nil:
		return nil
	default:
		return String("")
	}
}
