// apply.go: applies a parsed configuration tree to an Engine (spec §6
// "Configuration (consumed by the core)"). Parsing a config file into the
// tree is the caller's job; Apply only interprets the already-parsed
// nodes.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package config

import (
	"os"
	"strings"

	elog "github.com/agilira/elog"
	"github.com/agilira/elog/filter"
	"github.com/agilira/elog/format"
	"github.com/agilira/elog/internal/elogerr"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/selector"
	"github.com/agilira/elog/target"
)

// envPrefix namespaces the environment-variable override scheme (spec §6:
// "Environment variables may override any of the above").
const envPrefix = "ELOG_"

// envOverride returns the ELOG_<KEY> environment variable's value for a
// top-level config key, uppercased per the usual shell-variable
// convention, and whether it was set.
func envOverride(key string) (string, bool) {
	return os.LookupEnv(envPrefix + strings.ToUpper(key))
}

// formatReceiver is implemented by targets willing to accept a
// config-level default formatter (spec §6 log_format "used by targets
// that do not specify their own"). Targets that always format their own
// way simply don't implement it.
type formatReceiver interface {
	SetFormatter(f *format.Formatter)
}

// Apply interprets tree's recognized top-level keys against e: the
// default format, root level (with optional propagation sigil), a global
// filter, a rate-limit shortcut, one or more log targets, and per-source
// level/affinity overrides (spec §6).
func Apply(e *elog.Engine, tree Map) error {
	if v, ok := envOverride("log_format"); ok {
		tree = withOverride(tree, "log_format", String(v))
	}
	if v, ok := envOverride("log_level"); ok {
		tree = withOverride(tree, "log_level", String(v))
	}

	var defaultFormatter *format.Formatter
	if formatStr, ok := tree.GetString("log_format"); ok {
		f, err := e.CompileFormat(formatStr)
		if err != nil {
			return err
		}
		defaultFormatter = f
	}

	root := e.Logger("")
	if levelStr, ok := tree.GetString("log_level"); ok {
		lvl, mode, err := parseLevelSigil(levelStr)
		if err != nil {
			return err
		}
		e.Sources().SetLevel(root.Node(), lvl, mode)
	}

	if filterStr, ok := tree.GetString("log_filter"); ok {
		f, err := selector.ParseCondition(filterStr)
		if err != nil {
			return elogerr.Wrap(err, elogerr.CodeParseError, "elog: config: invalid log_filter")
		}
		e.Sources().SetFilter(root.Node(), f)
	}

	if rl, ok := tree.GetMap("rate_limit"); ok {
		f, err := buildRateLimit(rl)
		if err != nil {
			return err
		}
		e.Sources().SetFilter(root.Node(), f)
	}

	targetEntries, err := tree.Entries("log_target")
	if err != nil {
		return err
	}
	for _, entry := range targetEntries {
		if err := applyTarget(e, entry, defaultFormatter); err != nil {
			return err
		}
	}

	for key, node := range tree {
		const levelSuffix = ".log_level"
		const affinitySuffix = ".log_affinity"
		switch {
		case strings.HasSuffix(key, levelSuffix):
			src := strings.TrimSuffix(key, levelSuffix)
			s, ok := node.(String)
			if !ok {
				return elogerr.New(elogerr.CodeInvalidConfig, "elog: config: "+key+" must be a string")
			}
			lvl, mode, err := parseLevelSigil(string(s))
			if err != nil {
				return err
			}
			srcNode, err := e.Sources().Define(src, true)
			if err != nil {
				return err
			}
			e.Sources().SetLevel(srcNode, lvl, mode)
		case strings.HasSuffix(key, affinitySuffix):
			src := strings.TrimSuffix(key, affinitySuffix)
			n, ok := node.(Int)
			if !ok {
				return elogerr.New(elogerr.CodeInvalidConfig, "elog: config: "+key+" must be an int target id")
			}
			srcNode, err := e.Sources().Define(src, true)
			if err != nil {
				return err
			}
			e.Sources().BindTarget(srcNode, uint32(n), true)
		}
	}
	return nil
}

func withOverride(m Map, key string, v Node) Map {
	out := make(Map, len(m)+1)
	for k, val := range m {
		out[k] = val
	}
	out[key] = v
	return out
}

// parseLevelSigil parses "<LEVELNAME>[sigil]" per spec §6 (`*`=SET,
// `+`=LOOSE, `-`=RESTRICT; absent sigil means NONE).
func parseLevelSigil(s string) (level.Level, level.PropagationMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, level.None, elogerr.New(elogerr.CodeInvalidConfig, "elog: config: empty log_level")
	}
	mode := level.None
	last := s[len(s)-1]
	name := s
	if last == '*' || last == '+' || last == '-' {
		m, err := level.ParsePropagationSigil(last)
		if err != nil {
			return 0, level.None, elogerr.Wrap(err, elogerr.CodeInvalidConfig, "elog: config: bad propagation sigil")
		}
		mode = m
		name = strings.TrimSpace(s[:len(s)-1])
	}
	lvl, err := level.Parse(name)
	if err != nil {
		return 0, level.None, elogerr.Wrap(err, elogerr.CodeInvalidConfig, "elog: config: bad log_level")
	}
	return lvl, mode, nil
}

// buildRateLimit constructs the global rate-limit shortcut filter (spec
// §6 "rate_limit — shortcut for a global rate-limit filter"), reading
// max/window/unit keys.
func buildRateLimit(m Map) (filter.Filter, error) {
	maxMsgs, ok := m.GetInt("max")
	if !ok {
		return nil, elogerr.New(elogerr.CodeInvalidConfig, "elog: config: rate_limit.max is required")
	}
	window, ok := m.GetInt("window")
	if !ok {
		window = 1
	}
	unit := filter.Seconds
	if unitStr, ok := m.GetString("unit"); ok {
		switch strings.ToLower(unitStr) {
		case "ms", "milliseconds":
			unit = filter.Milliseconds
		case "s", "seconds":
			unit = filter.Seconds
		case "m", "minutes":
			unit = filter.Minutes
		default:
			return nil, elogerr.New(elogerr.CodeInvalidConfig, "elog: config: unknown rate_limit unit "+unitStr)
		}
	}
	return filter.RateLimit(maxMsgs, window, unit, nil), nil
}

// applyTarget constructs one log_target entry via the scheme registry and
// adds it to the engine. A target gets the config-level default formatter
// only if it implements formatReceiver and doesn't already have one of
// its own.
func applyTarget(e *elog.Engine, entry Map, defaultFormatter *format.Formatter) error {
	urlStr, ok := entry.GetString("url")
	if !ok {
		return elogerr.New(elogerr.CodeInvalidConfig, "elog: config: log_target entry missing url")
	}
	tgt, err := target.DefaultSchemes.Build(urlStr)
	if err != nil {
		return err
	}
	if defaultFormatter != nil {
		if fr, ok := tgt.(formatReceiver); ok {
			fr.SetFormatter(defaultFormatter)
		}
	}
	var passkey uint32
	if pk, ok := entry.GetInt("passkey"); ok {
		passkey = uint32(pk)
	}
	_, err = e.Targets().Add(tgt, passkey)
	return err
}
