// reconfigure.go: the local reconfiguration entrypoint (spec §6 "Reload")
// plus the engine's self-log stream (spec §7 propagation policy).
//
// Open question (spec §9: "whether reload should also re-evaluate filters
// and rate-limits, or only levels and affinities — comments disagree")
// resolved per the spec body's own wording in §6, which is unambiguous
// where §9 says the comments aren't: "reapplies only levels and
// affinities... other items ignored". Filters and rate-limits change
// through Sources()/Targets() directly instead, under the caller's own
// synchronization.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package elog

import (
	"github.com/agilira/elog/level"
)

// LevelOverride is one entry of a reconfiguration subset: the dotted
// source name, its new level, and the propagation mode to apply it with.
type LevelOverride struct {
	Source string
	Level  level.Level
	Mode   level.PropagationMode
}

// AffinityOverride binds or unbinds a target id from a source's affinity
// mask.
type AffinityOverride struct {
	Source   string
	TargetID uint32
	Bind     bool
}

// ConfigSubset is the reconfiguration payload Reconfigure applies: only
// levels and affinities, matching spec §6's reload contract.
type ConfigSubset struct {
	Levels     []LevelOverride
	Affinities []AffinityOverride
}

// Reconfigure applies subset under the engine's reconfiguration lock,
// storing each change directly into the atomics the hot path reads. Levels
// and affinity masks are plain atomic values, so no epoch is advanced and
// nothing is retired through epoch GC.
func (e *Engine) Reconfigure(subset ConfigSubset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, lv := range subset.Levels {
		node, err := e.sources.Define(lv.Source, true)
		if err != nil {
			e.selfLog(level.Warn, "reconfigure: cannot resolve source "+lv.Source)
			continue
		}
		e.sources.SetLevel(node, lv.Level, lv.Mode)
	}
	for _, a := range subset.Affinities {
		node, err := e.sources.Define(a.Source, true)
		if err != nil {
			e.selfLog(level.Warn, "reconfigure: cannot resolve source "+a.Source)
			continue
		}
		e.sources.BindTarget(node, a.TargetID, a.Bind)
	}
}

// selfLogSource is the dedicated source the engine's own diagnostics log
// through, kept separate from user sources so a reconfiguration of
// "everything" can't silence the engine's own visibility into itself.
const selfLogSource = "__elog_self"

// selfLog emits an internal diagnostic record at lvl if lvl is at least
// as severe as the configured report level (spec §7: "an internal
// self-log emitted at the engine's report level"). Self-log records never
// recurse back into selfLog regardless of target failures, since targets
// report failures through statistics, not errors.
func (e *Engine) selfLog(lvl level.Level, msg string) {
	if lvl > e.reportLevel {
		return
	}
	logger := e.Logger(selfLogSource)
	logger.Log(lvl, msg, 1)
}
