// engine.go: engine lifecycle (spec §6 "Engine lifecycle") — init, terminate,
// is_initialized, and the EngineParams recognized options.
//
// Follows a validate-params / wire-sub-components / start-background-work
// / tear-down-in-Close shape, widened from a single ring-buffered logger
// to the full source tree / target table / epoch GC / format cache the
// rest of this package coordinates.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package elog

import (
	"sync"
	"sync/atomic"

	"github.com/agilira/elog/formatcache"
	"github.com/agilira/elog/format"
	"github.com/agilira/elog/internal/elogerr"
	"github.com/agilira/elog/internal/epochgc"
	"github.com/agilira/elog/level"
	"github.com/agilira/elog/record"
	"github.com/agilira/elog/selector"
	"github.com/agilira/elog/source"
	"github.com/agilira/elog/target"
	"github.com/agilira/elog/timesource"
)

// ResolutionUnit and its constants re-export the timesource unit type so
// callers configuring EngineParams don't need a second import for it.
type ResolutionUnit = timesource.ResolutionUnit

const (
	Microseconds = timesource.Microseconds
	Milliseconds = timesource.Milliseconds
	Seconds      = timesource.Seconds
)

// EngineParams are the recognized init() options (spec §6).
type EngineParams struct {
	// MaxThreads bounds the epoch GC's concurrent thread-slot table.
	MaxThreads int
	// MaxLogTargets bounds the target slot table.
	MaxLogTargets int
	// EnableLazyTimeSource switches LogRecord.TimestampWall from an eager
	// time.Now() read to a background-sampled reading.
	EnableLazyTimeSource bool
	// LazyTimeResolution is the sampling period when the lazy source is
	// enabled (ignored otherwise).
	LazyTimeResolution timesource.Resolution
	// EnableStatistics turns on the per-target striped counters (§4.J).
	// When false, targets still expose a *stats.Stats but the engine does
	// not wire self-log accounting through it.
	EnableStatistics bool
	// PreInitQueueSize bounds the pre-init replay queue (§4.K).
	PreInitQueueSize int
	// ReportLevel is the severity at which the engine's own self-log
	// (failed writes, dropped binary records, etc) is emitted.
	ReportLevel level.Level
	// DefaultTarget is used whenever no slot table entry accepts a record
	// (spec §4.H); a nil value disables the fallback and relies solely on
	// the pre-init queue.
	DefaultTarget target.Target
	// DefaultFormat seeds the root source's formatter used by the engine's
	// self-log records when none is supplied via configuration.
	DefaultFormat string
}

func (p *EngineParams) applyDefaults() {
	if p.MaxThreads <= 0 {
		p.MaxThreads = 256
	}
	if p.MaxLogTargets <= 0 {
		p.MaxLogTargets = target.DefaultMaxTargets
	}
	if p.PreInitQueueSize <= 0 {
		p.PreInitQueueSize = target.PreInitDefaultCapacity
	}
	if p.DefaultFormat == "" {
		p.DefaultFormat = format.DefaultFormat
	}
	if !p.ReportLevel.Valid() {
		p.ReportLevel = level.Warn
	}
}

// LifeSignSink receives records admitted by a life-sign filter (spec §6
// "Life-sign"). The default is a no-op; the shared-memory post-mortem
// region the original writes to is out of scope (spec §1).
type LifeSignSink func(rec *record.LogRecord)

// Engine is the handle every API in this package implicitly operates
// through (spec §9 "model as an explicit engine handle created by init and
// destroyed by terminate").
type Engine struct {
	initialized atomic.Bool
	mu          sync.Mutex // guards Init/Terminate and reconfiguration

	params EngineParams

	gc      *epochgc.GC
	sources *source.Tree
	targets *target.Table
	cache   *formatcache.Cache
	udt     *format.UDTRegistry
	selReg  *selector.Registry
	proc    *selector.ProcessInfo
	counter record.Counter

	timeSrc     timesource.Source
	lazyHandle  *timesource.LazySource
	reportLevel level.Level

	lifeSignSink LifeSignSink
}

// New allocates an Engine and runs Init with params. It's a convenience
// equivalent to zero-value construction followed by Init, matching the
// common case of "one engine per process" while still allowing the
// two-step form for tests that want to inspect a not-yet-initialized
// Engine.
func New(params EngineParams) (*Engine, error) {
	e := &Engine{}
	if err := e.Init(params); err != nil {
		return nil, err
	}
	return e, nil
}

// Init wires every sub-component and starts background work (lazy time
// sampler). Calling Init twice without an intervening Terminate returns
// AlreadyInitialized.
func (e *Engine) Init(params EngineParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized.Load() {
		return elogerr.New(elogerr.CodeAlreadyInit, "elog: engine already initialized")
	}
	params.applyDefaults()
	e.params = params

	e.gc = epochgc.New(params.MaxThreads)
	e.sources = source.NewTree(e.gc)
	e.cache = formatcache.New()
	e.udt = format.NewUDTRegistry()
	e.selReg = selector.NewRegistry()
	e.proc = selector.NewProcessInfo()
	e.targets = target.New(e.gc, params.MaxLogTargets, params.DefaultTarget, params.PreInitQueueSize)
	e.reportLevel = params.ReportLevel
	e.lifeSignSink = func(*record.LogRecord) {}

	if params.EnableLazyTimeSource {
		e.lazyHandle = timesource.NewLazy(params.LazyTimeResolution.Duration())
		e.timeSrc = e.lazyHandle
	} else {
		e.timeSrc = timesource.NewEager()
	}

	e.initialized.Store(true)
	return nil
}

// Terminate stops every installed target, halts the lazy time sampler if
// running, and marks the engine unusable. Calling Terminate on a
// not-initialized engine returns NotInitialized.
func (e *Engine) Terminate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized.Load() {
		return elogerr.New(elogerr.CodeNotInit, "elog: engine not initialized")
	}
	var firstErr error
	e.targets.ForEachTarget(func(id uint32, tgt target.Target) {
		if err := e.targets.Remove(id); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	if e.lazyHandle != nil {
		e.lazyHandle.Stop()
	}
	e.initialized.Store(false)
	return firstErr
}

// IsInitialized reports whether the engine has been Init'd and not yet
// Terminate'd.
func (e *Engine) IsInitialized() bool { return e.initialized.Load() }

// Sources returns the log-source tree, for defining sources and applying
// level/affinity/passkey changes.
func (e *Engine) Sources() *source.Tree { return e.sources }

// Targets returns the target slot table, for add/remove/replace.
func (e *Engine) Targets() *target.Table { return e.targets }

// FormatCache returns the shared template-string interning cache.
func (e *Engine) FormatCache() *formatcache.Cache { return e.cache }

// UDTRegistry returns the shared user-defined-type codec registry.
func (e *Engine) UDTRegistry() *format.UDTRegistry { return e.udt }

// SelectorRegistry returns the shared field-selector constructor registry,
// for registering custom format selectors before compiling formats.
func (e *Engine) SelectorRegistry() *selector.Registry { return e.selReg }

// ProcessInfo returns the process metadata (host/user/pid/...) selectors
// resolve against.
func (e *Engine) ProcessInfo() *selector.ProcessInfo { return e.proc }

// GC returns the shared epoch GC, for components outside this package
// (e.g. a target implementation) that need their own hot-swap slots.
func (e *Engine) GC() *epochgc.GC { return e.gc }

// CompileFormat compiles formatStr against the engine's shared registries
// and caches, for targets built outside this package.
func (e *Engine) CompileFormat(formatStr string) (*format.Formatter, error) {
	return format.Compile(formatStr, e.selReg, e.proc, e.cache, e.udt)
}

// SetLifeSignSink installs the function invoked for records a life-sign
// filter admits (spec §6 "Life-sign"). Passing nil restores the no-op.
func (e *Engine) SetLifeSignSink(sink LifeSignSink) {
	if sink == nil {
		sink = func(*record.LogRecord) {}
	}
	e.lifeSignSink = sink
}

// DispatchLifeSign invokes the installed life-sign sink directly, bypassing
// the admission filter check the logger fast path performs — exposed for
// callers building their own entry points on top of Engine.
func (e *Engine) DispatchLifeSign(rec *record.LogRecord) {
	e.lifeSignSink(rec)
}
