// watch.go: hot-reloads level and affinity overrides from a JSON
// configuration file using Argus, mirroring the reload scope the core
// itself enforces in Reconfigure (levels and affinities only; filters and
// rate limits are changed directly through the engine's source/target
// APIs, not through file reload).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
	elog "github.com/agilira/elog"
	"github.com/agilira/elog/internal/elogerr"
)

// Watcher re-applies level and affinity overrides from a config file to an
// Engine whenever the file changes on disk.
type Watcher struct {
	path    string
	engine  *elog.Engine
	watcher *argus.Watcher
	enabled int32
	mu      sync.Mutex
}

// WatchConfig builds a Watcher for path without starting it. The file must
// already exist at the time this is called; its contents are not read
// until Start.
func WatchConfig(e *elog.Engine, path string) (*Watcher, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, elogerr.Wrap(err, elogerr.CodeIoError, "elog: config: config file does not exist")
	}

	cfg := argus.Config{
		PollInterval:         2 * time.Second,
		OptimizationStrategy: argus.OptimizationAuto,
		Audit: argus.AuditConfig{
			Enabled:       false,
			MinLevel:      argus.AuditInfo,
			BufferSize:    256,
			FlushInterval: 5 * time.Second,
		},
		ErrorHandler: func(err error, p string) {
			fmt.Fprintf(os.Stderr, "elog: config watcher error for %s: %v\n", p, err)
		},
	}

	return &Watcher{
		path:    path,
		engine:  e,
		watcher: argus.New(*cfg.WithDefaults()),
	}, nil
}

// Start loads path once immediately and then watches it for subsequent
// changes, reapplying only the level and affinity overrides it contains
// on every change.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if atomic.LoadInt32(&w.enabled) != 0 {
		return elogerr.New(elogerr.CodeInvalidConfig, "elog: config: watcher already started")
	}

	if subset, err := loadSubset(w.path); err == nil {
		w.engine.Reconfigure(subset)
	}

	err := w.watcher.Watch(w.path, func(event argus.ChangeEvent) {
		subset, err := loadSubset(event.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "elog: config: failed to reload %s: %v\n", event.Path, err)
			return
		}
		w.engine.Reconfigure(subset)
	})
	if err != nil {
		return elogerr.Wrap(err, elogerr.CodeIoError, "elog: config: failed to watch "+w.path)
	}

	if err := w.watcher.Start(); err != nil {
		return elogerr.Wrap(err, elogerr.CodeIoError, "elog: config: failed to start file watcher")
	}
	atomic.StoreInt32(&w.enabled, 1)
	return nil
}

// Stop stops watching the configuration file.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if atomic.LoadInt32(&w.enabled) == 0 {
		return elogerr.New(elogerr.CodeInvalidConfig, "elog: config: watcher not started")
	}
	if err := w.watcher.Stop(); err != nil {
		return elogerr.Wrap(err, elogerr.CodeIoError, "elog: config: failed to stop file watcher")
	}
	atomic.StoreInt32(&w.enabled, 0)
	return nil
}

// loadSubset reads and decodes path, extracting only the root log_level
// and any <dotted_source>.log_level / <dotted_source>.log_affinity
// overrides it contains.
func loadSubset(path string) (elog.ConfigSubset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return elog.ConfigSubset{}, elogerr.Wrap(err, elogerr.CodeIoError, "elog: config: failed to read "+path)
	}
	tree, err := DecodeJSON(data)
	if err != nil {
		return elog.ConfigSubset{}, err
	}

	var subset elog.ConfigSubset
	if levelStr, ok := tree.GetString("log_level"); ok {
		lvl, mode, err := parseLevelSigil(levelStr)
		if err != nil {
			return elog.ConfigSubset{}, err
		}
		subset.Levels = append(subset.Levels, elog.LevelOverride{Source: "", Level: lvl, Mode: mode})
	}

	for key, node := range tree {
		const levelSuffix = ".log_level"
		const affinitySuffix = ".log_affinity"
		switch {
		case strings.HasSuffix(key, levelSuffix):
			s, ok := node.(String)
			if !ok {
				continue
			}
			lvl, mode, err := parseLevelSigil(string(s))
			if err != nil {
				return elog.ConfigSubset{}, err
			}
			subset.Levels = append(subset.Levels, elog.LevelOverride{
				Source: strings.TrimSuffix(key, levelSuffix), Level: lvl, Mode: mode,
			})
		case strings.HasSuffix(key, affinitySuffix):
			n, ok := node.(Int)
			if !ok {
				continue
			}
			subset.Affinities = append(subset.Affinities, elog.AffinityOverride{
				Source: strings.TrimSuffix(key, affinitySuffix), TargetID: uint32(n), Bind: true,
			})
		}
	}
	return subset, nil
}
