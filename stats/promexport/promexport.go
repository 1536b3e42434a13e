// promexport.go: optional Prometheus exposition of the per-target striped
// counters in package stats.
//
// A single Collector samples every registered target's stats.Stats block
// on each Prometheus scrape rather than pushing updates on the hot path,
// following the register-gauges-read-from-an-internal-counter-at-scrape-time
// pattern common to prometheus/client_golang Collector implementations.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package promexport

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agilira/elog/stats"
)

var descFor = map[stats.Kind]*prometheus.Desc{
	stats.MsgDiscarded: prometheus.NewDesc(
		"elog_target_messages_discarded_total", "Messages discarded before reaching the target.", []string{"target"}, nil),
	stats.MsgSubmitted: prometheus.NewDesc(
		"elog_target_messages_submitted_total", "Messages submitted to the target.", []string{"target"}, nil),
	stats.MsgWritten: prometheus.NewDesc(
		"elog_target_messages_written_total", "Messages successfully written by the target.", []string{"target"}, nil),
	stats.MsgFailWrite: prometheus.NewDesc(
		"elog_target_messages_failed_total", "Messages that failed to write.", []string{"target"}, nil),
	stats.BytesSubmitted: prometheus.NewDesc(
		"elog_target_bytes_submitted_total", "Bytes submitted to the target.", []string{"target"}, nil),
	stats.BytesWritten: prometheus.NewDesc(
		"elog_target_bytes_written_total", "Bytes successfully written by the target.", []string{"target"}, nil),
	stats.BytesFailWrite: prometheus.NewDesc(
		"elog_target_bytes_failed_total", "Bytes that failed to write.", []string{"target"}, nil),
	stats.FlushSubmitted: prometheus.NewDesc(
		"elog_target_flushes_submitted_total", "Flushes requested on the target.", []string{"target"}, nil),
	stats.FlushExecuted: prometheus.NewDesc(
		"elog_target_flushes_executed_total", "Flushes actually executed by the target.", []string{"target"}, nil),
	stats.FlushFailed: prometheus.NewDesc(
		"elog_target_flushes_failed_total", "Flushes that failed.", []string{"target"}, nil),
	stats.FlushDiscarded: prometheus.NewDesc(
		"elog_target_flushes_discarded_total", "Flushes dropped without execution.", []string{"target"}, nil),
}

// Collector implements prometheus.Collector over a dynamic set of named
// target stats blocks. Register targets as they are added to the engine;
// unregister on removal so a stopped target's series disappears from
// subsequent scrapes.
type Collector struct {
	mu      sync.RWMutex
	targets map[string]*stats.Stats
}

// NewCollector creates an empty Collector. Register it once with a
// prometheus.Registerer (e.g. prometheus.MustRegister(c)).
func NewCollector() *Collector {
	return &Collector{targets: make(map[string]*stats.Stats)}
}

// AddTarget registers name's stats block for exposition.
func (c *Collector) AddTarget(name string, s *stats.Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets[name] = s
}

// RemoveTarget stops exposing name.
func (c *Collector) RemoveTarget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.targets, name)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range descFor {
		ch <- d
	}
}

// Collect implements prometheus.Collector, sampling every registered
// target's counters at scrape time.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for name, s := range c.targets {
		snap := s.Snap()
		emit := func(kind stats.Kind, v int64) {
			ch <- prometheus.MustNewConstMetric(descFor[kind], prometheus.CounterValue, float64(v), name)
		}
		emit(stats.MsgDiscarded, snap.MsgDiscarded)
		emit(stats.MsgSubmitted, snap.MsgSubmitted)
		emit(stats.MsgWritten, snap.MsgWritten)
		emit(stats.MsgFailWrite, snap.MsgFailWrite)
		emit(stats.BytesSubmitted, snap.BytesSubmitted)
		emit(stats.BytesWritten, snap.BytesWritten)
		emit(stats.BytesFailWrite, snap.BytesFailWrite)
		emit(stats.FlushSubmitted, snap.FlushSubmitted)
		emit(stats.FlushExecuted, snap.FlushExecuted)
		emit(stats.FlushFailed, snap.FlushFailed)
		emit(stats.FlushDiscarded, snap.FlushDiscarded)
	}
}
