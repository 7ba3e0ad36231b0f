// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import "github.com/prometheus/client_golang/prometheus"

// Metrics is injected into WorkerExecutor/TransactionExecutor through
// their config structs — callers may pass nil to disable recording
// entirely.
type Metrics interface {
	RecordExecuted()
	RecordAborted()
	RecordCommitted()
	RecordBlockFull()
}

// PrometheusMetrics is the reference Metrics implementation, backed by
// github.com/prometheus/client_golang.
type PrometheusMetrics struct {
	executed  prometheus.Counter
	aborted   prometheus.Counter
	committed prometheus.Counter
	fullBlocks prometheus.Counter
}

// NewPrometheusMetrics registers the engine's counters against reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		executed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parallex_tx_executed_total",
			Help: "Total number of tx execution attempts (including re-executions).",
		}),
		aborted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parallex_tx_aborted_total",
			Help: "Total number of validation-triggered aborts.",
		}),
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parallex_tx_committed_total",
			Help: "Total number of committed transactions.",
		}),
		fullBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parallex_full_blocks_total",
			Help: "Total number of chunks truncated because the bouncer signaled BlockFull.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.executed, m.aborted, m.committed, m.fullBlocks)
	}
	return m
}

func (m *PrometheusMetrics) RecordExecuted()  { m.executed.Inc() }
func (m *PrometheusMetrics) RecordAborted()   { m.aborted.Inc() }
func (m *PrometheusMetrics) RecordCommitted() { m.committed.Inc() }
func (m *PrometheusMetrics) RecordBlockFull() { m.fullBlocks.Inc() }

// noopMetrics is used when the caller passes nil.
type noopMetrics struct{}

func (noopMetrics) RecordExecuted()  {}
func (noopMetrics) RecordAborted()   {}
func (noopMetrics) RecordCommitted() {}
func (noopMetrics) RecordBlockFull() {}
