// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ClassCacheMetrics counts class-registry cache hits/misses during
// transaction conversion, meaningful wherever a TransactionConverter
// consults a class registry.
type ClassCacheMetrics struct {
	Hits   prometheus.Counter
	Misses prometheus.Counter
}

// NewClassCacheMetrics registers class-cache counters against reg.
func NewClassCacheMetrics(reg prometheus.Registerer) *ClassCacheMetrics {
	m := &ClassCacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parallex_class_cache_hits_total",
			Help: "Total number of class-registry cache hits during tx conversion.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parallex_class_cache_misses_total",
			Help: "Total number of class-registry cache misses during tx conversion.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses)
	}
	return m
}

// BlockBuilderFactory builds BlockBuilder instances that share config and
// logger across blocks. It holds the class-cache metrics it was given but
// does not pass them to the builders it creates.
type BlockBuilderFactory struct {
	cfg        BlockBuilderConfig
	log        *zap.Logger
	cacheStats *ClassCacheMetrics
}

// NewBlockBuilderFactory constructs a factory with shared config/logging.
func NewBlockBuilderFactory(cfg BlockBuilderConfig, log *zap.Logger, cacheStats *ClassCacheMetrics) *BlockBuilderFactory {
	return &BlockBuilderFactory{cfg: cfg, log: log, cacheStats: cacheStats}
}

// New builds a BlockBuilder for one block's worth of deps.
func (f *BlockBuilderFactory) New(deps BlockBuilderDeps) *BlockBuilder {
	return NewBlockBuilder(f.cfg, deps, f.log)
}
