// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bouncer implements the external capacity-accountant contract:
// it admits or rejects a committed transaction against cumulative block
// resource limits.
package bouncer

import (
	"sync"

	"github.com/sequencerlabs/parallex/executor"
	"github.com/sequencerlabs/parallex/state"
)

// Weights names the resource families a block is budgeted against: L1
// gas, L2 gas, Cairo steps, message-segment length, declared classes,
// and state-diff size.
type Weights struct {
	L1Gas                uint64
	L2Gas                uint64
	Steps                uint64
	MessageSegmentLength uint64
	DeclaredClasses      uint64
	StateDiffSize        uint64
}

func (w Weights) add(o Weights) Weights {
	return Weights{
		L1Gas:                w.L1Gas + o.L1Gas,
		L2Gas:                w.L2Gas + o.L2Gas,
		Steps:                w.Steps + o.Steps,
		MessageSegmentLength: w.MessageSegmentLength + o.MessageSegmentLength,
		DeclaredClasses:      w.DeclaredClasses + o.DeclaredClasses,
		StateDiffSize:        w.StateDiffSize + o.StateDiffSize,
	}
}

func (w Weights) exceeds(max Weights) bool {
	return w.L1Gas > max.L1Gas ||
		w.L2Gas > max.L2Gas ||
		w.Steps > max.Steps ||
		w.MessageSegmentLength > max.MessageSegmentLength ||
		w.DeclaredClasses > max.DeclaredClasses ||
		w.StateDiffSize > max.StateDiffSize
}

// Config holds per-resource maxima, YAML-loadable via LoadConfig/Dump
// (see bouncer/config.go).
type Config struct {
	MaxWeights Weights `yaml:"max_weights"`
}

// TxAccounting is what a caller must supply per committed tx: how much of
// each resource it consumed. TryUpdate does not read StateChangeSize; it
// adds the number of state-change keys it is given to StateDiffSize.
type TxAccounting struct {
	Weights         Weights
	StateChangeSize uint64
}

// Bouncer is the reference implementation of the executor.Bouncer
// contract: a single mutex-guarded cumulative counter, consulted only
// during commit, so contention is serial by construction.
type Bouncer struct {
	mu        sync.Mutex
	cfg       Config
	cumulative Weights
}

// New creates a Bouncer with the given per-resource maxima.
func New(cfg Config) *Bouncer {
	return &Bouncer{cfg: cfg}
}

// TryUpdate implements executor.Bouncer. resources is expected to be a
// TxAccounting value (or nil, treated as zero weights); summary is not
// inspected. Any other resources type is a fatal usage error indicating a caller/implementation bug
// rather than a legitimate over-budget rejection.
func (b *Bouncer) TryUpdate(stateChangeKeys []state.Key, summary executor.TxSummary, resources executor.TxResources) error {
	acct, ok := resources.(TxAccounting)
	if !ok {
		if resources == nil {
			acct = TxAccounting{}
		} else {
			return executor.ErrFatalBouncer
		}
	}
	acct.Weights.StateDiffSize += uint64(len(stateChangeKeys))

	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.cumulative.add(acct.Weights)
	if next.exceeds(b.cfg.MaxWeights) {
		return executor.ErrBlockFull
	}
	b.cumulative = next
	return nil
}

// Cumulative returns the bouncer's current accumulated weights, used by
// chain.BlockBuilder to populate BlockExecutionArtifacts.BouncerWeights.
func (b *Bouncer) Cumulative() Weights {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cumulative
}
