// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"

	"go.uber.org/zap"

	"github.com/sequencerlabs/parallex/state"
)

// BlockExecutionSummary is returned by CloseBlock: the folded state diff,
// an optional compressed variant, and the number of committed txs.
type BlockExecutionSummary struct {
	StateDiff           *state.StateMaps
	CompressedStateDiff *state.StateMaps // nil unless a compressor is configured
	NCommitted          int
}

// TransactionExecutor is the facade driving one chunk end to end: it owns
// the scheduler, versioned state, and bouncer for that chunk, and drives
// them through WorkerExecutor.
type TransactionExecutor struct {
	log *zap.Logger

	base    state.BaseStateReader
	vs      *state.VersionedState
	bouncer Bouncer

	worker *WorkerExecutor

	workerPoolSize int
	closed         bool
}

// TransactionExecutorConfig configures a new TransactionExecutor.
type TransactionExecutorConfig struct {
	WorkerPoolSize   int
	Metrics          Metrics
	Logger           *zap.Logger
	PostCommit       PostCommitHook
	ExtractResources func(ExecutableTransaction, *ExecInfo) (TxSummary, TxResources)
}

// NewTransactionExecutor constructs the facade for one chunk.
func NewTransactionExecutor(base state.BaseStateReader, chunk []ExecutableTransaction, blockCtx BlockContext, singleTx SingleTxExecutor, bouncer Bouncer, cfg TransactionExecutorConfig) *TransactionExecutor {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	vs := state.NewVersionedState(base)
	scheduler := NewScheduler(len(chunk))
	worker := NewWorkerExecutor(vs, scheduler, chunk, singleTx, bouncer, blockCtx, WorkerExecutorConfig{
		WorkerPoolSize:   cfg.WorkerPoolSize,
		Metrics:          cfg.Metrics,
		Logger:           log,
		PostCommit:       cfg.PostCommit,
		ExtractResources: cfg.ExtractResources,
	})
	return &TransactionExecutor{
		log:            log,
		base:           base,
		vs:             vs,
		bouncer:        bouncer,
		worker:         worker,
		workerPoolSize: cfg.WorkerPoolSize,
	}
}

// AddTxsToBlock runs the worker pool on the chunk and returns, in index
// order, each tx's outcome. If the bouncer signaled BlockFull the
// returned slice is shorter than the input chunk — that truncation is
// the in-band signal for "block full".
func (te *TransactionExecutor) AddTxsToBlock(ctx context.Context) ([]TxResult, error) {
	poolSize := te.workerPoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	err := te.worker.Run(ctx, poolSize)
	results := te.worker.Results()
	if err != nil && err != ErrBlockFull {
		return results, err
	}
	return results, nil
}

// CloseBlock commits the chunk prefix into the base state and returns a
// BlockExecutionSummary. Calling CloseBlock a second time is fatal
// rather than silently repeating work.
func (te *TransactionExecutor) CloseBlock(compressor func(*state.StateMaps) (*state.StateMaps, error)) (*BlockExecutionSummary, error) {
	if te.closed {
		return nil, ErrClosedTwice
	}
	te.closed = true

	n := te.worker.scheduler.CommitIndex()
	diff, _ := te.vs.CommitChunkAndRecoverBlockState(n)

	summary := &BlockExecutionSummary{StateDiff: diff, NCommitted: n}
	if compressor != nil {
		compressed, err := compressor(diff)
		if err != nil {
			return nil, err
		}
		summary.CompressedStateDiff = compressed
	}
	return summary, nil
}
