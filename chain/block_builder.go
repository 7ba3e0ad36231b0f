// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"errors"
	"math/bits"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sequencerlabs/parallex/bouncer"
	"github.com/sequencerlabs/parallex/executor"
	"github.com/sequencerlabs/parallex/state"
)

// ErrL2GasOverflow is fatal: the running per-block L2 gas total overflowed
// a uint64.
var ErrL2GasOverflow = errors.New("chain: total L2 gas overflow")

// BlockBuilderExecutionParams is the per-block subset of configuration
// that varies per invocation (the deadline and strict/permissive mode),
// as distinct from the builder's static BlockBuilderConfig.
type BlockBuilderExecutionParams struct {
	Deadline  time.Time
	FailOnErr bool
}

// BlockBuilderDeps bundles the external collaborators a BlockBuilder
// needs plus the engine-internal pieces it drives.
type BlockBuilderDeps struct {
	Provider     TransactionProvider
	Converter    TransactionConverter
	OutputStream OutputStream // optional; may be nil
	AbortChannel AbortChannel // optional; may be nil
	Clock        Clock        // optional; defaults to time.Now

	BaseReader state.BaseStateReader
	SingleTx   executor.SingleTxExecutor
	Bouncer    *bouncer.Bouncer
	BlockCtx   executor.BlockContext

	PostCommit       executor.PostCommitHook
	ExtractResources func(executor.ExecutableTransaction, *executor.ExecInfo) (executor.TxSummary, executor.TxResources)
	Metrics          executor.Metrics
	Compressor       func(*state.StateMaps) (*state.StateMaps, error)
}

// BlockBuilder is the outer async loop that pulls batches from a
// TransactionProvider, converts them, and runs each batch through a
// TransactionExecutor as one chunk, folding the resulting state diff
// forward as the base for the next chunk.
type BlockBuilder struct {
	log    *zap.Logger
	tracer trace.Tracer

	cfg  BlockBuilderConfig
	deps BlockBuilderDeps

	busy atomic.Bool
}

// NewBlockBuilder constructs a BlockBuilder. Passing a nil logger
// installs a no-op logger.
func NewBlockBuilder(cfg BlockBuilderConfig, deps BlockBuilderDeps, log *zap.Logger) *BlockBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &BlockBuilder{
		log:    log,
		tracer: otel.Tracer("parallex/chain"),
		cfg:    cfg,
		deps:   deps,
	}
}

// BuildBlock runs the loop until the deadline passes, the provider is
// exhausted, the bouncer signals the block is full, or an abort/failure
// condition ends it early. Only one BuildBlock call may be in flight on a
// given BlockBuilder at a time; a concurrent call returns ErrEngineBusy
// rather than panicking or blocking.
func (b *BlockBuilder) BuildBlock(ctx context.Context, params BlockBuilderExecutionParams) (*BlockExecutionArtifacts, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return nil, ErrEngineBusy
	}
	defer b.busy.Store(false)

	ctx, span := b.tracer.Start(ctx, "chain.BuildBlock")
	defer span.End()

	execData := newBlockTransactionExecutionData()
	base := b.deps.BaseReader
	var (
		l2GasUsed   uint64
		runningDiff = state.NewStateMaps()
		blockIsFull bool
	)

	for {
		if !params.Deadline.IsZero() && !b.deps.Clock().Before(params.Deadline) {
			if params.FailOnErr {
				return nil, &FailOnErrorError{Cause: CauseDeadlineReached}
			}
			break
		}

		if b.deps.AbortChannel != nil {
			select {
			case <-b.deps.AbortChannel:
				return nil, ErrAborted
			default:
			}
		}

		batch, done, err := b.fetchBatch(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.cfg.EmptyBatchSleep):
			}
			continue
		}

		executable, err := b.convertBatch(ctx, batch)
		if err != nil {
			return nil, err
		}

		te := executor.NewTransactionExecutor(base, executable, b.deps.BlockCtx, b.deps.SingleTx, b.deps.Bouncer, executor.TransactionExecutorConfig{
			WorkerPoolSize:   b.cfg.WorkerPoolSize,
			Metrics:          b.deps.Metrics,
			Logger:           b.log,
			PostCommit:       b.deps.PostCommit,
			ExtractResources: b.deps.ExtractResources,
		})

		results, runErr := te.AddTxsToBlock(ctx)
		if runErr != nil && !errors.Is(runErr, executor.ErrBlockFull) {
			return nil, runErr
		}

		if len(results) < len(batch) {
			blockIsFull = true
			if params.FailOnErr {
				return nil, &FailOnErrorError{Cause: CauseBlockFull}
			}
			if b.deps.Metrics != nil {
				b.deps.Metrics.RecordBlockFull()
			}
		}

		for idx, res := range results {
			tx := batch[idx]
			if res.Err != nil {
				if params.FailOnErr {
					return nil, &FailOnErrorError{Cause: CauseTransactionFailed, Inner: res.Err}
				}
				execData.RejectedTxHashes[tx.TxHash()] = struct{}{}
				continue
			}
			execData.ExecutionInfos[tx.TxHash()] = res.Info
			execData.ExecutionOrder = append(execData.ExecutionOrder, tx.TxHash())
			if l1, ok := tx.(interface{ IsL1Handler() bool }); ok && l1.IsL1Handler() {
				execData.AcceptedL1HandlerTxHashes[tx.TxHash()] = struct{}{}
			}

			newTotal, carry := bits.Add64(l2GasUsed, res.Info.L2GasUsed, 0)
			if carry != 0 {
				return nil, ErrL2GasOverflow
			}
			l2GasUsed = newTotal

			if b.deps.OutputStream != nil {
				select {
				case b.deps.OutputStream <- tx:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}

		summary, err := te.CloseBlock(b.deps.Compressor)
		if err != nil {
			return nil, err
		}
		runningDiff = runningDiff.Union(summary.StateDiff)
		base = state.NewMapReader(runningDiff)

		if blockIsFull {
			break
		}
	}

	artifacts := &BlockExecutionArtifacts{
		ExecutionData:       execData,
		CommitmentStateDiff: runningDiff,
		L2GasUsed:           l2GasUsed,
	}
	if b.deps.Bouncer != nil {
		artifacts.BouncerWeights = b.deps.Bouncer.Cumulative()
	}
	if b.deps.Compressor != nil {
		compressed, err := b.deps.Compressor(runningDiff)
		if err != nil {
			return nil, err
		}
		artifacts.CompressedStateDiff = compressed
	}
	return artifacts, nil
}

func (b *BlockBuilder) fetchBatch(ctx context.Context) (batch []Tx, done bool, err error) {
	next, err := b.deps.Provider.GetTxs(ctx, b.cfg.TxChunkSize)
	if err != nil {
		return nil, false, errors.Join(ErrProvider, err)
	}
	if next.Kind == NextTxsEnd {
		return nil, true, nil
	}
	return next.Txs, false, nil
}

func (b *BlockBuilder) convertBatch(ctx context.Context, batch []Tx) ([]executor.ExecutableTransaction, error) {
	out := make([]executor.ExecutableTransaction, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	for i, tx := range batch {
		i, tx := i, tx
		g.Go(func() error {
			exec, err := b.deps.Converter.ToExecutable(gctx, tx)
			if err != nil {
				return errors.Join(ErrConverter, err)
			}
			out[i] = exec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
