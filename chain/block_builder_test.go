// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sequencerlabs/parallex/bouncer"
	"github.com/sequencerlabs/parallex/chain"
	"github.com/sequencerlabs/parallex/executor"
	"github.com/sequencerlabs/parallex/internal/fixtures"
	"github.com/sequencerlabs/parallex/internal/mocks"
	"github.com/sequencerlabs/parallex/state"
)

func newBuilder(t *testing.T, provider *fixtures.ToyProvider, maxSteps uint64) *chain.BlockBuilder {
	t.Helper()
	cfg := chain.DefaultBlockBuilderConfig()
	cfg.TxChunkSize = 10
	cfg.EmptyBatchSleep = 10 * time.Millisecond

	b := bouncer.New(bouncer.Config{MaxWeights: bouncer.Weights{Steps: maxSteps, L2Gas: 1 << 40, StateDiffSize: 1 << 40}})
	deps := chain.BlockBuilderDeps{
		Provider:   provider,
		Converter:  fixtures.ToyConverter{},
		BaseReader: state.NewMapReader(state.NewStateMaps()),
		SingleTx:   fixtures.ToyExecutor{},
		Bouncer:    b,
		ExtractResources: func(tx executor.ExecutableTransaction, info *executor.ExecInfo) (executor.TxSummary, executor.TxResources) {
			return nil, bouncer.TxAccounting{Weights: bouncer.Weights{Steps: 1}}
		},
	}
	return chain.NewBlockBuilder(cfg, deps, nil)
}

func TestBuildBlockEmptyChunk(t *testing.T) {
	require := require.New(t)
	provider := &fixtures.ToyProvider{}
	b := newBuilder(t, provider, 100)

	artifacts, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(time.Minute),
		FailOnErr: true,
	})
	require.NoError(err)
	require.Empty(artifacts.ExecutionData.ExecutionInfos)
	require.Empty(artifacts.ExecutionData.RejectedTxHashes)
	require.Zero(artifacts.L2GasUsed)
}

func TestBuildBlockSingleTxSuccess(t *testing.T) {
	require := require.New(t)
	provider := &fixtures.ToyProvider{
		Batches: [][]*fixtures.ToyTx{
			{{Hash: "t0", WriteKey: "K", WriteValue: state.Value{1}, L2Gas: 5}},
		},
	}
	b := newBuilder(t, provider, 100)

	artifacts, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(time.Minute),
		FailOnErr: true,
	})
	require.NoError(err)
	require.Contains(artifacts.ExecutionData.ExecutionInfos, "t0")
	require.Equal(uint64(5), artifacts.L2GasUsed)
	v, ok := artifacts.CommitmentStateDiff.Get(state.DomainStorage, "K")
	require.True(ok)
	require.Equal(state.Value{1}, v)
}

func TestBuildBlockBouncerFullPermissive(t *testing.T) {
	require := require.New(t)
	batch := make([]*fixtures.ToyTx, 5)
	for i := range batch {
		batch[i] = &fixtures.ToyTx{Hash: string(rune('a' + i)), WriteKey: state.Key(string(rune('a' + i))), WriteValue: state.Value{1}}
	}
	provider := &fixtures.ToyProvider{Batches: [][]*fixtures.ToyTx{batch}}
	b := newBuilder(t, provider, 3)

	artifacts, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(time.Minute),
		FailOnErr: false,
	})
	require.NoError(err)
	require.Len(artifacts.ExecutionData.ExecutionInfos, 3)
}

func TestBuildBlockBouncerFullStrict(t *testing.T) {
	require := require.New(t)
	batch := make([]*fixtures.ToyTx, 5)
	for i := range batch {
		batch[i] = &fixtures.ToyTx{Hash: string(rune('a' + i)), WriteKey: state.Key(string(rune('a' + i))), WriteValue: state.Value{1}}
	}
	provider := &fixtures.ToyProvider{Batches: [][]*fixtures.ToyTx{batch}}
	b := newBuilder(t, provider, 3)

	_, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(time.Minute),
		FailOnErr: true,
	})
	var failErr *chain.FailOnErrorError
	require.ErrorAs(err, &failErr)
	require.Equal(chain.CauseBlockFull, failErr.Cause)
}

func TestBuildBlockDeadlineHitPermissive(t *testing.T) {
	require := require.New(t)
	provider := &fixtures.ToyProvider{
		Batches: [][]*fixtures.ToyTx{
			{{Hash: "t0", WriteKey: "K", WriteValue: state.Value{1}}},
			{{Hash: "t1", WriteKey: "K2", WriteValue: state.Value{2}}},
		},
	}
	b := newBuilder(t, provider, 100)

	artifacts, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(-time.Second), // already past
		FailOnErr: false,
	})
	require.NoError(err)
	require.Empty(artifacts.ExecutionData.ExecutionInfos)
}

func TestBuildBlockDeadlineHitStrict(t *testing.T) {
	require := require.New(t)
	provider := &fixtures.ToyProvider{}
	b := newBuilder(t, provider, 100)

	_, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(-time.Second),
		FailOnErr: true,
	})
	var failErr *chain.FailOnErrorError
	require.ErrorAs(err, &failErr)
	require.Equal(chain.CauseDeadlineReached, failErr.Cause)
}

func TestBuildBlockTransactionFailedStrict(t *testing.T) {
	require := require.New(t)
	provider := &fixtures.ToyProvider{
		Batches: [][]*fixtures.ToyTx{
			{{Hash: "t0", ShouldFail: true}},
		},
	}
	b := newBuilder(t, provider, 100)

	_, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(time.Minute),
		FailOnErr: true,
	})
	var failErr *chain.FailOnErrorError
	require.ErrorAs(err, &failErr)
	require.Equal(chain.CauseTransactionFailed, failErr.Cause)
}

func TestBuildBlockTransactionFailedPermissive(t *testing.T) {
	require := require.New(t)
	provider := &fixtures.ToyProvider{
		Batches: [][]*fixtures.ToyTx{
			{{Hash: "t0", ShouldFail: true}},
		},
	}
	b := newBuilder(t, provider, 100)

	artifacts, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(time.Minute),
		FailOnErr: false,
	})
	require.NoError(err)
	require.Contains(artifacts.ExecutionData.RejectedTxHashes, "t0")
}

func TestBuildBlockRetriesAfterEmptyBatch(t *testing.T) {
	require := require.New(t)
	provider := &fixtures.ToyProvider{
		EmitEmptyOnce: true,
		Batches: [][]*fixtures.ToyTx{
			{{Hash: "t0", WriteKey: "K", WriteValue: state.Value{1}}},
		},
	}
	b := newBuilder(t, provider, 100)

	artifacts, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(time.Minute),
		FailOnErr: true,
	})
	require.NoError(err)
	require.Contains(artifacts.ExecutionData.ExecutionInfos, "t0")
}

func TestBuildBlockAbortSignal(t *testing.T) {
	require := require.New(t)
	provider := &fixtures.ToyProvider{Batches: [][]*fixtures.ToyTx{{{Hash: "t0"}}}}
	abortCh := make(chan struct{})
	close(abortCh)

	cfg := chain.DefaultBlockBuilderConfig()
	cfg.EmptyBatchSleep = 10 * time.Millisecond
	deps := chain.BlockBuilderDeps{
		Provider:     provider,
		Converter:    fixtures.ToyConverter{},
		AbortChannel: abortCh,
		BaseReader:   state.NewMapReader(state.NewStateMaps()),
		SingleTx:     fixtures.ToyExecutor{},
		Bouncer:      bouncer.New(bouncer.Config{MaxWeights: bouncer.Weights{Steps: 100}}),
	}
	b := chain.NewBlockBuilder(cfg, deps, nil)

	_, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(time.Minute),
		FailOnErr: true,
	})
	require.ErrorIs(err, chain.ErrAborted)
}

func TestBlockBuilderFactoryBuildsUsableBuilder(t *testing.T) {
	require := require.New(t)
	cfg := chain.DefaultBlockBuilderConfig()
	cfg.EmptyBatchSleep = 10 * time.Millisecond
	factory := chain.NewBlockBuilderFactory(cfg, nil, chain.NewClassCacheMetrics(nil))

	provider := &fixtures.ToyProvider{
		Batches: [][]*fixtures.ToyTx{{{Hash: "t0", WriteKey: "K", WriteValue: state.Value{9}}}},
	}
	b := factory.New(chain.BlockBuilderDeps{
		Provider:   provider,
		Converter:  fixtures.ToyConverter{},
		BaseReader: state.NewMapReader(state.NewStateMaps()),
		SingleTx:   fixtures.ToyExecutor{},
		Bouncer:    bouncer.New(bouncer.Config{MaxWeights: bouncer.Weights{Steps: 100, StateDiffSize: 100}}),
	})

	artifacts, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(time.Minute),
		FailOnErr: true,
	})
	require.NoError(err)
	require.Contains(artifacts.ExecutionData.ExecutionInfos, "t0")
}

func TestBuildBlockRequestsConfiguredChunkSize(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockTransactionProvider(ctrl)
	provider.EXPECT().GetTxs(gomock.Any(), 7).Return(chain.NextTxs{Kind: chain.NextTxsEnd}, nil)

	cfg := chain.DefaultBlockBuilderConfig()
	cfg.TxChunkSize = 7
	deps := chain.BlockBuilderDeps{
		Provider:   provider,
		Converter:  fixtures.ToyConverter{},
		BaseReader: state.NewMapReader(state.NewStateMaps()),
		SingleTx:   fixtures.ToyExecutor{},
		Bouncer:    bouncer.New(bouncer.Config{MaxWeights: bouncer.Weights{Steps: 100}}),
	}
	b := chain.NewBlockBuilder(cfg, deps, nil)

	artifacts, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(time.Minute),
		FailOnErr: true,
	})
	require.NoError(err)
	require.Empty(artifacts.ExecutionData.ExecutionInfos)
}

// alwaysEmptyProvider never ends and never yields a tx, used to hold a
// BuildBlock call in its empty-batch sleep window long enough to observe
// ErrEngineBusy from a concurrent call.
type alwaysEmptyProvider struct{}

func (alwaysEmptyProvider) GetTxs(ctx context.Context, n int) (chain.NextTxs, error) {
	return chain.NextTxs{Kind: chain.NextTxsBatch}, nil
}

func TestBuildBlockBusyIsRejected(t *testing.T) {
	require := require.New(t)
	cfg := chain.DefaultBlockBuilderConfig()
	cfg.EmptyBatchSleep = 200 * time.Millisecond
	deps := chain.BlockBuilderDeps{
		Provider:   alwaysEmptyProvider{},
		Converter:  fixtures.ToyConverter{},
		BaseReader: state.NewMapReader(state.NewStateMaps()),
		SingleTx:   fixtures.ToyExecutor{},
		Bouncer:    bouncer.New(bouncer.Config{MaxWeights: bouncer.Weights{Steps: 100}}),
	}
	b := chain.NewBlockBuilder(cfg, deps, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = b.BuildBlock(ctx, chain.BlockBuilderExecutionParams{
			Deadline: time.Now().Add(time.Minute),
		})
	}()

	time.Sleep(10 * time.Millisecond)
	_, err := b.BuildBlock(context.Background(), chain.BlockBuilderExecutionParams{
		Deadline: time.Now().Add(time.Minute),
	})
	require.ErrorIs(err, chain.ErrEngineBusy)
	cancel()
	<-done
}
