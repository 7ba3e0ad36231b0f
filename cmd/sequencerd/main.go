// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command sequencerd wires the engine's pieces — a pebble-backed base
// reader, a Bouncer, and a BlockBuilder driven by toy external
// collaborators — into a runnable demo that builds one block end to end.
// It exists to exercise the engine, not to model a real sequencer:
// transaction semantics are provided by internal/fixtures and are not a
// claim about any real execution layer.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sequencerlabs/parallex/bouncer"
	"github.com/sequencerlabs/parallex/chain"
	"github.com/sequencerlabs/parallex/executor"
	"github.com/sequencerlabs/parallex/internal/fixtures"
	"github.com/sequencerlabs/parallex/state"
	"github.com/sequencerlabs/parallex/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sequencerd:", err)
		os.Exit(1)
	}
}

func run() error {
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	dir, err := os.MkdirTemp("", "sequencerd-demo-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	base, err := store.Open(dir)
	if err != nil {
		return err
	}
	defer base.Close()

	reg := prometheus.NewRegistry()
	metrics := executor.NewPrometheusMetrics(reg)
	cacheStats := chain.NewClassCacheMetrics(reg)

	b := bouncer.New(bouncer.Config{
		MaxWeights: bouncer.Weights{Steps: 1000, L2Gas: 1_000_000, StateDiffSize: 10_000},
	})

	provider := &fixtures.ToyProvider{
		Batches: [][]*fixtures.ToyTx{
			{
				{Hash: "demo-tx-0", WriteKey: "balance:alice", WriteValue: state.Value{100}, L2Gas: 21000},
				{Hash: "demo-tx-1", ReadKey: "balance:alice", WriteKey: "balance:bob", WriteValue: state.Value{50}, L2Gas: 21000},
			},
		},
	}

	cfg := chain.DefaultBlockBuilderConfig()
	cfg.TxChunkSize = 2
	cfg.FailOnErr = true

	factory := chain.NewBlockBuilderFactory(cfg, log, cacheStats)
	builder := factory.New(chain.BlockBuilderDeps{
		Provider:   provider,
		Converter:  fixtures.ToyConverter{},
		BaseReader: base,
		SingleTx:   fixtures.ToyExecutor{},
		Bouncer:    b,
		Metrics:    metrics,
		ExtractResources: func(tx executor.ExecutableTransaction, info *executor.ExecInfo) (executor.TxSummary, executor.TxResources) {
			return nil, bouncer.TxAccounting{Weights: bouncer.Weights{Steps: 1, L2Gas: info.L2GasUsed}}
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	artifacts, err := builder.BuildBlock(ctx, chain.BlockBuilderExecutionParams{
		Deadline:  time.Now().Add(5 * time.Second),
		FailOnErr: cfg.FailOnErr,
	})
	if err != nil {
		return err
	}

	log.Info("block built",
		zap.Int("accepted", len(artifacts.ExecutionData.ExecutionInfos)),
		zap.Uint64("l2_gas_used", artifacts.L2GasUsed),
	)

	return base.CommitDiff(artifacts.CommitmentStateDiff)
}
