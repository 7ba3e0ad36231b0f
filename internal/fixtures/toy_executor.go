// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixtures provides minimal stand-ins for the engine's external
// collaborators (single-tx executor, transaction provider/converter) used
// by tests and by cmd/sequencerd's demo wiring. None of
// these claim to model real transaction or fee semantics — those remain
// out of scope for the engine itself.
package fixtures

import (
	"context"
	"errors"
	"fmt"

	"github.com/sequencerlabs/parallex/executor"
	"github.com/sequencerlabs/parallex/state"
)

// ErrToyTxFailed is returned by ToyExecutor for a transaction explicitly
// marked to fail, used to exercise the engine's failure-handling paths.
var ErrToyTxFailed = errors.New("fixtures: tx marked to fail")

// ToyTx is a trivial ExecutableTransaction: optionally read a key, then
// write a fixed value; the value read does not affect what is written.
// This is a stand-in for real transaction semantics, which stay out of
// scope for the engine itself.
type ToyTx struct {
	Hash        string
	ReadKey     state.Key
	WriteKey    state.Key
	WriteValue  state.Value
	L2Gas       uint64
	ShouldFail  bool
	IsL1Handler bool
}

func (t *ToyTx) TxHash() string { return t.Hash }

// ToyExecutor is a minimal SingleTxExecutor: it reads ReadKey (purely to
// populate the read set so conflicts are observable), then writes
// WriteValue to WriteKey, unless ShouldFail is set.
type ToyExecutor struct{}

func (ToyExecutor) Execute(ctx context.Context, tx executor.ExecutableTransaction, txState executor.TransactionalState, blockCtx executor.BlockContext, mode executor.ConcurrencyMode) (*executor.ExecInfo, error) {
	t, ok := tx.(*ToyTx)
	if !ok {
		return nil, fmt.Errorf("fixtures: unexpected tx type %T", tx)
	}
	if t.ReadKey != "" {
		if _, err := txState.Read(state.DomainStorage, t.ReadKey); err != nil {
			return nil, err
		}
	}
	if t.ShouldFail {
		return nil, ErrToyTxFailed
	}
	if t.WriteKey != "" {
		txState.Write(state.DomainStorage, t.WriteKey, t.WriteValue)
	}
	return &executor.ExecInfo{L2GasUsed: t.L2Gas}, nil
}
