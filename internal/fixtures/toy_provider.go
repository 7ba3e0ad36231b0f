// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixtures

import (
	"context"

	"github.com/sequencerlabs/parallex/chain"
	"github.com/sequencerlabs/parallex/executor"
)

// ToyProvider is a minimal TransactionProvider backed by a fixed,
// pre-batched slice of ToyTx. It supports injecting one empty-batch
// response to exercise BlockBuilder's empty-batch sleep-and-retry path.
type ToyProvider struct {
	Batches       [][]*ToyTx
	EmptyBefore   int  // return one empty batch before consuming batch index EmptyBefore
	EmitEmptyOnce bool // if true, EmptyBefore applies even at index 0
	pos           int
	emptySent     bool
}

func (p *ToyProvider) GetTxs(ctx context.Context, n int) (chain.NextTxs, error) {
	if (p.EmptyBefore > 0 || p.EmitEmptyOnce) && p.pos == p.EmptyBefore && !p.emptySent {
		p.emptySent = true
		return chain.NextTxs{Kind: chain.NextTxsBatch, Txs: nil}, nil
	}
	if p.pos >= len(p.Batches) {
		return chain.NextTxs{Kind: chain.NextTxsEnd}, nil
	}
	batch := p.Batches[p.pos]
	p.pos++
	txs := make([]chain.Tx, len(batch))
	for i, t := range batch {
		txs[i] = t
	}
	return chain.NextTxs{Kind: chain.NextTxsBatch, Txs: txs}, nil
}

// ToyConverter trivially converts a chain.Tx back to its underlying
// *ToyTx, which is already an executor.ExecutableTransaction. A real
// TransactionConverter may do I/O; this fixture does not.
type ToyConverter struct{}

func (ToyConverter) ToExecutable(ctx context.Context, tx chain.Tx) (executor.ExecutableTransaction, error) {
	return tx.(*ToyTx), nil
}
