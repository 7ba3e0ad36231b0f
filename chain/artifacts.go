// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/sequencerlabs/parallex/executor"
	"github.com/sequencerlabs/parallex/state"
)

// BlockTransactionExecutionData accumulates per-tx bookkeeping across a
// BuildBlock run. L1-handler transactions have different downstream
// finality rules, so AcceptedL1HandlerTxHashes tracks them separately
// from ordinary accepted transactions.
type BlockTransactionExecutionData struct {
	ExecutionInfos           map[string]*executor.ExecInfo
	ExecutionOrder           []string // tx hashes in index/commit order
	RejectedTxHashes         map[string]struct{}
	AcceptedL1HandlerTxHashes map[string]struct{}
}

func newBlockTransactionExecutionData() *BlockTransactionExecutionData {
	return &BlockTransactionExecutionData{
		ExecutionInfos:            make(map[string]*executor.ExecInfo),
		RejectedTxHashes:          make(map[string]struct{}),
		AcceptedL1HandlerTxHashes: make(map[string]struct{}),
	}
}

// BlockExecutionArtifacts is produced when a block closes: the ordered
// ExecInfo per accepted tx, the rejected set, the commitment state diff,
// optional compressed diff, bouncer weights, and total L2 gas used.
type BlockExecutionArtifacts struct {
	ExecutionData       *BlockTransactionExecutionData
	CommitmentStateDiff *state.StateMaps
	CompressedStateDiff *state.StateMaps
	BouncerWeights      any
	L2GasUsed           uint64
}

// TxHashes returns the accepted tx hashes in execution order.
func (a *BlockExecutionArtifacts) TxHashes() []string {
	return append([]string(nil), a.ExecutionData.ExecutionOrder...)
}

// ThinStateDiff returns the commitment state diff.
func (a *BlockExecutionArtifacts) ThinStateDiff() *state.StateMaps {
	return a.CommitmentStateDiff
}
