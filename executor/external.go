// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"

	"github.com/sequencerlabs/parallex/state"
)

// ExecutableTransaction is the executable form of a transaction, already
// converted by the external Transaction Converter. The engine treats it
// as opaque beyond what SingleTxExecutor needs.
type ExecutableTransaction interface {
	// TxHash is used to key execution_infos/rejected_tx_hashes at the
	// block-builder layer, and as a stable identity for tests.
	TxHash() string
}

// BlockContext is opaque block-level context (timestamps, gas prices,
// chain id, ...) threaded through to the single-tx executor. The engine
// never inspects it.
type BlockContext any

// TransactionalState is the per-tx overlay a SingleTxExecutor reads and
// writes through. It is backed by a state.VersionView pinned at the tx's
// index; the engine supplies an implementation, the external executor
// only calls it.
type TransactionalState interface {
	Read(domain state.Domain, key state.Key) (state.Value, error)
	Write(domain state.Domain, key state.Key, value state.Value)
}

// ConcurrencyMode tells the single-tx executor whether it is running
// speculatively (concurrent with other tx executions against the same
// chunk) or serially. The worker executor passes ConcurrencyModeSpeculative
// for every execution, including the synchronous re-execution during
// commit; it never passes ConcurrencyModeSerial.
type ConcurrencyMode int

const (
	ConcurrencyModeSpeculative ConcurrencyMode = iota
	ConcurrencyModeSerial
)

// SingleTxExecutor is the external collaborator that knows how to mutate
// state given a pre-state. Implementations must be safe to call from
// multiple goroutines on disjoint TransactionalState overlays. Real
// transaction semantics are explicitly out of scope for this engine —
// internal/fixtures provides a toy implementation for tests and the demo
// binary only.
type SingleTxExecutor interface {
	Execute(ctx context.Context, tx ExecutableTransaction, txState TransactionalState, blockCtx BlockContext, mode ConcurrencyMode) (*ExecInfo, error)
}

// TxSummary and TxResources are opaque payloads handed to the Bouncer,
// produced alongside a successful ExecInfo. The engine never inspects
// them; fee/gas-accounting rules are out of scope for the engine.
type TxSummary any
type TxResources any

// Bouncer is the external capacity accountant: accepts or rejects a
// committed tx against block resource limits. bouncer.Bouncer is the
// reference implementation.
type Bouncer interface {
	TryUpdate(stateChangeKeys []state.Key, summary TxSummary, resources TxResources) error
}

// PostCommitHook is the "complete fee-transfer" hook: invoked once a
// committed tx has cleared the bouncer, it may mutate the write set and
// versioned state at i without triggering a re-validation cascade. The
// fee/gas semantics it implements are out of scope; the hook point and
// its no-cascade contract are what the engine guarantees.
type PostCommitHook func(ctx context.Context, view *state.VersionView, writes *state.StateMaps, tx ExecutableTransaction, info *ExecInfo) error
