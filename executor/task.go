// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import "github.com/sequencerlabs/parallex/state"

// ExecInfo is the external single-tx executor's success payload — opaque
// to the engine beyond what close_block needs to account for (L2 gas
// used). Real transaction semantics are out of scope; the engine only
// threads this value through.
type ExecInfo struct {
	L2GasUsed uint64
	// Payload carries whatever the external single-tx executor wants to
	// hand back to its caller (a receipt, events, return data — the
	// engine never inspects it).
	Payload any
}

// TxResult is one slot of an ExecutionTaskOutput: either a successful
// ExecInfo, or a failure, for one TxIndex.
type TxResult struct {
	Index int
	Info  *ExecInfo
	Err   error
}

// executionOutput is the full per-index output slot: reads, tentative
// writes, contract classes, and the disposition.
type executionOutput struct {
	reads   state.ReadSet
	writes  *state.StateMaps
	classes *state.StateMaps
	info    *ExecInfo
	err     error

	incarnation int // bumped on every re-execution, for diagnostics/tests
}

// txState is the per-index state machine:
// ReadyToExecute -> Executing -> Executed -> (Aborting -> ReadyToExecute) |
// Validating -> Validated -> Committed.
type txState int32

const (
	readyToExecute txState = iota
	executing
	executed
	aborting
	validating
	validated
	committed
)

// TaskKind is the kind of work the scheduler hands to a worker.
type TaskKind int

const (
	KindExecute TaskKind = iota
	KindValidate
	KindNoTaskAvailable
	KindDone
)

// Task is what Scheduler.NextTask returns to a worker: either an
// ExecutionTask(i), a ValidationTask(i), NoTaskAvailable, or Done.
type Task struct {
	Kind  TaskKind
	Index int
}
