// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain implements the block builder outer loop: it pulls
// transaction chunks from an external provider, converts them, drives
// them through executor.TransactionExecutor, and streams accepted
// transactions subject to a deadline and an abort signal.
package chain

import (
	"context"
	"time"

	"github.com/sequencerlabs/parallex/executor"
)

// Tx is the external (pre-conversion) transaction type the Transaction
// Provider hands to the builder. It is opaque beyond a stable hash used
// for logging/rejection tracking.
type Tx interface {
	TxHash() string
}

// NextTxsKind distinguishes the shapes a provider response can take: a
// batch of transactions, or an End-of-sequence signal. A batch of length
// zero is distinct from End and triggers the short sleep-and-retry path.
type NextTxsKind int

const (
	NextTxsBatch NextTxsKind = iota
	NextTxsEnd
)

// NextTxs is the sum type returned by TransactionProvider.GetTxs.
type NextTxs struct {
	Kind NextTxsKind
	Txs  []Tx
}

// TransactionProvider is the external, async, lazy finite sequence of
// transactions.
type TransactionProvider interface {
	GetTxs(ctx context.Context, n int) (NextTxs, error)
}

// TransactionConverter turns an external Tx into its executable form,
// possibly consulting a class registry.
type TransactionConverter interface {
	ToExecutable(ctx context.Context, tx Tx) (executor.ExecutableTransaction, error)
}

// OutputStream is the optional unbounded channel receiving each accepted
// input tx in commit order. A nil stream means "no one is listening" and
// is always safe to use.
type OutputStream chan<- Tx

// AbortChannel is a oneshot, write-once cancellation signal: when closed,
// the builder must return Aborted at the next poll. A standard Go
// channel closed exactly once by the caller satisfies this.
type AbortChannel <-chan struct{}

// Clock abstracts wall-clock time for deadline comparison, so tests can
// control it deterministically. Only used for deadline comparison, never
// for ordering or causality.
type Clock func() time.Time
