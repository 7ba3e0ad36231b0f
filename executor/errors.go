// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import "errors"

var (
	// ErrBlockFull is returned by a Bouncer (or wrapped by the worker
	// executor on the bouncer's behalf) when a committed tx would exceed
	// the block's resource budget. The caller halts the scheduler and
	// truncates the result vector before the offending tx.
	ErrBlockFull = errors.New("executor: block full")

	// ErrFatalBouncer indicates the bouncer rejected a tx for a reason
	// other than capacity — an implementation bug rather than a
	// recoverable capacity signal.
	ErrFatalBouncer = errors.New("executor: fatal bouncer error")

	// ErrClosedTwice is returned by CloseBlock when called a second time:
	// close_block is fatal-on-repeat rather than silently redoing work.
	ErrClosedTwice = errors.New("executor: block already closed")

	// ErrStaleReadSanityCheck indicates that, after commit_tx re-executed
	// a tx to repair a stale read, the fresh reads still failed to
	// validate — a sanity-check failure. Surfacing it as an error rather
	// than panicking lets callers report the implementation bug without
	// crashing the process.
	ErrStaleReadSanityCheck = errors.New("executor: re-executed tx still fails validation")
)
