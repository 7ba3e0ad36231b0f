// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"
	"fmt"
)

// FailOnErrorCause distinguishes the three strict-mode failure causes:
// BlockFull, DeadlineReached, TransactionFailed. These are surfaced as
// errors only under strict (fail_on_err) mode; under permissive mode
// they are swallowed and reflected in the artifacts instead.
type FailOnErrorCause int

const (
	CauseBlockFull FailOnErrorCause = iota
	CauseDeadlineReached
	CauseTransactionFailed
)

func (c FailOnErrorCause) String() string {
	switch c {
	case CauseBlockFull:
		return "BlockFull"
	case CauseDeadlineReached:
		return "DeadlineReached"
	case CauseTransactionFailed:
		return "TransactionFailed"
	default:
		return "Unknown"
	}
}

// FailOnErrorError wraps a FailOnErrorCause, returned by BuildBlock in
// strict mode.
type FailOnErrorError struct {
	Cause FailOnErrorCause
	Inner error
}

func (e *FailOnErrorError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("chain: %s: %v", e.Cause, e.Inner)
	}
	return fmt.Sprintf("chain: %s", e.Cause)
}

func (e *FailOnErrorError) Unwrap() error { return e.Inner }

var (
	// ErrAborted is returned, always fatal, when the abort signal fires
	// during BuildBlock.
	ErrAborted = errors.New("chain: aborted")

	// ErrEngineBusy is the typed error returned instead of panicking or
	// blocking when a caller starts a second concurrent BuildBlock call on
	// the same builder.
	ErrEngineBusy = errors.New("chain: block builder already in use")

	// ErrConverter / ErrProvider wrap failures from the respective
	// external collaborators. These are surfaced to the caller and the
	// block is aborted regardless of strict/permissive mode.
	ErrConverter = errors.New("chain: transaction converter failed")
	ErrProvider  = errors.New("chain: transaction provider failed")
)
