// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchedulerNextTaskPrioritizesValidation(t *testing.T) {
	require := require.New(t)
	s := NewScheduler(3)

	task := s.NextTask()
	require.Equal(KindExecute, task.Kind)
	require.Equal(0, task.Index)

	s.FinishExecution(0)

	task = s.NextTask()
	require.Equal(KindValidate, task.Kind)
	require.Equal(0, task.Index)
}

func TestSchedulerDoneWhenAllCommitted(t *testing.T) {
	require := require.New(t)
	s := NewScheduler(1)

	task := s.NextTask()
	require.Equal(KindExecute, task.Kind)
	s.FinishExecution(0)

	task = s.NextTask()
	require.Equal(KindValidate, task.Kind)
	s.FinishValidation(0)

	c, ok := s.TryEnterCommitPhase()
	require.True(ok)
	i, ok := c.TryCommit()
	require.True(ok)
	require.Equal(0, i)
	c.AdvanceCommit(0)
	c.Release()

	task = s.NextTask()
	require.Equal(KindDone, task.Kind)
}

func TestSchedulerAbortRewindsIndices(t *testing.T) {
	require := require.New(t)
	s := NewScheduler(2)

	s.NextTask() // executes 0
	s.FinishExecution(0)
	s.NextTask() // validates 0
	s.FinishValidation(0)
	s.NextTask() // executes 1
	s.FinishExecution(1)
	s.NextTask() // validates 1

	require.True(s.TryValidationAbort(1))
	require.Equal(int64(1), s.validationIndex.Load())
	s.FinishAbort(1)
	require.Equal(readyToExecute, s.stateOf(1))
}

func TestCommitterTokenExclusive(t *testing.T) {
	require := require.New(t)
	s := NewScheduler(1)
	c1, ok := s.TryEnterCommitPhase()
	require.True(ok)
	_, ok = s.TryEnterCommitPhase()
	require.False(ok)
	c1.Release()
	_, ok = s.TryEnterCommitPhase()
	require.True(ok)
}
