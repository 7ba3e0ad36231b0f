// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"sync"
	"sync/atomic"
)

// Scheduler assigns Execute/Validate/Commit/Done tasks, maintains the
// execution/validation indices, and enforces strict commit order. It
// follows the Block-STM family of execute/validate/commit schedulers: a
// goroutine pool pulling tasks from shared atomic counters rather than a
// conflict graph built up front.
//
// All counters that are read far more often than written
// (executionIndex, validationIndex) are plain atomics; commitIndex and
// doneMarker share a short critical section, since they change together
// and are read far less often on the hot path.
type Scheduler struct {
	chunkLen int

	executionIndex  atomic.Int64
	validationIndex atomic.Int64
	decreaseCounter atomic.Int64

	mu         sync.Mutex
	commitIndex int
	done        bool
	halted      bool

	states []atomic.Int32 // per-index txState

	committerTaken atomic.Bool
}

// NewScheduler creates a Scheduler for a chunk of length chunkLen.
func NewScheduler(chunkLen int) *Scheduler {
	s := &Scheduler{
		chunkLen: chunkLen,
		states:   make([]atomic.Int32, chunkLen),
	}
	return s
}

func (s *Scheduler) stateOf(i int) txState {
	return txState(s.states[i].Load())
}

func (s *Scheduler) setState(i int, st txState) {
	s.states[i].Store(int32(st))
}

func (s *Scheduler) casState(i int, from, to txState) bool {
	return s.states[i].CompareAndSwap(int32(from), int32(to))
}

// NextTask implements the next-task priority policy:
//  1. If validation_index < execution_index and that tx is Executed,
//     return ValidationTask and advance validation_index.
//  2. Else if execution_index < chunk_len, return ExecutionTask and
//     advance execution_index.
//  3. Else if commit_index has reached chunk_len, Done.
//  4. Otherwise NoTaskAvailable.
func (s *Scheduler) NextTask() Task {
	if s.isDone() {
		return Task{Kind: KindDone}
	}

	vi := int(s.validationIndex.Load())
	ei := int(s.executionIndex.Load())
	if vi < ei && s.stateOf(vi) == executed {
		// Claim vi for validation; retry on contention since multiple
		// workers may race to read the same validationIndex snapshot.
		if s.validationIndex.CompareAndSwap(int64(vi), int64(vi+1)) {
			s.setState(vi, validating)
			return Task{Kind: KindValidate, Index: vi}
		}
		return Task{Kind: KindNoTaskAvailable}
	}

	if ei < s.chunkLen {
		if s.executionIndex.CompareAndSwap(int64(ei), int64(ei+1)) {
			s.setState(ei, executing)
			return Task{Kind: KindExecute, Index: ei}
		}
		return Task{Kind: KindNoTaskAvailable}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitIndex >= s.chunkLen || s.halted {
		s.done = true
		return Task{Kind: KindDone}
	}
	return Task{Kind: KindNoTaskAvailable}
}

func (s *Scheduler) isDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// FinishExecution transitions i from Executing to Executed, called after
// execute_tx has stored its output.
func (s *Scheduler) FinishExecution(i int) {
	s.setState(i, executed)
}

// FinishExecutionDuringCommit is FinishExecution's counterpart for the
// synchronous re-execution performed inside commit_tx when a stale read
// is detected.
func (s *Scheduler) FinishExecutionDuringCommit(i int) {
	s.setState(i, executed)
}

// TryValidationAbort succeeds if tx i is currently Executed, Validating,
// or Validated; on success it rewinds validation_index to i and
// execution_index to at most i+1 and marks i Aborting (FinishAbort then
// moves it to ReadyToExecute), the abort/re-execute protocol for repairing
// a tx whose reads were invalidated by a later write. Validating is the
// state validate(i) actually observes when it calls this after
// ValidateReads fails, since NextTask moves a tx to Validating the moment
// it hands out the validation task.
func (s *Scheduler) TryValidationAbort(i int) bool {
	for {
		cur := s.stateOf(i)
		if cur != executed && cur != validating && cur != validated {
			return false
		}
		if s.casState(i, cur, aborting) {
			break
		}
	}

	for {
		vi := s.validationIndex.Load()
		if vi <= int64(i) || s.validationIndex.CompareAndSwap(vi, int64(i)) {
			break
		}
	}
	for {
		ei := s.executionIndex.Load()
		if ei <= int64(i+1) || s.executionIndex.CompareAndSwap(ei, int64(i+1)) {
			break
		}
	}
	s.decreaseCounter.Add(1)
	return true
}

// FinishAbort transitions i from Aborting to ReadyToExecute. NextTask does
// not hand i out again (execution_index stays above i); the worker that
// aborted i re-executes it.
func (s *Scheduler) FinishAbort(i int) {
	s.setState(i, readyToExecute)
}

// FinishValidation transitions i from Validating to Validated, called by
// validate(i) when the read set still holds.
func (s *Scheduler) FinishValidation(i int) {
	s.casState(i, validating, validated)
}

// Committer is the capability token returned by TryEnterCommitPhase: at
// most one is outstanding at any time.
type Committer struct {
	s *Scheduler
}

// TryEnterCommitPhase returns a Committer handle to at most one worker at
// a time. A second caller while one is outstanding gets ok=false.
func (s *Scheduler) TryEnterCommitPhase() (*Committer, bool) {
	if !s.committerTaken.CompareAndSwap(false, true) {
		return nil, false
	}
	return &Committer{s: s}, true
}

// Release gives up the committer token, allowing another worker to enter
// the commit phase.
func (c *Committer) Release() {
	c.s.committerTaken.Store(false)
}

// TryCommit yields the next commit_index when the tx at that index has
// passed validation (state Executed or Validated — FinishValidation
// leaves a successfully-validated tx in Validated, never back in
// Executed) and validation has reached past it; otherwise it returns
// ok=false. This is the only path that advances commit_index, and it
// does so strictly in order.
func (c *Committer) TryCommit() (int, bool) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted || s.commitIndex >= s.chunkLen {
		return 0, false
	}
	i := s.commitIndex
	st := s.stateOf(i)
	if st != executed && st != validated {
		return 0, false
	}
	if int(s.validationIndex.Load()) <= i {
		return 0, false
	}
	return i, true
}

// AdvanceCommit marks index i committed and bumps commit_index. Must only
// be called by the Committer holding the token, after TryCommit returned i.
func (c *Committer) AdvanceCommit(i int) {
	s := c.s
	s.setState(i, committed)
	s.mu.Lock()
	s.commitIndex = i + 1
	if s.commitIndex >= s.chunkLen {
		s.done = true
	}
	s.mu.Unlock()
}

// HaltScheduler transitions global state to Done, used when the block
// becomes full. All future NextTask calls return Done.
func (s *Scheduler) HaltScheduler() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = true
	s.done = true
}

// CommitIndex returns the current commit_index (lowest index not yet
// committed) — exported for tests and for the facade's close_block.
func (s *Scheduler) CommitIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitIndex
}

// Halted reports whether the scheduler was halted (e.g. by a BlockFull
// bouncer response) rather than completing all chunkLen commits.
func (s *Scheduler) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}
