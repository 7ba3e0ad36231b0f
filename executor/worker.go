// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sequencerlabs/parallex/state"
)

// noTaskSleep is the brief backoff used only when NoTaskAvailable is
// returned — workers never suspend on external I/O.
const noTaskSleep = 5 * time.Microsecond

// outputSlot is a per-index, exclusively-locked ExecutionTaskOutput slot,
// taken by the owning executor and by the committer.
type outputSlot struct {
	mu  sync.Mutex
	out *executionOutput
}

// WorkerExecutor is the multi-threaded loop: it asks the scheduler for
// tasks, executes/validates single transactions against the versioned
// state, and drives the commit protocol with the bouncer.
type WorkerExecutor struct {
	log *zap.Logger

	scheduler *Scheduler
	vs        *state.VersionedState
	chunk     []ExecutableTransaction

	singleTx SingleTxExecutor
	bouncer  Bouncer
	blockCtx BlockContext

	postCommit      PostCommitHook
	extractResources func(ExecutableTransaction, *ExecInfo) (TxSummary, TxResources)

	metrics Metrics

	outputs []outputSlot

	resultsMu sync.Mutex
	results   []TxResult

	blockFull bool
}

// WorkerExecutorConfig configures a WorkerExecutor.
type WorkerExecutorConfig struct {
	WorkerPoolSize int
	Metrics        Metrics
	Logger         *zap.Logger
	PostCommit     PostCommitHook
	ExtractResources func(ExecutableTransaction, *ExecInfo) (TxSummary, TxResources)
}

// NewWorkerExecutor constructs a WorkerExecutor bound to a fresh
// VersionedState wrapping base, a shared Scheduler, and chunk.
func NewWorkerExecutor(vs *state.VersionedState, scheduler *Scheduler, chunk []ExecutableTransaction, singleTx SingleTxExecutor, bouncer Bouncer, blockCtx BlockContext, cfg WorkerExecutorConfig) *WorkerExecutor {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	extract := cfg.ExtractResources
	if extract == nil {
		extract = func(ExecutableTransaction, *ExecInfo) (TxSummary, TxResources) { return nil, nil }
	}
	return &WorkerExecutor{
		log:              log,
		scheduler:        scheduler,
		vs:               vs,
		chunk:            chunk,
		singleTx:         singleTx,
		bouncer:          bouncer,
		blockCtx:         blockCtx,
		postCommit:       cfg.PostCommit,
		extractResources: extract,
		metrics:          metrics,
		outputs:          make([]outputSlot, len(chunk)),
	}
}

// Run spawns the configured worker pool and blocks until the scheduler
// reaches Done or a fatal error occurs. It returns ErrBlockFull if the
// bouncer truncated the chunk, ErrFatalBouncer/ErrStaleReadSanityCheck for
// implementation-bug conditions, or the context's error on cancellation.
func (w *WorkerExecutor) Run(ctx context.Context, poolSize int) error {
	if poolSize < 1 {
		poolSize = 1
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	recordErr := func(err error) {
		if err == nil {
			return
		}
		errOnce.Do(func() { firstErr = err })
	}

	wg.Add(poolSize)
	for wIdx := 0; wIdx < poolSize; wIdx++ {
		go func() {
			defer wg.Done()
			if err := w.runWorker(ctx); err != nil {
				recordErr(err)
			}
		}()
	}
	wg.Wait()

	if firstErr != nil && !errors.Is(firstErr, ErrBlockFull) {
		return firstErr
	}
	if w.blockFull {
		return ErrBlockFull
	}
	return nil
}

func (w *WorkerExecutor) runWorker(ctx context.Context) error {
	task := w.scheduler.NextTask()
	for {
		if err := w.commitWhilePossible(ctx); err != nil {
			return err
		}

		switch task.Kind {
		case KindExecute:
			w.executeTx(ctx, task.Index)
			w.scheduler.FinishExecution(task.Index)
			w.metrics.RecordExecuted()
			task = w.scheduler.NextTask()
		case KindValidate:
			if w.validate(task.Index) {
				// NextTask never hands out an index below execution_index,
				// so the worker that aborted i re-executes it itself.
				task = Task{Kind: KindExecute, Index: task.Index}
			} else {
				task = w.scheduler.NextTask()
			}
		case KindNoTaskAvailable:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(noTaskSleep):
			}
			task = w.scheduler.NextTask()
		case KindDone:
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// executeTx pins a version, runs the tx against a fresh transactional
// overlay, applies writes on success or discards them (keeping the read
// set) on failure.
func (w *WorkerExecutor) executeTx(ctx context.Context, i int) {
	view := w.vs.PinVersion(i)
	overlay := newTxOverlay(view)
	tx := w.chunk[i]

	info, err := w.singleTx.Execute(ctx, tx, overlay, w.blockCtx, ConcurrencyModeSpeculative)

	out := &executionOutput{reads: view.ReadSet()}
	if err != nil {
		out.err = err
	} else {
		view.ApplyWrites(overlay.writes)
		out.writes = overlay.writes
		out.classes = state.NewStateMaps()
		out.info = info
	}
	w.storeOutput(i, out)
}

func (w *WorkerExecutor) storeOutput(i int, out *executionOutput) {
	slot := &w.outputs[i]
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.out != nil {
		out.incarnation = slot.out.incarnation + 1
	}
	slot.out = out
}

func (w *WorkerExecutor) loadOutput(i int) *executionOutput {
	slot := &w.outputs[i]
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.out
}

// validate re-checks the stored output's read set for index i; on
// invalidation, abort and reset the tx for re-execution. It reports whether
// it aborted i, in which case the caller re-executes i next.
func (w *WorkerExecutor) validate(i int) bool {
	out := w.loadOutput(i)
	if out == nil {
		return false
	}

	view := w.vs.PinVersion(i)
	if view.ValidateReads(out.reads) {
		w.scheduler.FinishValidation(i)
		return false
	}

	if w.scheduler.TryValidationAbort(i) {
		if out.writes != nil {
			view.DeleteWrites(out.writes)
		}
		w.scheduler.FinishAbort(i)
		w.metrics.RecordAborted()
		w.log.Debug("aborted tx on validation failure", zap.Int("index", i), zap.Int("incarnation", out.incarnation))
		return true
	}
	return false
}

// commitWhilePossible is the worker loop's per-iteration attempt to make
// progress on the commit phase: at most one worker holds the Committer
// token at a time.
func (w *WorkerExecutor) commitWhilePossible(ctx context.Context) error {
	committer, ok := w.scheduler.TryEnterCommitPhase()
	if !ok {
		return nil
	}
	defer committer.Release()

	for {
		i, ok := committer.TryCommit()
		if !ok {
			return nil
		}
		committed, err := w.commitTx(ctx, i)
		if err != nil {
			return err
		}
		if !committed {
			w.blockFull = true
			w.scheduler.HaltScheduler()
			return nil
		}
		committer.AdvanceCommit(i)
		w.metrics.RecordCommitted()
	}
}

// commitTx finalizes tx i and is called only by the unique committer. It
// returns (committed, error): committed is false exactly when the
// bouncer signals BlockFull.
func (w *WorkerExecutor) commitTx(ctx context.Context, i int) (bool, error) {
	view := w.vs.PinVersion(i)
	out := w.loadOutput(i)
	if out == nil {
		return false, errors.New("executor: commit_tx called with no output for index")
	}

	if !view.ValidateReads(out.reads) {
		if out.writes != nil {
			view.DeleteWrites(out.writes)
		}
		w.executeTx(ctx, i)
		w.scheduler.FinishExecutionDuringCommit(i)
		out = w.loadOutput(i)
		if !view.ValidateReads(out.reads) {
			return false, ErrStaleReadSanityCheck
		}
	}

	w.resultsMu.Lock()
	defer w.resultsMu.Unlock()

	if out.err != nil {
		w.results = append(w.results, TxResult{Index: i, Err: out.err})
		return true, nil
	}

	summary, resources := w.extractResources(w.chunk[i], out.info)
	writeKeys := stateDiffKeys(out.writes)
	if err := w.bouncer.TryUpdate(writeKeys, summary, resources); err != nil {
		if errors.Is(err, ErrBlockFull) {
			return false, nil
		}
		return false, ErrFatalBouncer
	}

	if w.postCommit != nil {
		if err := w.postCommit(ctx, view, out.writes, w.chunk[i], out.info); err != nil {
			return false, err
		}
	}

	w.results = append(w.results, TxResult{Index: i, Info: out.info})
	return true, nil
}

func stateDiffKeys(sm *state.StateMaps) []state.Key {
	if sm == nil {
		return nil
	}
	var keys []state.Key
	for d := state.Domain(0); d < state.NumDomains; d++ {
		keys = append(keys, sm.Keys(d)...)
	}
	return keys
}

// Results returns the committed results in commit (= index) order,
// truncated before any tx the bouncer rejected for BlockFull.
func (w *WorkerExecutor) Results() []TxResult {
	w.resultsMu.Lock()
	defer w.resultsMu.Unlock()
	out := make([]TxResult, len(w.results))
	copy(out, w.results)
	return out
}
