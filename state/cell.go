// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "sync"

// entryState tags a cellEntry as a closed variant rather than through
// inheritance. Estimated is a sentinel, not a value.
type entryState int

const (
	written entryState = iota
	estimated
	removed
)

// cellEntry is one (tx_index, value, state) triple in a versioned cell's
// chain.
type cellEntry struct {
	txIndex int
	value   Value
	state   entryState
}

// cell is the per-key multi-version chain backing one key's history
// across a chunk. Entries are kept sorted by txIndex. A sorted,
// mutex-protected per-key chain lets writers at distinct keys proceed
// without contending on a single global lock.
type cell struct {
	mu      sync.RWMutex
	entries []cellEntry
}

func newCell() *cell {
	return &cell{}
}

// readResult is what a read against a cell's chain yields: a value, a
// signal that the read landed on an Estimated placeholder (the caller must
// treat this as a dependency failure), or a signal that no entry exists
// below the requested index (defer to the base reader).
type readResult struct {
	value     Value
	found     bool
	estimated bool
}

// readAt returns the entry with the greatest txIndex < at whose state is
// written or estimated. Removed entries behave like written entries whose
// value is the domain's zero value, so a read after a delete observes
// "present, empty" rather than falling through to the base reader —
// Removed is a first-class state, not an absence.
func (c *cell) readAt(at int) readResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// entries are sorted by txIndex; scan from the end for the greatest
	// index strictly less than at. Chains are short in practice (bounded
	// by contention on this key within one chunk), so a linear scan from
	// the tail is simpler than a binary search and just as fast.
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		if e.txIndex >= at {
			continue
		}
		switch e.state {
		case estimated:
			return readResult{estimated: true, found: true}
		case removed:
			return readResult{value: nil, found: true}
		default:
			return readResult{value: e.value, found: true}
		}
	}
	return readResult{}
}

// write inserts or replaces the entry at txIndex, keeping entries sorted.
func (c *cell) write(txIndex int, v Value, st entryState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(txIndex, v, st)
}

func (c *cell) set(txIndex int, v Value, st entryState) {
	for i, e := range c.entries {
		if e.txIndex == txIndex {
			c.entries[i] = cellEntry{txIndex: txIndex, value: v, state: st}
			return
		}
		if e.txIndex > txIndex {
			c.entries = append(c.entries, cellEntry{})
			copy(c.entries[i+1:], c.entries[i:])
			c.entries[i] = cellEntry{txIndex: txIndex, value: v, state: st}
			return
		}
	}
	c.entries = append(c.entries, cellEntry{txIndex: txIndex, value: v, state: st})
}

// markEstimate marks the entry at txIndex as Estimated (called by
// VersionView.MarkEstimated), so concurrent readers fail fast rather than
// silently observing a stale value.
func (c *cell) markEstimate(txIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(txIndex, nil, estimated)
}

// delete removes the entry at txIndex entirely (used by delete_writes,
// which discards a tx's tentative writes rather than marking them removed).
func (c *cell) delete(txIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.txIndex == txIndex {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// entryAt returns the raw entry at exactly txIndex, if any, used by
// validate_reads to compare against a previously observed value without
// re-walking the base-reader fallback path.
func (c *cell) entryAt(txIndex int) (cellEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.txIndex == txIndex {
			return e, true
		}
	}
	return cellEntry{}, false
}

// snapshotUpTo returns, in index order, the Written/Removed entries with
// txIndex < upTo. Used by commit_chunk_and_recover_block_state to fold
// committed writes into the base state.
func (c *cell) snapshotUpTo(upTo int) []cellEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]cellEntry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.txIndex < upTo && e.state != estimated {
			out = append(out, e)
		}
	}
	return out
}
