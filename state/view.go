// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "errors"

// ErrReadOfEstimated signals that a read landed on an Estimated
// placeholder: a write is expected at a lower index but has not yet been
// produced. Only MarkEstimated creates such placeholders; the executor's
// abort path deletes writes instead, so engine runs never produce this
// error.
var ErrReadOfEstimated = errors.New("state: read of estimated entry")

// VersionView is a handle scoped to one TxIndex, returned by PinVersion.
// It records reads as they happen, so the read set can later be
// validated or folded into a dependency failure.
type VersionView struct {
	vs    *VersionedState
	index int

	reads ReadSet
}

// Index returns the TxIndex this view is pinned to.
func (v *VersionView) Index() int { return v.index }

// Read returns the highest committed-or-tentative value with txIndex < i
// and state Written/Removed, falling back to the base reader if no such
// entry exists. A read that lands on an Estimated entry returns
// ErrReadOfEstimated rather than a value.
//
// Every successful read (including base-reader fallbacks) is appended to
// the view's read set, so validate_reads can later re-check it.
func (v *VersionView) Read(domain Domain, key Key) (Value, error) {
	c := v.vs.cellFor(domain, key)
	res := c.readAt(v.index)
	if res.estimated {
		return nil, ErrReadOfEstimated
	}
	if res.found {
		v.reads = append(v.reads, ReadEntry{Domain: domain, Key: key, Value: res.value})
		return res.value, nil
	}
	val, err := v.vs.base.Read(domain, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	v.reads = append(v.reads, ReadEntry{Domain: domain, Key: key, Value: val})
	return val, nil
}

// ReadSet returns the reads recorded by this view so far.
func (v *VersionView) ReadSet() ReadSet {
	return append(ReadSet(nil), v.reads...)
}

// ApplyWrites marks every key in diff as Written at this view's index,
// overwriting any prior entry at the same (index, key).
func (v *VersionView) ApplyWrites(diff *StateMaps) {
	for d := Domain(0); d < numDomains; d++ {
		for _, k := range diff.Keys(d) {
			val, _ := diff.Get(d, k)
			v.vs.cellFor(d, k).write(v.index, val, written)
		}
	}
}

// DeleteWrites removes this view's entries for every key in diff, used
// when a tx is aborted or re-executed. A concurrent reader at a higher
// index simply falls through to whatever entry is next below it (or the
// base reader); the later validate/commit pass is what catches the
// resulting invalidation, so no Estimated placeholder is needed here.
// MarkEstimated is the alternative building block for callers that do
// want a read-blocking placeholder between abort and re-execution.
func (v *VersionView) DeleteWrites(diff *StateMaps) {
	for d := Domain(0); d < numDomains; d++ {
		for _, k := range diff.Keys(d) {
			v.vs.cellFor(d, k).delete(v.index)
		}
	}
}

// MarkEstimated marks every key in diff as an Estimated placeholder at
// this view's index, without removing the chain entry outright, so
// concurrent readers fail fast rather than silently observing the old
// (now-invalid) value. The executor's abort protocol does not call it; it
// uses DeleteWrites.
func (v *VersionView) MarkEstimated(diff *StateMaps) {
	for d := Domain(0); d < numDomains; d++ {
		for _, k := range diff.Keys(d) {
			v.vs.cellFor(d, k).markEstimate(v.index)
		}
	}
}

// ValidateReads re-checks every (key, value_observed) pair in reads
// against what a fresh read at this view's index would now return.
// Returns false if any pair's value or Estimated/error status has
// changed.
func (v *VersionView) ValidateReads(reads ReadSet) bool {
	for _, r := range reads {
		c := v.vs.cellFor(r.Domain, r.Key)
		res := c.readAt(v.index)
		if res.estimated {
			return false
		}
		var current Value
		if res.found {
			current = res.value
		} else {
			val, err := v.vs.base.Read(r.Domain, r.Key)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return false
			}
			current = val
		}
		if !bytesEqual(current, r.Value) {
			return false
		}
	}
	return true
}
