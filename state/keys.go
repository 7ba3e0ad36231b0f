// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

// Key is an opaque, comparable state key: a contract address, a storage
// slot, a class hash, a nonce slot, or any other felt-like identifier.
// Keys are compared by value, so callers must pre-serialize composite
// identifiers (e.g. "address|slot") into a single string before use.
type Key string

// Value is an opaque felt-like value. nil has no special meaning; absence
// of an entry is what signals "defer to the base reader".
type Value []byte

// Domain partitions a StateMaps bundle: storage cells, nonces, class
// hashes, compiled-class hashes, and declared classes are distinct
// namespaces that never collide with each other even if their raw Key
// strings happen to match.
type Domain int

const (
	DomainStorage Domain = iota
	DomainNonce
	DomainClassHash
	DomainCompiledClassHash
	DomainDeclaredClass
	numDomains

	// NumDomains is the number of distinct domains a StateMaps bundle
	// partitions, exported so callers can range over Domain(0)..NumDomains.
	NumDomains = numDomains
)

// StateMaps bundles storage cells, nonces, class hashes, compiled-class
// hashes, and declared classes. It supports union, diff, and keys-only
// projections, used when folding per-tx write sets into a block-level
// diff at close_block.
type StateMaps struct {
	domains [numDomains]map[Key]Value
}

// NewStateMaps returns an empty StateMaps bundle.
func NewStateMaps() *StateMaps {
	sm := &StateMaps{}
	for i := range sm.domains {
		sm.domains[i] = make(map[Key]Value)
	}
	return sm
}

func (sm *StateMaps) Get(d Domain, k Key) (Value, bool) {
	v, ok := sm.domains[d][k]
	return v, ok
}

func (sm *StateMaps) Set(d Domain, k Key, v Value) {
	sm.domains[d][k] = v
}

// Keys returns the keys touched in domain d, in no particular order.
func (sm *StateMaps) Keys(d Domain) []Key {
	keys := make([]Key, 0, len(sm.domains[d]))
	for k := range sm.domains[d] {
		keys = append(keys, k)
	}
	return keys
}

// IsEmpty reports whether the bundle has no entries in any domain.
func (sm *StateMaps) IsEmpty() bool {
	for _, m := range sm.domains {
		if len(m) > 0 {
			return false
		}
	}
	return true
}

// Union folds other's entries on top of sm's, returning a new StateMaps.
// Used to fold committed writes, in commit order, into the running block
// diff at commit_chunk_and_recover_block_state.
func (sm *StateMaps) Union(other *StateMaps) *StateMaps {
	out := NewStateMaps()
	for d := Domain(0); d < numDomains; d++ {
		for k, v := range sm.domains[d] {
			out.domains[d][k] = v
		}
		for k, v := range other.domains[d] {
			out.domains[d][k] = v
		}
	}
	return out
}

// Diff returns the entries present in sm but absent, or different, in
// base — used to compute the commitment state diff returned from
// close_block relative to the pre-block base state.
func (sm *StateMaps) Diff(base *StateMaps) *StateMaps {
	out := NewStateMaps()
	for d := Domain(0); d < numDomains; d++ {
		for k, v := range sm.domains[d] {
			if bv, ok := base.domains[d][k]; ok && bytesEqual(bv, v) {
				continue
			}
			out.domains[d][k] = v
		}
	}
	return out
}

func bytesEqual(a, b Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ReadEntry is a single observed (key, value) pair recorded by a tx during
// execution, keyed by domain so a storage-cell read and a nonce read on
// coincidentally equal raw keys never collide.
type ReadEntry struct {
	Domain Domain
	Key    Key
	Value  Value
}

// ReadSet is the set of (key, value_observed) pairs a tx read during
// execution.
type ReadSet []ReadEntry

// WriteSet is the StateMaps a tx tentatively wrote.
type WriteSet = StateMaps
