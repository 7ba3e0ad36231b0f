// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store provides a reference, demo-grade BaseStateReader backed
// by github.com/cockroachdb/pebble. It is one concrete adapter behind the
// engine's external BaseStateReader contract and is not itself part of
// the core execution engine: storage backends are always external to it.
package store

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/sequencerlabs/parallex/state"
)

// PebbleReader implements state.BaseStateReader over a pebble database.
// Keys are namespaced by domain so that the storage, nonce, class-hash,
// compiled-class-hash, and declared-class domains never collide on disk.
type PebbleReader struct {
	db *pebble.DB
}

// Open opens (creating if absent) a pebble database at dir.
func Open(dir string) (*PebbleReader, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("store: open pebble db: %w", err)
	}
	return &PebbleReader{db: db}, nil
}

func (r *PebbleReader) Close() error {
	return r.db.Close()
}

func encodeKey(domain state.Domain, key state.Key) []byte {
	out := make([]byte, 0, len(key)+2)
	out = append(out, byte(domain), '|')
	out = append(out, key...)
	return out
}

// Read implements state.BaseStateReader.
func (r *PebbleReader) Read(domain state.Domain, key state.Key) (state.Value, error) {
	v, closer, err := r.db.Get(encodeKey(domain, key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, state.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	out := make(state.Value, len(v))
	copy(out, v)
	return out, nil
}

// CommitDiff writes every entry in diff to the database in a single
// batch — persisting the state diff returned from a closed block is left
// to the caller, and this is the demo's version of that.
func (r *PebbleReader) CommitDiff(diff *state.StateMaps) error {
	batch := r.db.NewBatch()
	defer batch.Close()
	for d := state.Domain(0); d < state.NumDomains; d++ {
		for _, k := range diff.Keys(d) {
			v, _ := diff.Get(d, k)
			if err := batch.Set(encodeKey(d, k), v, nil); err != nil {
				return err
			}
		}
	}
	return batch.Commit(pebble.Sync)
}
