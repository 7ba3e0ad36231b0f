// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import "github.com/sequencerlabs/parallex/state"

// txOverlay is the transactional overlay a single tx execution runs
// against: it reads through a pinned VersionView (which itself records
// the read set) and buffers writes locally until the tx succeeds, at
// which point the worker applies them all at once via
// VersionView.ApplyWrites.
type txOverlay struct {
	view   *state.VersionView
	writes *state.StateMaps
}

func newTxOverlay(view *state.VersionView) *txOverlay {
	return &txOverlay{view: view, writes: state.NewStateMaps()}
}

func (o *txOverlay) Read(domain state.Domain, key state.Key) (state.Value, error) {
	if v, ok := o.writes.Get(domain, key); ok {
		return v, nil
	}
	return o.view.Read(domain, key)
}

func (o *txOverlay) Write(domain state.Domain, key state.Key, value state.Value) {
	o.writes.Set(domain, key, value)
}
