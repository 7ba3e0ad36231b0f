// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadFallsBackToBase(t *testing.T) {
	require := require.New(t)
	base := NewStateMaps()
	base.Set(DomainStorage, "K", Value{0})
	vs := NewVersionedState(NewMapReader(base))

	v := vs.PinVersion(5)
	val, err := v.Read(DomainStorage, "K")
	require.NoError(err)
	require.Equal(Value{0}, val)
}

func TestWriteVisibleOnlyToLaterIndices(t *testing.T) {
	require := require.New(t)
	vs := NewVersionedState(NewMapReader(nil))

	writer := vs.PinVersion(2)
	diff := NewStateMaps()
	diff.Set(DomainStorage, "K", Value{1})
	writer.ApplyWrites(diff)

	earlier := vs.PinVersion(2)
	val, err := earlier.Read(DomainStorage, "K")
	require.NoError(err)
	require.Nil(val) // index 2 can't see its own not-yet-earlier write; base is empty

	later := vs.PinVersion(3)
	val, err = later.Read(DomainStorage, "K")
	require.NoError(err)
	require.Equal(Value{1}, val)
}

func TestReadOfEstimatedFails(t *testing.T) {
	require := require.New(t)
	vs := NewVersionedState(NewMapReader(nil))

	writer := vs.PinVersion(2)
	diff := NewStateMaps()
	diff.Set(DomainStorage, "K", Value{1})
	writer.ApplyWrites(diff)
	writer.MarkEstimated(diff)

	reader := vs.PinVersion(3)
	_, err := reader.Read(DomainStorage, "K")
	require.ErrorIs(err, ErrReadOfEstimated)
}

func TestValidateReadsDetectsInvalidation(t *testing.T) {
	require := require.New(t)
	vs := NewVersionedState(NewMapReader(nil))

	r1 := vs.PinVersion(5)
	_, err := r1.Read(DomainStorage, "K")
	require.NoError(err)
	reads := r1.ReadSet()
	require.True(r1.ValidateReads(reads))

	// A lower-index write after the fact invalidates the earlier read.
	w := vs.PinVersion(1)
	diff := NewStateMaps()
	diff.Set(DomainStorage, "K", Value{9})
	w.ApplyWrites(diff)

	require.False(r1.ValidateReads(reads))
}

func TestDeleteWritesRemovesEntry(t *testing.T) {
	require := require.New(t)
	vs := NewVersionedState(NewMapReader(nil))

	w := vs.PinVersion(2)
	diff := NewStateMaps()
	diff.Set(DomainStorage, "K", Value{1})
	w.ApplyWrites(diff)
	w.DeleteWrites(diff)

	later := vs.PinVersion(3)
	val, err := later.Read(DomainStorage, "K")
	require.NoError(err)
	require.Nil(val)
}

func TestCommitChunkFoldsInIndexOrder(t *testing.T) {
	require := require.New(t)
	vs := NewVersionedState(NewMapReader(nil))

	w0 := vs.PinVersion(0)
	d0 := NewStateMaps()
	d0.Set(DomainStorage, "K", Value{1})
	w0.ApplyWrites(d0)

	w1 := vs.PinVersion(1)
	d1 := NewStateMaps()
	d1.Set(DomainStorage, "K", Value{2})
	w1.ApplyWrites(d1)

	diff, reader := vs.CommitChunkAndRecoverBlockState(2)
	val, ok := diff.Get(DomainStorage, "K")
	require.True(ok)
	require.Equal(Value{2}, val)

	got, err := reader.Read(DomainStorage, "K")
	require.NoError(err)
	require.Equal(Value{2}, got)
}

func TestNoPhantomWrites(t *testing.T) {
	require := require.New(t)
	base := NewStateMaps()
	base.Set(DomainStorage, "UNTOUCHED", Value{7})
	vs := NewVersionedState(NewMapReader(base))

	w := vs.PinVersion(0)
	d := NewStateMaps()
	d.Set(DomainStorage, "K", Value{1})
	w.ApplyWrites(d)

	_, reader := vs.CommitChunkAndRecoverBlockState(1)
	val, err := reader.Read(DomainStorage, "UNTOUCHED")
	require.NoError(err)
	require.Equal(Value{7}, val)
}
