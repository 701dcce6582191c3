// Copyright 2024 ColMem Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vector implements a nullable fixed-width column: a validity
// bitmap buffer and a contiguous value buffer, both allocated from the
// same pool and always sized to the same element capacity.
package vector

import (
	"github.com/colmemio/colmem/pkg/common/cmerr"
	"github.com/colmemio/colmem/pkg/common/mempool"
	"github.com/colmemio/colmem/pkg/container/bitmap"
	"github.com/colmemio/colmem/pkg/container/buf"
	"github.com/colmemio/colmem/pkg/container/types"
)

// defaultCapacity is the element capacity of the first allocation when a
// safe set touches an empty vector.
const defaultCapacity = 4096

// Vector is a column of fixed-width elements with per-slot nullability.
// Bit i of the validity bitmap is 1 when slot i holds a value.  A Vector
// is not safe for concurrent mutation; callers serialize access.
type Vector[T types.FixedSizeT] struct {
	name string
	typ  types.Type
	pool *mempool.MPool

	validity *buf.Buf
	values   *buf.Buf

	// bits and col are views over the two buffers, refreshed on every
	// (re)allocation.
	bits []byte
	col  []T

	width      int
	capacity   int
	valueCount int

	reader *Reader[T]
}

// New builds an empty vector.  No memory is allocated until AllocateNew
// or the first safe set.  The type descriptor's size must match the
// element type's width.
func New[T types.FixedSizeT](name string, typ types.Type, pool *mempool.MPool) (*Vector[T], error) {
	width := types.TypeWidth[T]()
	if typ.TypeSize() != width {
		return nil, cmerr.NewInvalidArgNoCtx("type size", typ.String())
	}
	return &Vector[T]{
		name:  name,
		typ:   typ,
		pool:  pool,
		width: width,
	}, nil
}

// MustNew is New for tests and static columns where the type descriptor
// is known correct.
func MustNew[T types.FixedSizeT](name string, typ types.Type, pool *mempool.MPool) *Vector[T] {
	v, err := New[T](name, typ, pool)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Vector[T]) Name() string     { return v.name }
func (v *Vector[T]) Type() types.Type { return v.typ }
func (v *Vector[T]) Capacity() int    { return v.capacity }

// ValueCount is the number of slots the writer has declared populated.
func (v *Vector[T]) ValueCount() int { return v.valueCount }

// SetValueCount declares the populated prefix.  Growing past the current
// capacity is a caller error on the non-safe surface.
func (v *Vector[T]) SetValueCount(n int) {
	v.valueCount = n
}

// ValidityBuffer exposes the underlying validity bitmap buffer.
func (v *Vector[T]) ValidityBuffer() *buf.Buf { return v.validity }

// ValuesBuffer exposes the underlying value region buffer.
func (v *Vector[T]) ValuesBuffer() *buf.Buf { return v.values }

// AllocateNew releases any current buffers and allocates fresh zeroed
// ones sized to capacity elements.  Every slot starts null.
func (v *Vector[T]) AllocateNew(capacity int) error {
	if capacity < 0 {
		return cmerr.NewInvalidArgNoCtx("capacity", capacity)
	}
	validity, values, err := v.allocBuffers(capacity)
	if err != nil {
		return err
	}
	v.releaseBuffers()
	v.install(validity, values, capacity)
	v.valueCount = 0
	return nil
}

// allocBuffers allocates a validity bitmap and a value region for
// capacity elements from the vector's pool.  Allocations are zeroed, so
// the bitmap starts all-null.
func (v *Vector[T]) allocBuffers(capacity int) (*buf.Buf, *buf.Buf, error) {
	vr, err := v.pool.Alloc(bitmap.BytesForBits(capacity))
	if err != nil {
		return nil, nil, err
	}
	dr, err := v.pool.Alloc(capacity * v.width)
	if err != nil {
		vr.Release(1)
		return nil, nil, err
	}
	return buf.New(vr), buf.New(dr), nil
}

func (v *Vector[T]) install(validity, values *buf.Buf, capacity int) {
	v.validity = validity
	v.values = values
	v.capacity = capacity
	if capacity > 0 {
		v.bits = validity.Bytes()
		v.col = types.DecodeSlice[T](values.Bytes())
	} else {
		v.bits = nil
		v.col = nil
	}
}

func (v *Vector[T]) releaseBuffers() {
	if v.validity != nil {
		v.validity.Release()
		v.validity = nil
	}
	if v.values != nil {
		v.values.Release()
		v.values = nil
	}
	v.bits = nil
	v.col = nil
	v.capacity = 0
}

// Release drops the vector's reference on both buffers and resets it to
// the empty state.
func (v *Vector[T]) Release() {
	v.releaseBuffers()
	v.valueCount = 0
}

// IsNull reports whether slot i holds no value.
func (v *Vector[T]) IsNull(i int) bool {
	return !bitmap.IsSet(v.bits, i)
}

// Get returns the value at slot i.  Reading a null slot is an illegal
// state and fails regardless of the pool's bounds-checking mode.
func (v *Vector[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= v.capacity {
		return zero, cmerr.NewOutOfRangeNoCtx(i, v.width, v.capacity*v.width)
	}
	if !bitmap.IsSet(v.bits, i) {
		return zero, cmerr.NewNullReadNoCtx(i)
	}
	return v.col[i], nil
}

// GetHolder reads slot i into h.  It never fails: a null slot yields
// IsSet == 0 with the holder value left undefined.
func (v *Vector[T]) GetHolder(i int, h *NullableHolder[T]) {
	if !bitmap.IsSet(v.bits, i) {
		h.IsSet = 0
		return
	}
	h.IsSet = 1
	h.Value = v.col[i]
}

// GetObject returns the value at slot i as an any, or nil for a null
// slot.
func (v *Vector[T]) GetObject(i int) any {
	if !bitmap.IsSet(v.bits, i) {
		return nil
	}
	return v.col[i]
}

// Set stores value at slot i and marks it non-null.  The caller must
// ensure i < Capacity(); the safe variant grows instead.
func (v *Vector[T]) Set(i int, value T) {
	bitmap.SetBit(v.bits, i)
	v.col[i] = value
}

// SetNull marks slot i null.  The value bytes are left as-is; the slot
// is simply no longer readable as a value.  Capacity is ensured first.
func (v *Vector[T]) SetNull(i int) error {
	if err := v.ensureCapacity(i); err != nil {
		return err
	}
	bitmap.ClearBit(v.bits, i)
	return nil
}

// SetHolder applies a tri-state holder to slot i: IsSet > 0 stores the
// value, IsSet == 0 clears the slot to null, IsSet < 0 is invalid.
func (v *Vector[T]) SetHolder(i int, h NullableHolder[T]) error {
	switch {
	case h.IsSet < 0:
		return cmerr.NewInvalidArgNoCtx("holder isSet", h.IsSet)
	case h.IsSet == 0:
		bitmap.ClearBit(v.bits, i)
	default:
		v.Set(i, h.Value)
	}
	return nil
}

// SetValueHolder stores the plain holder's value at slot i, marking it
// non-null.  Same contract as Set.
func (v *Vector[T]) SetValueHolder(i int, h Holder[T]) {
	v.Set(i, h.Value)
}

// SetValueHolderSafe is SetValueHolder with capacity ensured first.
func (v *Vector[T]) SetValueHolderSafe(i int, h Holder[T]) error {
	return v.SetSafe(i, h.Value)
}

// SetSafe is Set with capacity ensured first, growing the vector when i
// is beyond the current capacity.
func (v *Vector[T]) SetSafe(i int, value T) error {
	if err := v.ensureCapacity(i); err != nil {
		return err
	}
	v.Set(i, value)
	return nil
}

// SetHolderSafe is SetHolder with capacity ensured first.
func (v *Vector[T]) SetHolderSafe(i int, h NullableHolder[T]) error {
	if h.IsSet < 0 {
		return cmerr.NewInvalidArgNoCtx("holder isSet", h.IsSet)
	}
	if err := v.ensureCapacity(i); err != nil {
		return err
	}
	return v.SetHolder(i, h)
}

// ensureCapacity grows the vector until slot i is addressable.  Growth
// reallocates both buffers together, copying the old content; the new
// tail is zeroed, so grown slots start null.
func (v *Vector[T]) ensureCapacity(i int) error {
	if i < 0 {
		return cmerr.NewInvalidArgNoCtx("index", i)
	}
	if i < v.capacity {
		return nil
	}
	newCap := v.capacity
	if newCap == 0 {
		newCap = defaultCapacity
	}
	for newCap <= i {
		newCap *= 2
	}
	validity, values, err := v.allocBuffers(newCap)
	if err != nil {
		return err
	}
	if v.capacity > 0 {
		copy(validity.Bytes(), v.bits)
		copy(values.Bytes(), v.values.Bytes())
	}
	v.releaseBuffers()
	v.install(validity, values, newCap)
	return nil
}

// CopyFrom copies slot fromIndex of from into slot toIndex, if the
// source slot holds a value.  A null source leaves the destination slot
// completely untouched, validity bit included.
func (v *Vector[T]) CopyFrom(fromIndex, toIndex int, from *Vector[T]) {
	if from.IsNull(fromIndex) {
		return
	}
	v.Set(toIndex, from.col[fromIndex])
}

// CopyFromSafe is CopyFrom with the destination capacity ensured first.
func (v *Vector[T]) CopyFromSafe(fromIndex, toIndex int, from *Vector[T]) error {
	if from.IsNull(fromIndex) {
		return nil
	}
	return v.SetSafe(toIndex, from.col[fromIndex])
}

// TransferTo moves this vector's buffers into to, which releases any
// buffers it currently holds.  The source is reset to the empty state;
// no bytes are copied.
func (v *Vector[T]) TransferTo(to *Vector[T]) {
	to.releaseBuffers()
	to.validity = v.validity
	to.values = v.values
	to.bits = v.bits
	to.col = v.col
	to.capacity = v.capacity
	to.valueCount = v.valueCount

	v.validity = nil
	v.values = nil
	v.bits = nil
	v.col = nil
	v.capacity = 0
	v.valueCount = 0
}

// SplitAndTransferTo moves the length slots starting at start into to.
// A byte-aligned start transfers zero-copy slices of both buffers, with
// one reference retained per slice; an unaligned start falls back to a
// bit-shifted copy into fresh buffers.
func (v *Vector[T]) SplitAndTransferTo(start, length int, to *Vector[T]) error {
	if start < 0 || length < 0 || start+length > v.capacity {
		return cmerr.NewOutOfRangeNoCtx(start, length*v.width, v.capacity*v.width)
	}
	if start%8 == 0 {
		validity := v.validity.SliceRange(start/8, bitmap.BytesForBits(length)).(*buf.Buf)
		values := v.values.SliceRange(start*v.width, length*v.width).(*buf.Buf)
		validity.Retain()
		values.Retain()
		to.releaseBuffers()
		to.install(validity, values, length)
		to.valueCount = length
		return nil
	}
	validity, values, err := to.allocBuffers(length)
	if err != nil {
		return err
	}
	bitmap.CopyBits(validity.Bytes(), 0, v.bits, start, length)
	copy(values.Bytes(), v.values.Bytes()[start*v.width:(start+length)*v.width])
	to.releaseBuffers()
	to.install(validity, values, length)
	to.valueCount = length
	return nil
}

// GetTransferPair builds an empty vector of the same element type bound
// to pool, ready to be the target of a TransferTo or
// SplitAndTransferTo.
func (v *Vector[T]) GetTransferPair(name string, pool *mempool.MPool) *Vector[T] {
	return &Vector[T]{
		name:  name,
		typ:   v.typ,
		pool:  pool,
		width: v.width,
	}
}

// GetReader returns the reader bound to this vector, constructing it on
// first use and caching it after.
func (v *Vector[T]) GetReader() *Reader[T] {
	if v.reader == nil {
		v.reader = &Reader[T]{vec: v}
	}
	return v.reader
}
