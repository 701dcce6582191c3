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

// Package buf adapts a reference-counted memory region to a byte
// addressable, explicitly little-endian buffer.  The adapter owns
// nothing: retain, release and slice all pass through to the region's
// shared counter, and a deep copy is deliberately unsupported because it
// would silently allocate behind the caller's back.
package buf

import (
	"encoding/binary"
	"sync"

	"github.com/colmemio/colmem/pkg/common/cmerr"
	"github.com/colmemio/colmem/pkg/common/mempool"
)

// Buf is a view over one Region, or a sub-range of one.  length may only
// shrink once constructed; growth is the allocator's job, not the
// adapter's.
type Buf struct {
	mu     sync.Mutex // guards length against shrink-while-read
	region *mempool.Region
	offset int
	length int

	readerIndex int
	writerIndex int

	chkBounds bool
}

var _ Buffer = (*Buf)(nil)

// New wraps a whole region.  The bounds-checking mode is captured from
// the region's pool at construction and never changes.
func New(r *mempool.Region) *Buf {
	return &Buf{
		region:    r,
		offset:    0,
		length:    r.Capacity(),
		chkBounds: r.Pool().BoundsChecking(),
	}
}

// Unwrap exposes the underlying region.
func (b *Buf) Unwrap() *mempool.Region {
	return b.region
}

// chk verifies the owning reference is still live and that a field of
// fieldLength bytes at index lies inside the buffer.  Compiled out of the
// hot path when the pool disabled bounds checking.
func (b *Buf) chk(index, fieldLength int) {
	if !b.chkBounds {
		return
	}
	if b.region.RefCnt() <= 0 {
		panic(cmerr.NewBufferReleasedNoCtx())
	}
	if fieldLength < 0 {
		panic(cmerr.NewNegativeLengthNoCtx(fieldLength))
	}
	if index < 0 || index > b.length-fieldLength {
		panic(cmerr.NewOutOfRangeNoCtx(index, fieldLength, b.length))
	}
}

func (b *Buf) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length
}

// SetCapacity shrinks the logical length of the buffer.  Growing is not
// supported: reallocation belongs to the allocator.
func (b *Buf) SetCapacity(newCapacity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if newCapacity == b.length {
		return nil
	}
	if newCapacity < 0 {
		return cmerr.NewInvalidArgNoCtx("capacity", newCapacity)
	}
	if newCapacity > b.length {
		return cmerr.NewCapacityShrinkOnlyNoCtx(b.length, newCapacity)
	}
	b.length = newCapacity
	if b.writerIndex > newCapacity {
		b.writerIndex = newCapacity
	}
	if b.readerIndex > newCapacity {
		b.readerIndex = newCapacity
	}
	return nil
}

func (b *Buf) ReaderIndex() int {
	return b.readerIndex
}

func (b *Buf) SetReaderIndex(i int) error {
	if i < 0 || i > b.writerIndex {
		return cmerr.NewInvalidArgNoCtx("readerIndex", i)
	}
	b.readerIndex = i
	return nil
}

func (b *Buf) WriterIndex() int {
	return b.writerIndex
}

func (b *Buf) SetWriterIndex(i int) error {
	if i < b.readerIndex || i > b.length {
		return cmerr.NewInvalidArgNoCtx("writerIndex", i)
	}
	b.writerIndex = i
	return nil
}

func (b *Buf) ReadableBytes() int {
	return b.writerIndex - b.readerIndex
}

// Order is always little-endian.
func (b *Buf) Order() binary.ByteOrder {
	return binary.LittleEndian
}

// SetOrder is accepted for interface compatibility and has no effect:
// the buffer stores little-endian regardless of the requested order.
func (b *Buf) SetOrder(binary.ByteOrder) Buffer {
	return b
}

/*
 * get() / set() APIs
 */

func (b *Buf) GetByte(i int) byte {
	b.chk(i, 1)
	return b.region.GetByte(b.offset + i)
}

func (b *Buf) SetByte(i int, v byte) {
	b.chk(i, 1)
	b.region.SetByte(b.offset+i, v)
}

func (b *Buf) GetInt16(i int) int16 {
	b.chk(i, 2)
	return int16(b.region.GetUint16(b.offset + i))
}

func (b *Buf) SetInt16(i int, v int16) {
	b.chk(i, 2)
	b.region.SetUint16(b.offset+i, uint16(v))
}

// GetMedium reads a sign-extended 3-byte value.  There is no native
// 3-byte primitive; the region reassembles it from byte loads.  The
// explicit little-endian variant and this one are the same code path
// because the buffer is unconditionally little-endian.
func (b *Buf) GetMedium(i int) int32 {
	v := int32(b.GetUnsignedMedium(i))
	if v&0x800000 != 0 {
		v |= -0x1000000
	}
	return v
}

func (b *Buf) GetUnsignedMedium(i int) uint32 {
	b.chk(i, 3)
	return b.region.GetUint24(b.offset + i)
}

// SetMedium stores the low 3 bytes of v in little-endian order.
func (b *Buf) SetMedium(i int, v int32) {
	b.chk(i, 3)
	b.region.SetUint24(b.offset+i, uint32(v))
}

func (b *Buf) GetInt32(i int) int32 {
	b.chk(i, 4)
	return int32(b.region.GetUint32(b.offset + i))
}

func (b *Buf) SetInt32(i int, v int32) {
	b.chk(i, 4)
	b.region.SetUint32(b.offset+i, uint32(v))
}

func (b *Buf) GetInt64(i int) int64 {
	b.chk(i, 8)
	return int64(b.region.GetUint64(b.offset + i))
}

func (b *Buf) SetInt64(i int, v int64) {
	b.chk(i, 8)
	b.region.SetUint64(b.offset+i, uint64(v))
}

/*
 * bulk transfer
 */

// GetBytes copies len(dst) bytes starting at i into dst.
func (b *Buf) GetBytes(i int, dst []byte) {
	b.chk(i, len(dst))
	copy(dst, b.region.Bytes()[b.offset+i:b.offset+i+len(dst)])
}

// SetBytes copies src into the buffer starting at i.
func (b *Buf) SetBytes(i int, src []byte) {
	b.chk(i, len(src))
	copy(b.region.Bytes()[b.offset+i:], src)
}

// GetBytesToBuf copies n bytes at i into dst at dstIndex.
func (b *Buf) GetBytesToBuf(i int, dst *Buf, dstIndex, n int) {
	b.chk(i, n)
	dst.chk(dstIndex, n)
	copy(dst.region.Bytes()[dst.offset+dstIndex:],
		b.region.Bytes()[b.offset+i:b.offset+i+n])
}

// SetBytesFromBuf copies n bytes from src at srcIndex into the buffer at i.
func (b *Buf) SetBytesFromBuf(i int, src *Buf, srcIndex, n int) {
	src.GetBytesToBuf(srcIndex, b, i, n)
}

// Bytes exposes the raw window [0, capacity).  The caller must hold a
// reference for as long as it uses the slice.
func (b *Buf) Bytes() []byte {
	return b.region.Bytes()[b.offset : b.offset+b.length]
}

/*
 * slicing and reference counting
 */

// Slice returns a view of the readable bytes sharing the region's
// counter.  Slicing does not retain; the caller decides the new view's
// references.
func (b *Buf) Slice() Buffer {
	return b.SliceRange(b.readerIndex, b.ReadableBytes())
}

// SliceRange returns a view of [i, i+length) sharing the region's counter.
func (b *Buf) SliceRange(i, length int) Buffer {
	b.chk(i, length)
	s := &Buf{
		region:      b.region,
		offset:      b.offset + i,
		length:      length,
		writerIndex: length,
		chkBounds:   b.chkBounds,
	}
	return s
}

// Copy is unsupported: a deep copy would silently allocate behind the
// caller's back.  Callers needing one must go to the allocator
// explicitly.
func (b *Buf) Copy() (Buffer, error) {
	return nil, cmerr.NewNotSupportedNoCtx("deep copy of a zero-copy buffer")
}

func (b *Buf) Retain() {
	b.region.Retain(1)
}

func (b *Buf) RetainN(n int) {
	b.region.Retain(n)
}

func (b *Buf) Release() bool {
	return b.region.Release(1)
}

func (b *Buf) ReleaseN(n int) bool {
	return b.region.Release(n)
}

func (b *Buf) RefCnt() int64 {
	return b.region.RefCnt()
}

// Close drops one reference.  Closing more times than the buffer was
// retained is a caller error.
func (b *Buf) Close() {
	b.Release()
}
