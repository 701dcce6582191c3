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

package mempool

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/colmemio/colmem/pkg/common/cmerr"
)

// refCounter is shared by every view of one allocation.  Slices reference
// it, they never duplicate it.
type refCounter struct {
	cnt  atomic.Int64
	free func()
}

// Region is one allocation, or a sub-range of one.  All views of the same
// allocation share one counter; the memory goes back to the pool when the
// counter reaches zero.  Multi-byte accessors are little-endian no matter
// the host byte order.
type Region struct {
	pool   *MPool
	data   []byte
	mapped []byte // the original mapping, nil for heap regions
	rc     *refCounter

	freed atomic.Bool
}

func (r *Region) freeOnce() {
	// slices share rc with the root; only the view holding the mapping
	// returns memory to the pool
	if r.freed.Swap(true) {
		return
	}
	r.pool.free(len(r.data), r.mapped)
}

// Capacity is the byte length of this view.
func (r *Region) Capacity() int {
	return len(r.data)
}

// Pool is the pool this region was allocated from.
func (r *Region) Pool() *MPool {
	return r.pool
}

// Address is the raw start address of this view.
func (r *Region) Address() uintptr {
	if len(r.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.data[0]))
}

// Bytes exposes the raw memory.  The caller must hold a reference for as
// long as it uses the slice.
func (r *Region) Bytes() []byte {
	return r.data
}

func (r *Region) RefCnt() int64 {
	return r.rc.cnt.Load()
}

// Retain adds n references.
func (r *Region) Retain(n int) {
	if n <= 0 {
		panic(cmerr.NewInvalidArgNoCtx("retain increment", n))
	}
	r.rc.cnt.Add(int64(n))
}

// Release drops n references and reports whether the count reached zero,
// in which case the memory has been returned to the pool.  Releasing more
// than was retained panics: a double release is a caller bug, not a
// recoverable condition.
func (r *Region) Release(n int) bool {
	if n <= 0 {
		panic(cmerr.NewInvalidArgNoCtx("release decrement", n))
	}
	newCnt := r.rc.cnt.Add(int64(-n))
	if newCnt < 0 {
		panic(cmerr.NewRefCntUnderflowNoCtx(int64(n), newCnt+int64(n)))
	}
	if newCnt == 0 {
		r.rc.free()
		return true
	}
	return false
}

// Slice returns a view of [off, off+length) sharing this region's counter.
// It does not retain; the caller decides how many references the new view
// needs.
func (r *Region) Slice(off, length int) *Region {
	if off < 0 || length < 0 || off+length > len(r.data) {
		panic(cmerr.NewOutOfRangeNoCtx(off, length, len(r.data)))
	}
	return &Region{
		pool: r.pool,
		data: r.data[off : off+length : off+length],
		rc:   r.rc,
	}
}

/*
 * Little-endian accessors.  The buffer adapter delegates here, so this is
 * the single place that pins the wire layout.
 */

func (r *Region) GetByte(i int) byte {
	return r.data[i]
}

func (r *Region) SetByte(i int, v byte) {
	r.data[i] = v
}

func (r *Region) GetUint16(i int) uint16 {
	return binary.LittleEndian.Uint16(r.data[i:])
}

func (r *Region) SetUint16(i int, v uint16) {
	binary.LittleEndian.PutUint16(r.data[i:], v)
}

// GetUint24 reads a 3-byte little-endian quantity.
func (r *Region) GetUint24(i int) uint32 {
	return uint32(r.data[i]) | uint32(r.data[i+1])<<8 | uint32(r.data[i+2])<<16
}

// SetUint24 stores the low 2 bytes as one little-endian 16-bit store and
// the next-most-significant byte as a single byte store, which yields
// little-endian order for a width with no native primitive.
func (r *Region) SetUint24(i int, v uint32) {
	binary.LittleEndian.PutUint16(r.data[i:], uint16(v))
	r.data[i+2] = byte(v >> 16)
}

func (r *Region) GetUint32(i int) uint32 {
	return binary.LittleEndian.Uint32(r.data[i:])
}

func (r *Region) SetUint32(i int, v uint32) {
	binary.LittleEndian.PutUint32(r.data[i:], v)
}

func (r *Region) GetUint64(i int) uint64 {
	return binary.LittleEndian.Uint64(r.data[i:])
}

func (r *Region) SetUint64(i int, v uint64) {
	binary.LittleEndian.PutUint64(r.data[i:], v)
}
