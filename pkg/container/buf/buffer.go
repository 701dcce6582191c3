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

package buf

import (
	"encoding/binary"
	"io"
)

// Buffer is the generic random-access byte buffer contract the adapter
// satisfies, so code can consume a buffer without depending on the
// allocator types.  Every multi-byte value is little-endian on the wire
// regardless of host order; Order and SetOrder exist for interface
// compatibility and never change that.
//
// Indexed accessors panic with a *cmerr.Error on a bounds or liveness
// violation when the owning pool has bounds checking enabled; with
// checking disabled a violation is undefined behavior.  Capability-style
// operations (deep copy, capacity growth) return errors instead, so
// callers can branch on what a buffer supports.
type Buffer interface {
	io.WriterTo
	io.ReaderFrom

	Capacity() int
	SetCapacity(newCapacity int) error

	ReaderIndex() int
	SetReaderIndex(i int) error
	WriterIndex() int
	SetWriterIndex(i int) error
	ReadableBytes() int

	GetByte(i int) byte
	SetByte(i int, v byte)
	GetInt16(i int) int16
	SetInt16(i int, v int16)
	GetMedium(i int) int32
	GetUnsignedMedium(i int) uint32
	SetMedium(i int, v int32)
	GetInt32(i int) int32
	SetInt32(i int, v int32)
	GetInt64(i int) int64
	SetInt64(i int, v int64)

	GetBytes(i int, dst []byte)
	SetBytes(i int, src []byte)

	Order() binary.ByteOrder
	SetOrder(o binary.ByteOrder) Buffer

	Slice() Buffer
	SliceRange(i, length int) Buffer
	Copy() (Buffer, error)

	Retain()
	Release() bool
	RefCnt() int64
	Close()
}
