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

// Package bitmap manipulates packed validity bitmaps.  Bit i of a column
// lives at bit (i % 8) of byte (i / 8); bit 1 means the slot holds a
// value, bit 0 means null.  The functions operate on raw byte slices so
// the same code serves bitmaps living inside reference-counted buffers.
package bitmap

import (
	"math/bits"
)

// BytesForBits returns the byte length of a bitmap holding n bits.
func BytesForBits(n int) int {
	return (n + 7) >> 3
}

func SetBit(bm []byte, i int) {
	bm[i>>3] |= 1 << (i & 7)
}

func ClearBit(bm []byte, i int) {
	bm[i>>3] &^= 1 << (i & 7)
}

func SetBitTo(bm []byte, i int, set bool) {
	if set {
		SetBit(bm, i)
	} else {
		ClearBit(bm, i)
	}
}

func IsSet(bm []byte, i int) bool {
	return bm[i>>3]&(1<<(i&7)) != 0
}

// Count returns the number of set bits among the first n.
func Count(bm []byte, n int) int {
	var cnt int
	nBytes := n >> 3
	for i := 0; i < nBytes; i++ {
		cnt += bits.OnesCount8(bm[i])
	}
	if tail := n & 7; tail > 0 {
		mask := byte(1<<tail) - 1
		cnt += bits.OnesCount8(bm[nBytes] & mask)
	}
	return cnt
}

// IsAllSet reports whether the first n bits are all 1.
func IsAllSet(bm []byte, n int) bool {
	return Count(bm, n) == n
}

// CopyBits copies n bits from src starting at bit srcOff into dst starting
// at bit dstOff.  Byte-aligned offsets take the fast path; anything else
// goes bit by bit.  Trailing bits of the last touched dst byte outside the
// copied range are preserved.
func CopyBits(dst []byte, dstOff int, src []byte, srcOff, n int) {
	if n == 0 {
		return
	}
	if dstOff&7 == 0 && srcOff&7 == 0 {
		nBytes := n >> 3
		copy(dst[dstOff>>3:], src[srcOff>>3:srcOff>>3+nBytes])
		if tail := n & 7; tail > 0 {
			mask := byte(1<<tail) - 1
			d := dstOff>>3 + nBytes
			s := srcOff>>3 + nBytes
			dst[d] = dst[d]&^mask | src[s]&mask
		}
		return
	}
	for i := 0; i < n; i++ {
		SetBitTo(dst, dstOff+i, IsSet(src, srcOff+i))
	}
}
