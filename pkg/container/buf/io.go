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
	"io"
)

// The stream variants are synchronous and not cancellable; they block on
// the external reader or writer and propagate its failure unchanged.

// WriteTo drains the readable bytes [readerIndex, writerIndex) into w and
// advances readerIndex by the amount written.
func (b *Buf) WriteTo(w io.Writer) (int64, error) {
	n := b.ReadableBytes()
	if n == 0 {
		return 0, nil
	}
	b.chk(b.readerIndex, n)
	written, err := w.Write(b.region.Bytes()[b.offset+b.readerIndex : b.offset+b.readerIndex+n])
	b.readerIndex += written
	return int64(written), err
}

// ReadFrom fills [writerIndex, capacity) from r, advancing writerIndex,
// until the buffer is full or r is drained.  io.EOF is not an error.
func (b *Buf) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for b.writerIndex < b.length {
		b.chk(b.writerIndex, b.length-b.writerIndex)
		n, err := r.Read(b.region.Bytes()[b.offset+b.writerIndex : b.offset+b.length])
		b.writerIndex += n
		total += int64(n)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// GetBytesToWriter copies n bytes starting at i into w without touching
// readerIndex.
func (b *Buf) GetBytesToWriter(i int, w io.Writer, n int) (int, error) {
	b.chk(i, n)
	return w.Write(b.region.Bytes()[b.offset+i : b.offset+i+n])
}

// SetBytesFromReader fills [i, i+n) from r without touching writerIndex.
// Returns the number of bytes stored; a short read is reported with the
// reader's error, io.EOF excepted.
func (b *Buf) SetBytesFromReader(i int, r io.Reader, n int) (int, error) {
	b.chk(i, n)
	read, err := io.ReadFull(r, b.region.Bytes()[b.offset+i:b.offset+i+n])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return read, nil
	}
	return read, err
}
