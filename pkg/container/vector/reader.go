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

package vector

import "github.com/colmemio/colmem/pkg/container/types"

// Reader is a read-only capability bound to exactly one vector.  It
// reflects the vector's current contents; it holds no state of its own
// beyond the binding.
type Reader[T types.FixedSizeT] struct {
	vec *Vector[T]
}

// Type returns the element type descriptor of the bound vector.
func (r *Reader[T]) Type() types.Type { return r.vec.typ }

// Len returns the bound vector's declared value count.
func (r *Reader[T]) Len() int { return r.vec.valueCount }

// IsNull reports whether slot i of the bound vector is null.
func (r *Reader[T]) IsNull(i int) bool { return r.vec.IsNull(i) }

// Value returns the value at slot i, failing on a null slot the same
// way Vector.Get does.
func (r *Reader[T]) Value(i int) (T, error) { return r.vec.Get(i) }

// Object returns the value at slot i type-erased, or nil for a null
// slot.
func (r *Reader[T]) Object(i int) any { return r.vec.GetObject(i) }
