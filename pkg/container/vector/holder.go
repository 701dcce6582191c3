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

// Holder carries a single non-nullable element value.
type Holder[T types.FixedSizeT] struct {
	Value T
}

// NullableHolder carries an element value plus a tri-state flag.  On
// read, IsSet is 0 for a null slot and 1 otherwise.  On write, IsSet > 0
// stores Value, IsSet == 0 writes a null, and IsSet < 0 is rejected as
// an invalid argument.
type NullableHolder[T types.FixedSizeT] struct {
	IsSet int32
	Value T
}

// NewNullableHolder builds a holder in the set state.
func NewNullableHolder[T types.FixedSizeT](value T) NullableHolder[T] {
	return NullableHolder[T]{IsSet: 1, Value: value}
}

// NullHolder builds a holder in the null state.
func NullHolder[T types.FixedSizeT]() NullableHolder[T] {
	return NullableHolder[T]{}
}
