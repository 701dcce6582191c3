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

package types

import (
	"fmt"
)

// T is the oid of a fixed-width column type.
type T uint8

const (
	T_any T = iota

	T_bool

	T_int8
	T_int16
	T_int32
	T_int64
	T_uint8
	T_uint16
	T_uint32
	T_uint64

	T_float32
	T_float64

	// T_date is days since unix epoch, 4 bytes.
	T_date
	// T_datetime is microseconds since unix epoch, 8 bytes.
	T_datetime
)

// Type describes one column of fixed-width elements.  Size is the byte
// width of a single element and is the only thing the storage layer
// actually computes with.
type Type struct {
	Oid  T
	Size int32
}

// Date is days since the unix epoch.
type Date int32

// Datetime is microseconds since the unix epoch.
type Datetime int64

// FixedSizeT is the constraint for element types a fixed-width vector can
// store.
type FixedSizeT interface {
	~bool | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

var typeSizes = map[T]int32{
	T_bool:     1,
	T_int8:     1,
	T_int16:    2,
	T_int32:    4,
	T_int64:    8,
	T_uint8:    1,
	T_uint16:   2,
	T_uint32:   4,
	T_uint64:   8,
	T_float32:  4,
	T_float64:  8,
	T_date:     4,
	T_datetime: 8,
}

// ToType returns the Type for an oid.  Unknown oids panic: the oid set is
// closed at this layer.
func (t T) ToType() Type {
	sz, ok := typeSizes[t]
	if !ok {
		panic(fmt.Sprintf("unknown type oid %d", t))
	}
	return Type{Oid: t, Size: sz}
}

func (t Type) TypeSize() int {
	return int(t.Size)
}

func (t T) String() string {
	switch t {
	case T_any:
		return "ANY"
	case T_bool:
		return "BOOL"
	case T_int8:
		return "INT8"
	case T_int16:
		return "INT16"
	case T_int32:
		return "INT32"
	case T_int64:
		return "INT64"
	case T_uint8:
		return "UINT8"
	case T_uint16:
		return "UINT16"
	case T_uint32:
		return "UINT32"
	case T_uint64:
		return "UINT64"
	case T_float32:
		return "FLOAT32"
	case T_float64:
		return "FLOAT64"
	case T_date:
		return "DATE"
	case T_datetime:
		return "DATETIME"
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

func (t Type) String() string {
	return t.Oid.String()
}
