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

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/colmemio/colmem/pkg/common/cmerr"
	"github.com/colmemio/colmem/pkg/common/mempool"
	"github.com/colmemio/colmem/pkg/container/types"
)

func newInt32Vector(t *testing.T, capacity int) (*Vector[int32], *mempool.MPool) {
	t.Helper()
	m := mempool.MustNew("vector-test")
	v := MustNew[int32]("c0", types.T_int32.ToType(), m)
	require.NoError(t, v.AllocateNew(capacity))
	return v, m
}

func TestNewTypeMismatch(t *testing.T) {
	m := mempool.MustNew("vector-test")
	_, err := New[int32]("c0", types.T_int64.ToType(), m)
	require.True(t, cmerr.IsErrCode(err, cmerr.ErrInvalidArg))
	require.Panics(t, func() { MustNew[int32]("c0", types.T_int64.ToType(), m) })

	v, err := New[types.Date]("d", types.T_date.ToType(), m)
	require.NoError(t, err)
	require.Equal(t, 0, v.Capacity())
}

func TestSetGet(t *testing.T) {
	v, _ := newInt32Vector(t, 8)
	defer v.Release()

	v.Set(0, 42)
	v.Set(7, -1)

	got, err := v.Get(0)
	require.NoError(t, err)
	require.Equal(t, int32(42), got)
	got, err = v.Get(7)
	require.NoError(t, err)
	require.Equal(t, int32(-1), got)
	require.False(t, v.IsNull(0))

	// untouched slots read as null
	require.True(t, v.IsNull(3))
	_, err = v.Get(3)
	require.True(t, cmerr.IsErrCode(err, cmerr.ErrNullRead))

	_, err = v.Get(8)
	require.True(t, cmerr.IsErrCode(err, cmerr.ErrOutOfRange))
	_, err = v.Get(-1)
	require.True(t, cmerr.IsErrCode(err, cmerr.ErrOutOfRange))
}

func TestSetNull(t *testing.T) {
	v, _ := newInt32Vector(t, 8)
	defer v.Release()

	v.Set(2, 7)
	require.NoError(t, v.SetNull(2))
	require.True(t, v.IsNull(2))
	_, err := v.Get(2)
	require.True(t, cmerr.IsErrCode(err, cmerr.ErrNullRead))

	// the value bytes are left as-is; setting the bit back exposes them
	v.Set(2, 7)
	got, err := v.Get(2)
	require.NoError(t, err)
	require.Equal(t, int32(7), got)
}

func TestHolderGet(t *testing.T) {
	v, _ := newInt32Vector(t, 4)
	defer v.Release()

	v.Set(1, 99)

	var h NullableHolder[int32]
	v.GetHolder(0, &h)
	require.Equal(t, int32(0), h.IsSet)

	v.GetHolder(1, &h)
	require.Equal(t, int32(1), h.IsSet)
	require.Equal(t, int32(99), h.Value)
}

func TestHolderSet(t *testing.T) {
	v, _ := newInt32Vector(t, 4)
	defer v.Release()

	require.NoError(t, v.SetHolder(0, NewNullableHolder(int32(5))))
	got, err := v.Get(0)
	require.NoError(t, err)
	require.Equal(t, int32(5), got)

	require.NoError(t, v.SetHolder(0, NullHolder[int32]()))
	require.True(t, v.IsNull(0))

	err = v.SetHolder(0, NullableHolder[int32]{IsSet: -1, Value: 5})
	require.True(t, cmerr.IsErrCode(err, cmerr.ErrInvalidArg))
	err = v.SetHolderSafe(0, NullableHolder[int32]{IsSet: -2})
	require.True(t, cmerr.IsErrCode(err, cmerr.ErrInvalidArg))
}

func TestValueHolderSet(t *testing.T) {
	v, _ := newInt32Vector(t, 4)
	defer v.Release()

	v.SetValueHolder(1, Holder[int32]{Value: 8})
	got, err := v.Get(1)
	require.NoError(t, err)
	require.Equal(t, int32(8), got)

	require.NoError(t, v.SetValueHolderSafe(40, Holder[int32]{Value: 9}))
	got, err = v.Get(40)
	require.NoError(t, err)
	require.Equal(t, int32(9), got)
}

func TestGetObject(t *testing.T) {
	v, _ := newInt32Vector(t, 4)
	defer v.Release()

	v.Set(0, 10)
	require.Equal(t, int32(10), v.GetObject(0))
	require.Nil(t, v.GetObject(1))
}

func TestSetSafeGrows(t *testing.T) {
	v, m := newInt32Vector(t, 4)
	defer v.Release()

	v.Set(0, 1)
	v.Set(2, 3)
	require.NoError(t, v.SetNull(1))

	require.NoError(t, v.SetSafe(100, 77))
	require.GreaterOrEqual(t, v.Capacity(), 101)

	// pre-growth content survives, bits included
	got, err := v.Get(0)
	require.NoError(t, err)
	require.Equal(t, int32(1), got)
	got, err = v.Get(2)
	require.NoError(t, err)
	require.Equal(t, int32(3), got)
	require.True(t, v.IsNull(1))
	require.True(t, v.IsNull(3))
	require.True(t, v.IsNull(99))

	got, err = v.Get(100)
	require.NoError(t, err)
	require.Equal(t, int32(77), got)

	// the old buffers went back to the pool
	expected := int64(v.Capacity()*4 + (v.Capacity()+7)/8)
	require.Equal(t, expected, m.CurrNB())

	v.Release()
	require.Equal(t, int64(0), m.CurrNB())
}

func TestSetSafeFromEmpty(t *testing.T) {
	m := mempool.MustNew("vector-test")
	v, err := New[int64]("c0", types.T_int64.ToType(), m)
	require.NoError(t, err)
	defer v.Release()

	require.NoError(t, v.SetSafe(0, 5))
	require.Greater(t, v.Capacity(), 0)
	got, err := v.Get(0)
	require.NoError(t, err)
	require.Equal(t, int64(5), got)
}

func TestCopyFrom(t *testing.T) {
	src, _ := newInt32Vector(t, 4)
	defer src.Release()
	dst, _ := newInt32Vector(t, 4)
	defer dst.Release()

	src.Set(0, 11)
	require.NoError(t, src.SetNull(1))
	dst.Set(2, 99)
	dst.Set(3, 98)

	// present source copies value and validity
	dst.CopyFrom(0, 2, src)
	got, err := dst.Get(2)
	require.NoError(t, err)
	require.Equal(t, int32(11), got)

	// null source leaves the destination slot completely untouched
	dst.CopyFrom(1, 3, src)
	got, err = dst.Get(3)
	require.NoError(t, err)
	require.Equal(t, int32(98), got)
	require.False(t, dst.IsNull(3))
}

func TestCopyFromSafe(t *testing.T) {
	src, _ := newInt32Vector(t, 4)
	defer src.Release()
	dst, _ := newInt32Vector(t, 2)
	defer dst.Release()

	src.Set(3, 123)
	require.NoError(t, dst.CopyFromSafe(3, 50, src))
	got, err := dst.Get(50)
	require.NoError(t, err)
	require.Equal(t, int32(123), got)

	// null source does not grow the destination either
	require.NoError(t, src.SetNull(0))
	before := dst.Capacity()
	require.NoError(t, dst.CopyFromSafe(0, before+1000, src))
	require.Equal(t, before, dst.Capacity())
}

func TestValueCount(t *testing.T) {
	v, _ := newInt32Vector(t, 8)
	defer v.Release()

	require.Equal(t, 0, v.ValueCount())
	v.Set(0, 1)
	v.Set(1, 2)
	v.SetValueCount(2)
	require.Equal(t, 2, v.ValueCount())
}

func TestTransferTo(t *testing.T) {
	v, m := newInt32Vector(t, 4)

	v.Set(0, 10)
	require.NoError(t, v.SetNull(1))
	v.Set(2, -5)
	v.SetValueCount(4)

	to := v.GetTransferPair("c0-out", m)
	v.TransferTo(to)
	defer to.Release()

	require.Equal(t, 0, v.Capacity())
	require.Equal(t, 0, v.ValueCount())
	require.Equal(t, 4, to.Capacity())
	require.Equal(t, 4, to.ValueCount())

	require.Equal(t, int32(10), to.GetObject(0))
	require.Nil(t, to.GetObject(1))
	require.Equal(t, int32(-5), to.GetObject(2))
	require.Nil(t, to.GetObject(3))
}

func TestSplitAndTransferAligned(t *testing.T) {
	v, m := newInt32Vector(t, 32)
	defer v.Release()

	for i := 0; i < 32; i++ {
		if i%3 == 0 {
			require.NoError(t, v.SetNull(i))
		} else {
			v.Set(i, int32(i))
		}
	}

	to := v.GetTransferPair("right", m)
	require.NoError(t, v.SplitAndTransferTo(8, 16, to))
	defer to.Release()

	require.Equal(t, 16, to.Capacity())
	for i := 0; i < 16; i++ {
		src := 8 + i
		if src%3 == 0 {
			require.True(t, to.IsNull(i), "slot %d", i)
		} else {
			got, err := to.Get(i)
			require.NoError(t, err)
			require.Equal(t, int32(src), got)
		}
	}

	// zero-copy: the source stays readable through its own references
	got, err := v.Get(10)
	require.NoError(t, err)
	require.Equal(t, int32(10), got)
}

func TestSplitAndTransferUnaligned(t *testing.T) {
	v, m := newInt32Vector(t, 32)
	defer v.Release()

	for i := 0; i < 32; i++ {
		if i%2 == 0 {
			v.Set(i, int32(i*10))
		}
	}

	to := v.GetTransferPair("right", m)
	require.NoError(t, v.SplitAndTransferTo(5, 11, to))
	defer to.Release()

	require.Equal(t, 11, to.Capacity())
	for i := 0; i < 11; i++ {
		src := 5 + i
		if src%2 == 0 {
			got, err := to.Get(i)
			require.NoError(t, err)
			require.Equal(t, int32(src*10), got)
		} else {
			require.True(t, to.IsNull(i), "slot %d", i)
		}
	}
}

func TestSplitAndTransferBounds(t *testing.T) {
	v, m := newInt32Vector(t, 8)
	defer v.Release()

	to := v.GetTransferPair("right", m)
	err := v.SplitAndTransferTo(4, 8, to)
	require.True(t, cmerr.IsErrCode(err, cmerr.ErrOutOfRange))
	err = v.SplitAndTransferTo(-1, 2, to)
	require.True(t, cmerr.IsErrCode(err, cmerr.ErrOutOfRange))
}

func TestReader(t *testing.T) {
	v, _ := newInt32Vector(t, 4)
	defer v.Release()

	v.Set(0, 10)
	require.NoError(t, v.SetNull(1))
	v.Set(2, -5)
	v.SetValueCount(4)

	r := v.GetReader()
	require.Same(t, r, v.GetReader())
	require.Equal(t, 4, r.Len())
	require.Equal(t, types.T_int32, r.Type().Oid)

	require.False(t, r.IsNull(0))
	require.True(t, r.IsNull(1))

	got, err := r.Value(2)
	require.NoError(t, err)
	require.Equal(t, int32(-5), got)
	_, err = r.Value(1)
	require.True(t, cmerr.IsErrCode(err, cmerr.ErrNullRead))

	require.Equal(t, int32(10), r.Object(0))
	require.Nil(t, r.Object(3))
}

// The scenario every layer above depends on: sparse writes, a transfer,
// and the nullable view staying intact end to end.
func TestEndToEnd(t *testing.T) {
	m := mempool.MustNew("vector-e2e")
	v, err := New[int32]("col", types.T_int32.ToType(), m)
	require.NoError(t, err)
	require.NoError(t, v.AllocateNew(4))

	v.Set(0, 10)
	require.NoError(t, v.SetNull(1))
	v.Set(2, -5)
	v.SetValueCount(4)

	want := []any{int32(10), nil, int32(-5), nil}
	for i, w := range want {
		require.Equal(t, w, v.GetObject(i), "slot %d", i)
	}

	to := v.GetTransferPair("col", m)
	v.TransferTo(to)
	for i, w := range want {
		require.Equal(t, w, to.GetObject(i), "slot %d", i)
	}

	to.Release()
	require.Equal(t, int64(0), m.CurrNB())
}

func BenchmarkSetSafe(b *testing.B) {
	m := mempool.MustNew("vector-bench")
	v := MustNew[int64]("c0", types.T_int64.ToType(), m)
	defer v.Release()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := v.SetSafe(i%65536, int64(i)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGet(b *testing.B) {
	m := mempool.MustNew("vector-bench")
	v := MustNew[int64]("c0", types.T_int64.ToType(), m)
	defer v.Release()
	if err := v.AllocateNew(65536); err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 65536; i++ {
		v.Set(i, int64(i))
	}

	b.ResetTimer()
	var sink int64
	for i := 0; i < b.N; i++ {
		x, err := v.Get(i % 65536)
		if err != nil {
			b.Fatal(err)
		}
		sink += x
	}
	_ = sink
}

func TestWidths(t *testing.T) {
	m := mempool.MustNew("vector-widths")

	vb, err := New[bool]("b", types.T_bool.ToType(), m)
	require.NoError(t, err)
	require.NoError(t, vb.AllocateNew(4))
	vb.Set(1, true)
	gotb, err := vb.Get(1)
	require.NoError(t, err)
	require.True(t, gotb)
	vb.Release()

	vf, err := New[float64]("f", types.T_float64.ToType(), m)
	require.NoError(t, err)
	require.NoError(t, vf.AllocateNew(4))
	vf.Set(0, 3.25)
	gotf, err := vf.Get(0)
	require.NoError(t, err)
	require.Equal(t, 3.25, gotf)
	vf.Release()

	vd, err := New[types.Datetime]("ts", types.T_datetime.ToType(), m)
	require.NoError(t, err)
	require.NoError(t, vd.AllocateNew(4))
	vd.Set(3, types.Datetime(1700000000000000))
	gotd, err := vd.Get(3)
	require.NoError(t, err)
	require.Equal(t, types.Datetime(1700000000000000), gotd)
	vd.Release()

	require.Equal(t, int64(0), m.CurrNB())
}
