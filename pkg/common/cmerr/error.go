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

// Package cmerr defines the coded errors used across the columnar memory
// core.  Every failure surfaced by the allocator, the buffer adapter and
// the vectors is a *Error with a stable code, so callers can branch on
// IsErrCode instead of matching message strings.
package cmerr

import (
	"context"
	"encoding"
	"fmt"
)

const (
	// Ok is not an error.  Codes below OkMax signal special success
	// conditions and are never allocated.
	Ok    uint16 = 0
	OkMax uint16 = 99

	// Group 1: internal errors
	ErrInternal     uint16 = 20101
	ErrOOM          uint16 = 20102
	ErrNotSupported uint16 = 20103

	// Group 2: memory access
	ErrOutOfRange      uint16 = 20201
	ErrNegativeLength  uint16 = 20202
	ErrBufferReleased  uint16 = 20203
	ErrCapacityShrink  uint16 = 20204
	ErrRefCntUnderflow uint16 = 20205

	// Group 3: invalid input
	ErrInvalidArg   uint16 = 20301
	ErrInvalidState uint16 = 20302
	ErrNullRead     uint16 = 20303

	// ErrEnd, the max value of the error code space.
	ErrEnd uint16 = 65535
)

var errorMsgRefer = map[uint16]string{
	ErrInternal:     "internal error: %s",
	ErrOOM:          "error: out of memory, pool %s cap %d, requested %d",
	ErrNotSupported: "not supported: %s",

	ErrOutOfRange:      "index out of range: index %d, length %d (expected: range(0, %d))",
	ErrNegativeLength:  "length: %d (expected: >= 0)",
	ErrBufferReleased:  "buffer has been released, refcnt is 0",
	ErrCapacityShrink:  "buffers do not support resizing that increases the size: %d to %d",
	ErrRefCntUnderflow: "release count %d exceeds refcnt %d",

	ErrInvalidArg:   "invalid argument %s, bad value %s",
	ErrInvalidState: "invalid state %s",
	ErrNullRead:     "value at index %d is null",
}

// Error is the only error type this module produces.  The context passed
// to the constructors is reserved for caller-side tracing and does not
// change the error value.
type Error struct {
	code    uint16
	message string
}

func newError(_ context.Context, code uint16, args ...any) *Error {
	format, has := errorMsgRefer[code]
	if !has {
		panic(NewInternalErrorNoCtx("missing error code: %d", code))
	}
	if len(args) == 0 {
		return &Error{code: code, message: format}
	}
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) Succeeded() bool {
	return e.code < OkMax
}

// IsErrCode reports whether e is a *Error carrying code rc.
func IsErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}
	me, ok := e.(*Error)
	if !ok {
		return false
	}
	return me.code == rc
}

func DowncastError(e error) *Error {
	if err, ok := e.(*Error); ok {
		return err
	}
	return NewInternalErrorNoCtx("downcast error failed: %v", e)
}

// ConvertPanicError converts a recovered panic value to a *Error.
func ConvertPanicError(v interface{}) *Error {
	if e, ok := v.(*Error); ok {
		return e
	}
	return NewInternalErrorNoCtx("panic %v", v)
}

var _ encoding.BinaryMarshaler = new(Error)

// MarshalBinary lays the error out as a 2 byte little-endian code
// followed by the rendered message.  No framing; the consumer knows the
// payload boundary.
func (e *Error) MarshalBinary() ([]byte, error) {
	data := make([]byte, 2+len(e.message))
	data[0] = byte(e.code)
	data[1] = byte(e.code >> 8)
	copy(data[2:], e.message)
	return data, nil
}

var _ encoding.BinaryUnmarshaler = new(Error)

func (e *Error) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return NewInvalidArgNoCtx("error payload", data)
	}
	e.code = uint16(data[0]) | uint16(data[1])<<8
	e.message = string(data[2:])
	return nil
}

func NewInternalError(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrInternal, fmt.Sprintf(msg, args...))
}

func NewInternalErrorNoCtx(msg string, args ...any) *Error {
	return NewInternalError(context.Background(), msg, args...)
}

func NewOOM(ctx context.Context, pool string, cap, requested int64) *Error {
	return newError(ctx, ErrOOM, pool, cap, requested)
}

func NewOOMNoCtx(pool string, cap, requested int64) *Error {
	return NewOOM(context.Background(), pool, cap, requested)
}

func NewNotSupported(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrNotSupported, fmt.Sprintf(msg, args...))
}

func NewNotSupportedNoCtx(msg string, args ...any) *Error {
	return NewNotSupported(context.Background(), msg, args...)
}

func NewOutOfRange(ctx context.Context, index, fieldLength, capacity int) *Error {
	return newError(ctx, ErrOutOfRange, index, fieldLength, capacity)
}

func NewOutOfRangeNoCtx(index, fieldLength, capacity int) *Error {
	return NewOutOfRange(context.Background(), index, fieldLength, capacity)
}

func NewNegativeLength(ctx context.Context, fieldLength int) *Error {
	return newError(ctx, ErrNegativeLength, fieldLength)
}

func NewNegativeLengthNoCtx(fieldLength int) *Error {
	return NewNegativeLength(context.Background(), fieldLength)
}

func NewBufferReleased(ctx context.Context) *Error {
	return newError(ctx, ErrBufferReleased)
}

func NewBufferReleasedNoCtx() *Error {
	return NewBufferReleased(context.Background())
}

func NewCapacityShrinkOnly(ctx context.Context, oldCap, newCap int) *Error {
	return newError(ctx, ErrCapacityShrink, oldCap, newCap)
}

func NewCapacityShrinkOnlyNoCtx(oldCap, newCap int) *Error {
	return NewCapacityShrinkOnly(context.Background(), oldCap, newCap)
}

func NewRefCntUnderflow(ctx context.Context, decrement, refCnt int64) *Error {
	return newError(ctx, ErrRefCntUnderflow, decrement, refCnt)
}

func NewRefCntUnderflowNoCtx(decrement, refCnt int64) *Error {
	return NewRefCntUnderflow(context.Background(), decrement, refCnt)
}

func NewInvalidArg(ctx context.Context, arg string, val any) *Error {
	return newError(ctx, ErrInvalidArg, arg, fmt.Sprintf("%v", val))
}

func NewInvalidArgNoCtx(arg string, val any) *Error {
	return NewInvalidArg(context.Background(), arg, val)
}

func NewInvalidState(ctx context.Context, msg string, args ...any) *Error {
	return newError(ctx, ErrInvalidState, fmt.Sprintf(msg, args...))
}

func NewInvalidStateNoCtx(msg string, args ...any) *Error {
	return NewInvalidState(context.Background(), msg, args...)
}

func NewNullRead(ctx context.Context, index int) *Error {
	return newError(ctx, ErrNullRead, index)
}

func NewNullReadNoCtx(index int) *Error {
	return NewNullRead(context.Background(), index)
}
