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

// Package mempool is the reference-counted allocator under the columnar
// memory core.  A pool hands out Regions: raw byte extents carrying a
// shared reference counter.  Buffers and vectors never own memory, they
// only hold and forward references to Regions.
package mempool

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/colmemio/colmem/pkg/common/cmerr"
	"github.com/colmemio/colmem/pkg/config"
	"github.com/colmemio/colmem/pkg/logutil"
)

// Stats are the running counters of one pool.  All fields are atomics,
// safe to read from any goroutine.
type Stats struct {
	NumAlloc      atomic.Int64
	NumFree       atomic.Int64
	NumCurrBytes  atomic.Int64
	HighWaterMark atomic.Int64
}

func (s *Stats) RecordAlloc(size int64) {
	s.NumAlloc.Add(1)
	curr := s.NumCurrBytes.Add(size)
	for {
		hwm := s.HighWaterMark.Load()
		if curr <= hwm {
			break
		}
		if s.HighWaterMark.CompareAndSwap(hwm, curr) {
			break
		}
	}
}

func (s *Stats) RecordFree(size int64) {
	s.NumFree.Add(1)
	s.NumCurrBytes.Add(-size)
}

// MPool allocates zeroed, reference-counted memory regions under a byte
// capacity.  Bounds checking for the buffers built on its regions is fixed
// at pool construction, never a process global.
type MPool struct {
	name           string
	capacity       int64 // 0 means unlimited
	mmapThreshold  int64
	boundsChecking bool
	stats          Stats
}

// New builds a pool from memory parameters, normally the ones read from
// the configuration file.
func New(name string, params config.MemoryParameters) (*MPool, error) {
	params.SetDefaults()
	if params.PoolMaxSize < 0 {
		return nil, cmerr.NewInvalidArgNoCtx("poolMaxSize", params.PoolMaxSize)
	}
	m := &MPool{
		name:           name,
		capacity:       params.PoolMaxSize,
		mmapThreshold:  params.MmapThreshold,
		boundsChecking: params.BoundsChecking,
	}
	logutil.Info("mempool created",
		zap.String("name", name),
		zap.Int64("capacity", m.capacity),
		zap.Int64("mmap threshold", m.mmapThreshold),
		zap.Bool("bounds checking", m.boundsChecking),
	)
	return m, nil
}

// MustNew is New with default parameters, for tests and tools.
func MustNew(name string) *MPool {
	m, err := New(name, config.Default().Memory)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *MPool) Name() string {
	return m.name
}

func (m *MPool) Stats() *Stats {
	return &m.stats
}

// CurrNB is the number of bytes currently allocated and not yet freed.
func (m *MPool) CurrNB() int64 {
	return m.stats.NumCurrBytes.Load()
}

// BoundsChecking reports whether buffers built on this pool verify index
// bounds and refcnt liveness on every access.
func (m *MPool) BoundsChecking() bool {
	return m.boundsChecking
}

// Alloc returns a zeroed Region of exactly size bytes with refcnt 1.
func (m *MPool) Alloc(size int) (*Region, error) {
	if size < 0 {
		return nil, cmerr.NewInvalidArgNoCtx("alloc size", size)
	}
	if m.capacity > 0 && m.CurrNB()+int64(size) > m.capacity {
		logutil.Warn("mempool capacity exceeded",
			zap.String("name", m.name),
			zap.Int64("capacity", m.capacity),
			zap.Int("requested", size),
		)
		return nil, cmerr.NewOOMNoCtx(m.name, m.capacity, int64(size))
	}

	var data []byte
	var mapped []byte
	if int64(size) >= m.mmapThreshold {
		mm, err := mmapAnon(size)
		if err != nil {
			return nil, cmerr.NewInternalErrorNoCtx("mmap %d bytes: %v", size, err)
		}
		data, mapped = mm, mm
	} else {
		data = make([]byte, size)
	}

	m.stats.RecordAlloc(int64(size))

	r := &Region{
		pool:   m,
		data:   data,
		mapped: mapped,
	}
	r.rc = &refCounter{free: r.freeOnce}
	r.rc.cnt.Store(1)
	return r, nil
}

func (m *MPool) free(size int, mapped []byte) {
	if mapped != nil {
		if err := munmap(mapped); err != nil {
			logutil.Error("munmap failed",
				zap.String("name", m.name),
				zap.Error(err),
			)
		}
	}
	m.stats.RecordFree(int64(size))
}
