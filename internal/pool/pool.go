// Package pool keeps a bounded set of fixed-size segments for reuse.
//
// Segments are handed out by Bytes and Int64s and given back with ReleaseBytes and ReleaseInt64s.
// WithBytes and WithInt64s scope a borrow to a function call so the segment is always returned,
// also when the function fails or panics. Returned segments are not cleared.
package pool

import (
	"sync"
	"sync/atomic"

	"github.com/gostonefire/internstore/internal/conf"
)

// Pool - Bounded pool of byte and int64 segments of one size
type Pool struct {
	segmentBytes int
	bytes        chan []byte
	int64s       chan []int64
	allocated    atomic.Int64
	reused       atomic.Int64
}

// Stats - Counters describing pool usage
type Stats struct {
	SegmentBytes int
	Allocated    int64
	Reused       int64
	IdleBytes    int
	IdleInt64s   int
}

var (
	defaultMu   sync.Mutex
	defaultPool *Pool
)

// New - Returns a pointer to a new Pool handing out segments of segmentBytes bytes and keeping at most
// depth idle segments of each kind. segmentBytes is rounded up to a multiple of 8.
func New(segmentBytes, depth int) *Pool {
	if segmentBytes < 8 {
		segmentBytes = 8
	}
	segmentBytes = (segmentBytes + 7) &^ 7
	if depth < 0 {
		depth = 0
	}

	return &Pool{
		segmentBytes: segmentBytes,
		bytes:        make(chan []byte, depth),
		int64s:       make(chan []int64, depth),
	}
}

// Default - Returns the process-wide pool, creating it with default sizing on first use
func Default() *Pool {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultPool == nil {
		defaultPool = New(conf.DefaultSegmentBytes, conf.DefaultPoolDepth)
	}

	return defaultPool
}

// SetDefault - Replaces the process-wide pool. Stores created earlier keep the pool they were created with.
func SetDefault(p *Pool) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultPool = p
}

// SegmentBytes - Returns the size in bytes of every segment handed out
func (P *Pool) SegmentBytes() int {
	return P.segmentBytes
}

// Bytes - Borrows a byte segment
func (P *Pool) Bytes() []byte {
	select {
	case b := <-P.bytes:
		P.reused.Add(1)
		return b
	default:
		P.allocated.Add(1)
		return make([]byte, P.segmentBytes)
	}
}

// ReleaseBytes - Returns a byte segment. Slices that did not come from this pool are dropped.
func (P *Pool) ReleaseBytes(b []byte) {
	if cap(b) != P.segmentBytes {
		return
	}

	select {
	case P.bytes <- b[:P.segmentBytes]:
	default:
	}
}

// Int64s - Borrows an int64 segment holding SegmentBytes/8 values
func (P *Pool) Int64s() []int64 {
	select {
	case v := <-P.int64s:
		P.reused.Add(1)
		return v
	default:
		P.allocated.Add(1)
		return make([]int64, P.segmentBytes/8)
	}
}

// ReleaseInt64s - Returns an int64 segment. Slices that did not come from this pool are dropped.
func (P *Pool) ReleaseInt64s(v []int64) {
	if cap(v) != P.segmentBytes/8 {
		return
	}

	select {
	case P.int64s <- v[:P.segmentBytes/8]:
	default:
	}
}

// WithBytes - Runs fn with a borrowed byte segment that is returned when fn completes
func (P *Pool) WithBytes(fn func(buf []byte) error) error {
	buf := P.Bytes()
	defer P.ReleaseBytes(buf)

	return fn(buf)
}

// WithInt64s - Runs fn with a borrowed int64 segment that is returned when fn completes
func (P *Pool) WithInt64s(fn func(buf []int64) error) error {
	buf := P.Int64s()
	defer P.ReleaseInt64s(buf)

	return fn(buf)
}

// Stats - Returns usage counters
func (P *Pool) Stats() Stats {
	return Stats{
		SegmentBytes: P.segmentBytes,
		Allocated:    P.allocated.Load(),
		Reused:       P.reused.Load(),
		IdleBytes:    len(P.bytes),
		IdleInt64s:   len(P.int64s),
	}
}
