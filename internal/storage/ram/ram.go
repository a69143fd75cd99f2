// Package ram implements the in-memory backing store.
//
// Cells live in equal-size segments borrowed from a segment pool. A byte offset maps to a segment by
// division and to a position within it by remainder, so a cell or byte range may straddle two segments.
// Changing capacity only touches segments at the end: interior segments are never moved. The last segment
// is the only one that may be shorter than the others, and only after Compact.
package ram

import (
	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/packed"
	"github.com/gostonefire/internstore/internal/pool"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/storeerr"
)

// Store - In-memory backing store
type Store struct {
	name        string
	width       int
	size        int64
	capacity    int64
	params      [conf.MaxParams]int64
	paramCount  int
	segs        [][]byte
	segBytes    int64
	pool        *pool.Pool
	rangeChecks bool
}

// New - Returns a pointer to a new empty Store with the given cell width
func New(name string, width int, opts storage.Options) (s *Store, err error) {
	if !packed.ValidWidth(width) {
		err = storeerr.Range("%s: invalid cell width %d", name, width)
		return
	}

	opts = opts.WithDefaults()
	s = &Store{
		name:        name,
		width:       width,
		segBytes:    int64(opts.Pool.SegmentBytes()),
		pool:        opts.Pool,
		rangeChecks: opts.RangeChecks,
	}

	return
}

// Name - Returns the name of the store
func (S *Store) Name() string {
	return S.name
}

// Width - Returns the cell width in bytes
func (S *Store) Width() int {
	return S.width
}

// Size - Returns the logical number of cells
func (S *Store) Size() int64 {
	return S.size
}

// Capacity - Returns the number of allocated cells
func (S *Store) Capacity() int64 {
	return S.capacity
}

// Segments - Returns the number of segments currently held
func (S *Store) Segments() int {
	return len(S.segs)
}

// SetSize - Sets the logical number of cells, new cells are zero
func (S *Store) SetSize(n int64) (err error) {
	if n < 0 {
		err = storeerr.Range("%s: negative size %d", S.name, n)
		return
	}

	err = S.EnsureCapacity(n)
	if err != nil {
		return
	}

	w := int64(S.width)
	if n > S.size {
		S.zero(S.size*w, (n-S.size)*w)
	}
	S.size = n

	return
}

// SetCapacity - Sets the number of allocated cells
func (S *Store) SetCapacity(n int64) (err error) {
	if n < S.size {
		err = storeerr.Range("%s: capacity %d below size %d", S.name, n, S.size)
		return
	}

	S.resize(n * int64(S.width))
	S.capacity = n

	return
}

// EnsureCapacity - Grows capacity following the growth policy so at least n cells fit
func (S *Store) EnsureCapacity(n int64) (err error) {
	if n <= S.capacity {
		return
	}

	err = S.SetCapacity(storage.NextCapacity(S.capacity, n, S.width, S.segBytes))

	return
}

// Compact - Releases capacity beyond the size, the last segment is cut to exact length
func (S *Store) Compact() (err error) {
	need := S.size * int64(S.width)
	S.resize(need)

	if rem := need % S.segBytes; rem != 0 {
		last := len(S.segs) - 1
		if int64(len(S.segs[last])) != rem {
			exact := make([]byte, rem)
			copy(exact, S.segs[last])
			S.pool.ReleaseBytes(S.segs[last])
			S.segs[last] = exact
		}
	}
	S.capacity = S.size

	return
}

// Clear - Releases all segments, params are kept
func (S *Store) Clear() (err error) {
	for _, seg := range S.segs {
		S.pool.ReleaseBytes(seg)
	}
	S.segs = nil
	S.size = 0
	S.capacity = 0

	return
}

// Reset - Clears the store and changes its cell width
func (S *Store) Reset(width int) (err error) {
	if !packed.ValidWidth(width) {
		err = storeerr.Range("%s: invalid cell width %d", S.name, width)
		return
	}

	_ = S.Clear()
	S.width = width

	return
}

// ParamCount - Returns the number of params in use
func (S *Store) ParamCount() int {
	return S.paramCount
}

// Param - Returns param i
func (S *Store) Param(i int) (v int64, err error) {
	if err = storage.CheckParam(S.name, i); err != nil {
		return
	}

	v = S.params[i]

	return
}

// SetParam - Sets param i
func (S *Store) SetParam(i int, v int64) (err error) {
	if err = storage.CheckParam(S.name, i); err != nil {
		return
	}

	S.params[i] = v
	if i >= S.paramCount {
		S.paramCount = i + 1
	}

	return
}

// Byte - Returns the byte at byte offset off
func (S *Store) Byte(off int64) (b byte, err error) {
	if S.rangeChecks {
		if err = storage.CheckRange(S.name, off, 1, S.size*int64(S.width)); err != nil {
			return
		}
	}

	b = S.segs[off/S.segBytes][off%S.segBytes]

	return
}

// SetByte - Sets the byte at byte offset off
func (S *Store) SetByte(off int64, b byte) (err error) {
	if S.rangeChecks {
		if err = storage.CheckRange(S.name, off, 1, S.size*int64(S.width)); err != nil {
			return
		}
	}

	S.segs[off/S.segBytes][off%S.segBytes] = b

	return
}

// Bytes - Fills dst with the bytes starting at byte offset off
func (S *Store) Bytes(dst []byte, off int64) (err error) {
	if S.rangeChecks {
		if err = storage.CheckRange(S.name, off, int64(len(dst)), S.size*int64(S.width)); err != nil {
			return
		}
	}

	S.read(dst, off)

	return
}

// SetBytes - Writes src starting at byte offset off
func (S *Store) SetBytes(src []byte, off int64) (err error) {
	if S.rangeChecks {
		if err = storage.CheckRange(S.name, off, int64(len(src)), S.size*int64(S.width)); err != nil {
			return
		}
	}

	S.write(src, off)

	return
}

// PackedInt - Returns cell i as a packed integer
func (S *Store) PackedInt(i int64) (v int64, err error) {
	if S.rangeChecks {
		if err = storage.CheckRange(S.name, i, 1, S.size); err != nil {
			return
		}
	}

	off := i * int64(S.width)
	seg, pos := off/S.segBytes, off%S.segBytes
	if pos+int64(S.width) <= int64(len(S.segs[seg])) {
		v = packed.Get(S.segs[seg], int(pos), S.width)
		return
	}

	var scratch [packed.MaxWidth]byte
	S.read(scratch[:S.width], off)
	v = packed.Get(scratch[:], 0, S.width)

	return
}

// SetPackedInt - Sets cell i to v
func (S *Store) SetPackedInt(i, v int64) (err error) {
	if !packed.Fits(v, S.width) {
		err = storeerr.Range("%s: value %d does not fit in %d bytes", S.name, v, S.width)
		return
	}
	if S.rangeChecks {
		if err = storage.CheckRange(S.name, i, 1, S.size); err != nil {
			return
		}
	}

	S.putPacked(i, v)

	return
}

// AppendPackedInt - Appends v as a new cell and returns its index
func (S *Store) AppendPackedInt(v int64) (i int64, err error) {
	if !packed.Fits(v, S.width) {
		err = storeerr.Range("%s: value %d does not fit in %d bytes", S.name, v, S.width)
		return
	}

	i = S.size
	err = S.EnsureCapacity(i + 1)
	if err != nil {
		return
	}
	S.size++
	S.putPacked(i, v)

	return
}

// Close - Returns all segments to the pool
func (S *Store) Close() error {
	return S.Clear()
}

// putPacked - Writes cell i without checks
func (S *Store) putPacked(i, v int64) {
	off := i * int64(S.width)
	seg, pos := off/S.segBytes, off%S.segBytes
	if pos+int64(S.width) <= int64(len(S.segs[seg])) {
		packed.Put(S.segs[seg], int(pos), v, S.width)
		return
	}

	var scratch [packed.MaxWidth]byte
	packed.Put(scratch[:], 0, v, S.width)
	S.write(scratch[:S.width], off)
}

// resize - Holds exactly the segments needed for need bytes, widening a short last segment when growing
func (S *Store) resize(need int64) {
	nSegs := int((need + S.segBytes - 1) / S.segBytes)

	for len(S.segs) > nSegs {
		last := len(S.segs) - 1
		S.pool.ReleaseBytes(S.segs[last])
		S.segs = S.segs[:last]
	}

	if n := len(S.segs); n > 0 && int64(len(S.segs[n-1])) < S.segBytes && need > S.allocated() {
		full := S.pool.Bytes()
		copy(full, S.segs[n-1])
		S.segs[n-1] = full
	}

	for len(S.segs) < nSegs {
		S.segs = append(S.segs, S.pool.Bytes())
	}
}

// allocated - Returns the number of bytes held in segments
func (S *Store) allocated() int64 {
	n := len(S.segs)
	if n == 0 {
		return 0
	}

	return int64(n-1)*S.segBytes + int64(len(S.segs[n-1]))
}

// read - Copies bytes starting at off into dst without checks
func (S *Store) read(dst []byte, off int64) {
	for n := 0; n < len(dst); {
		at := off + int64(n)
		n += copy(dst[n:], S.segs[at/S.segBytes][at%S.segBytes:])
	}
}

// write - Copies src to the bytes starting at off without checks
func (S *Store) write(src []byte, off int64) {
	for n := 0; n < len(src); {
		at := off + int64(n)
		n += copy(S.segs[at/S.segBytes][at%S.segBytes:], src[n:])
	}
}

// zero - Clears n bytes starting at off
func (S *Store) zero(off, n int64) {
	for n > 0 {
		seg := S.segs[off/S.segBytes][off%S.segBytes:]
		if int64(len(seg)) > n {
			seg = seg[:n]
		}
		clear(seg)
		off += int64(len(seg))
		n -= int64(len(seg))
	}
}
