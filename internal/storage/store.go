package storage

import (
	"time"

	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/pool"
	"github.com/gostonefire/internstore/storeerr"
)

// Store - Interface for a backing store, an array of fixed width cells with a logical size, an allocated
// capacity and up to four persisted int64 params. Byte offsets used by Byte, SetByte, Bytes and SetBytes
// count from the first cell, cell indexes used by the packed integer functions count cells.
type Store interface {
	// Name - Returns the name the store was created or opened with
	Name() string

	// Width - Returns the cell width in bytes
	Width() int

	// Size - Returns the logical number of cells
	Size() int64

	// SetSize - Sets the logical number of cells, growing capacity when needed. New cells are zero.
	SetSize(n int64) error

	// Capacity - Returns the number of allocated cells
	Capacity() int64

	// SetCapacity - Sets the number of allocated cells, which must not be less than the size
	SetCapacity(n int64) error

	// EnsureCapacity - Grows capacity following the growth policy so at least n cells fit
	EnsureCapacity(n int64) error

	// Compact - Releases capacity beyond the size
	Compact() error

	// Clear - Sets size and capacity to zero, params are kept
	Clear() error

	// Reset - Clears the store and changes its cell width
	Reset(width int) error

	// ParamCount - Returns the number of params in use
	ParamCount() int

	// Param - Returns param i
	Param(i int) (int64, error)

	// SetParam - Sets param i
	SetParam(i int, v int64) error

	// Byte - Returns the byte at byte offset off
	Byte(off int64) (byte, error)

	// SetByte - Sets the byte at byte offset off
	SetByte(off int64, b byte) error

	// Bytes - Fills dst with the bytes starting at byte offset off
	Bytes(dst []byte, off int64) error

	// SetBytes - Writes src starting at byte offset off
	SetBytes(src []byte, off int64) error

	// PackedInt - Returns cell i as a packed integer
	PackedInt(i int64) (int64, error)

	// SetPackedInt - Sets cell i to v, which must fit the cell width
	SetPackedInt(i, v int64) error

	// AppendPackedInt - Appends v as a new cell and returns its index
	AppendPackedInt(v int64) (int64, error)

	// Close - Releases the resources held by the store
	Close() error
}

// Provider - Interface for creating and opening stores of one flavor
type Provider interface {
	// Create - Creates an empty store with the given cell width
	Create(name string, width int) (Store, error)

	// Open - Opens an existing store
	Open(name string) (Store, error)

	// Persistent - Returns true if stores created by the provider live on disk
	Persistent() bool
}

// Options - Settings shared by stores of both flavors
//   - RangeChecks enables offset and size validation on every access
//   - Pool is the segment pool used for RAM segments and scratch buffers
//   - Handles is the number of file handles a disk store keeps open
//   - LockWait is how long to retry acquiring a file lock before failing, zero means a single attempt
//   - ReadOnly opens disk stores for reading only
type Options struct {
	RangeChecks bool
	Pool        *pool.Pool
	Handles     int
	LockWait    time.Duration
	ReadOnly    bool
}

// DefaultOptions - Returns options with range checks on, the default pool and a single file handle
func DefaultOptions() Options {
	return Options{
		RangeChecks: true,
		Pool:        pool.Default(),
		Handles:     conf.DefaultHandles,
	}
}

// WithDefaults - Returns a copy of O with zero values replaced by defaults
func (O Options) WithDefaults() Options {
	if O.Pool == nil {
		O.Pool = pool.Default()
	}
	if O.Handles < 1 {
		O.Handles = conf.DefaultHandles
	}

	return O
}

// CheckRange - Returns a RangeViolation unless [off, off+n) lies within [0, limit)
func CheckRange(name string, off, n, limit int64) (err error) {
	if off < 0 || n < 0 || off+n > limit {
		err = storeerr.Range("%s: range [%d, %d) outside [0, %d)", name, off, off+n, limit)
	}

	return
}

// CheckParam - Returns a RangeViolation unless i is a valid param index
func CheckParam(name string, i int) (err error) {
	if i < 0 || i >= conf.MaxParams {
		err = storeerr.Range("%s: param %d outside [0, %d)", name, i, conf.MaxParams)
	}

	return
}

// Copy - Replaces the contents, width and params of dst with those of src
func Copy(dst, src Store, p *pool.Pool) (err error) {
	err = dst.Reset(src.Width())
	if err != nil {
		return
	}

	for i := 0; i < src.ParamCount(); i++ {
		var v int64
		if v, err = src.Param(i); err != nil {
			return
		}
		if err = dst.SetParam(i, v); err != nil {
			return
		}
	}

	err = dst.SetCapacity(src.Size())
	if err != nil {
		return
	}
	err = dst.SetSize(src.Size())
	if err != nil {
		return
	}

	total := src.Size() * int64(src.Width())
	err = p.WithBytes(func(buf []byte) (err error) {
		for off := int64(0); off < total; off += int64(len(buf)) {
			chunk := buf
			if rest := total - off; rest < int64(len(chunk)) {
				chunk = chunk[:rest]
			}
			if err = src.Bytes(chunk, off); err != nil {
				return
			}
			if err = dst.SetBytes(chunk, off); err != nil {
				return
			}
		}
		return
	})

	return
}
