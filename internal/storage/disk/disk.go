// Package disk implements the file backed store.
//
// A store is a single file: a 64 byte header followed by capacity cells. Size, width and params live in the
// header and are written through on every change, so a store that was not closed properly still opens with
// the last acknowledged size. A store keeps a small pool of open handles to the file. Every transfer borrows
// one, seeks and reads or writes, and gives it back; callers contend on the pool when all handles are out.
package disk

import (
	"io"
	"os"

	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/file"
	"github.com/gostonefire/internstore/internal/model"
	"github.com/gostonefire/internstore/internal/packed"
	"github.com/gostonefire/internstore/internal/pool"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/storeerr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Store - File backed store
type Store struct {
	name        string
	width       int
	size        int64
	capacity    int64
	params      [conf.MaxParams]int64
	paramCount  int
	handles     chan *os.File
	files       []*os.File
	pool        *pool.Pool
	rangeChecks bool
	readOnly    bool
}

// Create - Creates a new empty store file with the given cell width. An existing file is truncated.
func Create(fileName string, width int, opts storage.Options) (s *Store, err error) {
	if !packed.ValidWidth(width) {
		err = storeerr.Range("%s: invalid cell width %d", fileName, width)
		return
	}
	if opts.ReadOnly {
		err = storeerr.Unsupport("%s: cannot create a store read-only", fileName)
		return
	}

	opts = opts.WithDefaults()
	f, err := file.CreateStoreFile(fileName, model.Header{Version: conf.FormatVersion, Width: width}, opts.LockWait)
	if err != nil {
		return
	}

	s, err = newStore(fileName, f, model.Header{Width: width}, 0, opts)
	if err != nil {
		return
	}

	log.WithFields(log.Fields{"file": fileName, "width": width}).Debug("created disk store")

	return
}

// Open - Opens an existing store file
func Open(fileName string, opts storage.Options) (s *Store, err error) {
	opts = opts.WithDefaults()

	f, header, capacity, err := file.OpenStoreFile(fileName, opts.ReadOnly, opts.LockWait)
	if err != nil {
		return
	}

	s, err = newStore(fileName, f, header, capacity, opts)
	if err != nil {
		return
	}

	log.WithFields(log.Fields{"file": fileName, "cells": s.size, "width": s.width, "readonly": s.readOnly}).
		Debug("opened disk store")

	return
}

// newStore - Builds a store around an opened and locked file, opening the remaining handles
func newStore(fileName string, f *os.File, header model.Header, capacity int64, opts storage.Options) (s *Store, err error) {
	s = &Store{
		name:        fileName,
		width:       header.Width,
		size:        header.Size,
		capacity:    capacity,
		params:      header.Params,
		paramCount:  header.ParamCount,
		handles:     make(chan *os.File, opts.Handles),
		files:       []*os.File{f},
		pool:        opts.Pool,
		rangeChecks: opts.RangeChecks,
		readOnly:    opts.ReadOnly,
	}

	for i := 1; i < opts.Handles; i++ {
		var h *os.File
		if h, err = file.OpenHandle(fileName, opts.ReadOnly); err != nil {
			_ = s.Close()
			s = nil
			return
		}
		s.files = append(s.files, h)
	}
	for _, h := range s.files {
		s.handles <- h
	}

	return
}

// Name - Returns the file name of the store
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

// Capacity - Returns the number of cells the file holds
func (S *Store) Capacity() int64 {
	return S.capacity
}

// SetSize - Sets the logical number of cells, new cells are zero
func (S *Store) SetSize(n int64) (err error) {
	if err = S.writable(); err != nil {
		return
	}
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
		if err = S.zero(S.size*w, (n-S.size)*w); err != nil {
			return
		}
	}
	S.size = n

	err = S.writeHeader()

	return
}

// SetCapacity - Sets the number of cells the file holds
func (S *Store) SetCapacity(n int64) (err error) {
	if err = S.writable(); err != nil {
		return
	}
	if n < S.size {
		err = storeerr.Range("%s: capacity %d below size %d", S.name, n, S.size)
		return
	}

	f := S.borrow()
	err = f.Truncate(conf.HeaderLength + n*int64(S.width))
	S.release(f)
	if err != nil {
		err = errors.Wrapf(err, "resize %s", S.name)
		return
	}
	S.capacity = n

	err = S.writeHeader()

	return
}

// EnsureCapacity - Grows the file following the growth policy so at least n cells fit
func (S *Store) EnsureCapacity(n int64) (err error) {
	if n <= S.capacity {
		return
	}

	err = S.SetCapacity(storage.NextCapacity(S.capacity, n, S.width, conf.DiskBlockBytes))

	return
}

// Compact - Truncates the file to hold exactly size cells
func (S *Store) Compact() error {
	return S.SetCapacity(S.size)
}

// Clear - Truncates the file to its header, params are kept
func (S *Store) Clear() (err error) {
	if err = S.writable(); err != nil {
		return
	}

	S.size = 0
	err = S.SetCapacity(0)

	return
}

// Reset - Clears the store and changes its cell width
func (S *Store) Reset(width int) (err error) {
	if !packed.ValidWidth(width) {
		err = storeerr.Range("%s: invalid cell width %d", S.name, width)
		return
	}
	if err = S.Clear(); err != nil {
		return
	}

	S.width = width
	err = S.writeHeader()

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

// SetParam - Sets param i and writes it through to the header
func (S *Store) SetParam(i int, v int64) (err error) {
	if err = S.writable(); err != nil {
		return
	}
	if err = storage.CheckParam(S.name, i); err != nil {
		return
	}

	S.params[i] = v
	if i >= S.paramCount {
		S.paramCount = i + 1
	}

	err = S.writeHeader()

	return
}

// Byte - Returns the byte at byte offset off
func (S *Store) Byte(off int64) (b byte, err error) {
	var buf [1]byte
	err = S.Bytes(buf[:], off)
	b = buf[0]

	return
}

// SetByte - Sets the byte at byte offset off
func (S *Store) SetByte(off int64, b byte) error {
	return S.SetBytes([]byte{b}, off)
}

// Bytes - Fills dst with the bytes starting at byte offset off
func (S *Store) Bytes(dst []byte, off int64) (err error) {
	if S.rangeChecks {
		if err = storage.CheckRange(S.name, off, int64(len(dst)), S.size*int64(S.width)); err != nil {
			return
		}
	}

	err = S.readAt(dst, off)

	return
}

// SetBytes - Writes src starting at byte offset off
func (S *Store) SetBytes(src []byte, off int64) (err error) {
	if err = S.writable(); err != nil {
		return
	}
	if S.rangeChecks {
		if err = storage.CheckRange(S.name, off, int64(len(src)), S.size*int64(S.width)); err != nil {
			return
		}
	}

	err = S.writeAt(src, off)

	return
}

// PackedInt - Returns cell i as a packed integer
func (S *Store) PackedInt(i int64) (v int64, err error) {
	if S.rangeChecks {
		if err = storage.CheckRange(S.name, i, 1, S.size); err != nil {
			return
		}
	}

	var buf [packed.MaxWidth]byte
	if err = S.readAt(buf[:S.width], i*int64(S.width)); err != nil {
		return
	}
	v = packed.Get(buf[:], 0, S.width)

	return
}

// SetPackedInt - Sets cell i to v
func (S *Store) SetPackedInt(i, v int64) (err error) {
	if err = S.writable(); err != nil {
		return
	}
	if !packed.Fits(v, S.width) {
		err = storeerr.Range("%s: value %d does not fit in %d bytes", S.name, v, S.width)
		return
	}
	if S.rangeChecks {
		if err = storage.CheckRange(S.name, i, 1, S.size); err != nil {
			return
		}
	}

	var buf [packed.MaxWidth]byte
	packed.Put(buf[:], 0, v, S.width)
	err = S.writeAt(buf[:S.width], i*int64(S.width))

	return
}

// AppendPackedInt - Appends v as a new cell and returns its index
func (S *Store) AppendPackedInt(v int64) (i int64, err error) {
	if err = S.writable(); err != nil {
		return
	}
	if !packed.Fits(v, S.width) {
		err = storeerr.Range("%s: value %d does not fit in %d bytes", S.name, v, S.width)
		return
	}

	i = S.size
	if err = S.EnsureCapacity(i + 1); err != nil {
		return
	}

	var buf [packed.MaxWidth]byte
	packed.Put(buf[:], 0, v, S.width)
	if err = S.writeAt(buf[:S.width], i*int64(S.width)); err != nil {
		return
	}
	S.size++

	err = S.writeHeader()

	return
}

// Close - Syncs, unlocks and closes all handles
func (S *Store) Close() (err error) {
	if S.files == nil {
		return
	}

	for i, f := range S.files {
		var closeErr error
		if i == 0 {
			_ = file.Unlock(f)
		}
		closeErr = file.CloseFile(f, !S.readOnly)
		if err == nil {
			err = closeErr
		}
	}
	S.files = nil

	return
}

// writable - Returns an error if the store was opened read-only
func (S *Store) writable() (err error) {
	if S.readOnly {
		err = storeerr.Unsupport("%s: store is read-only", S.name)
	}

	return
}

// borrow - Takes a handle from the pool, blocking until one is free
func (S *Store) borrow() *os.File {
	return <-S.handles
}

// release - Gives a handle back to the pool
func (S *Store) release(f *os.File) {
	S.handles <- f
}

// readAt - Reads len(dst) bytes at byte offset off of the cell area
func (S *Store) readAt(dst []byte, off int64) (err error) {
	if len(dst) == 0 {
		return
	}

	f := S.borrow()
	defer S.release(f)

	_, err = f.Seek(conf.HeaderLength+off, io.SeekStart)
	if err != nil {
		err = errors.Wrapf(err, "seek %s", S.name)
		return
	}

	_, err = io.ReadFull(f, dst)
	if err != nil {
		err = errors.Wrapf(err, "read %s at %d", S.name, off)
	}

	return
}

// writeAt - Writes src at byte offset off of the cell area
func (S *Store) writeAt(src []byte, off int64) (err error) {
	if len(src) == 0 {
		return
	}

	f := S.borrow()
	defer S.release(f)

	_, err = f.Seek(conf.HeaderLength+off, io.SeekStart)
	if err != nil {
		err = errors.Wrapf(err, "seek %s", S.name)
		return
	}

	_, err = f.Write(src)
	if err != nil {
		err = errors.Wrapf(err, "write %s at %d", S.name, off)
	}

	return
}

// zero - Writes n zero bytes starting at byte offset off
func (S *Store) zero(off, n int64) error {
	return S.pool.WithBytes(func(buf []byte) (err error) {
		clear(buf)
		for n > 0 {
			chunk := buf
			if n < int64(len(chunk)) {
				chunk = chunk[:n]
			}
			if err = S.writeAt(chunk, off); err != nil {
				return
			}
			off += int64(len(chunk))
			n -= int64(len(chunk))
		}
		return
	})
}

// writeHeader - Writes the current size, width and params to the file header
func (S *Store) writeHeader() (err error) {
	f := S.borrow()
	defer S.release(f)

	err = file.SetHeader(f, model.Header{
		Version:    conf.FormatVersion,
		Width:      S.width,
		ParamCount: S.paramCount,
		Size:       S.size,
		Params:     S.params,
	})

	return
}
