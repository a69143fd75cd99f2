package records

import (
	"github.com/gostonefire/internstore/hashfunc"
	"github.com/gostonefire/internstore/internal/pool"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/internal/utils"
	"github.com/gostonefire/internstore/storeerr"
)

// Bytes - Byte string records concatenated in a data store with their end offsets in a second store
type Bytes struct {
	data storage.Store
	ends endTable
	pool *pool.Pool
}

// NewBytes - Returns a pointer to a new Bytes over the given stores, validating that they agree
//   - data is a store with cell width 1 holding the concatenated records
//   - ends is a packed integer store holding the end offset of each record
//   - p is the pool scratch buffers for comparisons are borrowed from
func NewBytes(data, ends storage.Store, p *pool.Pool) (b *Bytes, err error) {
	if data.Width() != 1 {
		err = storeerr.Corrupt("%s: byte records need cell width 1, got %d", data.Name(), data.Width())
		return
	}

	b = &Bytes{data: data, ends: endTable{store: ends}, pool: p}
	if err = b.ends.Check(data.Size()); err != nil {
		b = nil
	}

	return
}

// Len - Returns the number of records
func (B *Bytes) Len() int64 {
	return B.ends.Len()
}

// Get - Returns a copy of record i
func (B *Bytes) Get(i int64) (key []byte, err error) {
	start, end, err := B.ends.Bounds(i, B.data.Size())
	if err != nil {
		return
	}

	key = make([]byte, end-start)
	err = B.data.Bytes(key, start)

	return
}

// Hash - Returns the hash of a key
func (B *Bytes) Hash(key []byte) int64 {
	return hashfunc.Bytes(key)
}

// HashAt - Returns the hash of record i computed from its contents
func (B *Bytes) HashAt(i int64) (h int64, err error) {
	key, err := B.Get(i)
	if err != nil {
		return
	}

	h = hashfunc.Bytes(key)

	return
}

// EqualAt - Returns true if record i equals key. The record is compared chunk by chunk through a pooled
// scratch buffer.
func (B *Bytes) EqualAt(i int64, key []byte) (equal bool, err error) {
	start, end, err := B.ends.Bounds(i, B.data.Size())
	if err != nil {
		return
	}
	if end-start != int64(len(key)) {
		return
	}

	err = B.pool.WithBytes(func(buf []byte) (err error) {
		for off := 0; off < len(key); off += len(buf) {
			n := int(utils.MinInt64(int64(len(buf)), int64(len(key)-off)))
			if err = B.data.Bytes(buf[:n], start+int64(off)); err != nil {
				return
			}
			if !utils.IsEqual(buf[:n], key[off:off+n]) {
				return
			}
		}
		equal = true
		return
	})

	return
}

// Append - Appends a record and returns its index
func (B *Bytes) Append(key []byte) (i int64, err error) {
	start := B.data.Size()
	end := start + int64(len(key))

	if err = B.data.SetSize(end); err != nil {
		return
	}
	if err = B.data.SetBytes(key, start); err != nil {
		return
	}

	i, err = B.ends.Append(end)

	return
}

// Truncate - Keeps the first n records
func (B *Bytes) Truncate(n int64) (err error) {
	if n > B.Len() {
		err = storeerr.Range("%s: cannot truncate %d records to %d", B.data.Name(), B.Len(), n)
		return
	}

	end, err := B.ends.EndOf(n)
	if err != nil {
		return
	}
	if err = B.ends.Truncate(n); err != nil {
		return
	}

	err = B.data.SetSize(end)

	return
}

// Compact - Releases spare capacity of both stores
func (B *Bytes) Compact() (err error) {
	if err = B.data.Compact(); err != nil {
		return
	}

	err = B.ends.store.Compact()

	return
}

// Close - Closes both stores
func (B *Bytes) Close() (err error) {
	err = B.data.Close()
	if endsErr := B.ends.store.Close(); err == nil {
		err = endsErr
	}

	return
}

// Stores - Returns the data store followed by the end offset store
func (B *Bytes) Stores() []storage.Store {
	return []storage.Store{B.data, B.ends.store}
}
