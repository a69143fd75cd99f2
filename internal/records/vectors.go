package records

import (
	"github.com/gostonefire/internstore/hashfunc"
	"github.com/gostonefire/internstore/internal/packed"
	"github.com/gostonefire/internstore/internal/pool"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/internal/utils"
	"github.com/gostonefire/internstore/storeerr"
)

// Vectors - Integer vector records. Elements are packed into the cells of a data store, whose cell width is
// the element width, and each record's end is kept in a second store counting elements.
type Vectors struct {
	data storage.Store
	ends endTable
	pool *pool.Pool
}

// NewVectors - Returns a pointer to a new Vectors over the given stores, validating that they agree
func NewVectors(data, ends storage.Store, p *pool.Pool) (v *Vectors, err error) {
	v = &Vectors{data: data, ends: endTable{store: ends}, pool: p}
	if err = v.ends.Check(data.Size()); err != nil {
		v = nil
	}

	return
}

// ElementWidth - Returns the byte width of each element
func (V *Vectors) ElementWidth() int {
	return V.data.Width()
}

// Len - Returns the number of records
func (V *Vectors) Len() int64 {
	return V.ends.Len()
}

// Get - Returns a copy of record i
func (V *Vectors) Get(i int64) (key []int64, err error) {
	start, end, err := V.ends.Bounds(i, V.data.Size())
	if err != nil {
		return
	}

	key = make([]int64, end-start)
	for j := range key {
		if key[j], err = V.data.PackedInt(start + int64(j)); err != nil {
			return
		}
	}

	return
}

// Hash - Returns the hash of a key
func (V *Vectors) Hash(key []int64) int64 {
	return hashfunc.Int64s(key)
}

// HashAt - Returns the hash of record i computed from its contents
func (V *Vectors) HashAt(i int64) (h int64, err error) {
	key, err := V.Get(i)
	if err != nil {
		return
	}

	h = hashfunc.Int64s(key)

	return
}

// EqualAt - Returns true if record i equals key. Elements are read chunk by chunk into a pooled scratch
// buffer and compared there.
func (V *Vectors) EqualAt(i int64, key []int64) (equal bool, err error) {
	start, end, err := V.ends.Bounds(i, V.data.Size())
	if err != nil {
		return
	}
	if end-start != int64(len(key)) {
		return
	}

	err = V.pool.WithInt64s(func(buf []int64) (err error) {
		for off := 0; off < len(key); off += len(buf) {
			n := int(utils.MinInt64(int64(len(buf)), int64(len(key)-off)))
			for j := 0; j < n; j++ {
				if buf[j], err = V.data.PackedInt(start + int64(off+j)); err != nil {
					return
				}
			}
			if !utils.IsEqualInt64s(buf[:n], key[off:off+n]) {
				return
			}
		}
		equal = true
		return
	})

	return
}

// Append - Appends a record and returns its index. Every element must fit the element width.
func (V *Vectors) Append(key []int64) (i int64, err error) {
	w := V.data.Width()
	for _, e := range key {
		if !packed.Fits(e, w) {
			err = storeerr.Range("%s: element %d does not fit in %d bytes", V.data.Name(), e, w)
			return
		}
	}

	start := V.data.Size()
	if err = V.data.EnsureCapacity(start + int64(len(key))); err != nil {
		return
	}
	for _, e := range key {
		if _, err = V.data.AppendPackedInt(e); err != nil {
			return
		}
	}

	i, err = V.ends.Append(start + int64(len(key)))

	return
}

// Truncate - Keeps the first n records
func (V *Vectors) Truncate(n int64) (err error) {
	if n > V.Len() {
		err = storeerr.Range("%s: cannot truncate %d records to %d", V.data.Name(), V.Len(), n)
		return
	}

	end, err := V.ends.EndOf(n)
	if err != nil {
		return
	}
	if err = V.ends.Truncate(n); err != nil {
		return
	}

	err = V.data.SetSize(end)

	return
}

// Compact - Releases spare capacity of both stores
func (V *Vectors) Compact() (err error) {
	if err = V.data.Compact(); err != nil {
		return
	}

	err = V.ends.store.Compact()

	return
}

// Close - Closes both stores
func (V *Vectors) Close() (err error) {
	err = V.data.Close()
	if endsErr := V.ends.store.Close(); err == nil {
		err = endsErr
	}

	return
}

// Stores - Returns the data store followed by the end offset store
func (V *Vectors) Stores() []storage.Store {
	return []storage.Store{V.data, V.ends.store}
}
