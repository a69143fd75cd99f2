package records

import (
	"github.com/gostonefire/internstore/hashfunc"
	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/storeerr"
)

// Scalars - Fixed width int64 records, one per cell
type Scalars struct {
	data storage.Store
}

// NewScalars - Returns a pointer to a new Scalars over a store with 8 byte cells
func NewScalars(data storage.Store) (s *Scalars, err error) {
	if data.Width() != conf.ScalarWidth {
		err = storeerr.Corrupt("%s: scalar records need cell width %d, got %d", data.Name(), conf.ScalarWidth, data.Width())
		return
	}

	s = &Scalars{data: data}

	return
}

// Len - Returns the number of records
func (S *Scalars) Len() int64 {
	return S.data.Size()
}

// Get - Returns record i
func (S *Scalars) Get(i int64) (int64, error) {
	return S.data.PackedInt(i)
}

// Hash - Returns the hash of a key
func (S *Scalars) Hash(key int64) int64 {
	return hashfunc.Scalar(key)
}

// HashAt - Returns the hash of record i
func (S *Scalars) HashAt(i int64) (int64, error) {
	return S.data.PackedInt(i)
}

// EqualAt - Returns true if record i equals key
func (S *Scalars) EqualAt(i, key int64) (equal bool, err error) {
	v, err := S.data.PackedInt(i)
	equal = err == nil && v == key

	return
}

// Append - Appends a record and returns its index
func (S *Scalars) Append(key int64) (int64, error) {
	return S.data.AppendPackedInt(key)
}

// Truncate - Keeps the first n records
func (S *Scalars) Truncate(n int64) (err error) {
	if n > S.Len() {
		err = storeerr.Range("%s: cannot truncate %d records to %d", S.data.Name(), S.Len(), n)
		return
	}

	err = S.data.SetSize(n)

	return
}

// Compact - Releases spare capacity
func (S *Scalars) Compact() error {
	return S.data.Compact()
}

// Close - Closes the store
func (S *Scalars) Close() error {
	return S.data.Close()
}

// Stores - Returns the data store
func (S *Scalars) Stores() []storage.Store {
	return []storage.Store{S.data}
}
