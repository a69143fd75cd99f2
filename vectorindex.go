package internstore

import (
	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/pool"
	"github.com/gostonefire/internstore/internal/records"
	"github.com/gostonefire/internstore/internal/storage"
)

// VectorIndex - Hash index over int64 vector keys. Elements are stored at Options.VectorWidth bytes each and
// adding a vector with an element that does not fit is a range violation.
type VectorIndex struct {
	core[[]int64]
	keys *records.Vectors
}

// CreateVectorIndex - Returns a new empty vector index, see CreateByteIndex
func CreateVectorIndex(base string, opts Options) (V *VectorIndex, err error) {
	opts = opts.withDefaults()

	stores, err := createStores(base, conf.ShapeVectors, opts)
	if err != nil {
		return
	}

	V, err = newVectorIndex(stores, base, opts, true)

	return
}

// OpenVectorIndex - Opens the vector index with the given base file name, see OpenByteIndex. The element
// width is taken from the files.
func OpenVectorIndex(base string, opts Options) (V *VectorIndex, err error) {
	opts = opts.withDefaults()

	stores, err := openStores(base, conf.ShapeVectors, opts)
	if err != nil {
		return
	}

	V, err = newVectorIndex(stores, base, opts, false)

	return
}

// newVectorIndex - Assembles a VectorIndex from its stores in file order
func newVectorIndex(stores []storage.Store, base string, opts Options, create bool) (V *VectorIndex, err error) {
	keys, err := records.NewVectors(stores[0], stores[1], pool.Default())
	if err != nil {
		closeStores(stores)
		return
	}
	opts.VectorWidth = keys.ElementWidth()

	c, err := newCore[[]int64](keys, stores, base, conf.ShapeVectors, opts, create)
	if err != nil {
		return
	}

	V = &VectorIndex{core: c, keys: keys}

	return
}

// ElementWidth - Returns the byte width of vector elements
func (V *VectorIndex) ElementWidth() int {
	return V.keys.ElementWidth()
}

// Add - Returns the handle of key, adding the key first if it is not present
func (V *VectorIndex) Add(key []int64) (handle int64, err error) {
	handle, _, err = V.idx.Add(key)

	return
}

// Find - Returns the handle of key if present
func (V *VectorIndex) Find(key []int64) (handle int64, found bool, err error) {
	return V.idx.Find(key)
}

// Get - Returns a copy of the key with the given handle
func (V *VectorIndex) Get(handle int64) (key []int64, err error) {
	if err = V.checkHandle(handle); err != nil {
		return
	}

	key, err = V.keys.Get(handle)

	return
}

// AddAll - Adds every key and returns their handles in order, compacting at the end
func (V *VectorIndex) AddAll(keys [][]int64) (handles []int64, err error) {
	if err = V.idx.Reserve(int64(len(keys))); err != nil {
		return
	}

	handles = make([]int64, len(keys))
	for i, k := range keys {
		if handles[i], err = V.Add(k); err != nil {
			return
		}
	}

	err = V.Compact()

	return
}

// ForEach - Calls fn for every key in handle order, stopping at the first error which is returned
func (V *VectorIndex) ForEach(fn func(handle int64, key []int64) error) (err error) {
	for i := int64(0); i < V.Len(); i++ {
		var key []int64
		if key, err = V.keys.Get(i); err != nil {
			return
		}
		if err = fn(i, key); err != nil {
			return
		}
	}

	return
}

// Materialize - Returns a RAM copy of the index
func (V *VectorIndex) Materialize() (m *VectorIndex, err error) {
	stores, err := V.materializeStores()
	if err != nil {
		return
	}

	opts := V.opts
	opts.Flavor = RAM
	m, err = newVectorIndex(stores, V.base, opts, false)

	return
}
