package internstore

import (
	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/records"
	"github.com/gostonefire/internstore/internal/storage"
)

// ScalarIndex - Hash index over int64 keys. A scalar key is its own hash so no hash cache is kept.
type ScalarIndex struct {
	core[int64]
	keys *records.Scalars
}

// CreateScalarIndex - Returns a new empty scalar index, see CreateByteIndex
func CreateScalarIndex(base string, opts Options) (S *ScalarIndex, err error) {
	opts = opts.withDefaults()

	stores, err := createStores(base, conf.ShapeScalars, opts)
	if err != nil {
		return
	}

	S, err = newScalarIndex(stores, base, opts, true)

	return
}

// OpenScalarIndex - Opens the scalar index with the given base file name, see OpenByteIndex
func OpenScalarIndex(base string, opts Options) (S *ScalarIndex, err error) {
	opts = opts.withDefaults()

	stores, err := openStores(base, conf.ShapeScalars, opts)
	if err != nil {
		return
	}

	S, err = newScalarIndex(stores, base, opts, false)

	return
}

// newScalarIndex - Assembles a ScalarIndex from its stores in file order
func newScalarIndex(stores []storage.Store, base string, opts Options, create bool) (S *ScalarIndex, err error) {
	keys, err := records.NewScalars(stores[0])
	if err != nil {
		closeStores(stores)
		return
	}

	c, err := newCore[int64](keys, stores, base, conf.ShapeScalars, opts, create)
	if err != nil {
		return
	}

	S = &ScalarIndex{core: c, keys: keys}

	return
}

// Add - Returns the handle of key, adding the key first if it is not present
func (S *ScalarIndex) Add(key int64) (handle int64, err error) {
	handle, _, err = S.idx.Add(key)

	return
}

// Find - Returns the handle of key if present
func (S *ScalarIndex) Find(key int64) (handle int64, found bool, err error) {
	return S.idx.Find(key)
}

// Get - Returns the key with the given handle
func (S *ScalarIndex) Get(handle int64) (key int64, err error) {
	if err = S.checkHandle(handle); err != nil {
		return
	}

	key, err = S.keys.Get(handle)

	return
}

// AddAll - Adds every key and returns their handles in order, compacting at the end
func (S *ScalarIndex) AddAll(keys []int64) (handles []int64, err error) {
	if err = S.idx.Reserve(int64(len(keys))); err != nil {
		return
	}

	handles = make([]int64, len(keys))
	for i, k := range keys {
		if handles[i], err = S.Add(k); err != nil {
			return
		}
	}

	err = S.Compact()

	return
}

// ForEach - Calls fn for every key in handle order, stopping at the first error which is returned
func (S *ScalarIndex) ForEach(fn func(handle, key int64) error) (err error) {
	for i := int64(0); i < S.Len(); i++ {
		var key int64
		if key, err = S.keys.Get(i); err != nil {
			return
		}
		if err = fn(i, key); err != nil {
			return
		}
	}

	return
}

// Materialize - Returns a RAM copy of the index
func (S *ScalarIndex) Materialize() (m *ScalarIndex, err error) {
	stores, err := S.materializeStores()
	if err != nil {
		return
	}

	opts := S.opts
	opts.Flavor = RAM
	m, err = newScalarIndex(stores, S.base, opts, false)

	return
}
