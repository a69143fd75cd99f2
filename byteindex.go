package internstore

import (
	"io"

	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/dump"
	"github.com/gostonefire/internstore/internal/pool"
	"github.com/gostonefire/internstore/internal/records"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/storeerr"
	log "github.com/sirupsen/logrus"
)

// ByteIndex - Hash index over byte string keys
type ByteIndex struct {
	core[[]byte]
	keys *records.Bytes
}

// CreateByteIndex - Returns a new empty byte string index.
//   - base is the base file name, required for the Disk flavor and used by RAM indexes to name their stores
//   - opts are the index options
//
// Existing disk files with the same names are truncated.
func CreateByteIndex(base string, opts Options) (B *ByteIndex, err error) {
	opts = opts.withDefaults()

	stores, err := createStores(base, conf.ShapeBytes, opts)
	if err != nil {
		return
	}

	B, err = newByteIndex(stores, base, opts, true)

	return
}

// OpenByteIndex - Opens the byte string index with the given base file name. A Disk index works on the files
// in place, a RAM index is loaded into memory.
func OpenByteIndex(base string, opts Options) (B *ByteIndex, err error) {
	opts = opts.withDefaults()

	stores, err := openStores(base, conf.ShapeBytes, opts)
	if err != nil {
		return
	}

	B, err = newByteIndex(stores, base, opts, false)

	return
}

// newByteIndex - Assembles a ByteIndex from its stores in file order
func newByteIndex(stores []storage.Store, base string, opts Options, create bool) (B *ByteIndex, err error) {
	keys, err := records.NewBytes(stores[0], stores[1], pool.Default())
	if err != nil {
		closeStores(stores)
		return
	}

	c, err := newCore[[]byte](keys, stores, base, conf.ShapeBytes, opts, create)
	if err != nil {
		return
	}

	B = &ByteIndex{core: c, keys: keys}

	return
}

// Add - Returns the handle of key, adding the key first if it is not present
func (B *ByteIndex) Add(key []byte) (handle int64, err error) {
	handle, _, err = B.idx.Add(key)

	return
}

// AddString - Returns the handle of key, adding the key first if it is not present
func (B *ByteIndex) AddString(key string) (int64, error) {
	return B.Add([]byte(key))
}

// Find - Returns the handle of key if present
func (B *ByteIndex) Find(key []byte) (handle int64, found bool, err error) {
	return B.idx.Find(key)
}

// FindString - Returns the handle of key if present
func (B *ByteIndex) FindString(key string) (handle int64, found bool, err error) {
	return B.idx.Find([]byte(key))
}

// Get - Returns a copy of the key with the given handle
func (B *ByteIndex) Get(handle int64) (key []byte, err error) {
	if err = B.checkHandle(handle); err != nil {
		return
	}

	key, err = B.keys.Get(handle)

	return
}

// GetString - Returns the key with the given handle as a string
func (B *ByteIndex) GetString(handle int64) (key string, err error) {
	b, err := B.Get(handle)
	if err != nil {
		return
	}

	key = string(b)

	return
}

// AddAll - Adds every key and returns their handles in order. The index is sized for all keys up front and
// compacted at the end.
func (B *ByteIndex) AddAll(keys [][]byte) (handles []int64, err error) {
	if err = B.idx.Reserve(int64(len(keys))); err != nil {
		return
	}

	handles = make([]int64, len(keys))
	for i, k := range keys {
		if handles[i], err = B.Add(k); err != nil {
			return
		}
	}

	err = B.Compact()

	return
}

// AddStrings - Adds every key and returns their handles in order, see AddAll
func (B *ByteIndex) AddStrings(keys []string) (handles []int64, err error) {
	if err = B.idx.Reserve(int64(len(keys))); err != nil {
		return
	}

	handles = make([]int64, len(keys))
	for i, k := range keys {
		if handles[i], err = B.AddString(k); err != nil {
			return
		}
	}

	err = B.Compact()

	return
}

// ForEach - Calls fn for every key in handle order, stopping at the first error which is returned
func (B *ByteIndex) ForEach(fn func(handle int64, key []byte) error) (err error) {
	for i := int64(0); i < B.Len(); i++ {
		var key []byte
		if key, err = B.keys.Get(i); err != nil {
			return
		}
		if err = fn(i, key); err != nil {
			return
		}
	}

	return
}

// Materialize - Returns a RAM copy of the index
func (B *ByteIndex) Materialize() (m *ByteIndex, err error) {
	stores, err := B.materializeStores()
	if err != nil {
		return
	}

	opts := B.opts
	opts.Flavor = RAM
	m, err = newByteIndex(stores, B.base, opts, false)

	return
}

// Export - Writes all keys in handle order to w as a compressed export stream
func (B *ByteIndex) Export(w io.Writer) (err error) {
	dw, err := dump.NewWriter(w)
	if err != nil {
		return
	}

	err = B.ForEach(func(_ int64, key []byte) error {
		return dw.Write(key)
	})
	if closeErr := dw.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return
	}

	log.WithFields(log.Fields{"file": B.base, "keys": dw.Count()}).Debug("exported keys")

	return
}

// ImportByteIndex - Creates a byte string index holding the keys of an export stream. Keys get the handles
// they had when exported.
func ImportByteIndex(r io.Reader, base string, opts Options) (B *ByteIndex, err error) {
	dr, err := dump.NewReader(r)
	if err != nil {
		return
	}
	defer dr.Close()

	B, err = CreateByteIndex(base, opts)
	if err != nil {
		return
	}

	for {
		var key []byte
		key, err = dr.Next()
		if err == io.EOF {
			err = nil
			break
		}
		if err != nil {
			break
		}

		var handle int64
		if handle, err = B.Add(key); err != nil {
			break
		}
		if handle != dr.Count()-1 {
			err = storeerr.Corrupt("export stream: key %d repeats key %d", dr.Count()-1, handle)
			break
		}
	}
	if err == nil {
		err = B.Compact()
	}
	if err != nil {
		_ = B.Close()
		B = nil
		return
	}

	log.WithFields(log.Fields{"file": base, "keys": dr.Count()}).Debug("imported keys")

	return
}
