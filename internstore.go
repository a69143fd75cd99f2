// Package internstore is an append-oriented, hash-indexed key store. Adding a key returns a stable small
// integer handle, the handle gives the key back, and a key can be looked up to find its handle.
//
// Three key shapes are supported: byte strings (ByteIndex), int64 scalars (ScalarIndex) and int64 vectors
// (VectorIndex). Each exists in two flavors: RAM, where stores live in pooled memory segments, and Disk,
// where every store is a file with a 64-byte header followed by fixed width cells. For an index with base
// name B the files are B (keys), B.ends (record ends), B.hash (hash cache), B.slots (slot table) and B.chain
// (chain table). Scalar indexes have no B.ends and no B.hash.
//
// An index has a single writer and no internal locking. A disk index opened for writing holds an
// exclusive lock on its files, readers hold shared locks.
package internstore

import (
	"time"

	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/index"
	"github.com/gostonefire/internstore/internal/model"
	"github.com/gostonefire/internstore/internal/pool"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/internal/storage/disk"
	"github.com/gostonefire/internstore/internal/storage/ram"
	"github.com/gostonefire/internstore/storeerr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Flavor - Where the stores of an index live
type Flavor int

const (
	// RAM - Stores live in memory, files are only read on open and written on Save
	RAM Flavor = iota
	// Disk - Stores are files, every change is written through
	Disk
)

// String - Returns the flavor name
func (F Flavor) String() string {
	if F == Disk {
		return "disk"
	}
	return "ram"
}

// Stat - Statistics on the usage and distribution over slots
type Stat = model.Stat

// Parameters - Sizing of a hash index
type Parameters = model.IndexParameters

// StoreStat - Size figures of a single store of an index
type StoreStat = model.StoreStat

// Options - Settings for creating and opening an index. Zero values mean "use the default".
//   - Flavor selects RAM or Disk stores
//   - FillFactor is the intended ratio of keys to slots when the index is full, default 0.75
//   - InitialSize is the number of keys the index is sized for before it first grows, default 16
//   - FileHandles is the number of handles each disk store keeps open, default 1
//   - NoRangeChecks turns off offset validation on every store access
//   - LockWait is how long to retry acquiring file locks, zero means a single attempt
//   - ReadOnly opens disk stores for reading only with shared locks, it has no effect on RAM stores
//   - VectorWidth is the byte width of vector elements, default 8
type Options struct {
	Flavor        Flavor
	FillFactor    float64
	InitialSize   int64
	FileHandles   int
	NoRangeChecks bool
	LockWait      time.Duration
	ReadOnly      bool
	VectorWidth   int
}

// withDefaults - Returns a copy of O with zero values replaced by defaults
func (O Options) withDefaults() Options {
	if O.FillFactor == 0 {
		O.FillFactor = conf.DefaultFillFactor
	}
	if O.InitialSize <= 0 {
		O.InitialSize = conf.DefaultReindexSize
	}
	if O.FileHandles <= 0 {
		O.FileHandles = conf.DefaultHandles
	}
	if O.VectorWidth == 0 {
		O.VectorWidth = conf.DefaultVectorWidth
	}

	return O
}

// storageOptions - Returns the store level settings
func (O Options) storageOptions() storage.Options {
	return storage.Options{
		RangeChecks: !O.NoRangeChecks,
		Pool:        pool.Default(),
		Handles:     O.FileHandles,
		LockWait:    O.LockWait,
		ReadOnly:    O.ReadOnly,
	}
}

// provider - Returns the store provider of the flavor
func (O Options) provider() storage.Provider {
	if O.Flavor == Disk {
		return disk.NewProvider(O.storageOptions())
	}

	return ram.NewProvider(O.storageOptions())
}

// core - The parts shared by all key shapes
type core[K any] struct {
	idx   *index.Index[K]
	base  string
	shape int64
	opts  Options
}

// Len - Returns the number of keys
func (C *core[K]) Len() int64 {
	return C.idx.Len()
}

// Base - Returns the base name of the index files
func (C *core[K]) Base() string {
	return C.base
}

// Flavor - Returns where the stores of the index live
func (C *core[K]) Flavor() Flavor {
	return C.opts.Flavor
}

// RemoveLast - Removes the most recently added key. The next added key gets its handle.
func (C *core[K]) RemoveLast() error {
	return C.idx.RemoveLast()
}

// Remove - Removes the key with the given handle, which must be the most recently added one
func (C *core[K]) Remove(handle int64) error {
	return C.idx.Remove(handle)
}

// Reindex - Sizes the slot table for reindexSize keys and rebuilds it
func (C *core[K]) Reindex(reindexSize int64) error {
	return C.idx.Reindex(reindexSize)
}

// Rebuild - Recomputes all cached hashes from the keys and rebuilds the slot table
func (C *core[K]) Rebuild() error {
	return C.idx.Rebuild()
}

// Compact - Releases spare capacity of all stores
func (C *core[K]) Compact() error {
	return C.idx.Compact()
}

// Stat - Walks all slots and returns statistics on how keys are distributed
func (C *core[K]) Stat() (Stat, error) {
	return C.idx.Stat()
}

// Parameters - Returns the sizing of the index
func (C *core[K]) Parameters() Parameters {
	return C.idx.Parameters()
}

// StoreStats - Returns the size figures of every store in file order
func (C *core[K]) StoreStats() (stats []StoreStat) {
	for _, s := range C.idx.Stores() {
		stats = append(stats, StoreStat{Name: s.Name(), Width: s.Width(), Size: s.Size(), Capacity: s.Capacity()})
	}

	return
}

// Files - Returns the names of the files making up the index, present or not
func (C *core[K]) Files() []string {
	return storage.FileNames(C.base, C.shape)
}

// Close - Closes all stores. RAM stores give their segments back to the pool.
func (C *core[K]) Close() error {
	return C.idx.Close()
}

// Save - Writes the complete file set of the index under base, replacing existing files.
// A disk index cannot be saved onto its own files.
func (C *core[K]) Save(base string) (err error) {
	if C.opts.Flavor == Disk && base == C.base {
		err = storeerr.Unsupport("%s: cannot save a disk index onto its own files", base)
		return
	}

	names := storage.FileNames(base, C.shape)
	for i, s := range C.idx.Stores() {
		if err = saveStore(s, names[i], C.opts); err != nil {
			return
		}
	}

	log.WithFields(log.Fields{"file": base, "keys": C.Len(), "flavor": C.opts.Flavor}).Debug("saved index")

	return
}

// checkHandle - Returns a RangeViolation unless handle refers to a stored key
func (C *core[K]) checkHandle(handle int64) (err error) {
	if n := C.Len(); handle < 0 || handle >= n {
		err = storeerr.Range("%s: handle %d outside [0, %d)", C.base, handle, n)
	}

	return
}

// materializeStores - Returns RAM copies of the stores of C
func (C *core[K]) materializeStores() (stores []storage.Store, err error) {
	opts := C.opts.storageOptions()
	for _, src := range C.idx.Stores() {
		var dst *ram.Store
		if dst, err = ram.New(src.Name(), src.Width(), opts); err != nil {
			break
		}
		stores = append(stores, dst)
		if err = storage.Copy(dst, src, opts.Pool); err != nil {
			break
		}
	}
	if err != nil {
		closeStores(stores)
		stores = nil
	}

	return
}

// saveStore - Writes a store to fileName in the store file format
func saveStore(s storage.Store, fileName string, opts Options) (err error) {
	if rs, ok := s.(*ram.Store); ok {
		return ram.Save(rs, fileName)
	}

	so := opts.storageOptions()
	so.ReadOnly = false
	dst, err := disk.Create(fileName, s.Width(), so)
	if err != nil {
		return
	}

	err = storage.Copy(dst, s, so.Pool)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		err = errors.Wrapf(err, "save %s", fileName)
	}

	return
}

// shapeWidths - Returns the initial cell widths of the stores of a key shape in file order
func shapeWidths(shape int64, opts Options) []int {
	switch shape {
	case conf.ShapeScalars:
		return []int{conf.ScalarWidth, 1, 1}
	case conf.ShapeVectors:
		return []int{opts.VectorWidth, conf.EndsInitialWidth, conf.HashCacheWidth, 1, 1}
	default:
		return []int{1, conf.EndsInitialWidth, conf.HashCacheWidth, 1, 1}
	}
}

// createStores - Creates empty stores for an index of the given shape
func createStores(base string, shape int64, opts Options) (stores []storage.Store, err error) {
	if opts.Flavor == Disk && base == "" {
		err = storeerr.Unsupport("a disk index needs a base file name")
		return
	}

	p := opts.provider()
	widths := shapeWidths(shape, opts)
	for i, name := range storage.FileNames(base, shape) {
		var s storage.Store
		if s, err = p.Create(name, widths[i]); err != nil {
			closeStores(stores)
			stores = nil
			return
		}
		stores = append(stores, s)
	}

	return
}

// openStores - Opens the stores of an existing index. RAM stores are loaded into memory.
func openStores(base string, shape int64, opts Options) (stores []storage.Store, err error) {
	p := opts.provider()
	for _, name := range storage.FileNames(base, shape) {
		var s storage.Store
		if s, err = p.Open(name); err != nil {
			closeStores(stores)
			stores = nil
			return
		}
		stores = append(stores, s)
	}

	return
}

// tablesOf - Returns the auxiliary index stores among the stores of a key shape
func tablesOf(stores []storage.Store, shape int64) index.Tables {
	if shape == conf.ShapeScalars {
		return index.Tables{Slots: stores[1], Chain: stores[2]}
	}

	return index.Tables{Hashes: stores[2], Slots: stores[3], Chain: stores[4]}
}

// newCore - Builds a fresh index or opens a built one over the stores, closing them on failure
func newCore[K any](keys index.Keys[K], stores []storage.Store, base string, shape int64, opts Options, create bool) (c core[K], err error) {
	tables := tablesOf(stores, shape)

	var idx *index.Index[K]
	if create {
		idx, err = index.New[K](keys, tables, shape, opts.InitialSize, opts.FillFactor)
	} else {
		idx, err = index.Open[K](keys, tables, shape)
	}
	if err != nil {
		closeStores(stores)
		return
	}

	c = core[K]{idx: idx, base: base, shape: shape, opts: opts}

	log.WithFields(log.Fields{"file": base, "keys": idx.Len(), "flavor": opts.Flavor, "created": create}).
		Debug("index ready")

	return
}

// closeStores - Closes stores ignoring errors, used when unwinding a failed open
func closeStores(stores []storage.Store) {
	for _, s := range stores {
		_ = s.Close()
	}
}
