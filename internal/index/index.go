// Package index implements the hash index engine shared by all key shapes.
//
// An index pairs a key store with three integer tables. The hash cache holds the hash of every key, the slot
// table holds for every slot 1 + the index of the most recently added key hashing to it, and the chain table
// holds for every key 1 + the index of the key added before it to the same slot. Zero means none. A slot's
// chain therefore lists its keys newest first. The index grows by doubling its designed capacity and
// replaying all keys in insertion order, which keeps that ordering.
package index

import (
	"math"

	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/hash"
	"github.com/gostonefire/internstore/internal/model"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/internal/utils"
	"github.com/gostonefire/internstore/storeerr"
	log "github.com/sirupsen/logrus"
)

// Keys - Interface for the key store of an index, one implementation per key shape
type Keys[K any] interface {
	// Len - Returns the number of keys
	Len() int64

	// Hash - Returns the hash of a key
	Hash(key K) int64

	// HashAt - Returns the hash of stored key i, computed from its contents
	HashAt(i int64) (int64, error)

	// EqualAt - Returns true if stored key i equals key
	EqualAt(i int64, key K) (bool, error)

	// Append - Stores a key and returns its index
	Append(key K) (int64, error)

	// Truncate - Keeps the first n keys
	Truncate(n int64) error

	// Compact - Releases spare capacity
	Compact() error

	// Close - Releases the underlying stores
	Close() error

	// Stores - Returns the underlying stores in file order
	Stores() []storage.Store
}

// Tables - The auxiliary stores of an index. Hashes is nil for key shapes where the key is its own hash.
type Tables struct {
	Hashes storage.Store
	Slots  storage.Store
	Chain  storage.Store
}

// Index - Hash index over a key store
type Index[K any] struct {
	keys        Keys[K]
	hashes      storage.Store
	slots       storage.Store
	chain       storage.Store
	alg         *hash.SlotAlgorithm
	reindexSize int64
	fillFactor  float64
	shape       int64
}

// New - Returns a pointer to a new Index over keys. Keys already in the store are indexed.
//   - keys is the key store
//   - tables are the auxiliary stores, their contents are replaced
//   - shape is the key shape recorded with the index
//   - reindexSize is the number of keys to size the slot table for
//   - fillFactor is the intended ratio of keys to slots when the index is full
func New[K any](keys Keys[K], tables Tables, shape, reindexSize int64, fillFactor float64) (I *Index[K], err error) {
	if fillFactor <= 0 || fillFactor > 1 {
		err = storeerr.Range("fill factor %v outside (0, 1]", fillFactor)
		return
	}
	if reindexSize < 1 {
		reindexSize = 1
	}
	if n := keys.Len(); reindexSize < n {
		reindexSize = n
	}

	I = &Index[K]{
		keys:        keys,
		hashes:      tables.Hashes,
		slots:       tables.Slots,
		chain:       tables.Chain,
		alg:         hash.NewSlotAlgorithm(reindexSize, fillFactor),
		reindexSize: reindexSize,
		fillFactor:  fillFactor,
		shape:       shape,
	}

	if err = I.Rebuild(); err != nil {
		I = nil
	}

	return
}

// Open - Returns a pointer to an Index over previously built stores, validating that they agree
func Open[K any](keys Keys[K], tables Tables, shape int64) (I *Index[K], err error) {
	slots := tables.Slots
	if slots.ParamCount() <= conf.ParamShape {
		err = corruption("%s: slot table holds %d params", slots.Name(), slots.ParamCount())
		return
	}

	var nSlots, reindexSize, fill, storedShape int64
	if nSlots, err = slots.Param(conf.ParamSlots); err != nil {
		return
	}
	if reindexSize, err = slots.Param(conf.ParamReindexSize); err != nil {
		return
	}
	if fill, err = slots.Param(conf.ParamFillFactor); err != nil {
		return
	}
	if storedShape, err = slots.Param(conf.ParamShape); err != nil {
		return
	}
	fillFactor := float64(fill) / conf.FillFactorScale
	size := keys.Len()

	switch {
	case storedShape != shape:
		err = corruption("%s: index holds key shape %d, expected %d", slots.Name(), storedShape, shape)
	case fillFactor <= 0 || fillFactor > 1:
		err = corruption("%s: fill factor %v outside (0, 1]", slots.Name(), fillFactor)
	case reindexSize < 1 || reindexSize < size:
		err = corruption("%s: designed for %d keys but holds %d", slots.Name(), reindexSize, size)
	case nSlots != slots.Size() || nSlots != hash.TableSize(reindexSize, fillFactor):
		err = corruption("%s: %d slots recorded, %d present", slots.Name(), nSlots, slots.Size())
	case tables.Chain.Size() != size:
		err = corruption("%s: %d chain entries for %d keys", tables.Chain.Name(), tables.Chain.Size(), size)
	case tables.Chain.Width() != slots.Width() || slots.Width() < utils.CellWidth(reindexSize):
		err = corruption("%s: cell widths %d and %d cannot address %d keys", slots.Name(), slots.Width(), tables.Chain.Width(), reindexSize)
	case tables.Hashes != nil && (tables.Hashes.Size() != size || tables.Hashes.Width() != conf.HashCacheWidth):
		err = corruption("%s: %d cached hashes of width %d for %d keys", tables.Hashes.Name(), tables.Hashes.Size(), tables.Hashes.Width(), size)
	}
	if err != nil {
		return
	}

	I = &Index[K]{
		keys:        keys,
		hashes:      tables.Hashes,
		slots:       slots,
		chain:       tables.Chain,
		alg:         hash.NewSlotAlgorithmFromSize(nSlots),
		reindexSize: reindexSize,
		fillFactor:  fillFactor,
		shape:       shape,
	}

	return
}

// Keys - Returns the key store
func (I *Index[K]) Keys() Keys[K] {
	return I.keys
}

// Len - Returns the number of keys
func (I *Index[K]) Len() int64 {
	return I.keys.Len()
}

// Find - Returns the index of key if present
func (I *Index[K]) Find(key K) (index int64, found bool, err error) {
	index, found, err = I.find(key, I.keys.Hash(key))

	return
}

// Add - Returns the index of key, adding it first if it is not present. added tells whether it was added.
// The index is reindexed to twice its designed capacity before a key is added to a full index.
func (I *Index[K]) Add(key K) (index int64, added bool, err error) {
	h := I.keys.Hash(key)

	index, found, err := I.find(key, h)
	if err != nil || found {
		return
	}

	if I.keys.Len() >= I.reindexSize {
		if err = I.Reindex(2 * I.reindexSize); err != nil {
			return
		}
	}

	index, err = I.append(key, h)
	added = err == nil

	return
}

// Reserve - Reindexes once so that n more keys can be added without further reindexing
func (I *Index[K]) Reserve(n int64) (err error) {
	target := I.reindexSize
	for target < I.keys.Len()+n {
		target *= 2
	}

	if target != I.reindexSize {
		err = I.Reindex(target)
	}

	return
}

// Reindex - Resizes the slot table for reindexSize keys and rebuilds slot and chain tables by replaying
// every key in insertion order
func (I *Index[K]) Reindex(reindexSize int64) (err error) {
	size := I.keys.Len()
	if reindexSize < 1 || reindexSize < size {
		err = storeerr.Range("cannot reindex %d keys for a capacity of %d", size, reindexSize)
		return
	}

	alg := hash.NewSlotAlgorithm(reindexSize, I.fillFactor)
	nSlots := alg.GetTableSize()
	width := utils.CellWidth(reindexSize)

	if err = I.slots.Reset(width); err != nil {
		return
	}
	if err = I.slots.SetSize(nSlots); err != nil {
		return
	}
	if err = I.chain.Reset(width); err != nil {
		return
	}
	if err = I.chain.EnsureCapacity(size); err != nil {
		return
	}

	for i := int64(0); i < size; i++ {
		var h int64
		if h, err = I.hashAt(i); err != nil {
			return
		}
		if err = I.link(alg, i, h); err != nil {
			return
		}
	}

	I.alg = alg
	I.reindexSize = reindexSize
	if err = I.writeParams(); err != nil {
		return
	}

	log.WithFields(log.Fields{"file": I.slots.Name(), "keys": size, "slots": nSlots, "width": width}).
		Debug("reindexed hash index")

	return
}

// Rebuild - Recomputes the hash cache from the key contents and reindexes
func (I *Index[K]) Rebuild() (err error) {
	size := I.keys.Len()

	if I.hashes != nil {
		if err = I.hashes.Reset(conf.HashCacheWidth); err != nil {
			return
		}
		if err = I.hashes.EnsureCapacity(size); err != nil {
			return
		}
		for i := int64(0); i < size; i++ {
			var h int64
			if h, err = I.keys.HashAt(i); err != nil {
				return
			}
			if _, err = I.hashes.AppendPackedInt(h); err != nil {
				return
			}
		}
	}

	reindexSize := I.reindexSize
	if reindexSize < size {
		reindexSize = size
	}
	if err = I.Reindex(reindexSize); err != nil {
		return
	}

	log.WithFields(log.Fields{"file": I.slots.Name(), "keys": size}).Debug("rebuilt hash index")

	return
}

// RemoveLast - Removes the most recently added key
func (I *Index[K]) RemoveLast() (err error) {
	size := I.keys.Len()
	if size == 0 {
		err = storeerr.Unsupport("cannot remove from an empty index")
		return
	}

	last := size - 1
	h, err := I.hashAt(last)
	if err != nil {
		return
	}
	slot := I.alg.Slot(h)

	older, err := I.chain.PackedInt(last)
	if err != nil {
		return
	}
	if older == last+1 {
		err = corruption("key %d in chain of slot %d points to itself", last, slot)
		return
	}

	head, err := I.slots.PackedInt(slot)
	if err != nil {
		return
	}

	if head == last+1 {
		err = I.slots.SetPackedInt(slot, older)
	} else {
		err = I.unlink(slot, head, last, older, size)
	}
	if err != nil {
		return
	}

	if err = I.keys.Truncate(last); err != nil {
		return
	}
	if I.hashes != nil {
		if err = I.hashes.SetSize(last); err != nil {
			return
		}
	}
	err = I.chain.SetSize(last)

	return
}

// Remove - Removes key i, which must be the most recently added key
func (I *Index[K]) Remove(i int64) (err error) {
	size := I.keys.Len()
	switch {
	case size == 0:
		err = storeerr.Unsupport("cannot remove key %d from an empty index", i)
	case i < 0 || i >= size:
		err = storeerr.Range("key %d outside [0, %d)", i, size)
	case i != size-1:
		err = storeerr.Unsupport("only the last key %d can be removed, not %d", size-1, i)
	default:
		err = I.RemoveLast()
	}

	return
}

// Compact - Releases spare capacity of all stores
func (I *Index[K]) Compact() (err error) {
	for _, s := range I.Stores() {
		if err = s.Compact(); err != nil {
			return
		}
	}

	log.WithFields(log.Fields{"file": I.slots.Name(), "keys": I.keys.Len()}).Debug("compacted hash index")

	return
}

// Close - Closes all stores, returning the first error
func (I *Index[K]) Close() (err error) {
	err = I.keys.Close()
	for _, s := range []storage.Store{I.hashes, I.slots, I.chain} {
		if s == nil {
			continue
		}
		if closeErr := s.Close(); err == nil {
			err = closeErr
		}
	}

	return
}

// Stores - Returns all stores of the index in file order: keys, hash cache, slots, chain
func (I *Index[K]) Stores() (stores []storage.Store) {
	stores = append(stores, I.keys.Stores()...)
	if I.hashes != nil {
		stores = append(stores, I.hashes)
	}
	stores = append(stores, I.slots, I.chain)

	return
}

// Parameters - Returns the sizing of the index
func (I *Index[K]) Parameters() model.IndexParameters {
	return model.IndexParameters{
		Slots:       I.alg.GetTableSize(),
		ReindexSize: I.reindexSize,
		FillFactor:  I.fillFactor,
		CellWidth:   I.slots.Width(),
	}
}

// Chain - Returns an iterator over the keys of a slot
func (I *Index[K]) Chain(slot int64) (c *Chain, err error) {
	nSlots := I.alg.GetTableSize()
	if slot < 0 || slot >= nSlots {
		err = storeerr.Range("slot %d outside [0, %d)", slot, nSlots)
		return
	}

	head, err := I.slots.PackedInt(slot)
	if err != nil {
		return
	}
	c = newChain(I.chain, slot, head, I.keys.Len())

	return
}

// Stat - Returns statistics on how keys are distributed over slots
func (I *Index[K]) Stat() (stat model.Stat, err error) {
	stat.Keys = I.keys.Len()
	stat.Slots = I.alg.GetTableSize()
	stat.ChainDistribution = []int64{0}

	for slot := int64(0); slot < stat.Slots; slot++ {
		var c *Chain
		if c, err = I.Chain(slot); err != nil {
			return
		}

		var length int64
		for c.HasNext() {
			if _, err = c.Next(); err != nil {
				return
			}
			length++
		}

		for int64(len(stat.ChainDistribution)) <= length {
			stat.ChainDistribution = append(stat.ChainDistribution, 0)
		}
		stat.ChainDistribution[length]++
		if length > 0 {
			stat.UsedSlots++
		}
		if length > stat.LongestChain {
			stat.LongestChain = length
		}
	}

	return
}

// find - Walks the chain of the slot for h looking for key. Cached hashes are compared before keys.
func (I *Index[K]) find(key K, h int64) (index int64, found bool, err error) {
	index = -1

	c, err := I.Chain(I.alg.Slot(h))
	if err != nil {
		return
	}

	for c.HasNext() {
		var i int64
		if i, err = c.Next(); err != nil {
			return
		}

		if I.hashes != nil {
			var cached int64
			if cached, err = I.hashes.PackedInt(i); err != nil {
				return
			}
			if cached != h {
				continue
			}
		}

		var equal bool
		if equal, err = I.keys.EqualAt(i, key); err != nil {
			return
		}
		if equal {
			index, found = i, true
			return
		}
	}

	return
}

// append - Stores key with hash h and links it first into its slot's chain. On failure the stores are cut
// back to their previous sizes.
func (I *Index[K]) append(key K, h int64) (index int64, err error) {
	if index, err = I.keys.Append(key); err != nil {
		return
	}

	if I.hashes != nil {
		_, err = I.hashes.AppendPackedInt(h)
	}
	if err == nil {
		err = I.link(I.alg, index, h)
	}
	if err != nil {
		I.rollback(index)
	}

	return
}

// rollback - Cuts keys, hash cache and chain table back to n entries after a failed append
func (I *Index[K]) rollback(n int64) {
	if I.chain.Size() > n {
		_ = I.chain.SetSize(n)
	}
	if I.hashes != nil && I.hashes.Size() > n {
		_ = I.hashes.SetSize(n)
	}
	if err := I.keys.Truncate(n); err != nil {
		log.WithError(err).WithField("file", I.slots.Name()).Error("rolling back failed append")
	}
}

// link - Makes key i, whose chain cell is the next to append, the head of the chain for h under alg
func (I *Index[K]) link(alg *hash.SlotAlgorithm, i, h int64) (err error) {
	slot := alg.Slot(h)

	head, err := I.slots.PackedInt(slot)
	if err != nil {
		return
	}
	if _, err = I.chain.AppendPackedInt(head); err != nil {
		return
	}

	err = I.slots.SetPackedInt(slot, i+1)

	return
}

// unlink - Finds the key in the chain starting at head that points to last and makes it point to older
func (I *Index[K]) unlink(slot, head, last, older, size int64) (err error) {
	c := newChain(I.chain, slot, head, size)
	for c.HasNext() {
		var i, next int64
		if i, err = c.Next(); err != nil {
			return
		}
		if next, err = I.chain.PackedInt(i); err != nil {
			return
		}
		if next == last+1 {
			err = I.chain.SetPackedInt(i, older)
			return
		}
	}

	err = corruption("key %d is missing from the chain of slot %d", last, slot)

	return
}

// hashAt - Returns the hash of key i, from the hash cache when there is one
func (I *Index[K]) hashAt(i int64) (int64, error) {
	if I.hashes != nil {
		return I.hashes.PackedInt(i)
	}

	return I.keys.HashAt(i)
}

// writeParams - Persists the sizing of the index with the slot table
func (I *Index[K]) writeParams() (err error) {
	params := []int64{
		conf.ParamSlots:       I.alg.GetTableSize(),
		conf.ParamReindexSize: I.reindexSize,
		conf.ParamFillFactor:  int64(math.Round(I.fillFactor * conf.FillFactorScale)),
		conf.ParamShape:       I.shape,
	}
	for i, v := range params {
		if err = I.slots.SetParam(i, v); err != nil {
			return
		}
	}

	return
}

// corruption - Logs and returns a Corruption error
func corruption(format string, a ...any) error {
	err := storeerr.Corrupt(format, a...)
	log.WithError(err).Error("hash index corruption detected")

	return err
}
