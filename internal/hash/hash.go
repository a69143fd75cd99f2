package hash

import (
	"math"

	"github.com/gostonefire/internstore/hashfunc"
)

// SlotAlgorithm - Maps key hashes to slots using hash mod tableSize, where tableSize is the smallest odd
// number of at least reindexSize/fillFactor that is not a multiple of 3 or 5.
type SlotAlgorithm struct {
	tableSize int64
}

// NewSlotAlgorithm - Returns a pointer to a new SlotAlgorithm instance sized for reindexSize keys
func NewSlotAlgorithm(reindexSize int64, fillFactor float64) *SlotAlgorithm {
	sa := &SlotAlgorithm{}
	sa.SetTableSize(reindexSize, fillFactor)
	return sa
}

// NewSlotAlgorithmFromSize - Returns a pointer to a new SlotAlgorithm instance with a known table size
func NewSlotAlgorithmFromSize(tableSize int64) *SlotAlgorithm {
	return &SlotAlgorithm{tableSize: tableSize}
}

// SetTableSize - Sets the table size for the given designed capacity and fill factor
func (S *SlotAlgorithm) SetTableSize(reindexSize int64, fillFactor float64) {
	S.tableSize = TableSize(reindexSize, fillFactor)
}

// GetTableSize - Returns the number of slots
func (S *SlotAlgorithm) GetTableSize() int64 {
	return S.tableSize
}

// Slot - Given a key hash it returns a slot between 0 and table size - 1
func (S *SlotAlgorithm) Slot(hash int64) int64 {
	return hashfunc.Slot(hash, S.tableSize)
}

// TableSize - Returns the smallest odd number, not a multiple of 3 or 5, of at least
// ceil(reindexSize / fillFactor)
func TableSize(reindexSize int64, fillFactor float64) int64 {
	// Tolerate float noise so that exact quotients are not rounded up
	n := int64(math.Ceil(float64(reindexSize)/fillFactor - 1e-9))
	if n < 1 {
		n = 1
	}
	if n%2 == 0 {
		n++
	}
	for n%3 == 0 || n%5 == 0 {
		n += 2
	}

	return n
}
