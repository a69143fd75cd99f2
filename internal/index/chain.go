package index

import (
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/storeerr"
)

// Chain - Is used to iterate over the keys of one slot, most recently added first.
// Every step is validated: pointers must stay below the number of keys, must not point to themselves and
// a walk can never be longer than the number of keys.
type Chain struct {
	chain storage.Store
	slot  int64
	size  int64
	next  int64
	steps int64
}

// newChain - Returns a pointer to a new Chain starting at head, which is 1 + index of the first key or 0
func newChain(chain storage.Store, slot, head, size int64) *Chain {
	return &Chain{
		chain: chain,
		slot:  slot,
		size:  size,
		next:  head,
	}
}

// HasNext - Returns true if there are more keys to be fetched from a call to Next.
func (C *Chain) HasNext() bool {
	return C.next != 0
}

// Next - Returns the index of the next key in the chain.
// It returns:
//   - index is the index of the next key.
//   - err is either a standard error, an error of type storeerr.Corruption if the chain is damaged or, if there
//     are no more keys when calling this function, an error of type storeerr.NoRecordFound.
func (C *Chain) Next() (index int64, err error) {
	if C.next == 0 {
		err = storeerr.NotFound("chain of slot %d exhausted", C.slot)
		return
	}

	index = C.next - 1
	if index < 0 || index >= C.size {
		err = corruption("chain of slot %d points to key %d of %d", C.slot, index, C.size)
		return
	}

	C.steps++
	if C.steps > C.size {
		err = corruption("chain of slot %d is longer than the %d keys, it has a cycle", C.slot, C.size)
		return
	}

	next, err := C.chain.PackedInt(index)
	if err != nil {
		return
	}
	if next == C.next {
		err = corruption("key %d in chain of slot %d points to itself", index, C.slot)
		return
	}
	C.next = next

	return
}
