package records

import (
	"github.com/gostonefire/internstore/internal/packed"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/storeerr"
	log "github.com/sirupsen/logrus"
)

// endTable - End offsets of variable length records, one packed cell per record. Record i spans
// [end(i-1), end(i)) of the data store, with end(-1) = 0. The cell width is widened when an offset
// no longer fits.
type endTable struct {
	store storage.Store
}

// Len - Returns the number of records
func (E *endTable) Len() int64 {
	return E.store.Size()
}

// EndOf - Returns the offset where the first n records end
func (E *endTable) EndOf(n int64) (end int64, err error) {
	if n == 0 {
		return
	}

	end, err = E.store.PackedInt(n - 1)

	return
}

// Bounds - Returns the span of record i, validating it against the data store size limit
func (E *endTable) Bounds(i, limit int64) (start, end int64, err error) {
	if i < 0 || i >= E.store.Size() {
		err = storeerr.Range("%s: record %d outside [0, %d)", E.store.Name(), i, E.store.Size())
		return
	}

	if start, err = E.EndOf(i); err != nil {
		return
	}
	if end, err = E.store.PackedInt(i); err != nil {
		return
	}

	if start < 0 || start > end || end > limit {
		err = storeerr.Corrupt("%s: record %d spans [%d, %d) outside [0, %d)", E.store.Name(), i, start, end, limit)
	}

	return
}

// Append - Appends an end offset, widening the cells when needed
func (E *endTable) Append(end int64) (i int64, err error) {
	if !packed.Fits(end, E.store.Width()) {
		if err = E.widen(packed.WidthFor(end)); err != nil {
			return
		}
	}

	i, err = E.store.AppendPackedInt(end)

	return
}

// Truncate - Keeps the first n records
func (E *endTable) Truncate(n int64) (err error) {
	if n < 0 || n > E.store.Size() {
		err = storeerr.Range("%s: cannot truncate %d records to %d", E.store.Name(), E.store.Size(), n)
		return
	}

	err = E.store.SetSize(n)

	return
}

// Check - Validates that the last record ends where the data store ends
func (E *endTable) Check(dataSize int64) (err error) {
	end, err := E.EndOf(E.Len())
	if err != nil {
		return
	}

	if end != dataSize {
		err = storeerr.Corrupt("%s: records end at %d but data holds %d", E.store.Name(), end, dataSize)
	}

	return
}

// widen - Rewrites all offsets with a larger cell width
func (E *endTable) widen(width int) (err error) {
	n := E.store.Size()
	ends := make([]int64, n)
	for i := range ends {
		if ends[i], err = E.store.PackedInt(int64(i)); err != nil {
			return
		}
	}

	if err = E.store.Reset(width); err != nil {
		return
	}
	if err = E.store.EnsureCapacity(n + 1); err != nil {
		return
	}
	for _, end := range ends {
		if _, err = E.store.AppendPackedInt(end); err != nil {
			return
		}
	}

	log.WithFields(log.Fields{"file": E.store.Name(), "records": n, "width": width}).Debug("widened end offsets")

	return
}
