package storage

import "github.com/gostonefire/internstore/internal/conf"

// NextCapacity - Returns the capacity in cells a store of the given width should grow to in order to hold needed
// cells. Capacity grows geometrically in bytes, doubling while small and with a shrinking factor as it gets
// larger, and the result is snapped up to a multiple of blockBytes.
func NextCapacity(current, needed int64, width int, blockBytes int64) (capacity int64) {
	if needed <= current {
		capacity = current
		return
	}

	w := int64(width)
	neededBytes := needed * w
	b := current * w
	if b == 0 {
		b = neededBytes
	}
	for b < neededBytes {
		b = growBytes(b)
	}

	if blockBytes > 0 {
		if rem := b % blockBytes; rem != 0 {
			b += blockBytes - rem
		}
	}

	capacity = b / w

	return
}

// growBytes - Applies one step of the growth policy to a byte size
func growBytes(b int64) int64 {
	switch {
	case b < conf.GrowDoubleBelow:
		return b * 2
	case b < conf.GrowHalfBelow:
		return b + b/2
	case b < conf.GrowQuarterBelow:
		return b + b/4
	default:
		return b + b/6
	}
}
