// Package hashfunc holds the key hash used by the hash index.
//
// The hash is a multiplicative rolling hash seeded with the number of units in the key:
//
//	h = n
//	for each sampled unit u: h = h*1099511628211 XOR u
//
// and truncated to 48 bits. Keys of up to 16 units visit every unit. Longer keys sample every n/16:th unit
// starting with the first, so two long keys differing only in units that are not sampled hash the same.
// Stored hash caches depend on the exact values, so the function must not change between versions.
package hashfunc

// Prime - Multiplier of the rolling hash
const Prime uint64 = 1099511628211

// Bits - Number of significant bits in a hash
const Bits = 48

// Mask - Mask keeping the significant bits of a hash
const Mask uint64 = 1<<Bits - 1

// sampleUnits - Keys up to this many units are hashed in full
const sampleUnits = 16

// Stride - Returns the sampling stride for a key of n units
func Stride(n int) int {
	if n <= sampleUnits {
		return 1
	}
	return n / sampleUnits
}

// Bytes - Returns the hash of a byte string key
func Bytes(key []byte) int64 {
	n := len(key)
	h := uint64(n)
	stride := Stride(n)
	for i := 0; i < n; i += stride {
		h = h*Prime ^ uint64(key[i])
	}

	return int64(h & Mask)
}

// Int64s - Returns the hash of an integer vector key
func Int64s(key []int64) int64 {
	n := len(key)
	h := uint64(n)
	stride := Stride(n)
	for i := 0; i < n; i += stride {
		h = h*Prime ^ uint64(key[i])
	}

	return int64(h & Mask)
}

// Scalar - Returns the hash of a scalar key, which is the key itself
func Scalar(key int64) int64 {
	return key
}

// Slot - Maps a hash to one of nSlots slots
func Slot(hash, nSlots int64) int64 {
	return int64(uint64(hash) % uint64(nSlots))
}
