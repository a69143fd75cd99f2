// Package packed implements big-endian variable-width integers of 1 to 8 bytes.
//
// A value written with width w occupies exactly w bytes and is read back zero-extended, except for
// width 8 where the full int64 bit pattern round trips (negative values included).
package packed

// MaxWidth - Widest packed integer
const MaxWidth = 8

// ValidWidth - Returns true if width can be used for packing
func ValidWidth(width int) bool {
	return width >= 1 && width <= MaxWidth
}

// Fits - Returns true if value can be stored in width bytes without loss
func Fits(value int64, width int) bool {
	if width >= MaxWidth {
		return true
	}
	if value < 0 {
		return false
	}
	return uint64(value) < uint64(1)<<(8*uint(width))
}

// WidthFor - Returns the smallest width that holds value, negative values need the full width
func WidthFor(value int64) int {
	if value < 0 {
		return MaxWidth
	}
	w := 1
	for w < MaxWidth && !Fits(value, w) {
		w++
	}
	return w
}

// Get - Reads a packed integer of width bytes starting at buf[off]
func Get(buf []byte, off, width int) int64 {
	var v uint64
	for _, b := range buf[off : off+width] {
		v = v<<8 | uint64(b)
	}
	return int64(v)
}

// Put - Writes the low width bytes of value big-endian starting at buf[off]
func Put(buf []byte, off int, value int64, width int) {
	v := uint64(value)
	for i := off + width - 1; i >= off; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
}
