package utils

import "github.com/gostonefire/internstore/internal/packed"

// IsEqual - Returns true if a and b are equal both in size and contents
func IsEqual(a, b []byte) bool {
	lenA := len(a)
	if lenA != len(b) {
		return false
	}

	for i := 0; i < lenA; i++ {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// IsEqualInt64s - Returns true if a and b are equal both in size and contents
func IsEqualInt64s(a, b []int64) bool {
	lenA := len(a)
	if lenA != len(b) {
		return false
	}

	for i := 0; i < lenA; i++ {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// CellWidth - Returns the byte width of slot and chain cells for an index designed to hold reindexSize keys.
// Cells store index + 1, so the width must hold reindexSize itself.
func CellWidth(reindexSize int64) int {
	return packed.WidthFor(reindexSize)
}

// MinInt64 - Returns the smaller of a and b
func MinInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
