//go:build unit

package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableSize(t *testing.T) {
	t.Run("default sizing gives 23 slots", func(t *testing.T) {
		assert.Equal(t, int64(23), TableSize(16, 0.75))
	})

	t.Run("table sizes are odd and not multiples of 3 or 5", func(t *testing.T) {
		for reindexSize := int64(0); reindexSize < 2000; reindexSize += 7 {
			// Execute
			n := TableSize(reindexSize, 0.75)

			// Check
			assert.NotZero(t, n%2, "size %d", reindexSize)
			assert.NotZero(t, n%3, "size %d", reindexSize)
			assert.NotZero(t, n%5, "size %d", reindexSize)
			assert.GreaterOrEqual(t, float64(n), float64(reindexSize)/0.75)
		}
	})

	t.Run("exact quotients are not rounded up", func(t *testing.T) {
		assert.Equal(t, int64(11), TableSize(7, 0.7))
		assert.Equal(t, int64(7), TableSize(7, 1))
	})

	t.Run("steps over multiples of 3 and 5", func(t *testing.T) {
		assert.Equal(t, int64(7), TableSize(5, 1))
		assert.Equal(t, int64(29), TableSize(25, 1))
		assert.Equal(t, int64(1), TableSize(0, 0.75))
	})
}

func TestSlotAlgorithm_Slot(t *testing.T) {
	t.Run("slots stay within the table", func(t *testing.T) {
		// Prepare
		sa := NewSlotAlgorithm(32, 0.75)

		// Execute and Check
		assert.Equal(t, int64(43), sa.GetTableSize())
		for _, h := range []int64{0, 1, 42, 43, 1<<48 - 1, -1} {
			s := sa.Slot(h)
			assert.GreaterOrEqual(t, s, int64(0))
			assert.Less(t, s, sa.GetTableSize())
		}
	})

	t.Run("table size can be set again", func(t *testing.T) {
		// Prepare
		sa := NewSlotAlgorithmFromSize(23)

		// Execute
		sa.SetTableSize(64, 0.75)

		// Check
		assert.Equal(t, int64(89), sa.GetTableSize())
	})
}
