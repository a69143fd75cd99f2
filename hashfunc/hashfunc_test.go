//go:build unit

package hashfunc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytes(t *testing.T) {
	t.Run("empty key hashes to zero", func(t *testing.T) {
		assert.Equal(t, int64(0), Bytes(nil))
	})

	t.Run("short keys follow the rolling formula", func(t *testing.T) {
		// Prepare
		h := uint64(2)
		h = h*Prime ^ 'a'
		h = h*Prime ^ 'b'

		// Execute
		got := Bytes([]byte("ab"))

		// Check
		assert.Equal(t, int64(h&Mask), got)
	})

	t.Run("hashes fit in 48 bits", func(t *testing.T) {
		for _, key := range []string{"a", "hello world", "the quick brown fox jumps over the lazy dog"} {
			h := Bytes([]byte(key))
			assert.GreaterOrEqual(t, h, int64(0))
			assert.Less(t, h, int64(1)<<Bits)
		}
	})

	t.Run("long keys differing in unsampled positions collide", func(t *testing.T) {
		// Prepare
		a := make([]byte, 32)
		b := make([]byte, 32)
		for i := range a {
			a[i] = byte('a' + i%26)
			b[i] = a[i]
			if i%2 == 1 {
				b[i] = 'z'
			}
		}

		// Execute and Check
		assert.Equal(t, 2, Stride(32))
		assert.Equal(t, Bytes(a), Bytes(b))
		assert.NotEqual(t, string(a), string(b))
	})

	t.Run("every unit counts in short keys", func(t *testing.T) {
		assert.NotEqual(t, Bytes([]byte("abcdefghijklmnop")), Bytes([]byte("abcdefghijklmnoq")))
	})
}

func TestInt64s(t *testing.T) {
	t.Run("vector hash matches byte hash for small units", func(t *testing.T) {
		assert.Equal(t, Bytes([]byte{1, 2, 3}), Int64s([]int64{1, 2, 3}))
	})

	t.Run("length is part of the hash", func(t *testing.T) {
		assert.NotEqual(t, Int64s([]int64{0}), Int64s([]int64{0, 0}))
	})
}

func TestStride(t *testing.T) {
	assert.Equal(t, 1, Stride(0))
	assert.Equal(t, 1, Stride(16))
	assert.Equal(t, 1, Stride(17))
	assert.Equal(t, 2, Stride(32))
	assert.Equal(t, 62, Stride(1000))
}

func TestSlot(t *testing.T) {
	assert.Equal(t, int64(5), Slot(28, 23))
	assert.Equal(t, int64(uint64(1<<63)%23), Slot(-1<<63, 23))
	assert.Equal(t, int64(7), Slot(Scalar(7), 23))
}
