//go:build unit

package storage

import (
	"testing"

	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/model"
	"github.com/gostonefire/internstore/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderToBytes(t *testing.T) {
	t.Run("header round trips", func(t *testing.T) {
		// Prepare
		header := model.Header{
			Version:    conf.FormatVersion,
			Width:      3,
			ParamCount: 4,
			Size:       123456,
			Params:     [4]int64{23, 16, 750000, -1},
		}

		// Execute
		buf := HeaderToBytes(header)
		header2, err := BytesToHeader(buf)

		// Check
		require.NoError(t, err)
		assert.Len(t, buf, int(conf.HeaderLength))
		assert.Equal(t, header, header2)
		assert.Equal(t, []byte("IST"), buf[:3])
		assert.Equal(t, []byte{0, 0, 0, 0, 0, 1, 0xe2, 0x40}, buf[8:16], "size is big-endian")
		assert.Equal(t, []byte{0, 0}, buf[6:8], "reserved bytes are zero")
	})
}

func TestBytesToHeader(t *testing.T) {
	valid := func() []byte {
		return HeaderToBytes(model.Header{Width: 8, ParamCount: 1, Size: 5, Params: [4]int64{7}})
	}

	cases := map[string]func(buf []byte) []byte{
		"bad magic":       func(buf []byte) []byte { buf[0] = 'X'; return buf },
		"bad version":     func(buf []byte) []byte { buf[conf.VersionOffset] = 9; return buf },
		"zero width":      func(buf []byte) []byte { buf[conf.WidthOffset] = 0; return buf },
		"too wide":        func(buf []byte) []byte { buf[conf.WidthOffset] = 9; return buf },
		"param count":     func(buf []byte) []byte { buf[conf.ParamCountOffset] = 5; return buf },
		"flipped size":    func(buf []byte) []byte { buf[conf.SizeOffset+7] ^= 1; return buf },
		"flipped param":   func(buf []byte) []byte { buf[conf.ParamsOffset+31] ^= 1; return buf },
		"flipped reserve": func(buf []byte) []byte { buf[20] = 1; return buf },
		"short":           func(buf []byte) []byte { return buf[:10] },
	}

	for name, damage := range cases {
		t.Run(name+" is corruption", func(t *testing.T) {
			// Execute
			_, err := BytesToHeader(damage(valid()))

			// Check
			assert.ErrorIs(t, err, storeerr.Corruption{})
		})
	}
}

func TestCapacityFromFileSize(t *testing.T) {
	header := model.Header{Width: 4, Size: 3}

	t.Run("whole cells give capacity", func(t *testing.T) {
		capacity, err := CapacityFromFileSize(header, conf.HeaderLength+40)
		require.NoError(t, err)
		assert.Equal(t, int64(10), capacity)
	})

	t.Run("partial cell is corruption", func(t *testing.T) {
		_, err := CapacityFromFileSize(header, conf.HeaderLength+41)
		assert.ErrorIs(t, err, storeerr.Corruption{})
	})

	t.Run("size beyond capacity is corruption", func(t *testing.T) {
		_, err := CapacityFromFileSize(header, conf.HeaderLength+8)
		assert.ErrorIs(t, err, storeerr.Corruption{})
	})

	t.Run("truncated header is corruption", func(t *testing.T) {
		_, err := CapacityFromFileSize(header, 10)
		assert.ErrorIs(t, err, storeerr.Corruption{})
	})
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, []string{"b", "b.ends", "b.hash", "b.slots", "b.chain"}, FileNames("b", conf.ShapeBytes))
	assert.Equal(t, []string{"b", "b.slots", "b.chain"}, FileNames("b", conf.ShapeScalars))
}

func TestNextCapacity(t *testing.T) {
	t.Run("doubles small stores and snaps to blocks", func(t *testing.T) {
		assert.Equal(t, int64(4096), NextCapacity(0, 1, 1, 4096))
		assert.Equal(t, int64(8192), NextCapacity(4096, 4097, 1, 4096))
		assert.Equal(t, int64(512), NextCapacity(0, 100, 8, 4096))
	})

	t.Run("enough capacity is kept", func(t *testing.T) {
		assert.Equal(t, int64(100), NextCapacity(100, 50, 1, 4096))
	})

	t.Run("growth factor shrinks with size", func(t *testing.T) {
		assert.Equal(t, int64(24<<20), NextCapacity(16<<20, 16<<20+1, 1, 0))
		assert.Equal(t, int64(80<<20), NextCapacity(64<<20, 64<<20+1, 1, 0))
		assert.Equal(t, int64(256<<20+256<<20/6), NextCapacity(256<<20, 256<<20+1, 1, 0))
	})

	t.Run("odd widths still hold the needed cells", func(t *testing.T) {
		c := NextCapacity(0, 1000, 6, 4096)
		assert.GreaterOrEqual(t, c, int64(1000))
		assert.Equal(t, int64(8192/6), c)
	})
}

func TestCheckRange(t *testing.T) {
	assert.NoError(t, CheckRange("s", 0, 4, 4))
	assert.ErrorIs(t, CheckRange("s", 1, 4, 4), storeerr.RangeViolation{})
	assert.ErrorIs(t, CheckRange("s", -1, 1, 4), storeerr.RangeViolation{})
	assert.ErrorIs(t, CheckParam("s", 4), storeerr.RangeViolation{})
}
