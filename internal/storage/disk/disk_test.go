//go:build integration

package disk

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/file"
	"github.com/gostonefire/internstore/internal/pool"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/internal/storage/ram"
	"github.com/gostonefire/internstore/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() storage.Options {
	return storage.Options{RangeChecks: true, Pool: pool.New(64, 4), Handles: 2}
}

func TestCreate(t *testing.T) {
	t.Run("cells and params survive reopen", func(t *testing.T) {
		// Prepare
		fileName := filepath.Join(t.TempDir(), "chain")
		s, err := Create(fileName, 3, testOptions())
		require.NoError(t, err)
		for i := int64(0); i < 1000; i++ {
			_, err = s.AppendPackedInt(i * 7)
			require.NoError(t, err)
		}
		require.NoError(t, s.SetParam(3, 2))
		require.NoError(t, s.Close())

		// Execute
		s, err = Open(fileName, testOptions())

		// Check
		require.NoError(t, err)
		assert.Equal(t, int64(1000), s.Size())
		assert.Equal(t, 3, s.Width())
		assert.GreaterOrEqual(t, s.Capacity(), int64(1000))
		p, _ := s.Param(3)
		assert.Equal(t, int64(2), p)
		for i := int64(0); i < 1000; i += 37 {
			v, err := s.PackedInt(i)
			require.NoError(t, err)
			assert.Equal(t, i*7, v)
		}

		// Clean up
		assert.NoError(t, s.Close())
	})

	t.Run("header is written through without close", func(t *testing.T) {
		// Prepare
		fileName := filepath.Join(t.TempDir(), "keys")
		s, err := Create(fileName, 1, testOptions())
		require.NoError(t, err)

		// Execute
		require.NoError(t, s.SetSize(5))
		require.NoError(t, s.SetBytes([]byte("hello"), 0))

		// Check
		header, capacity, err := file.GetFileHeader(fileName)
		require.NoError(t, err)
		assert.Equal(t, int64(5), header.Size)
		assert.Equal(t, conf.DiskBlockBytes, capacity)

		// Clean up
		assert.NoError(t, s.Close())
	})

	t.Run("compact truncates the file", func(t *testing.T) {
		// Prepare
		fileName := filepath.Join(t.TempDir(), "keys")
		s, err := Create(fileName, 2, testOptions())
		require.NoError(t, err)
		require.NoError(t, s.SetSize(10))

		// Execute
		err = s.Compact()

		// Check
		require.NoError(t, err)
		stat, err := os.Stat(fileName)
		require.NoError(t, err)
		assert.Equal(t, conf.HeaderLength+20, stat.Size())
		assert.Equal(t, int64(10), s.Capacity())

		// Clean up
		assert.NoError(t, s.Close())
	})
}

func TestStore_Ranges(t *testing.T) {
	t.Run("accesses outside size are range violations", func(t *testing.T) {
		// Prepare
		s, err := Create(filepath.Join(t.TempDir(), "keys"), 1, testOptions())
		require.NoError(t, err)
		require.NoError(t, s.SetSize(4))

		// Execute and Check
		assert.ErrorIs(t, s.Bytes(make([]byte, 2), 3), storeerr.RangeViolation{})
		_, err = s.PackedInt(4)
		assert.ErrorIs(t, err, storeerr.RangeViolation{})
		assert.ErrorIs(t, s.SetPackedInt(0, 256), storeerr.RangeViolation{})
		assert.ErrorIs(t, s.SetCapacity(3), storeerr.RangeViolation{})

		// Clean up
		assert.NoError(t, s.Close())
	})

	t.Run("shrinking then growing size zero fills", func(t *testing.T) {
		// Prepare
		s, err := Create(filepath.Join(t.TempDir(), "keys"), 1, testOptions())
		require.NoError(t, err)
		require.NoError(t, s.SetSize(200))
		require.NoError(t, s.SetByte(150, 9))

		// Execute
		require.NoError(t, s.SetSize(100))
		require.NoError(t, s.SetSize(200))

		// Check
		b, err := s.Byte(150)
		require.NoError(t, err)
		assert.Zero(t, b)

		// Clean up
		assert.NoError(t, s.Close())
	})
}

func TestOpen(t *testing.T) {
	t.Run("read-only store refuses writes", func(t *testing.T) {
		// Prepare
		fileName := filepath.Join(t.TempDir(), "keys")
		s, err := Create(fileName, 1, testOptions())
		require.NoError(t, err)
		require.NoError(t, s.SetSize(1))
		require.NoError(t, s.Close())
		opts := testOptions()
		opts.ReadOnly = true

		// Execute
		s, err = Open(fileName, opts)
		require.NoError(t, err)
		err = s.SetByte(0, 1)

		// Check
		assert.ErrorIs(t, err, storeerr.Unsupported{})
		assert.ErrorIs(t, s.SetParam(0, 1), storeerr.Unsupported{})

		// Clean up
		assert.NoError(t, s.Close())
	})

	t.Run("second writer is refused", func(t *testing.T) {
		// Prepare
		fileName := filepath.Join(t.TempDir(), "keys")
		s, err := Create(fileName, 1, testOptions())
		require.NoError(t, err)

		// Execute
		_, err = Open(fileName, testOptions())

		// Check
		assert.ErrorIs(t, err, file.ErrLocked)

		// Clean up
		assert.NoError(t, s.Close())
	})

	t.Run("corrupt file is refused", func(t *testing.T) {
		// Prepare
		fileName := filepath.Join(t.TempDir(), "keys")
		require.NoError(t, os.WriteFile(fileName, make([]byte, conf.HeaderLength), 0644))

		// Execute
		_, err := Open(fileName, testOptions())

		// Check
		assert.ErrorIs(t, err, storeerr.Corruption{})
	})
}

func TestStore_Handles(t *testing.T) {
	t.Run("concurrent readers share the handle pool", func(t *testing.T) {
		// Prepare
		fileName := filepath.Join(t.TempDir(), "keys")
		s, err := Create(fileName, 8, testOptions())
		require.NoError(t, err)
		for i := int64(0); i < 100; i++ {
			_, err = s.AppendPackedInt(i)
			require.NoError(t, err)
		}

		// Execute
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := int64(0); i < 100; i++ {
					v, err := s.PackedInt(i)
					if err == nil && v != i {
						err = storeerr.Corrupt("cell %d read as %d", i, v)
					}
					if err != nil {
						errs <- err
						return
					}
				}
			}()
		}
		wg.Wait()
		close(errs)

		// Check
		for err := range errs {
			assert.NoError(t, err)
		}

		// Clean up
		assert.NoError(t, s.Close())
	})
}

func TestCrossFlavor(t *testing.T) {
	t.Run("a saved ram store opens as a disk store and back", func(t *testing.T) {
		// Prepare
		fileName := filepath.Join(t.TempDir(), "vectors")
		r, err := ram.New("vectors", 6, testOptions())
		require.NoError(t, err)
		for i := int64(0); i < 300; i++ {
			_, err = r.AppendPackedInt(i << 20)
			require.NoError(t, err)
		}
		require.NoError(t, r.SetParam(0, 5))
		require.NoError(t, ram.Save(r, fileName))

		// Execute
		d, err := Open(fileName, testOptions())
		require.NoError(t, err)
		back, err := ram.New("copy", 1, testOptions())
		require.NoError(t, err)
		err = storage.Copy(back, d, pool.New(32, 1))

		// Check
		require.NoError(t, err)
		assert.Equal(t, int64(300), d.Size())
		assert.Equal(t, int64(300), back.Size())
		for i := int64(0); i < 300; i += 13 {
			v, _ := d.PackedInt(i)
			assert.Equal(t, i<<20, v)
			v, _ = back.PackedInt(i)
			assert.Equal(t, i<<20, v)
		}
		p, _ := back.Param(0)
		assert.Equal(t, int64(5), p)

		// Clean up
		assert.NoError(t, d.Close())
	})
}
