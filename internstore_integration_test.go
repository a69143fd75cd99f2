//go:build integration

package internstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateByteIndex_Disk(t *testing.T) {
	t.Run("keys survive close and reopen", func(t *testing.T) {
		// Prepare
		base := filepath.Join(t.TempDir(), "words")
		b, err := CreateByteIndex(base, Options{Flavor: Disk})
		require.NoError(t, err)
		_, err = b.AddStrings([]string{"a", "b", "c", "a", "d"})
		require.NoError(t, err)
		require.NoError(t, b.Close())

		// Execute
		b, err = OpenByteIndex(base, Options{Flavor: Disk})

		// Check
		require.NoError(t, err)
		assert.Equal(t, int64(4), b.Len())
		h, found, err := b.FindString("d")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(3), h)
		for _, name := range b.Files() {
			_, err := os.Stat(name)
			assert.NoError(t, err, name)
		}

		// Clean up
		assert.NoError(t, b.Close())
		assert.NoError(t, RemoveFiles(base))
		_, err = os.Stat(base)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("disk index needs a base name", func(t *testing.T) {
		_, err := CreateByteIndex("", Options{Flavor: Disk})
		assert.ErrorIs(t, err, Unsupported{})
	})

	t.Run("growth on disk keeps every key", func(t *testing.T) {
		// Prepare
		base := filepath.Join(t.TempDir(), "many")
		b, err := CreateByteIndex(base, Options{Flavor: Disk, FileHandles: 2})
		require.NoError(t, err)
		defer func() { _ = b.Close() }()

		// Execute
		for i := 0; i < 300; i++ {
			_, err = b.AddString(string(rune('a'+i%26)) + string(rune('0'+i/26)))
			require.NoError(t, err)
		}

		// Check
		assert.Equal(t, int64(300), b.Len())
		assert.Equal(t, int64(512), b.Parameters().ReindexSize)
		h, found, err := b.FindString("c3")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(80), h)
	})
}

func TestOpenByteIndex_Flavors(t *testing.T) {
	t.Run("ram index saved to disk opens in both flavors", func(t *testing.T) {
		// Prepare
		base := filepath.Join(t.TempDir(), "saved")
		b, err := CreateByteIndex("mem", Options{})
		require.NoError(t, err)
		_, err = b.AddStrings([]string{"x", "y", "z"})
		require.NoError(t, err)

		// Execute
		err = b.Save(base)
		require.NoError(t, err)
		require.NoError(t, b.Close())
		onDisk, err1 := OpenByteIndex(base, Options{Flavor: Disk, ReadOnly: true})
		inRAM, err2 := OpenByteIndex(base, Options{})

		// Check
		require.NoError(t, err1)
		require.NoError(t, err2)
		for _, idx := range []*ByteIndex{onDisk, inRAM} {
			h, found, err := idx.FindString("y")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, int64(1), h)
		}
		_, err = onDisk.AddString("new")
		assert.ErrorIs(t, err, Unsupported{})
		_, err = inRAM.AddString("new")
		assert.NoError(t, err)

		// Clean up
		assert.NoError(t, onDisk.Close())
		assert.NoError(t, inRAM.Close())
	})

	t.Run("disk index saved elsewhere and materialized", func(t *testing.T) {
		// Prepare
		dir := t.TempDir()
		s, err := CreateScalarIndex(filepath.Join(dir, "ids"), Options{Flavor: Disk})
		require.NoError(t, err)
		_, err = s.AddAll([]int64{7, 8, 9})
		require.NoError(t, err)

		// Execute
		errSelf := s.Save(filepath.Join(dir, "ids"))
		errOther := s.Save(filepath.Join(dir, "ids2"))
		m, errMat := s.Materialize()

		// Check
		assert.ErrorIs(t, errSelf, Unsupported{})
		require.NoError(t, errOther)
		require.NoError(t, errMat)
		assert.Equal(t, RAM, m.Flavor())
		v, err := m.Get(2)
		require.NoError(t, err)
		assert.Equal(t, int64(9), v)
		require.NoError(t, s.Close())
		copied, err := OpenScalarIndex(filepath.Join(dir, "ids2"), Options{Flavor: Disk})
		require.NoError(t, err)
		assert.Equal(t, int64(3), copied.Len())

		// Clean up
		assert.NoError(t, m.Close())
		assert.NoError(t, copied.Close())
	})

	t.Run("opening with the wrong key shape is corruption", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "vec")
		v, err := CreateVectorIndex(base, Options{Flavor: Disk, VectorWidth: 4})
		require.NoError(t, err)
		_, err = v.Add([]int64{1, 2, 3})
		require.NoError(t, err)
		require.NoError(t, v.Close())

		_, err = OpenByteIndex(base, Options{Flavor: Disk})

		assert.ErrorIs(t, err, Corruption{})
		reopened, err := OpenVectorIndex(base, Options{Flavor: Disk})
		require.NoError(t, err)
		assert.Equal(t, 4, reopened.ElementWidth())
		assert.NoError(t, reopened.Close())
	})
}

func TestByteIndex_RoundTrip(t *testing.T) {
	for _, flavor := range []Flavor{RAM, Disk} {
		t.Run(fmt.Sprintf("every key keeps its handle after save and open for %s", flavor), func(t *testing.T) {
			// Prepare
			dir := t.TempDir()
			base := filepath.Join(dir, "src")
			b, err := CreateByteIndex(base, Options{Flavor: flavor})
			require.NoError(t, err)
			keys := make([]string, 1000)
			for i := range keys {
				keys[i] = fmt.Sprintf("key-%04d", i)
				_, err = b.AddString(keys[i])
				require.NoError(t, err)
			}
			saved := filepath.Join(dir, "saved")

			// Execute
			require.NoError(t, b.Save(saved))
			require.NoError(t, b.Close())
			b, err = OpenByteIndex(saved, Options{Flavor: flavor})
			require.NoError(t, err)
			defer func() { _ = b.Close() }()

			// Check
			assert.Equal(t, int64(len(keys)), b.Len())
			for i, k := range keys {
				h, found, err := b.FindString(k)
				require.NoError(t, err)
				require.True(t, found, k)
				assert.Equal(t, int64(i), h)
				got, err := b.GetString(int64(i))
				require.NoError(t, err)
				assert.Equal(t, k, got)
			}
			for _, absent := range []string{"", "key-1000", "key-00001", "absent"} {
				_, found, err := b.FindString(absent)
				require.NoError(t, err)
				assert.False(t, found, absent)
			}
		})
	}

	t.Run("scalars keep their handles after close and open", func(t *testing.T) {
		// Prepare
		base := filepath.Join(t.TempDir(), "ids")
		s, err := CreateScalarIndex(base, Options{Flavor: Disk})
		require.NoError(t, err)
		for i := int64(0); i < 500; i++ {
			_, err = s.Add(i * 23)
			require.NoError(t, err)
		}
		require.NoError(t, s.Close())

		// Execute
		s, err = OpenScalarIndex(base, Options{Flavor: Disk, ReadOnly: true})
		require.NoError(t, err)
		defer func() { _ = s.Close() }()

		// Check
		for i := int64(0); i < 500; i++ {
			h, found, err := s.Find(i * 23)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, i, h)
		}
		for _, absent := range []int64{1, -23, 500 * 23} {
			_, found, err := s.Find(absent)
			require.NoError(t, err)
			assert.False(t, found, absent)
		}
	})
}

func TestByteIndex_ReadOnly(t *testing.T) {
	t.Run("rejected add on a full read-only index keeps every key", func(t *testing.T) {
		// Prepare
		base := filepath.Join(t.TempDir(), "full")
		b, err := CreateByteIndex(base, Options{Flavor: Disk})
		require.NoError(t, err)
		for i := 0; i < 16; i++ {
			_, err = b.AddString(fmt.Sprintf("k%d", i))
			require.NoError(t, err)
		}
		require.NoError(t, b.Close())
		b, err = OpenByteIndex(base, Options{Flavor: Disk, ReadOnly: true})
		require.NoError(t, err)
		defer func() { _ = b.Close() }()
		before := b.Parameters()

		// Execute
		_, err = b.AddString("new")

		// Check
		assert.ErrorIs(t, err, Unsupported{})
		assert.Equal(t, before, b.Parameters())
		assert.Equal(t, int64(16), b.Len())
		missing := 0
		for i := 0; i < 16; i++ {
			h, found, err := b.FindString(fmt.Sprintf("k%d", i))
			require.NoError(t, err)
			if !found || h != int64(i) {
				missing++
			}
		}
		assert.Zero(t, missing)
	})
}

func TestLocking(t *testing.T) {
	t.Run("second writer is locked out", func(t *testing.T) {
		// Prepare
		base := filepath.Join(t.TempDir(), "locked")
		b, err := CreateByteIndex(base, Options{Flavor: Disk})
		require.NoError(t, err)

		// Execute
		_, errWriter := OpenByteIndex(base, Options{Flavor: Disk, LockWait: 20 * time.Millisecond})
		_, errReader := OpenByteIndex(base, Options{Flavor: Disk, ReadOnly: true})

		// Check
		assert.ErrorIs(t, errWriter, ErrLocked)
		assert.ErrorIs(t, errReader, ErrLocked)

		// Clean up
		assert.NoError(t, b.Close())
	})

	t.Run("readers share", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "shared")
		b, err := CreateByteIndex(base, Options{Flavor: Disk})
		require.NoError(t, err)
		require.NoError(t, b.Close())

		r1, err1 := OpenByteIndex(base, Options{Flavor: Disk, ReadOnly: true})
		r2, err2 := OpenByteIndex(base, Options{Flavor: Disk, ReadOnly: true})

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.NoError(t, r1.Close())
		assert.NoError(t, r2.Close())
	})
}

func TestCopyFiles(t *testing.T) {
	t.Run("copied index opens with the same keys", func(t *testing.T) {
		// Prepare
		dir := t.TempDir()
		b, err := CreateByteIndex(filepath.Join(dir, "src"), Options{Flavor: Disk})
		require.NoError(t, err)
		_, err = b.AddStrings([]string{"p", "q"})
		require.NoError(t, err)
		require.NoError(t, b.Close())

		// Execute
		err = CopyFiles(filepath.Join(dir, "src"), filepath.Join(dir, "dst"))

		// Check
		require.NoError(t, err)
		c, err := OpenByteIndex(filepath.Join(dir, "dst"), Options{Flavor: Disk})
		require.NoError(t, err)
		s, err := c.GetString(1)
		require.NoError(t, err)
		assert.Equal(t, "q", s)
		assert.NoError(t, c.Close())
	})

	t.Run("missing source is not found", func(t *testing.T) {
		dir := t.TempDir()
		err := CopyFiles(filepath.Join(dir, "none"), filepath.Join(dir, "dst"))
		assert.ErrorIs(t, err, NoRecordFound{})
	})
}

func TestTableSet(t *testing.T) {
	t.Run("concurrent first use loads once", func(t *testing.T) {
		// Prepare
		dir := t.TempDir()
		for _, name := range []string{"chars", "inflections"} {
			b, err := CreateByteIndex(filepath.Join(dir, name), Options{Flavor: Disk})
			require.NoError(t, err)
			_, err = b.AddStrings([]string{name + "-0", name + "-1"})
			require.NoError(t, err)
			require.NoError(t, b.Close())
		}
		ts := NewTableSet(dir, []string{"chars", "inflections"}, Options{})

		// Execute
		var wg sync.WaitGroup
		got := make([]*ByteIndex, 8)
		errs := make([]error, 8)
		for i := range got {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got[i], errs[i] = ts.Table("inflections")
			}(i)
		}
		wg.Wait()

		// Check
		for i := range got {
			require.NoError(t, errs[i])
			assert.Same(t, got[0], got[i])
		}
		h, found, err := got[0].FindString("inflections-1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(1), h)
		_, err = ts.Table("missing")
		assert.ErrorIs(t, err, NoRecordFound{})

		// Clean up
		assert.NoError(t, ts.Close())
	})

	t.Run("failed load can be retried", func(t *testing.T) {
		dir := t.TempDir()
		ts := NewTableSet(dir, []string{"late"}, Options{})

		assert.Error(t, ts.Load())

		b, err := CreateByteIndex(filepath.Join(dir, "late"), Options{Flavor: Disk})
		require.NoError(t, err)
		require.NoError(t, b.Close())
		assert.NoError(t, ts.Load())
		assert.NoError(t, ts.Close())
	})
}

func TestLoadOptions(t *testing.T) {
	t.Run("options come from a commented config file", func(t *testing.T) {
		// Prepare
		path := filepath.Join(t.TempDir(), "internstore.jsonc")
		data := []byte(`{
			// sizing
			"fill_factor": 0.5,
			"initial_size": 64,
			"file_handles": 3,
			"range_checks": false,
			"lock_wait": "150ms",
		}`)
		require.NoError(t, os.WriteFile(path, data, 0644))

		// Execute
		opts, err := LoadOptions(path)

		// Check
		require.NoError(t, err)
		assert.Equal(t, Options{
			FillFactor:    0.5,
			InitialSize:   64,
			FileHandles:   3,
			NoRangeChecks: true,
			LockWait:      150 * time.Millisecond,
		}, opts)
	})
}
