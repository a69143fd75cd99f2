//go:build stress

package test

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gostonefire/internstore"
	"github.com/gostonefire/internstore/internal/utils"
	"github.com/stretchr/testify/assert"
)

func createAndStoreTestdata(amount int, fileName string) error {
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func(f *os.File) { _ = f.Close() }(f)

	w := bufio.NewWriter(f)
	for i := 0; i < amount; i++ {
		if _, err = fmt.Fprintln(w, uuid.NewString()); err != nil {
			return err
		}
	}

	return w.Flush()
}

func readTestdata(fileName string, fn func(key []byte) error) error {
	f, err := os.OpenFile(fileName, os.O_RDONLY, 0644)
	if err != nil {
		return err
	}
	defer func(f *os.File) { _ = f.Close() }(f)

	var line string
	fr := bufio.NewReader(f)

	for {
		line, err = fr.ReadString('\n')
		if errors.Is(err, io.EOF) {
			break
		}
		if err = fn([]byte(strings.TrimRight(line, "\n\r"))); err != nil {
			return err
		}
	}

	return nil
}

func setTestdata(fileName string, idx *internstore.ByteIndex) error {
	first := idx.Len()
	n := int64(0)

	return readTestdata(fileName, func(key []byte) error {
		handle, err := idx.Add(key)
		if err != nil {
			return err
		}
		if handle != first+n {
			return fmt.Errorf("key %s got handle %d, expected %d", key, handle, first+n)
		}
		n++
		return nil
	})
}

func popTestdata(amount int, idx *internstore.ByteIndex) error {
	for i := 0; i < amount; i++ {
		if err := idx.RemoveLast(); err != nil {
			return err
		}
	}

	return nil
}

func getTestdata(fileName string, idx *internstore.ByteIndex, first int64, shouldNotExist bool) error {
	n := int64(0)

	return readTestdata(fileName, func(key []byte) error {
		handle, found, err := idx.Find(key)
		if err != nil {
			return err
		}
		if shouldNotExist {
			if found {
				return fmt.Errorf("key %s should not be found", key)
			}
			return nil
		}
		if !found || handle != first+n {
			return fmt.Errorf("key %s found %v at %d, expected %d", key, found, handle, first+n)
		}
		stored, err := idx.Get(handle)
		if err != nil {
			return err
		}
		if !utils.IsEqual(stored, key) {
			return fmt.Errorf("handle %d holds %s, expected %s", handle, stored, key)
		}
		n++
		return nil
	})
}

type TestCaseStressTest struct {
	name      string
	flavor    internstore.Flavor
	nTestdata int
}

func TestStress(t *testing.T) {
	t.Run("stress tests for both flavors", func(t *testing.T) {
		// Prepare
		tests := []TestCaseStressTest{
			{name: "RAM", flavor: internstore.RAM, nTestdata: 1000000},
			{name: "Disk", flavor: internstore.Disk, nTestdata: 50000},
		}

		for _, test := range tests {
			t.Run(fmt.Sprintf("handles lots of keys, removals and reopen for %s", test.name), func(t *testing.T) {
				// Prepare test data
				dir := t.TempDir()
				testdata := make([]string, 3)
				for i := range testdata {
					testdata[i] = filepath.Join(dir, fmt.Sprintf("testdata_%d.txt", i+1))
					err := createAndStoreTestdata(test.nTestdata, testdata[i])
					assert.NoError(t, err, "create testdata %d", i+1)
				}
				n := int64(test.nTestdata)
				base := filepath.Join(dir, "test")

				// Prepare index
				idx, err := internstore.CreateByteIndex(base, internstore.Options{Flavor: test.flavor, FileHandles: 2})
				assert.NoError(t, err, "create index")

				// Add first two sets of test data
				err = setTestdata(testdata[0], idx)
				assert.NoError(t, err, "set test set 1")
				err = setTestdata(testdata[1], idx)
				assert.NoError(t, err, "set test set 2")

				// Remove second set, most recent first
				err = popTestdata(test.nTestdata, idx)
				assert.NoError(t, err, "pop test set 2")

				// Add third set of test data
				err = setTestdata(testdata[2], idx)
				assert.NoError(t, err, "set test set 3")

				// Check all three test sets
				err = getTestdata(testdata[0], idx, 0, false)
				assert.NoError(t, err, "get test set 1")
				err = getTestdata(testdata[1], idx, 0, true)
				assert.NoError(t, err, "get test set 2, should not exist")
				err = getTestdata(testdata[2], idx, n, false)
				assert.NoError(t, err, "get test set 3")

				// Get stats
				stat1, err := idx.Stat()
				assert.NoError(t, err, "get stat 1")
				assert.Equal(t, 2*n, stat1.Keys, "correct number of keys, pre-rebuild")

				// Rebuild, save and reopen
				err = idx.Rebuild()
				assert.NoError(t, err, "rebuild")
				if test.flavor == internstore.RAM {
					err = idx.Save(base)
					assert.NoError(t, err, "save")
				}
				err = idx.Close()
				assert.NoError(t, err, "close")

				idx, err = internstore.OpenByteIndex(base, internstore.Options{Flavor: test.flavor})
				assert.NoError(t, err, "reopen")

				// Check after reopen
				err = getTestdata(testdata[0], idx, 0, false)
				assert.NoError(t, err, "get test set 1 after reopen")
				err = getTestdata(testdata[2], idx, n, false)
				assert.NoError(t, err, "get test set 3 after reopen")

				stat2, err := idx.Stat()
				assert.NoError(t, err, "get stat 2")
				assert.Equal(t, stat1, stat2, "same distribution after rebuild and reopen")

				// Clean up
				err = idx.Close()
				assert.NoError(t, err, "close")
				err = internstore.RemoveFiles(base)
				assert.NoError(t, err, "remove files")
			})
		}
	})
}
