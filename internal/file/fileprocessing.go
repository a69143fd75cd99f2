package file

import (
	"io"
	"os"
	"time"

	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/model"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// GetHeader - Reads header data from file and returns it as a Header struct
func GetHeader(f *os.File) (header model.Header, err error) {
	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		err = errors.Wrapf(err, "seek header of %s", f.Name())
		return
	}

	buf := make([]byte, conf.HeaderLength)
	_, err = io.ReadFull(f, buf)
	if err != nil {
		err = errors.Wrapf(err, "read header of %s", f.Name())
		return
	}

	header, err = storage.BytesToHeader(buf)
	if err != nil {
		err = errors.Wrapf(err, "header of %s", f.Name())
	}

	return
}

// SetHeader - Takes a Header struct and writes header data to file
func SetHeader(f *os.File, header model.Header) (err error) {
	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		err = errors.Wrapf(err, "seek header of %s", f.Name())
		return
	}

	_, err = f.Write(storage.HeaderToBytes(header))
	if err != nil {
		err = errors.Wrapf(err, "write header of %s", f.Name())
	}

	return
}

// GetFileHeader - Reads header data from file and returns it together with the capacity the file holds.
// This function opens the file for reading, thus expecting it to not already be open.
func GetFileHeader(fileName string) (header model.Header, capacity int64, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		err = errors.Wrapf(err, "open %s", fileName)
		return
	}
	defer func(f *os.File) { _ = f.Close() }(f)

	header, capacity, err = checkFile(f)

	return
}

// CreateStoreFile - Creates a new store file holding only a header and takes an exclusive lock on it.
// If it already exists it will be truncated to zero length once the lock is held, hence deleting all
// existing data.
func CreateStoreFile(fileName string, header model.Header, lockWait time.Duration) (f *os.File, err error) {
	f, err = os.OpenFile(fileName, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		err = errors.Wrapf(err, "create %s", fileName)
		return
	}

	if err = Lock(f, true, lockWait); err != nil {
		_ = f.Close()
		f = nil
		return
	}

	if err = f.Truncate(0); err != nil {
		_ = f.Close()
		f = nil
		err = errors.Wrapf(err, "truncate %s", fileName)
		return
	}

	err = SetHeader(f, header)
	if err != nil {
		_ = f.Close()
		f = nil
	}

	return
}

// OpenStoreFile - Opens a store file, locks it and validates its header against the file length. Readers
// take a shared lock, writers an exclusive one.
func OpenStoreFile(fileName string, readOnly bool, lockWait time.Duration) (f *os.File, header model.Header, capacity int64, err error) {
	f, err = OpenHandle(fileName, readOnly)
	if err != nil {
		return
	}

	if err = Lock(f, !readOnly, lockWait); err != nil {
		_ = f.Close()
		f = nil
		return
	}

	header, capacity, err = checkFile(f)
	if err != nil {
		_ = f.Close()
		f = nil
	}

	return
}

// OpenHandle - Opens an additional handle to an existing file
func OpenHandle(fileName string, readOnly bool) (f *os.File, err error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}

	f, err = os.OpenFile(fileName, flag, 0644)
	if err != nil {
		err = errors.Wrapf(err, "open %s", fileName)
	}

	return
}

// CloseFile - Syncs and closes a file, nil files are ignored
func CloseFile(f *os.File, sync bool) (err error) {
	if f == nil {
		return
	}

	if sync {
		if err = f.Sync(); err != nil {
			_ = f.Close()
			err = errors.Wrapf(err, "sync %s", f.Name())
			return
		}
	}

	if err = f.Close(); err != nil {
		err = errors.Wrapf(err, "close %s", f.Name())
	}

	return
}

// Exists - Returns true if fileName exists and is not a directory
func Exists(fileName string) bool {
	stat, err := os.Stat(fileName)
	return err == nil && !stat.IsDir()
}

// RemoveFiles - Removes files, make sure to close them first before calling this function.
// Missing files are ignored.
func RemoveFiles(fileNames ...string) (err error) {
	// Only try to remove if exists, and are not by accident directories
	for _, fileName := range fileNames {
		if !Exists(fileName) {
			continue
		}
		if err = os.Remove(fileName); err != nil {
			err = errors.Wrapf(err, "remove %s", fileName)
			return
		}
	}

	return
}

// CopyFiles - Copies src[i] to dst[i] for all i concurrently. Each destination is replaced atomically.
func CopyFiles(src, dst []string) (err error) {
	if len(src) != len(dst) {
		err = errors.Errorf("copy of %d files to %d destinations", len(src), len(dst))
		return
	}

	g := new(errgroup.Group)
	for i := range src {
		from, to := src[i], dst[i]
		g.Go(func() error {
			return copyFile(from, to)
		})
	}

	err = g.Wait()

	return
}

// copyFile - Copies one file, replacing the destination atomically
func copyFile(src, dst string) (err error) {
	f, err := os.Open(src)
	if err != nil {
		err = errors.Wrapf(err, "open %s", src)
		return
	}
	defer func(f *os.File) { _ = f.Close() }(f)

	if err = atomic.WriteFile(dst, f); err != nil {
		err = errors.Wrapf(err, "copy %s to %s", src, dst)
	}

	return
}

// checkFile - Reads and validates the header of an open file against its length
func checkFile(f *os.File) (header model.Header, capacity int64, err error) {
	stat, err := f.Stat()
	if err != nil {
		err = errors.Wrapf(err, "stat %s", f.Name())
		return
	}

	header, err = GetHeader(f)
	if err != nil {
		return
	}

	capacity, err = storage.CapacityFromFileSize(header, stat.Size())
	if err != nil {
		err = errors.Wrapf(err, "%s", f.Name())
	}

	return
}
