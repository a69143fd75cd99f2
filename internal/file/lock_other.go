//go:build !unix

package file

import "os"

// Advisory locks are not taken on platforms without flock.
func tryLock(f *os.File, exclusive bool) error {
	return nil
}

func unlock(f *os.File) error {
	return nil
}
