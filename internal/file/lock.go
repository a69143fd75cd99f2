package file

import (
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// ErrLocked - Returned when a file lock is held elsewhere
var ErrLocked = errors.New("file is locked by another process")

// Lock - Takes an advisory lock on f, exclusive for writers and shared for readers. With a zero wait a single
// attempt is made, otherwise attempts are retried with exponential backoff until wait has passed.
func Lock(f *os.File, exclusive bool, wait time.Duration) (err error) {
	if wait <= 0 {
		err = tryLock(f, exclusive)
	} else {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Millisecond
		b.MaxInterval = 25 * time.Millisecond
		b.MaxElapsedTime = wait

		err = backoff.Retry(func() error {
			lockErr := tryLock(f, exclusive)
			if lockErr != nil && !errors.Is(lockErr, ErrLocked) {
				return backoff.Permanent(lockErr)
			}
			return lockErr
		}, b)
	}

	if err != nil {
		err = errors.Wrapf(err, "lock %s", f.Name())
	}

	return
}

// Unlock - Releases a lock taken with Lock
func Unlock(f *os.File) (err error) {
	if err = unlock(f); err != nil {
		err = errors.Wrapf(err, "unlock %s", f.Name())
	}

	return
}
