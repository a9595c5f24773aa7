//go:build !windows

package index

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// flock locks are held per open file description, so a second descriptor
// in the same process conflicts too.
func lockFileExclusiveNonBlocking(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func unlockFile(file *os.File) error {
	return unix.Flock(int(file.Fd()), unix.LOCK_UN)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)
}
