//go:build unix

package fs

import (
	"errors"
	"syscall"
)

// flockExclusive acquires an exclusive lock on the file descriptor.
func flockExclusive(fd int) error {
	return syscall.Flock(fd, syscall.LOCK_EX)
}

// flockUnlock releases the lock on the file descriptor.
func flockUnlock(fd int) error {
	return syscall.Flock(fd, syscall.LOCK_UN)
}

// isLockNotSupportedError returns true if the error indicates that
// file locking is not supported by the filesystem.
func isLockNotSupportedError(err error) bool {
	// Network filesystems (NFS, SMB) report ENOTSUP, EOPNOTSUPP or ENOLCK.
	return errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EOPNOTSUPP) ||
		errors.Is(err, syscall.ENOLCK)
}
