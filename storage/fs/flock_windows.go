//go:build windows

package fs

// flockExclusive is a no-op on Windows.
// TODO: use LockFileEx so concurrent writers on Windows are serialized too.
func flockExclusive(fd int) error {
	return nil
}

// flockUnlock is a no-op on Windows.
func flockUnlock(fd int) error {
	return nil
}

// isLockNotSupportedError always returns false on Windows
// since we don't attempt locking.
func isLockNotSupportedError(err error) bool {
	return false
}
