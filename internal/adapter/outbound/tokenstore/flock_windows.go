//go:build windows

package tokenstore

import "golang.org/x/sys/windows"

// lockFile takes an exclusive lock on the first byte of fd using LockFileEx,
// blocking until it is free like flock on Unix.
func lockFile(fd uintptr) error {
	var ol windows.Overlapped
	return windows.LockFileEx(windows.Handle(fd), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, &ol)
}

// unlockFile releases the lock taken by lockFile.
func unlockFile(fd uintptr) error {
	var ol windows.Overlapped
	return windows.UnlockFileEx(windows.Handle(fd), 0, 1, 0, &ol)
}
