//go:build !windows

package tokenstore

import "syscall"

// lockFile takes an exclusive advisory lock on fd, blocking until it is free.
func lockFile(fd uintptr) error {
	return syscall.Flock(int(fd), syscall.LOCK_EX)
}

// unlockFile releases the lock taken by lockFile.
func unlockFile(fd uintptr) error {
	return syscall.Flock(int(fd), syscall.LOCK_UN)
}
