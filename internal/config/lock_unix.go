//go:build !windows

package config

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// acquireLock takes an exclusive, non-blocking lock on path, creating it.
func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to acquire file lock: %w", err)
	}
	return f, nil
}

// releaseLock releases the lock and removes the lock file.
func releaseLock(f *os.File) error {
	if f == nil {
		return nil
	}
	path := f.Name()
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	err1 := f.Close()
	err2 := os.Remove(path)
	if errors.Is(err2, os.ErrNotExist) {
		err2 = nil
	}
	return errors.Join(err1, err2)
}
