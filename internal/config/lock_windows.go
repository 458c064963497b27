//go:build windows

package config

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// acquireLock takes an exclusive, non-blocking lock on path, creating it.
func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	var overlapped windows.Overlapped
	err = windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		1, // one byte
		0,
		&overlapped,
	)
	if err != nil {
		_ = f.Close()
		if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("LockFileEx failed: %w", err)
	}
	return f, nil
}

// releaseLock releases the lock and removes the lock file.
func releaseLock(f *os.File) error {
	if f == nil {
		return nil
	}
	path := f.Name()
	var overlapped windows.Overlapped
	err1 := windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, &overlapped)
	err2 := f.Close()
	err3 := os.Remove(path)
	if errors.Is(err3, os.ErrNotExist) {
		err3 = nil
	}
	return errors.Join(err1, err2, err3)
}
