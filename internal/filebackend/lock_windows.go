//go:build windows

package filebackend

import (
	"fmt"
	"os"
	"syscall"
)

func lockFile(f *os.File) error {
	ol := new(syscall.Overlapped)
	const lockfileExclusiveLock = 0x2
	const lockfileFailImmediately = 0x1
	err := syscall.LockFileEx(syscall.Handle(f.Fd()), lockfileExclusiveLock|lockfileFailImmediately, 0, 1, 0, ol)
	if err != nil {
		return fmt.Errorf("filebackend: cache file %s is locked by another process: %w", f.Name(), err)
	}
	return nil
}
