//go:build windows

package pagemap

import (
	"fmt"
	"os"
	"syscall"
)

// lockFile takes an exclusive, non-blocking lock on f via LockFileEx,
// mirroring lockFile's POSIX flock semantics. It is released
// automatically when f is closed.
func lockFile(f *os.File) error {
	ol := new(syscall.Overlapped)
	const lockfileExclusiveLock = 0x2
	const lockfileFailImmediately = 0x1
	err := syscall.LockFileEx(syscall.Handle(f.Fd()), lockfileExclusiveLock|lockfileFailImmediately, 0, 1, 0, ol)
	if err != nil {
		return fmt.Errorf("pagemap: %s is locked by another process: %w", f.Name(), err)
	}
	return nil
}
