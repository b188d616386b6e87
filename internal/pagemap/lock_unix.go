//go:build unix || linux || darwin || freebsd || openbsd || netbsd

package pagemap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes an exclusive, non-blocking advisory lock on f, enforcing
// coldb's single-writer discipline across processes. It is released
// automatically when f is closed.
func lockFile(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return fmt.Errorf("pagemap: %s is locked by another process: %w", f.Name(), err)
	}
	return nil
}
