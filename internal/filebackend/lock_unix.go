//go:build unix || linux || darwin || freebsd || openbsd || netbsd

package filebackend

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func lockFile(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return fmt.Errorf("filebackend: cache file %s is locked by another process: %w", f.Name(), err)
	}
	return nil
}
