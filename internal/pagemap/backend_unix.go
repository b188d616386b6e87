//go:build unix

package pagemap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// statIdentity returns the (device, inode) pair for f, the correct POSIX
// identity key for a physical file regardless of how many file
// descriptors or paths refer to it.
func statIdentity(f *os.File) (string, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return "", fmt.Errorf("pagemap: fstat: %w", err)
	}
	return fmt.Sprintf("dev:%d/ino:%d", st.Dev, st.Ino), nil
}
