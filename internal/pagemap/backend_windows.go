//go:build windows

package pagemap

import (
	"fmt"
	"os"
	"syscall"
)

// statIdentity returns a stable identity for the file behind f. Windows
// does not expose a POSIX inode through os.FileInfo, so the key is the
// (VolumeSerialNumber, FileIndexHigh, FileIndexLow) triple reported by
// GetFileInformationByHandle, which is the same for every handle open on
// the same file — never the source design's self-comparison tautology.
func statIdentity(f *os.File) (string, error) {
	var info syscall.ByHandleFileInformation
	if err := syscall.GetFileInformationByHandle(syscall.Handle(f.Fd()), &info); err != nil {
		return "", fmt.Errorf("pagemap: GetFileInformationByHandle: %w", err)
	}
	return fmt.Sprintf("vol:%d/idx:%d:%d", info.VolumeSerialNumber, info.FileIndexHigh, info.FileIndexLow), nil
}
