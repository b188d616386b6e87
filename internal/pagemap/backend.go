package pagemap

import (
	"io"
	"os"
)

// Backend is the seekable byte stream a SharedFileInfo encrypts pages
// into and out of. coldb's default Backend is a local file
// (LocalBackend); internal/filebackend supplies an S3/MinIO-backed
// alternative satisfying the same interface.
type Backend interface {
	io.ReaderAt
	io.WriterAt
	// Sync flushes the backend's own buffers to stable storage (fsync or
	// equivalent).
	Sync() error
	// Size returns the current logical size of the backend in bytes.
	Size() (int64, error)
	// Truncate grows or shrinks the backend to exactly size bytes.
	Truncate(size int64) error
	// Identity returns a stable key identifying the physical file this
	// backend reads and writes, shared by every Backend instance open on
	// the same underlying file. Used as the SharedFileInfo registry key.
	Identity() (string, error)
	// Close releases the backend's resources.
	Close() error
}

// LocalBackend is a Backend over a local *os.File.
type LocalBackend struct {
	f *os.File
}

// OpenLocal opens (creating if necessary) a local file as a Backend. It
// takes no lock itself — pagemap's registry deliberately allows more
// than one Backend on the same physical file within a process (see
// TestSiblingMappingsSeeWritesAfterBarrier) — callers that need coldb's
// single-writer-per-file guarantee call Lock explicitly, as DB.Open
// does.
func OpenLocal(path string) (*LocalBackend, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	return &LocalBackend{f: f}, nil
}

// Lock takes an exclusive, non-blocking advisory lock on the backend's
// file, enforcing single-writer access across processes. It is released
// automatically when the backend is closed.
func (b *LocalBackend) Lock() error {
	return lockFile(b.f)
}

func (b *LocalBackend) ReadAt(p []byte, off int64) (int, error)  { return b.f.ReadAt(p, off) }
func (b *LocalBackend) WriteAt(p []byte, off int64) (int, error) { return b.f.WriteAt(p, off) }
func (b *LocalBackend) Sync() error                              { return b.f.Sync() }
func (b *LocalBackend) Close() error                             { return b.f.Close() }

func (b *LocalBackend) Size() (int64, error) {
	fi, err := b.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (b *LocalBackend) Truncate(size int64) error {
	return b.f.Truncate(size)
}

// Identity returns the file's (device, inode) pair on POSIX, or a stable
// per-handle id derived the platform-appropriate way on Windows. This
// resolves the source design's identity-key bug (§9): the key is always
// derived from real file metadata, never from comparing a handle to
// itself.
func (b *LocalBackend) Identity() (string, error) {
	return statIdentity(b.f)
}
