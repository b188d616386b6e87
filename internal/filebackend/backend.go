// Package filebackend supplies pagemap.Backend implementations that read
// and write the encrypted table file through a remote object store (S3 or
// a MinIO-compatible endpoint) rather than a local *os.File. Object
// stores don't support the random-access overwrite pagemap.Backend
// requires, so both implementations mirror the whole object into a local
// cache file — the same local-cache-over-remote-blob split the teacher's
// doc.go describes for vecgo.Remote(store, WithCacheDir(...)) — and
// reupload it whole on Sync/Close.
package filebackend

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// cacheBackend is the shared plumbing between the S3 and MinIO backends:
// a local cache file plus an upload callback that ships its current
// contents back to the object store.
type cacheBackend struct {
	f        *os.File
	identity string
	upload   func(ctx context.Context, path string) error
}

// openCacheFile opens the local mirror for (bucket, key), taking an
// exclusive lock on it so two processes never mirror and reupload the
// same remote object concurrently.
func openCacheFile(cacheDir, bucket, key string) (*os.File, error) {
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		return nil, fmt.Errorf("filebackend: creating cache dir: %w", err)
	}
	path := filepath.Join(cacheDir, bucket+"__"+sanitizeKey(key))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func sanitizeKey(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '/' || c == '\\' {
			c = '_'
		}
		out[i] = c
	}
	return string(out)
}

func (b *cacheBackend) ReadAt(p []byte, off int64) (int, error)  { return b.f.ReadAt(p, off) }
func (b *cacheBackend) WriteAt(p []byte, off int64) (int, error) { return b.f.WriteAt(p, off) }

func (b *cacheBackend) Size() (int64, error) {
	fi, err := b.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (b *cacheBackend) Truncate(size int64) error { return b.f.Truncate(size) }
func (b *cacheBackend) Identity() (string, error) { return b.identity, nil }

// Sync flushes the local cache to disk, then reuploads it whole to the
// object store — coldb's write-ahead ordering within a page (IV table
// before ciphertext) already tolerates a torn Sync, but a torn upload
// would leave the remote object mid-write; callers relying on
// OpenRemoteS3/OpenRemoteMinIO durability should call Sync only at quiescent points (e.g. after
// Table.Optimize or before Close), not on every WriteAt.
func (b *cacheBackend) Sync() error {
	if err := b.f.Sync(); err != nil {
		return err
	}
	return b.upload(context.Background(), b.f.Name())
}

func (b *cacheBackend) Close() error {
	if err := b.Sync(); err != nil {
		_ = b.f.Close()
		return err
	}
	return b.f.Close()
}

// downloadInto copies src into a freshly truncated dst, leaving dst empty
// if src is nil (the object did not exist yet).
func downloadInto(dst *os.File, src io.Reader) error {
	if err := dst.Truncate(0); err != nil {
		return err
	}
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if src == nil {
		return nil
	}
	_, err := io.Copy(dst, src)
	return err
}

// openForUpload opens the cache file for a fresh, independent read of its
// current contents, so an in-progress upload body doesn't share (and race
// on) the backend's own read/write file offset.
func openForUpload(path string) (*os.File, error) {
	return os.Open(path)
}
