package pagemap

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// The process-wide SharedFileInfo registry. Like the source design's
// mappings_by_addr/mappings_by_file tables, this is lazily initialized,
// guarded by one mutex, and deliberately never torn down — surviving
// goroutines at process exit must never race a cleanup pass. The core
// itself never spawns a goroutine to service this registry; singleflight
// only deduplicates *callers'* concurrent Open calls for the same file.
var (
	registryMu sync.Mutex
	registry   = map[string]*SharedFileInfo{}
	openGroup  singleflight.Group
)

// Acquire returns the SharedFileInfo for the physical file backend
// identifies, creating it on first use. Concurrent Acquire calls for the
// same identity key are deduplicated: only one constructs the
// SharedFileInfo, and it is never opened twice for the same file.
func Acquire(backend Backend, key [64]byte) (*SharedFileInfo, error) {
	id, err := backend.Identity()
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	v, err, _ := openGroup.Do(id, func() (any, error) {
		registryMu.Lock()
		if sfi, ok := registry[id]; ok {
			registryMu.Unlock()
			sfi.refs.Add(1)
			_ = backend.Close() // caller's own handle is redundant; share the existing one
			return sfi, nil
		}
		registryMu.Unlock()

		sfi, err := newSharedFileInfo(id, backend, key)
		if err != nil {
			return nil, err
		}

		registryMu.Lock()
		registry[id] = sfi
		registryMu.Unlock()
		return sfi, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SharedFileInfo), nil
}

// release drops a reference to sfi, closing and unregistering it once no
// mapping holds it anymore (mirroring "the last mapping for a file closes
// its file descriptor" from the resource lifetime rules).
func release(sfi *SharedFileInfo) error {
	if sfi.refs.Add(-1) > 0 {
		return nil
	}

	registryMu.Lock()
	delete(registry, sfi.id)
	registryMu.Unlock()

	return sfi.backend.Close()
}
