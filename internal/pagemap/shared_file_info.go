package pagemap

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"coldb/internal/crypto"
)

// SharedFileInfo is the per-physical-file state shared by every
// EncryptedFileMapping open on it: the cryptor, the backend, and the set
// of live sibling mappings used to propagate write barriers. Exactly one
// SharedFileInfo exists per (device, inode) at a time, found through
// Acquire.
type SharedFileInfo struct {
	id      string
	backend Backend
	cryptor *crypto.Cryptor
	refs    atomic.Int64

	mu       sync.Mutex
	mappings []*EncryptedFileMapping
}

func newSharedFileInfo(id string, backend Backend, key [crypto.KeySize]byte) (*SharedFileInfo, error) {
	c, err := crypto.New(key)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	sfi := &SharedFileInfo{id: id, backend: backend, cryptor: c}
	sfi.refs.Store(1)
	return sfi, nil
}

func (sfi *SharedFileInfo) addMapping(m *EncryptedFileMapping) {
	sfi.mu.Lock()
	sfi.mappings = append(sfi.mappings, m)
	sfi.mu.Unlock()
}

func (sfi *SharedFileInfo) removeMapping(m *EncryptedFileMapping) {
	sfi.mu.Lock()
	for i, other := range sfi.mappings {
		if other == m {
			sfi.mappings = append(sfi.mappings[:i], sfi.mappings[i+1:]...)
			break
		}
	}
	sfi.mu.Unlock()
}

// siblings returns the other live mappings over the same file, excluding
// m itself.
func (sfi *SharedFileInfo) siblings(m *EncryptedFileMapping) []*EncryptedFileMapping {
	sfi.mu.Lock()
	defer sfi.mu.Unlock()
	out := make([]*EncryptedFileMapping, 0, len(sfi.mappings))
	for _, other := range sfi.mappings {
		if other != m {
			out = append(out, other)
		}
	}
	return out
}

// readBlock decrypts the BlockSize-aligned block covering logical offset
// pos. ok=false, err=nil means the block was never written (treated as
// all-zero by the caller).
func (sfi *SharedFileInfo) readBlock(pos int64) ([]byte, bool, error) {
	ivBuf, err := sfi.readIVTable(pos)
	if err != nil {
		return nil, false, err
	}
	cur := crypto.DecodeIVTable(ivBuf)

	// A never-written or not-yet-physically-extended block reads short (or
	// hits io.EOF outright); the missing bytes stay zero from make(), and
	// DecryptBlock's NeverWritten/isAllZero checks classify the result.
	ciphertext := make([]byte, crypto.BlockSize)
	if _, err := sfi.backend.ReadAt(ciphertext, crypto.RealOffset(pos)); err != nil && err != io.EOF {
		return nil, false, fmt.Errorf("pagemap: read ciphertext at %d: %w", pos, err)
	}

	plaintext, effective, ok, err := sfi.cryptor.DecryptBlock(ciphertext, pos, cur)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if effective != cur {
		// Torn write recovered by rollback; repair the metadata block so
		// future readers don't redo the rollback every time.
		if err := sfi.writeIVTable(pos, effective); err != nil {
			return nil, false, err
		}
	}
	return plaintext, true, nil
}

// writeBlock encrypts plaintext (exactly BlockSize bytes) and writes the
// new IVTable before the ciphertext, per the ordering guarantee a crash
// must preserve: if the crash lands between the two writes, the reader
// sees either the old generation (ciphertext stale, ivTable already
// advanced recovers via iv2/hmac2) or the new one, never garbage.
func (sfi *SharedFileInfo) writeBlock(pos int64, plaintext []byte) error {
	ivBuf, err := sfi.readIVTable(pos)
	if err != nil {
		return err
	}
	cur := crypto.DecodeIVTable(ivBuf)

	ciphertext, next, err := sfi.cryptor.EncryptBlock(plaintext, pos, cur)
	if err != nil {
		return err
	}

	if err := sfi.writeIVTable(pos, next); err != nil {
		return err
	}
	if _, err := sfi.backend.WriteAt(ciphertext, crypto.RealOffset(pos)); err != nil {
		return fmt.Errorf("pagemap: write ciphertext at %d: %w", pos, err)
	}
	return nil
}

func (sfi *SharedFileInfo) readIVTable(pos int64) ([crypto.IVTableSize]byte, error) {
	var buf [crypto.IVTableSize]byte
	n, err := sfi.backend.ReadAt(buf[:], crypto.IVPos(pos))
	if err != nil && n == 0 {
		// A short file (never extended this far) reads as all-zero, i.e.
		// NeverWritten.
		return buf, nil
	}
	if err != nil && n < len(buf) {
		return buf, nil
	}
	return buf, nil
}

func (sfi *SharedFileInfo) writeIVTable(pos int64, t crypto.IVTable) error {
	buf := t.Encode()
	if _, err := sfi.backend.WriteAt(buf[:], crypto.IVPos(pos)); err != nil {
		return fmt.Errorf("pagemap: write ivtable at %d: %w", pos, err)
	}
	return nil
}

// Sync flushes the backend.
func (sfi *SharedFileInfo) Sync() error { return sfi.backend.Sync() }
