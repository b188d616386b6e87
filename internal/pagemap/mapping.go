package pagemap

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"coldb/internal/crypto"
	"coldb/internal/mmap"
)

// EncryptedFileMapping is one handle's view of a physical file: a region
// of anonymous memory holding decrypted pages, lazily filled on read and
// written back through its SharedFileInfo on WriteBarrier/Flush.
//
// Multiple EncryptedFileMappings can exist over the same SharedFileInfo.
// Each tracks, per page, whether its copy is up to date and whether it
// has unflushed writes; ReadBarrier and WriteBarrier are the two points
// where coherence with sibling mappings is enforced.
type EncryptedFileMapping struct {
	sfi *SharedFileInfo

	mu         sync.Mutex
	buf        *mmap.Mapping
	fileOffset int64 // byte offset into the physical file this mapping covers
	pageCount  int
	upToDate   *bitset.BitSet
	dirty      *bitset.BitSet
}

// Open creates a new mapping of pageCount pages starting at fileOffset
// (which must be a multiple of crypto.BlockSize) over the file identified
// by backend, deriving the page encryption key from key.
func Open(backend Backend, key [crypto.KeySize]byte, fileOffset int64, pageCount int) (*EncryptedFileMapping, error) {
	if fileOffset%crypto.BlockSize != 0 {
		return nil, fmt.Errorf("pagemap: fileOffset %d is not page-aligned", fileOffset)
	}

	sfi, err := Acquire(backend, key)
	if err != nil {
		return nil, err
	}

	buf, err := mmap.MapAnon(pageCount * crypto.BlockSize)
	if err != nil {
		_ = release(sfi)
		return nil, err
	}

	m := &EncryptedFileMapping{
		sfi:        sfi,
		buf:        buf,
		fileOffset: fileOffset,
		pageCount:  pageCount,
		upToDate:   bitset.New(uint(pageCount)),
		dirty:      bitset.New(uint(pageCount)),
	}
	sfi.addMapping(m)
	return m, nil
}

func (m *EncryptedFileMapping) pagePos(page int) int64 {
	return m.fileOffset + int64(page)*crypto.BlockSize
}

// ReadBarrier ensures the pages covering [off, off+n) hold the latest
// data before the caller reads buf.Bytes()[off:off+n]: any page not
// marked up to date is decrypted from the backend (after giving a dirty
// sibling mapping the chance to flush its copy first, so a read never
// observes stale data behind a write that already happened elsewhere in
// the process).
func (m *EncryptedFileMapping) ReadBarrier(off, n int64) error {
	startPage := int(off / crypto.BlockSize)
	endPage := int((off + n + crypto.BlockSize - 1) / crypto.BlockSize)

	m.mu.Lock()
	defer m.mu.Unlock()

	for page := startPage; page < endPage && page < m.pageCount; page++ {
		if m.upToDate.Test(uint(page)) {
			continue
		}
		if err := m.fillPage(page); err != nil {
			return err
		}
	}
	return nil
}

// fillPage copies page from a sibling mapping that holds it up to date
// (that sibling flushes the page first if it is dirty), otherwise
// decrypts it straight from the backend.
// Must be called with m.mu held.
func (m *EncryptedFileMapping) fillPage(page int) error {
	pos := m.pagePos(page)

	for _, sib := range m.sfi.siblings(m) {
		if sib.copyUpToDatePage(pos, m.buf.Bytes()[page*crypto.BlockSize:(page+1)*crypto.BlockSize]) {
			m.upToDate.Set(uint(page))
			return nil
		}
	}

	plaintext, ok, err := m.sfi.readBlock(pos)
	if err != nil {
		return err
	}
	dst := m.buf.Bytes()[page*crypto.BlockSize : (page+1)*crypto.BlockSize]
	if ok {
		copy(dst, plaintext)
	} else {
		for i := range dst {
			dst[i] = 0
		}
	}
	m.upToDate.Set(uint(page))
	return nil
}

// copyUpToDatePage copies this mapping's copy of the page at physical
// offset pos into dst if this mapping has it up to date, flushing it
// first if dirty. Reports whether the copy happened.
func (m *EncryptedFileMapping) copyUpToDatePage(pos int64, dst []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pos < m.fileOffset || pos >= m.fileOffset+int64(m.pageCount)*crypto.BlockSize {
		return false
	}
	page := int((pos - m.fileOffset) / crypto.BlockSize)
	if !m.upToDate.Test(uint(page)) {
		return false
	}
	if m.dirty.Test(uint(page)) {
		if err := m.sfi.writeBlock(pos, m.buf.Bytes()[page*crypto.BlockSize:(page+1)*crypto.BlockSize]); err != nil {
			return false
		}
		m.dirty.Clear(uint(page))
	}
	copy(dst, m.buf.Bytes()[page*crypto.BlockSize:(page+1)*crypto.BlockSize])
	return true
}

// WriteBarrier marks the pages covering [off, off+n) dirty after the
// caller has written new plaintext into buf.Bytes()[off:off+n], and
// invalidates that range on every sibling mapping so a subsequent read
// there triggers a fresh fillPage instead of observing its own stale
// copy.
func (m *EncryptedFileMapping) WriteBarrier(off, n int64) {
	startPage := int(off / crypto.BlockSize)
	endPage := int((off + n + crypto.BlockSize - 1) / crypto.BlockSize)

	m.mu.Lock()
	for page := startPage; page < endPage && page < m.pageCount; page++ {
		m.upToDate.Set(uint(page))
		m.dirty.Set(uint(page))
	}
	m.mu.Unlock()

	for _, sib := range m.sfi.siblings(m) {
		sib.invalidate(m.pagePos(startPage), m.pagePos(endPage))
	}
}

func (m *EncryptedFileMapping) invalidate(fromPos, toPos int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lo := fromPos - m.fileOffset
	hi := toPos - m.fileOffset
	if hi <= 0 || lo >= int64(m.pageCount)*crypto.BlockSize {
		return
	}
	if lo < 0 {
		lo = 0
	}
	if hi > int64(m.pageCount)*crypto.BlockSize {
		hi = int64(m.pageCount) * crypto.BlockSize
	}
	for page := int(lo / crypto.BlockSize); page < int((hi+crypto.BlockSize-1)/crypto.BlockSize); page++ {
		if m.dirty.Test(uint(page)) {
			// Flush this mapping's own writes before dropping its copy.
			data := m.buf.Bytes()[page*crypto.BlockSize : (page+1)*crypto.BlockSize]
			if err := m.sfi.writeBlock(m.pagePos(page), data); err != nil {
				continue
			}
			m.dirty.Clear(uint(page))
		}
		m.upToDate.Clear(uint(page))
	}
}

// Flush writes every dirty page back through the SharedFileInfo without
// unmapping.
func (m *EncryptedFileMapping) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for page := 0; page < m.pageCount; page++ {
		if !m.dirty.Test(uint(page)) {
			continue
		}
		pos := m.pagePos(page)
		data := m.buf.Bytes()[page*crypto.BlockSize : (page+1)*crypto.BlockSize]
		if err := m.sfi.writeBlock(pos, data); err != nil {
			return err
		}
		m.dirty.Clear(uint(page))
	}
	return nil
}

// Grow resizes the mapping's decrypted buffer in place to cover
// newPageCount pages, flushing any dirty pages first. It does not touch
// the SharedFileInfo's reference count or reopen the backend — callers
// extending a file-backed allocator use this instead of Close+Open to
// avoid tearing down the shared cryptor state while other mappings over
// the same file are still live.
func (m *EncryptedFileMapping) Grow(newPageCount int) error {
	if err := m.Flush(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if newPageCount == m.pageCount {
		return nil
	}

	newBuf, err := mmap.MapAnon(newPageCount * crypto.BlockSize)
	if err != nil {
		return err
	}
	n := m.pageCount
	if newPageCount < n {
		n = newPageCount
	}
	copy(newBuf.Bytes(), m.buf.Bytes()[:n*crypto.BlockSize])

	oldBuf := m.buf
	m.buf = newBuf

	newUpToDate := bitset.New(uint(newPageCount))
	newDirty := bitset.New(uint(newPageCount))
	for page := 0; page < n; page++ {
		if m.upToDate.Test(uint(page)) {
			newUpToDate.Set(uint(page))
		}
	}
	m.upToDate = newUpToDate
	m.dirty = newDirty
	m.pageCount = newPageCount

	return oldBuf.Close()
}

// Sync flushes dirty pages and fsyncs the backend.
func (m *EncryptedFileMapping) Sync() error {
	if err := m.Flush(); err != nil {
		return err
	}
	return m.sfi.Sync()
}

// Bytes returns the mapping's decrypted page buffer. Callers must call
// ReadBarrier before reading from it and WriteBarrier after writing to
// it.
func (m *EncryptedFileMapping) Bytes() []byte {
	return m.buf.Bytes()
}

// Close flushes dirty pages, detaches from the SharedFileInfo, and
// releases the anonymous memory.
func (m *EncryptedFileMapping) Close() error {
	err := m.Flush()
	m.sfi.removeMapping(m)
	if rerr := release(m.sfi); err == nil {
		err = rerr
	}
	if cerr := m.buf.Close(); err == nil {
		err = cerr
	}
	return err
}
