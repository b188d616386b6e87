package store

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"coldb/core"
	"coldb/internal/crypto"
	"coldb/internal/pagemap"
)

// slotSize is the unit of file-backed allocation: one crypto data block.
// A node's payload that outgrows a single slot spills into a chain of
// continuation slots via the trailer's next field, so arrays of any
// length are representable without a separate inner-node format.
const slotSize = crypto.BlockSize

// slot layout, all little-endian:
//
//	[0]      kind
//	[1:5]    count (elements in this slot only, for Int/Ref; bytes used, for String/Binary)
//	[5:13]   parentRef
//	[13:17]  parentSlot (int32, -1 encoded as MinInt32 sentinel via slotNoParent)
//	[17:25]  next (continuation slot ref, core.NilRef if none)
//	[25:]    payload, up to slotSize-25 bytes
const (
	slotHeaderSize = 1 + 4 + 8 + 4 + 8
	slotPayloadCap = slotSize - slotHeaderSize
	slotNoParent   = int32(-1)
)

// slotNoParentBits is the bit pattern of slotNoParent reinterpreted as a
// uint32, for encoding into the uint32 parentSlot field.
func slotNoParentBits() uint32 {
	v := slotNoParent
	return uint32(v)
}

// FileAllocator is the file-backed Allocator: every Array node it hands
// out is a view over one or more fixed-size slots in a backend byte
// stream, optionally page-encrypted through pagemap.
//
// A freed slot's ref is pushed onto the free list and reused by the next
// Alloc of any kind before the backing store is grown; the most recently
// freed slot is handed out first.
type FileAllocator struct {
	mu sync.Mutex

	backend   pagemap.Backend
	encrypted bool
	mapping   *pagemap.EncryptedFileMapping
	key       [crypto.KeySize]byte
	growBatch int64

	compress bool
	zenc     *zstd.Encoder
	zdec     *zstd.Decoder

	slotCount int64
	free      []core.Ref
}

// FileAllocatorOption configures a FileAllocator.
type FileAllocatorOption func(*FileAllocator)

// WithEncryption enables page-level AES-256-CBC/HMAC-SHA-224 encryption
// under the given 64-byte key, derived by coldb.WithPassphrase or
// coldb.WithEncryptionKey.
func WithEncryption(key [crypto.KeySize]byte) FileAllocatorOption {
	return func(a *FileAllocator) {
		a.encrypted = true
		a.key = key
	}
}

// WithGrowBatch rounds every backing-store growth up to a multiple of
// batch slots instead of growing exactly one slot at a time, trading
// headroom for fewer Truncate/remap calls under write-heavy workloads.
func WithGrowBatch(batch int) FileAllocatorOption {
	return func(a *FileAllocator) {
		if batch > 0 {
			a.growBatch = int64(batch)
		}
	}
}

// WithPayloadCompression zstd-compresses STRING and BINARY column values
// before they are packed into slots, and decompresses on read. It never
// touches KindInt/KindRef payloads (m_columns, index values), and it
// compresses one value at a time rather than a whole slot, so a single
// oversized value can't retroactively make its neighbors in the same
// slot group unreadable.
func WithPayloadCompression() FileAllocatorOption {
	return func(a *FileAllocator) {
		a.compress = true
	}
}

// NewFileAllocator opens a FileAllocator over backend. The backend's
// existing size (rounded down to whole slots) becomes the allocator's
// initial slot count; callers opening an existing database are expected
// to have already validated the file's top-level layout before trusting
// refs into it.
func NewFileAllocator(backend pagemap.Backend, opts ...FileAllocatorOption) (*FileAllocator, error) {
	a := &FileAllocator{backend: backend, growBatch: 1}
	for _, opt := range opts {
		opt(a)
	}

	size, err := backend.Size()
	if err != nil {
		return nil, err
	}
	if a.encrypted {
		a.slotCount = physicalBlocksToLogicalSlots(size / slotSize)
	} else {
		a.slotCount = size / slotSize
	}

	if a.encrypted {
		if err := a.remap(); err != nil {
			return nil, err
		}
	}

	if a.compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("store: zstd encoder: %w", err)
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("store: zstd decoder: %w", err)
		}
		a.zenc, a.zdec = enc, dec
	}
	return a, nil
}

// compressPayload compresses v if payload compression is enabled and v's
// kind is STRING or BINARY; otherwise it returns v unchanged.
func (a *FileAllocator) compressPayload(kind Kind, v []byte) []byte {
	if !a.compress || (kind != KindString && kind != KindBinary) {
		return v
	}
	return a.zenc.EncodeAll(v, make([]byte, 0, len(v)))
}

// decompressPayload reverses compressPayload.
func (a *FileAllocator) decompressPayload(kind Kind, v []byte) ([]byte, error) {
	if !a.compress || (kind != KindString && kind != KindBinary) {
		return v, nil
	}
	return a.zdec.DecodeAll(v, nil)
}

// physicalSize returns the backend size needed to hold a.slotCount logical
// slots. For a plain allocator that's exactly slotCount*slotSize; for an
// encrypted one the on-disk layout interleaves one metadata block per
// crypto.BlocksPerMetadataBlock data blocks (crypto.RealOffset), so the
// physical file has to reach past the last data block's real offset, not
// just its logical one.
func (a *FileAllocator) physicalSize() int64 {
	if a.slotCount == 0 {
		return 0
	}
	if !a.encrypted {
		return a.slotCount * slotSize
	}
	return crypto.RealOffset((a.slotCount-1)*slotSize) + slotSize
}

// physicalBlocksToLogicalSlots inverts physicalSize's block interleaving:
// given the physical file size in whole slotSize blocks, it returns how
// many logical data slots that represents. Used by NewFileAllocator to
// recover slotCount when reopening an encrypted file, where the physical
// size counts interleaved metadata blocks the logical count must not.
func physicalBlocksToLogicalSlots(physicalBlocks int64) int64 {
	b := int64(crypto.BlocksPerMetadataBlock)
	groups := physicalBlocks / (b + 1)
	rem := physicalBlocks % (b + 1)
	logical := groups * b
	if rem > 0 {
		logical += rem - 1 // the remainder's first block is metadata, not data
	}
	return logical
}

// remap ensures the anonymous decrypted buffer covers the current slot
// count, opening it on first use and growing it in place thereafter so
// the underlying SharedFileInfo is never torn down while this allocator
// holds it. Called with a.mu held, or during construction before any
// other goroutine can observe a.
func (a *FileAllocator) remap() error {
	if a.slotCount == 0 {
		return nil
	}
	if a.mapping == nil {
		m, err := pagemap.Open(a.backend, a.key, 0, int(a.slotCount))
		if err != nil {
			return err
		}
		a.mapping = m
		return nil
	}
	return a.mapping.Grow(int(a.slotCount))
}

func (a *FileAllocator) readSlot(ref core.Ref) ([]byte, error) {
	off := int64(ref-1) * slotSize
	buf := make([]byte, slotSize)
	if a.encrypted {
		if err := a.mapping.ReadBarrier(off, slotSize); err != nil {
			return nil, err
		}
		copy(buf, a.mapping.Bytes()[off:off+slotSize])
		return buf, nil
	}
	if _, err := a.backend.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("store: read slot %d: %w", ref, err)
	}
	return buf, nil
}

func (a *FileAllocator) writeSlot(ref core.Ref, buf []byte) error {
	off := int64(ref-1) * slotSize
	if a.encrypted {
		if err := a.mapping.ReadBarrier(off, slotSize); err != nil {
			return err
		}
		copy(a.mapping.Bytes()[off:off+slotSize], buf)
		a.mapping.WriteBarrier(off, slotSize)
		return nil
	}
	if _, err := a.backend.WriteAt(buf, off); err != nil {
		return fmt.Errorf("store: write slot %d: %w", ref, err)
	}
	return nil
}

// allocSlot returns a fresh or recycled ref for one raw slot, without
// interpreting its contents.
func (a *FileAllocator) allocSlot() (core.Ref, error) {
	if n := len(a.free); n > 0 {
		ref := a.free[n-1]
		a.free = a.free[:n-1]
		return ref, nil
	}

	batch := a.growBatch
	if batch < 1 {
		batch = 1
	}
	ref := core.Ref(a.slotCount + 1) // refs are 1-based slot indices
	a.slotCount += batch

	if err := a.backend.Truncate(a.physicalSize()); err != nil {
		return core.NilRef, err
	}
	if a.encrypted {
		if err := a.remap(); err != nil {
			return core.NilRef, err
		}
	}
	for i := int64(1); i < batch; i++ {
		a.free = append(a.free, ref+core.Ref(i))
	}
	return ref, nil
}

// Alloc implements Allocator.
func (a *FileAllocator) Alloc(kind Kind) (core.Ref, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ref, err := a.allocSlot()
	if err != nil {
		return core.NilRef, err
	}

	buf := make([]byte, slotSize)
	buf[0] = byte(kind)
	binary.LittleEndian.PutUint32(buf[13:17], slotNoParentBits())
	if err := a.writeSlot(ref, buf); err != nil {
		return core.NilRef, err
	}
	return ref, nil
}

// Resolve implements Allocator.
func (a *FileAllocator) Resolve(ref core.Ref) (Array, error) {
	if !ref.IsValid() {
		return nil, fmt.Errorf("store: resolve invalid ref")
	}
	buf, err := a.readSlot(ref)
	if err != nil {
		return nil, err
	}
	return &fileArray{a: a, head: ref, kind: Kind(buf[0])}, nil
}

// Free implements Allocator: it walks the slot chain of ref, and for a
// KindRef array recursively frees every child ref it finds among the
// chain's int64 payload slots, before returning every visited slot to
// the free list.
func (a *FileAllocator) Free(ref core.Ref) error {
	if !ref.IsValid() {
		return nil
	}

	a.mu.Lock()
	kind, children, chain, err := a.inspectLocked(ref)
	a.mu.Unlock()
	if err != nil {
		return err
	}

	if kind == KindRef {
		for _, child := range children {
			if err := a.Free(child); err != nil {
				return err
			}
		}
	}

	a.mu.Lock()
	a.free = append(a.free, chain...)
	a.mu.Unlock()
	return nil
}

// inspectLocked walks the slot chain rooted at ref and returns its kind,
// its int64 payload values reinterpreted as child refs (meaningful only
// for KindRef), and the full list of slots in the chain. Must be called
// with a.mu held.
func (a *FileAllocator) inspectLocked(ref core.Ref) (Kind, []core.Ref, []core.Ref, error) {
	var children []core.Ref
	var chain []core.Ref
	var kind Kind

	cur := ref
	first := true
	for cur.IsValid() {
		buf, err := a.readSlot(cur)
		if err != nil {
			return 0, nil, nil, err
		}
		if first {
			kind = Kind(buf[0])
			first = false
		}
		chain = append(chain, cur)

		if kind == KindRef {
			count := int(binary.LittleEndian.Uint32(buf[1:5]))
			for i := 0; i < count; i++ {
				v := int64(binary.LittleEndian.Uint64(buf[slotHeaderSize+i*8 : slotHeaderSize+i*8+8]))
				if v != 0 {
					children = append(children, core.Ref(v))
				}
			}
		}
		cur = core.Ref(binary.LittleEndian.Uint64(buf[17:25]))
	}
	return kind, children, chain, nil
}

// Close implements Allocator.
func (a *FileAllocator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.zdec != nil {
		a.zdec.Close()
	}
	if a.zenc != nil {
		_ = a.zenc.Close()
	}
	if a.mapping != nil {
		return a.mapping.Close()
	}
	return nil
}
