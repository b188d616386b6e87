package store

import (
	"encoding/binary"
	"fmt"

	"coldb/core"
)

// maxIntsPerSlot is how many 8-byte elements fit in one slot's payload.
const maxIntsPerSlot = slotPayloadCap / 8

// fileArray is the FileAllocator's Array view: head identifies the first
// slot of the node's chain, which also carries the parent back-link.
// Every mutating method reads the whole chain, applies the change in
// memory, and rewrites the chain — simple at the cost of being O(n) per
// call, an acceptable trade for a component the core spec treats as an
// opaque external collaborator.
type fileArray struct {
	a    *FileAllocator
	head core.Ref
	kind Kind
}

func (f *fileArray) Ref() core.Ref { return f.head }
func (f *fileArray) Kind() Kind    { return f.kind }

func (f *fileArray) Len() int {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	switch f.kind {
	case KindInt, KindRef:
		vals, _, err := f.loadInts()
		if err != nil {
			return 0
		}
		return len(vals)
	default:
		entries, _, err := f.loadBlobs()
		if err != nil {
			return 0
		}
		return len(entries)
	}
}

// --- integer/ref payload ---

func (f *fileArray) loadInts() ([]int64, []core.Ref, error) {
	var vals []int64
	var chain []core.Ref
	cur := f.head
	for cur.IsValid() {
		buf, err := f.a.readSlot(cur)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, cur)
		count := int(binary.LittleEndian.Uint32(buf[1:5]))
		for i := 0; i < count; i++ {
			off := slotHeaderSize + i*8
			vals = append(vals, int64(binary.LittleEndian.Uint64(buf[off:off+8])))
		}
		cur = core.Ref(binary.LittleEndian.Uint64(buf[17:25]))
	}
	return vals, chain, nil
}

// storeInts repartitions vals across the chain rooted at f.head, growing
// or shrinking the chain as needed, preserving the head slot's parent
// link and this array's kind.
func (f *fileArray) storeInts(vals []int64, chain []core.Ref) error {
	parentRef, parentSlot, err := f.parentLocked(chain)
	if err != nil {
		return err
	}

	need := 1
	if len(vals) > 0 {
		need = (len(vals) + maxIntsPerSlot - 1) / maxIntsPerSlot
	}

	slots, err := f.resizeChain(chain, need)
	if err != nil {
		return err
	}

	for i, ref := range slots {
		buf := make([]byte, slotSize)
		buf[0] = byte(f.kind)

		lo := i * maxIntsPerSlot
		hi := lo + maxIntsPerSlot
		if hi > len(vals) {
			hi = len(vals)
		}
		if lo > hi {
			lo = hi
		}
		chunk := vals[lo:hi]
		binary.LittleEndian.PutUint32(buf[1:5], uint32(len(chunk)))
		for j, v := range chunk {
			off := slotHeaderSize + j*8
			binary.LittleEndian.PutUint64(buf[off:off+8], uint64(v))
		}

		if i == 0 {
			binary.LittleEndian.PutUint64(buf[5:13], uint64(parentRef))
			binary.LittleEndian.PutUint32(buf[13:17], uint32(parentSlot))
		} else {
			binary.LittleEndian.PutUint32(buf[13:17], slotNoParentBits())
		}

		var next core.Ref
		if i+1 < len(slots) {
			next = slots[i+1]
		}
		binary.LittleEndian.PutUint64(buf[17:25], uint64(next))

		if err := f.a.writeSlot(ref, buf); err != nil {
			return err
		}
	}

	f.head = slots[0]
	return nil
}

// --- string/binary payload ---

func (f *fileArray) loadBlobs() ([][]byte, []core.Ref, error) {
	var entries [][]byte
	var chain []core.Ref
	cur := f.head
	for cur.IsValid() {
		buf, err := f.a.readSlot(cur)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, cur)
		count := int(binary.LittleEndian.Uint32(buf[1:5]))
		pos := slotHeaderSize
		for i := 0; i < count; i++ {
			n := int(binary.LittleEndian.Uint32(buf[pos : pos+4]))
			pos += 4
			entry := make([]byte, n)
			copy(entry, buf[pos:pos+n])
			decoded, err := f.a.decompressPayload(f.kind, entry)
			if err != nil {
				return nil, nil, fmt.Errorf("store: decompressing payload: %w", err)
			}
			entries = append(entries, decoded)
			pos += n
		}
		cur = core.Ref(binary.LittleEndian.Uint64(buf[17:25]))
	}
	return entries, chain, nil
}

func (f *fileArray) storeBlobs(entries [][]byte, chain []core.Ref) error {
	parentRef, parentSlot, err := f.parentLocked(chain)
	if err != nil {
		return err
	}

	packed := make([][]byte, len(entries))
	for i, e := range entries {
		packed[i] = f.a.compressPayload(f.kind, e)
	}
	entries = packed

	const perEntryOverhead = 4
	var groups [][]int
	group := []int{}
	used := 0
	for i, e := range entries {
		size := len(e) + perEntryOverhead
		if size > slotPayloadCap {
			return fmt.Errorf("store: value of %d bytes exceeds the %d-byte per-slot limit", len(e), slotPayloadCap-perEntryOverhead)
		}
		if used+size > slotPayloadCap && len(group) > 0 {
			groups = append(groups, group)
			group = nil
			used = 0
		}
		group = append(group, i)
		used += size
	}
	groups = append(groups, group)
	if len(entries) == 0 {
		groups = [][]int{{}}
	}

	slots, err := f.resizeChain(chain, len(groups))
	if err != nil {
		return err
	}

	for i, ref := range slots {
		buf := make([]byte, slotSize)
		buf[0] = byte(f.kind)
		binary.LittleEndian.PutUint32(buf[1:5], uint32(len(groups[i])))

		pos := slotHeaderSize
		for _, idx := range groups[i] {
			e := entries[idx]
			binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(len(e)))
			pos += 4
			copy(buf[pos:pos+len(e)], e)
			pos += len(e)
		}

		if i == 0 {
			binary.LittleEndian.PutUint64(buf[5:13], uint64(parentRef))
			binary.LittleEndian.PutUint32(buf[13:17], uint32(parentSlot))
		} else {
			binary.LittleEndian.PutUint32(buf[13:17], slotNoParentBits())
		}

		var next core.Ref
		if i+1 < len(slots) {
			next = slots[i+1]
		}
		binary.LittleEndian.PutUint64(buf[17:25], uint64(next))

		if err := f.a.writeSlot(ref, buf); err != nil {
			return err
		}
	}

	f.head = slots[0]
	return nil
}

// parentLocked reads the head slot's parent back-link. Must be called
// with f.a.mu held.
func (f *fileArray) parentLocked(chain []core.Ref) (core.Ref, int32, error) {
	if len(chain) == 0 {
		return core.NilRef, slotNoParent, nil
	}
	buf, err := f.a.readSlot(chain[0])
	if err != nil {
		return core.NilRef, slotNoParent, err
	}
	parentRef := core.Ref(binary.LittleEndian.Uint64(buf[5:13]))
	parentSlot := int32(binary.LittleEndian.Uint32(buf[13:17]))
	return parentRef, parentSlot, nil
}

// resizeChain grows or shrinks chain to exactly need slots, allocating
// new ones or releasing surplus ones to the free list. Must be called
// with f.a.mu held.
func (f *fileArray) resizeChain(chain []core.Ref, need int) ([]core.Ref, error) {
	switch {
	case len(chain) < need:
		for len(chain) < need {
			ref, err := f.a.allocSlot()
			if err != nil {
				return nil, err
			}
			chain = append(chain, ref)
		}
	case len(chain) > need:
		f.a.free = append(f.a.free, chain[need:]...)
		chain = chain[:need]
	}
	return chain, nil
}

// --- Array interface ---

func (f *fileArray) Get(i int) int64 {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	vals, _, err := f.loadInts()
	if err != nil || i < 0 || i >= len(vals) {
		return 0
	}
	return vals[i]
}

func (f *fileArray) Set(i int, v int64) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	vals, chain, err := f.loadInts()
	if err != nil || i < 0 || i >= len(vals) {
		return
	}
	vals[i] = v
	_ = f.storeInts(vals, chain)
}

func (f *fileArray) Insert(i int, v int64) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	vals, chain, err := f.loadInts()
	if err != nil {
		return
	}
	if i < 0 || i > len(vals) {
		i = len(vals)
	}
	vals = append(vals[:i], append([]int64{v}, vals[i:]...)...)
	_ = f.storeInts(vals, chain)
}

func (f *fileArray) Delete(i int) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	vals, chain, err := f.loadInts()
	if err != nil || i < 0 || i >= len(vals) {
		return
	}
	vals = append(vals[:i], vals[i+1:]...)
	_ = f.storeInts(vals, chain)
}

func (f *fileArray) Add(v int64) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	vals, chain, err := f.loadInts()
	if err != nil {
		return
	}
	vals = append(vals, v)
	_ = f.storeInts(vals, chain)
}

func (f *fileArray) Clear() {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	switch f.kind {
	case KindInt, KindRef:
		_, chain, err := f.loadInts()
		if err != nil {
			return
		}
		_ = f.storeInts(nil, chain)
	default:
		_, chain, err := f.loadBlobs()
		if err != nil {
			return
		}
		_ = f.storeBlobs(nil, chain)
	}
}

func (f *fileArray) Truncate(i int) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	switch f.kind {
	case KindInt, KindRef:
		vals, chain, err := f.loadInts()
		if err != nil || i < 0 || i > len(vals) {
			return
		}
		_ = f.storeInts(vals[:i], chain)
	default:
		entries, chain, err := f.loadBlobs()
		if err != nil || i < 0 || i > len(entries) {
			return
		}
		_ = f.storeBlobs(entries[:i], chain)
	}
}

func (f *fileArray) GetString(i int) string {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	entries, _, err := f.loadBlobs()
	if err != nil || i < 0 || i >= len(entries) {
		return ""
	}
	return string(entries[i])
}

func (f *fileArray) SetString(i int, v string) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	entries, chain, err := f.loadBlobs()
	if err != nil || i < 0 || i >= len(entries) {
		return
	}
	entries[i] = []byte(v)
	_ = f.storeBlobs(entries, chain)
}

func (f *fileArray) InsertString(i int, v string) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	entries, chain, err := f.loadBlobs()
	if err != nil {
		return
	}
	if i < 0 || i > len(entries) {
		i = len(entries)
	}
	entries = append(entries[:i], append([][]byte{[]byte(v)}, entries[i:]...)...)
	_ = f.storeBlobs(entries, chain)
}

func (f *fileArray) AddString(v string) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	entries, chain, err := f.loadBlobs()
	if err != nil {
		return
	}
	entries = append(entries, []byte(v))
	_ = f.storeBlobs(entries, chain)
}

func (f *fileArray) GetBytes(i int) []byte {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	entries, _, err := f.loadBlobs()
	if err != nil || i < 0 || i >= len(entries) {
		return nil
	}
	return entries[i]
}

func (f *fileArray) SetBytes(i int, v []byte) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	entries, chain, err := f.loadBlobs()
	if err != nil || i < 0 || i >= len(entries) {
		return
	}
	entries[i] = v
	_ = f.storeBlobs(entries, chain)
}

func (f *fileArray) InsertBytes(i int, v []byte) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	entries, chain, err := f.loadBlobs()
	if err != nil {
		return
	}
	if i < 0 || i > len(entries) {
		i = len(entries)
	}
	entries = append(entries[:i], append([][]byte{v}, entries[i:]...)...)
	_ = f.storeBlobs(entries, chain)
}

func (f *fileArray) AddBytes(v []byte) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	entries, chain, err := f.loadBlobs()
	if err != nil {
		return
	}
	entries = append(entries, v)
	_ = f.storeBlobs(entries, chain)
}

func (f *fileArray) Parent() (core.Ref, int) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	buf, err := f.a.readSlot(f.head)
	if err != nil {
		return core.NilRef, -1
	}
	parentRef := core.Ref(binary.LittleEndian.Uint64(buf[5:13]))
	parentSlot := int32(binary.LittleEndian.Uint32(buf[13:17]))
	if parentSlot == slotNoParent {
		return core.NilRef, -1
	}
	return parentRef, int(parentSlot)
}

func (f *fileArray) SetParent(parent core.Ref, slot int) {
	f.a.mu.Lock()
	defer f.a.mu.Unlock()
	buf, err := f.a.readSlot(f.head)
	if err != nil {
		return
	}
	binary.LittleEndian.PutUint64(buf[5:13], uint64(parent))
	binary.LittleEndian.PutUint32(buf[13:17], uint32(int32(slot)))
	_ = f.a.writeSlot(f.head, buf)
}
