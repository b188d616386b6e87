package store

import (
	"fmt"
	"slices"
	"sync"

	"coldb/core"
)

// memArray is the in-memory Array implementation. Exactly one of ints,
// refs, strs, or blobs is populated depending on kind.
type memArray struct {
	ref   core.Ref
	kind  Kind
	ints  []int64
	strs  []string
	blobs [][]byte

	parent     core.Ref
	parentSlot int
}

func (a *memArray) Ref() core.Ref  { return a.ref }
func (a *memArray) Kind() Kind     { return a.kind }
func (a *memArray) Len() int {
	switch a.kind {
	case KindString:
		return len(a.strs)
	case KindBinary:
		return len(a.blobs)
	default:
		return len(a.ints)
	}
}

func (a *memArray) Get(i int) int64 { return a.ints[i] }
func (a *memArray) Set(i int, v int64) { a.ints[i] = v }

func (a *memArray) Insert(i int, v int64) {
	a.ints = slices.Insert(a.ints, i, v)
}

func (a *memArray) Delete(i int) {
	a.ints = slices.Delete(a.ints, i, i+1)
}

func (a *memArray) Add(v int64) { a.ints = append(a.ints, v) }

func (a *memArray) Clear() {
	a.ints = a.ints[:0]
	a.strs = a.strs[:0]
	a.blobs = a.blobs[:0]
}

func (a *memArray) Truncate(i int) {
	switch a.kind {
	case KindString:
		a.strs = a.strs[:i]
	case KindBinary:
		a.blobs = a.blobs[:i]
	default:
		a.ints = a.ints[:i]
	}
}

func (a *memArray) GetString(i int) string   { return a.strs[i] }
func (a *memArray) SetString(i int, v string) { a.strs[i] = v }
func (a *memArray) InsertString(i int, v string) {
	a.strs = slices.Insert(a.strs, i, v)
}
func (a *memArray) AddString(v string) { a.strs = append(a.strs, v) }

func (a *memArray) GetBytes(i int) []byte { return a.blobs[i] }
func (a *memArray) SetBytes(i int, v []byte) { a.blobs[i] = v }
func (a *memArray) InsertBytes(i int, v []byte) {
	a.blobs = slices.Insert(a.blobs, i, v)
}
func (a *memArray) AddBytes(v []byte) { a.blobs = append(a.blobs, v) }

func (a *memArray) Parent() (core.Ref, int) { return a.parent, a.parentSlot }
func (a *memArray) SetParent(parent core.Ref, slot int) {
	a.parent, a.parentSlot = parent, slot
}

// MemAllocator is a bump-allocated, free-listed in-memory Allocator. It
// never touches disk; a Table built on it is equivalent to the source
// design's free-standing, memory-only table.
type MemAllocator struct {
	mu      sync.Mutex
	nodes   map[core.Ref]*memArray
	nextRef core.Ref
	free    []core.Ref
}

// NewMemAllocator creates an empty in-memory allocator. Ref 0 is reserved
// as the permanent nil ref.
func NewMemAllocator() *MemAllocator {
	return &MemAllocator{
		nodes:   make(map[core.Ref]*memArray),
		nextRef: 1,
	}
}

func (m *MemAllocator) Alloc(kind Kind) (core.Ref, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ref core.Ref
	if n := len(m.free); n > 0 {
		ref = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		ref = m.nextRef
		m.nextRef++
	}

	m.nodes[ref] = &memArray{ref: ref, kind: kind}
	return ref, nil
}

func (m *MemAllocator) Resolve(ref core.Ref) (Array, error) {
	if !ref.IsValid() {
		return nil, fmt.Errorf("store: resolve of nil ref is a programmer error")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[ref]
	if !ok {
		return nil, fmt.Errorf("store: ref %d is not live", ref)
	}
	return n, nil
}

func (m *MemAllocator) Free(ref core.Ref) error {
	if !ref.IsValid() {
		return nil
	}
	m.mu.Lock()
	n, ok := m.nodes[ref]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("store: double free of ref %d", ref)
	}
	var children []core.Ref
	if n.kind == KindRef {
		children = make([]core.Ref, 0, len(n.ints))
		for _, v := range n.ints {
			children = append(children, core.Ref(v))
		}
	}
	delete(m.nodes, ref)
	m.free = append(m.free, ref)
	m.mu.Unlock()

	for _, c := range children {
		if c.IsValid() {
			if err := m.Free(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *MemAllocator) Close() error { return nil }
