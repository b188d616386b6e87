package column

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"coldb/core"
)

// index is the secondary value->rows structure BuildIndex installs on an
// IntColumn. It trades the source design's sorted B+tree index for a Go
// map plus a kept-sorted key slice: a map lookup resolves an exact match
// in O(1), at least as good as the spec's O(log n) requirement. The
// distinct values are also kept in a sorted key slice, maintained by
// insertKey/remove; the lookups in this file read only the map.
type index struct {
	rows map[int64]*roaring.Bitmap
	keys []int64 // distinct values, kept sorted
}

func newIndex() *index {
	return &index{rows: make(map[int64]*roaring.Bitmap)}
}

func (ix *index) insertKey(v int64) *roaring.Bitmap {
	b, ok := ix.rows[v]
	if ok {
		return b
	}
	b = roaring.New()
	ix.rows[v] = b
	at := sort.Search(len(ix.keys), func(i int) bool { return ix.keys[i] >= v })
	ix.keys = append(ix.keys, 0)
	copy(ix.keys[at+1:], ix.keys[at:])
	ix.keys[at] = v
	return b
}

func (ix *index) add(v int64, row core.RowIndex) {
	ix.insertKey(v).Add(uint32(row))
}

func (ix *index) remove(v int64, row core.RowIndex) {
	b, ok := ix.rows[v]
	if !ok {
		return
	}
	b.Remove(uint32(row))
	if b.IsEmpty() {
		delete(ix.rows, v)
		at := sort.Search(len(ix.keys), func(i int) bool { return ix.keys[i] >= v })
		if at < len(ix.keys) && ix.keys[at] == v {
			ix.keys = append(ix.keys[:at], ix.keys[at+1:]...)
		}
	}
}

// findFirst returns the smallest row index holding value v at or after
// start, or (0, false).
func (ix *index) findFirst(v int64, start core.RowIndex) (core.RowIndex, bool) {
	b, ok := ix.rows[v]
	if !ok || b.IsEmpty() {
		return 0, false
	}
	it := b.Iterator()
	for it.HasNext() {
		r := it.Next()
		if r >= uint32(start) {
			return core.RowIndex(r), true
		}
	}
	return 0, false
}

// findAll returns every row index holding value v, ascending.
func (ix *index) findAll(v int64) []core.RowIndex {
	b, ok := ix.rows[v]
	if !ok {
		return nil
	}
	arr := b.ToArray()
	out := make([]core.RowIndex, len(arr))
	for i, r := range arr {
		out[i] = core.RowIndex(r)
	}
	return out
}
