package column

import (
	"coldb/core"
	"coldb/internal/store"
)

// IntColumn backs INT, BOOL, and DATE columns alike: all three are a flat
// array of signed 64-bit integers at this layer, differing only in how
// the Table's cell accessors interpret the stored value (bool as 0/1,
// date as Unix seconds).
type IntColumn struct {
	alloc    allocator
	ref      core.Ref
	arr      store.Array
	indexRef core.Ref // NilRef unless BuildIndex has reserved an m_columns slot
	ix       *index
}

// NewIntColumn allocates a fresh, empty IntColumn.
func NewIntColumn(alloc allocator) (*IntColumn, error) {
	ref, err := alloc.Alloc(store.KindInt)
	if err != nil {
		return nil, err
	}
	arr, err := alloc.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return &IntColumn{alloc: alloc, ref: ref, arr: arr}, nil
}

// AttachIntColumn reconstructs an IntColumn view over an existing ref,
// with no index.
func AttachIntColumn(alloc allocator, ref core.Ref) (*IntColumn, error) {
	arr, err := alloc.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return &IntColumn{alloc: alloc, ref: ref, arr: arr}, nil
}

// AttachIndexedIntColumn reconstructs an IntColumn view that owns the
// trailing index-ref slot Spec.GetColumnRefPos reserves for it, rebuilding
// the in-memory secondary index from the data in one pass (the index's
// bitmap content is never itself persisted; only its m_columns slot is).
func AttachIndexedIntColumn(alloc allocator, ref, indexRef core.Ref) (*IntColumn, error) {
	c, err := AttachIntColumn(alloc, ref)
	if err != nil {
		return nil, err
	}
	c.indexRef = indexRef
	c.reindex()
	return c, nil
}

func (c *IntColumn) Ref() core.Ref { return c.ref }
func (c *IntColumn) Size() int     { return c.arr.Len() }

// IndexRef returns the ref occupying this column's trailing index slot, or
// core.NilRef if no index has been built.
func (c *IntColumn) IndexRef() core.Ref { return c.indexRef }

func (c *IntColumn) AddDefault() error {
	c.arr.Add(0)
	if c.ix != nil {
		c.ix.add(0, core.RowIndex(c.arr.Len()-1))
	}
	return nil
}

func (c *IntColumn) Insert(ndx int) error {
	c.arr.Insert(ndx, 0)
	if c.ix != nil {
		c.reindex()
	}
	return nil
}

func (c *IntColumn) Delete(ndx int) error {
	c.arr.Delete(ndx)
	if c.ix != nil {
		c.reindex()
	}
	return nil
}

func (c *IntColumn) Clear() error {
	c.arr.Clear()
	if c.ix != nil {
		c.ix = newIndex()
	}
	return nil
}

func (c *IntColumn) HasIndex() bool { return c.ix != nil }

// BuildIndex scans the column once, populating a value->rows index so
// subsequent Find calls resolve without a linear scan, and — the first
// time it is called on this column — reserves the trailing m_columns slot
// Spec.GetColumnRefPos accounts for once AttrIndexed is set. The slot
// holds an empty marker array: the roaring-bitmap index itself lives only
// in memory and is rebuilt from the data column on every attach.
func (c *IntColumn) BuildIndex() error {
	if !c.indexRef.IsValid() {
		ref, err := c.alloc.Alloc(store.KindInt)
		if err != nil {
			return err
		}
		c.indexRef = ref
	}
	c.reindex()
	return nil
}

func (c *IntColumn) reindex() {
	ix := newIndex()
	for i := 0; i < c.arr.Len(); i++ {
		ix.add(c.arr.Get(i), core.RowIndex(i))
	}
	c.ix = ix
}

func (c *IntColumn) UpdateFromParent() error {
	arr, err := c.alloc.Resolve(c.ref)
	if err != nil {
		return err
	}
	c.arr = arr
	return nil
}

func (c *IntColumn) UpdateParentNdx(diff int) error {
	parent, slot := c.arr.Parent()
	c.arr.SetParent(parent, slot+diff)
	if c.indexRef.IsValid() {
		ixArr, err := c.alloc.Resolve(c.indexRef)
		if err != nil {
			return err
		}
		p, s := ixArr.Parent()
		ixArr.SetParent(p, s+diff)
	}
	return nil
}

// Get returns the value at row ndx.
func (c *IntColumn) Get(ndx int) int64 { return c.arr.Get(ndx) }

// Set overwrites the value at row ndx, keeping the index (if any) in
// sync.
func (c *IntColumn) Set(ndx int, v int64) {
	if c.ix != nil {
		c.ix.remove(c.arr.Get(ndx), core.RowIndex(ndx))
		c.ix.add(v, core.RowIndex(ndx))
	}
	c.arr.Set(ndx, v)
}

// InsertAt inserts v at ndx (the typed counterpart of the generic
// Insert, used by Table.InsertDone's per-column batch path).
func (c *IntColumn) InsertAt(ndx int, v int64) {
	c.arr.Insert(ndx, v)
	if c.ix != nil {
		c.reindex()
	}
}

// Find returns the smallest row index r in [start, end) whose value
// equals v, or (0, false). With a built index this is a single map
// lookup; otherwise it falls back to a linear scan.
func (c *IntColumn) Find(v int64, start, end core.RowIndex) (core.RowIndex, bool) {
	if c.ix != nil {
		r, ok := c.ix.findFirst(v, start)
		if ok && r < end {
			return r, true
		}
		return 0, false
	}
	if int(end) > c.arr.Len() {
		end = core.RowIndex(c.arr.Len())
	}
	for i := start; i < end; i++ {
		if c.arr.Get(int(i)) == v {
			return i, true
		}
	}
	return 0, false
}

// FindAll appends to sink every row index holding value v.
func (c *IntColumn) FindAll(sink []core.RowIndex, v int64) []core.RowIndex {
	if c.ix != nil {
		return append(sink, c.ix.findAll(v)...)
	}
	for i := 0; i < c.arr.Len(); i++ {
		if c.arr.Get(i) == v {
			sink = append(sink, core.RowIndex(i))
		}
	}
	return sink
}
