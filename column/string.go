package column

import (
	"coldb/core"
	"coldb/internal/store"
)

// StringColumn is the adaptive-width string column: a flat array of
// strings, eligible for compression into a StringEnumColumn by
// AutoEnumerate once the unique/row ratio is low enough.
type StringColumn struct {
	alloc allocator
	ref   core.Ref
	arr   store.Array
}

// NewStringColumn allocates a fresh, empty StringColumn.
func NewStringColumn(alloc allocator) (*StringColumn, error) {
	ref, err := alloc.Alloc(store.KindString)
	if err != nil {
		return nil, err
	}
	arr, err := alloc.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return &StringColumn{alloc: alloc, ref: ref, arr: arr}, nil
}

// AttachStringColumn reconstructs a StringColumn view over an existing ref.
func AttachStringColumn(alloc allocator, ref core.Ref) (*StringColumn, error) {
	arr, err := alloc.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return &StringColumn{alloc: alloc, ref: ref, arr: arr}, nil
}

func (c *StringColumn) Ref() core.Ref { return c.ref }
func (c *StringColumn) Size() int     { return c.arr.Len() }

func (c *StringColumn) AddDefault() error { c.arr.AddString(""); return nil }
func (c *StringColumn) Insert(ndx int) error {
	c.arr.InsertString(ndx, "")
	return nil
}
func (c *StringColumn) Delete(ndx int) error { c.arr.Delete(ndx); return nil }
func (c *StringColumn) Clear() error         { c.arr.Clear(); return nil }
func (c *StringColumn) HasIndex() bool       { return false }

func (c *StringColumn) UpdateFromParent() error {
	arr, err := c.alloc.Resolve(c.ref)
	if err != nil {
		return err
	}
	c.arr = arr
	return nil
}

func (c *StringColumn) UpdateParentNdx(diff int) error {
	parent, slot := c.arr.Parent()
	c.arr.SetParent(parent, slot+diff)
	return nil
}

func (c *StringColumn) Get(ndx int) string { return c.arr.GetString(ndx) }
func (c *StringColumn) Set(ndx int, v string) { c.arr.SetString(ndx, v) }
func (c *StringColumn) InsertAt(ndx int, v string) { c.arr.InsertString(ndx, v) }

func (c *StringColumn) Find(v string, start, end core.RowIndex) (core.RowIndex, bool) {
	if int(end) > c.arr.Len() {
		end = core.RowIndex(c.arr.Len())
	}
	for i := start; i < end; i++ {
		if c.arr.GetString(int(i)) == v {
			return i, true
		}
	}
	return 0, false
}

// AutoEnumerate scans the column's unique strings and, if any string
// repeats (so the compressed (keys, values) representation stores every
// value once instead of once per row), builds it and returns true with
// the two new refs. Otherwise it allocates nothing and returns false. A
// column of all-distinct values would only grow under enumeration (an
// extra 8-byte key index per row with no dictionary savings), so that
// case is never compressed.
func (c *StringColumn) AutoEnumerate() (keyRef, valueRef core.Ref, ok bool, err error) {
	n := c.arr.Len()
	seen := make(map[string]int64, n)
	order := make([]string, 0, n)
	keyIndex := make([]int64, n)

	for i := 0; i < n; i++ {
		s := c.arr.GetString(i)
		id, exists := seen[s]
		if !exists {
			id = int64(len(order))
			seen[s] = id
			order = append(order, s)
		}
		keyIndex[i] = id
	}

	if n == 0 || len(order) == n {
		return core.NilRef, core.NilRef, false, nil
	}

	keys, err := c.alloc.Alloc(store.KindString)
	if err != nil {
		return core.NilRef, core.NilRef, false, err
	}
	keysArr, err := c.alloc.Resolve(keys)
	if err != nil {
		return core.NilRef, core.NilRef, false, err
	}
	for _, s := range order {
		keysArr.AddString(s)
	}

	values, err := c.alloc.Alloc(store.KindInt)
	if err != nil {
		return core.NilRef, core.NilRef, false, err
	}
	valuesArr, err := c.alloc.Resolve(values)
	if err != nil {
		return core.NilRef, core.NilRef, false, err
	}
	for _, id := range keyIndex {
		valuesArr.Add(id)
	}

	return keys, values, true, nil
}
