package column

import (
	"bytes"

	"coldb/core"
	"coldb/internal/store"
)

// BinaryColumn is the length-prefixed blob column. Get returns a view
// whose backing bytes live as long as the column does; callers that need
// the bytes to outlive a later mutation should copy them.
type BinaryColumn struct {
	alloc allocator
	ref   core.Ref
	arr   store.Array
}

// NewBinaryColumn allocates a fresh, empty BinaryColumn.
func NewBinaryColumn(alloc allocator) (*BinaryColumn, error) {
	ref, err := alloc.Alloc(store.KindBinary)
	if err != nil {
		return nil, err
	}
	arr, err := alloc.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return &BinaryColumn{alloc: alloc, ref: ref, arr: arr}, nil
}

// AttachBinaryColumn reconstructs a BinaryColumn view over an existing ref.
func AttachBinaryColumn(alloc allocator, ref core.Ref) (*BinaryColumn, error) {
	arr, err := alloc.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return &BinaryColumn{alloc: alloc, ref: ref, arr: arr}, nil
}

func (c *BinaryColumn) Ref() core.Ref { return c.ref }
func (c *BinaryColumn) Size() int     { return c.arr.Len() }

func (c *BinaryColumn) AddDefault() error    { c.arr.AddBytes(nil); return nil }
func (c *BinaryColumn) Insert(ndx int) error { c.arr.InsertBytes(ndx, nil); return nil }
func (c *BinaryColumn) Delete(ndx int) error { c.arr.Delete(ndx); return nil }
func (c *BinaryColumn) Clear() error         { c.arr.Clear(); return nil }
func (c *BinaryColumn) HasIndex() bool       { return false }

func (c *BinaryColumn) UpdateFromParent() error {
	arr, err := c.alloc.Resolve(c.ref)
	if err != nil {
		return err
	}
	c.arr = arr
	return nil
}

func (c *BinaryColumn) UpdateParentNdx(diff int) error {
	parent, slot := c.arr.Parent()
	c.arr.SetParent(parent, slot+diff)
	return nil
}

func (c *BinaryColumn) Get(ndx int) []byte          { return c.arr.GetBytes(ndx) }
func (c *BinaryColumn) Set(ndx int, v []byte)       { c.arr.SetBytes(ndx, v) }
func (c *BinaryColumn) InsertAt(ndx int, v []byte)  { c.arr.InsertBytes(ndx, v) }

func (c *BinaryColumn) Find(v []byte, start, end core.RowIndex) (core.RowIndex, bool) {
	if int(end) > c.arr.Len() {
		end = core.RowIndex(c.arr.Len())
	}
	for i := start; i < end; i++ {
		if bytes.Equal(c.arr.GetBytes(int(i)), v) {
			return i, true
		}
	}
	return 0, false
}
