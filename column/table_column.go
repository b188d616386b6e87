package column

import (
	"coldb/core"
)

// TableColumn is the subtable column: an int column of refs into nested
// Table storage, 0 meaning an empty (unmaterialized) subtable. It only
// owns the ref bookkeeping; constructing a *table.Table view over a
// non-zero ref is the table package's job, avoiding a column<->table
// import cycle.
type TableColumn struct {
	alloc allocator
	refs  *IntColumn
}

// NewTableColumn allocates a fresh, empty TableColumn.
func NewTableColumn(alloc allocator) (*TableColumn, error) {
	refs, err := NewIntColumn(alloc)
	if err != nil {
		return nil, err
	}
	return &TableColumn{alloc: alloc, refs: refs}, nil
}

// AttachTableColumn reconstructs a TableColumn view over an existing ref.
func AttachTableColumn(alloc allocator, ref core.Ref) (*TableColumn, error) {
	refs, err := AttachIntColumn(alloc, ref)
	if err != nil {
		return nil, err
	}
	return &TableColumn{alloc: alloc, refs: refs}, nil
}

func (c *TableColumn) Ref() core.Ref { return c.refs.Ref() }
func (c *TableColumn) Size() int     { return c.refs.Size() }

func (c *TableColumn) AddDefault() error    { return c.refs.AddDefault() }
func (c *TableColumn) Insert(ndx int) error { return c.refs.Insert(ndx) }

// Delete destroys the subtable subtree rooted at ndx's ref (if any) and
// removes the slot.
func (c *TableColumn) Delete(ndx int) error {
	if ref := core.Ref(c.refs.Get(ndx)); ref.IsValid() {
		if err := c.alloc.Free(ref); err != nil {
			return err
		}
	}
	return c.refs.Delete(ndx)
}

// ClearCell destroys the subtree at ndx (if any) and resets the cell to
// the empty ref, without removing the row.
func (c *TableColumn) ClearCell(ndx int) error {
	if ref := core.Ref(c.refs.Get(ndx)); ref.IsValid() {
		if err := c.alloc.Free(ref); err != nil {
			return err
		}
	}
	c.refs.Set(ndx, 0)
	return nil
}

func (c *TableColumn) Clear() error {
	for i := 0; i < c.refs.Size(); i++ {
		if ref := core.Ref(c.refs.Get(i)); ref.IsValid() {
			if err := c.alloc.Free(ref); err != nil {
				return err
			}
		}
	}
	return c.refs.Clear()
}

func (c *TableColumn) HasIndex() bool              { return false }
func (c *TableColumn) UpdateFromParent() error      { return c.refs.UpdateFromParent() }
func (c *TableColumn) UpdateParentNdx(diff int) error { return c.refs.UpdateParentNdx(diff) }

// GetRef returns the subtable ref stored at ndx (core.NilRef for an
// empty subtable).
func (c *TableColumn) GetRef(ndx int) core.Ref { return core.Ref(c.refs.Get(ndx)) }

// SetRef installs ref (typically freshly allocated by the table package)
// as the subtable backing ndx's cell.
func (c *TableColumn) SetRef(ndx int, ref core.Ref) { c.refs.Set(ndx, int64(ref)) }

// GetTableSize returns the row count of the subtable at ndx without
// constructing a full Table view: 0 for an empty ref, otherwise the
// length of the subtable's first column (every column in a Table shares
// one row count by invariant), or 0 if the subtable has no columns yet.
func (c *TableColumn) GetTableSize(alloc allocator, ndx int) (int, error) {
	ref := c.GetRef(ndx)
	if !ref.IsValid() {
		return 0, nil
	}
	columns, err := alloc.Resolve(ref)
	if err != nil {
		return 0, err
	}
	if columns.Len() == 0 {
		return 0, nil
	}
	firstColRef := core.Ref(columns.Get(0))
	if !firstColRef.IsValid() {
		return 0, nil
	}
	firstCol, err := alloc.Resolve(firstColRef)
	if err != nil {
		return 0, err
	}
	return firstCol.Len(), nil
}
