package column

import (
	"fmt"

	"coldb/core"
	"coldb/internal/store"
)

// MixedKind tags the variant currently stored in a MixedColumn cell.
type MixedKind int64

const (
	MixedInt MixedKind = iota
	MixedBool
	MixedDate
	MixedString
	MixedBinary
	MixedTable
)

// MixedValue is a read/write view of one MixedColumn cell.
type MixedValue struct {
	Kind  MixedKind
	Int   int64
	Bool  bool
	Date  int64
	Str   string
	Bytes []byte
	Table core.Ref // valid ref of an embedded table, or core.NilRef
}

// MixedColumn stores, per row, a tagged payload over {int, bool, date,
// string, binary, table}. Every row has a slot in every side array so
// the arrays stay index-aligned; only the array selected by the row's
// tag is meaningful. The five side arrays hang off one KindRef container
// array, so a MixedColumn occupies exactly one m_columns slot like every
// other column family — Spec.GetColumnRefPos never special-cases it.
type MixedColumn struct {
	alloc     allocator
	container core.Ref
	types     *IntColumn
	ints      *IntColumn
	strs      *StringColumn
	blobs     *BinaryColumn
	tables    *IntColumn
}

// NewMixedColumn allocates a fresh, empty MixedColumn.
func NewMixedColumn(alloc allocator) (*MixedColumn, error) {
	types, err := NewIntColumn(alloc)
	if err != nil {
		return nil, err
	}
	ints, err := NewIntColumn(alloc)
	if err != nil {
		return nil, err
	}
	strs, err := NewStringColumn(alloc)
	if err != nil {
		return nil, err
	}
	blobs, err := NewBinaryColumn(alloc)
	if err != nil {
		return nil, err
	}
	tables, err := NewIntColumn(alloc)
	if err != nil {
		return nil, err
	}

	container, err := alloc.Alloc(store.KindRef)
	if err != nil {
		return nil, err
	}
	containerArr, err := alloc.Resolve(container)
	if err != nil {
		return nil, err
	}
	refs := []core.Ref{types.Ref(), ints.Ref(), strs.Ref(), blobs.Ref(), tables.Ref()}
	for i, ref := range refs {
		containerArr.Add(int64(ref))
		arr, err := alloc.Resolve(ref)
		if err != nil {
			return nil, err
		}
		arr.SetParent(container, i)
	}

	return &MixedColumn{alloc: alloc, container: container, types: types, ints: ints, strs: strs, blobs: blobs, tables: tables}, nil
}

// AttachMixedColumn reconstructs a MixedColumn view over an existing
// container ref.
func AttachMixedColumn(alloc allocator, container core.Ref) (*MixedColumn, error) {
	containerArr, err := alloc.Resolve(container)
	if err != nil {
		return nil, err
	}
	if containerArr.Kind() != store.KindRef || containerArr.Len() != 5 {
		return nil, fmt.Errorf("column: malformed mixed column container at ref %d", container)
	}

	types, err := AttachIntColumn(alloc, core.Ref(containerArr.Get(0)))
	if err != nil {
		return nil, err
	}
	ints, err := AttachIntColumn(alloc, core.Ref(containerArr.Get(1)))
	if err != nil {
		return nil, err
	}
	strs, err := AttachStringColumn(alloc, core.Ref(containerArr.Get(2)))
	if err != nil {
		return nil, err
	}
	blobs, err := AttachBinaryColumn(alloc, core.Ref(containerArr.Get(3)))
	if err != nil {
		return nil, err
	}
	tables, err := AttachIntColumn(alloc, core.Ref(containerArr.Get(4)))
	if err != nil {
		return nil, err
	}

	return &MixedColumn{alloc: alloc, container: container, types: types, ints: ints, strs: strs, blobs: blobs, tables: tables}, nil
}

// Ref returns the container ref occupying this column's single
// m_columns slot.
func (c *MixedColumn) Ref() core.Ref { return c.container }
func (c *MixedColumn) Size() int     { return c.types.Size() }

func (c *MixedColumn) AddDefault() error {
	c.types.arr.Add(int64(MixedInt))
	c.ints.arr.Add(0)
	c.strs.arr.AddString("")
	c.blobs.arr.AddBytes(nil)
	c.tables.arr.Add(0)
	return nil
}

func (c *MixedColumn) Insert(ndx int) error {
	c.types.InsertAt(ndx, int64(MixedInt))
	c.ints.arr.Insert(ndx, 0)
	c.strs.arr.InsertString(ndx, "")
	c.blobs.arr.InsertBytes(ndx, nil)
	c.tables.arr.Insert(ndx, 0)
	return nil
}

func (c *MixedColumn) Delete(ndx int) error {
	if err := c.freeEmbeddedTable(ndx); err != nil {
		return err
	}
	c.types.arr.Delete(ndx)
	c.ints.arr.Delete(ndx)
	c.strs.arr.Delete(ndx)
	c.blobs.arr.Delete(ndx)
	c.tables.arr.Delete(ndx)
	return nil
}

func (c *MixedColumn) Clear() error {
	for i := 0; i < c.types.Size(); i++ {
		if err := c.freeEmbeddedTable(i); err != nil {
			return err
		}
	}
	c.types.arr.Clear()
	c.ints.arr.Clear()
	c.strs.arr.Clear()
	c.blobs.arr.Clear()
	c.tables.arr.Clear()
	return nil
}

func (c *MixedColumn) HasIndex() bool { return false }

// UpdateFromParent refreshes every array this column owns, including the
// container.
func (c *MixedColumn) UpdateFromParent() error {
	for _, col := range []*IntColumn{c.types, c.ints, c.tables} {
		if err := col.UpdateFromParent(); err != nil {
			return err
		}
	}
	if err := c.strs.UpdateFromParent(); err != nil {
		return err
	}
	return c.blobs.UpdateFromParent()
}

// UpdateParentNdx adjusts only the container's own slot in m_columns;
// the five side arrays' parent is the container, which does not move
// when sibling m_columns slots shift.
func (c *MixedColumn) UpdateParentNdx(diff int) error {
	containerArr, err := c.alloc.Resolve(c.container)
	if err != nil {
		return err
	}
	parent, slot := containerArr.Parent()
	containerArr.SetParent(parent, slot+diff)
	return nil
}

func (c *MixedColumn) freeEmbeddedTable(ndx int) error {
	if MixedKind(c.types.Get(ndx)) != MixedTable {
		return nil
	}
	if ref := core.Ref(c.tables.Get(ndx)); ref.IsValid() {
		return c.alloc.Free(ref)
	}
	return nil
}

// Get returns the ndx'th row's value.
func (c *MixedColumn) Get(ndx int) MixedValue {
	switch MixedKind(c.types.Get(ndx)) {
	case MixedBool:
		return MixedValue{Kind: MixedBool, Bool: c.ints.Get(ndx) != 0}
	case MixedDate:
		return MixedValue{Kind: MixedDate, Date: c.ints.Get(ndx)}
	case MixedString:
		return MixedValue{Kind: MixedString, Str: c.strs.Get(ndx)}
	case MixedBinary:
		return MixedValue{Kind: MixedBinary, Bytes: c.blobs.Get(ndx)}
	case MixedTable:
		return MixedValue{Kind: MixedTable, Table: core.Ref(c.tables.Get(ndx))}
	default:
		return MixedValue{Kind: MixedInt, Int: c.ints.Get(ndx)}
	}
}

// SetInt overwrites ndx with an int cell, destroying any embedded table
// the cell previously held.
func (c *MixedColumn) SetInt(ndx int, v int64) error {
	if err := c.freeEmbeddedTable(ndx); err != nil {
		return err
	}
	c.types.Set(ndx, int64(MixedInt))
	c.ints.Set(ndx, v)
	return nil
}

func (c *MixedColumn) SetBool(ndx int, v bool) error {
	if err := c.freeEmbeddedTable(ndx); err != nil {
		return err
	}
	c.types.Set(ndx, int64(MixedBool))
	i := int64(0)
	if v {
		i = 1
	}
	c.ints.Set(ndx, i)
	return nil
}

func (c *MixedColumn) SetDate(ndx int, v int64) error {
	if err := c.freeEmbeddedTable(ndx); err != nil {
		return err
	}
	c.types.Set(ndx, int64(MixedDate))
	c.ints.Set(ndx, v)
	return nil
}

func (c *MixedColumn) SetString(ndx int, v string) error {
	if err := c.freeEmbeddedTable(ndx); err != nil {
		return err
	}
	c.types.Set(ndx, int64(MixedString))
	c.strs.Set(ndx, v)
	return nil
}

func (c *MixedColumn) SetBytes(ndx int, v []byte) error {
	if err := c.freeEmbeddedTable(ndx); err != nil {
		return err
	}
	c.types.Set(ndx, int64(MixedBinary))
	c.blobs.Set(ndx, v)
	return nil
}

// SetTable installs ref (a freshly allocated subtable root built by the
// table package) as ndx's embedded table, destroying any table the cell
// previously held.
func (c *MixedColumn) SetTable(ndx int, ref core.Ref) error {
	if err := c.freeEmbeddedTable(ndx); err != nil {
		return err
	}
	c.types.Set(ndx, int64(MixedTable))
	c.tables.Set(ndx, int64(ref))
	return nil
}
