package table

import (
	"fmt"

	"coldb/column"
	"coldb/core"
	"coldb/internal/store"
	"coldb/spec"
)

// CreateColumns walks the Spec in order and, for each user column,
// builds the corresponding Column, appends its ref(s), links its parent
// back-link, and caches it. It is the free-standing-construction
// counterpart of CacheColumns; called once, on a table whose m_columns
// is empty (a newly created subtable row sharing a schema that may
// already have columns). It returns an error if m_columns is not empty.
//
// An AttrIndexed entry immediately following a column builds its index
// eagerly: the source design left this path unfinished (see the
// Optimize-adjacent DESIGN notes on ATTR_INDEXED), and an eager build is
// the simpler of the two valid resolutions.
func (t *Table) CreateColumns() error {
	columns, err := t.alloc.Resolve(t.columnsRef)
	if err != nil {
		return err
	}
	if columns.Len() != 0 {
		return fmt.Errorf("table: CreateColumns requires an empty m_columns")
	}

	n, err := t.spec.GetColumnCount()
	if err != nil {
		return err
	}

	t.cols = make([]column.Column, 0, n)
	for i := 0; i < n; i++ {
		ndx := core.ColumnIndex(i)
		ct, err := t.spec.GetRealColumnType(ndx)
		if err != nil {
			return err
		}

		col, err := t.buildColumn(ct)
		if err != nil {
			return err
		}

		hasIndex, err := t.spec.HasIndex(ndx)
		if err != nil {
			return err
		}
		if hasIndex {
			ic, ok := col.(*column.IntColumn)
			if !ok {
				return fmt.Errorf("table: column %d cannot be indexed: %v columns have no index support", ndx, ct)
			}
			if err := ic.BuildIndex(); err != nil {
				return err
			}
		}

		pos, err := t.spec.GetColumnRefPos(ndx)
		if err != nil {
			return err
		}
		for j, ref := range t.columnRefs(col) {
			columns.Insert(pos+j, int64(ref))
			arr, err := t.alloc.Resolve(ref)
			if err != nil {
				return err
			}
			arr.SetParent(t.columnsRef, pos+j)
		}

		t.cols = append(t.cols, col)
	}
	return nil
}

// CacheColumns reconstructs typed Column views from an already-populated
// m_columns, the dual of CreateColumns for the attach-from-ref path. It
// asserts every column reports the same length and adopts it as m_size.
func (t *Table) CacheColumns() error {
	n, err := t.spec.GetColumnCount()
	if err != nil {
		return err
	}

	t.cols = make([]column.Column, 0, n)
	size := -1

	for i := 0; i < n; i++ {
		ndx := core.ColumnIndex(i)
		ct, err := t.spec.GetRealColumnType(ndx)
		if err != nil {
			return err
		}
		pos, err := t.spec.GetColumnRefPos(ndx)
		if err != nil {
			return err
		}
		columns, err := t.alloc.Resolve(t.columnsRef)
		if err != nil {
			return err
		}

		hasIndex, err := t.spec.HasIndex(ndx)
		if err != nil {
			return err
		}

		col, colSize, err := t.attachColumnAt(ct, columns, pos, hasIndex)
		if err != nil {
			return err
		}
		if size == -1 {
			size = colSize
		} else if size != colSize {
			return fmt.Errorf("table: column %d has length %d, expected %d", i, colSize, size)
		}
		t.cols = append(t.cols, col)
	}

	if size == -1 {
		size = 0
	}
	t.size = size
	return nil
}

func (t *Table) attachColumnAt(ct spec.ColumnType, columns store.Array, pos int, hasIndex bool) (column.Column, int, error) {
	ref := core.Ref(columns.Get(pos))
	switch ct {
	case spec.TypeInt, spec.TypeBool, spec.TypeDate:
		if hasIndex {
			c, err := column.AttachIndexedIntColumn(t.alloc, ref, core.Ref(columns.Get(pos+1)))
			if err != nil {
				return nil, 0, err
			}
			return c, c.Size(), nil
		}
		c, err := column.AttachIntColumn(t.alloc, ref)
		if err != nil {
			return nil, 0, err
		}
		return c, c.Size(), nil
	case spec.TypeString:
		c, err := column.AttachStringColumn(t.alloc, ref)
		if err != nil {
			return nil, 0, err
		}
		return c, c.Size(), nil
	case spec.TypeBinary:
		c, err := column.AttachBinaryColumn(t.alloc, ref)
		if err != nil {
			return nil, 0, err
		}
		return c, c.Size(), nil
	case spec.TypeTable:
		c, err := column.AttachTableColumn(t.alloc, ref)
		if err != nil {
			return nil, 0, err
		}
		return c, c.Size(), nil
	case spec.TypeStringEnum:
		valuesRef := core.Ref(columns.Get(pos + 1))
		c, err := column.AttachStringEnumColumn(t.alloc, ref, valuesRef)
		if err != nil {
			return nil, 0, err
		}
		return c, c.Size(), nil
	case spec.TypeMixed:
		c, err := column.AttachMixedColumn(t.alloc, ref)
		if err != nil {
			return nil, 0, err
		}
		return c, c.Size(), nil
	default:
		return nil, 0, fmt.Errorf("table: unknown column type %v", ct)
	}
}
