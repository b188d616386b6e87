package table

import (
	"fmt"

	"coldb/column"
	"coldb/core"
	"coldb/spec"
)

// tableOrdinal returns ndx's 0-based position among TypeTable columns,
// the ordinal space GetSubSpecRef and SetSubSpecRef use.
func (t *Table) tableOrdinal(ndx core.ColumnIndex) (int, error) {
	n, err := t.spec.GetColumnCount()
	if err != nil {
		return 0, err
	}
	ordinal := 0
	for i := 0; i < n; i++ {
		ct, err := t.spec.GetRealColumnType(core.ColumnIndex(i))
		if err != nil {
			return 0, err
		}
		if ct != spec.TypeTable {
			continue
		}
		if core.ColumnIndex(i) == ndx {
			return ordinal, nil
		}
		ordinal++
	}
	return 0, fmt.Errorf("table: column %d is not a Table column", ndx)
}

// GetTableSize returns the row count of the subtable at (col, row)
// without materializing a full Table view, per Spec ColumnTable's
// contract: 0 for an empty cell.
func (t *Table) GetTableSize(col core.ColumnIndex, row core.RowIndex) (int, error) {
	if err := t.checkType(col, spec.TypeTable); err != nil {
		return 0, err
	}
	if err := t.checkRow(row); err != nil {
		return 0, err
	}
	c, err := t.column(col)
	if err != nil {
		return 0, err
	}
	return c.(*column.TableColumn).GetTableSize(t.alloc, int(row))
}

// GetSubtable returns the subtable at (col, row), creating one sharing
// the column's sub-Spec if the cell was empty.
func (t *Table) GetSubtable(col core.ColumnIndex, row core.RowIndex) (*Table, error) {
	if err := t.checkType(col, spec.TypeTable); err != nil {
		return nil, err
	}
	if err := t.checkRow(row); err != nil {
		return nil, err
	}
	c, err := t.column(col)
	if err != nil {
		return nil, err
	}
	tc := c.(*column.TableColumn)

	ordinal, err := t.tableOrdinal(col)
	if err != nil {
		return nil, err
	}
	subSpecRef, err := t.spec.GetSubSpecRef(ordinal)
	if err != nil {
		return nil, err
	}
	sub, err := spec.Attach(t.alloc, subSpecRef)
	if err != nil {
		return nil, err
	}

	ref := tc.GetRef(int(row))
	if !ref.IsValid() {
		st, err := newEmptySubtable(t.alloc, sub)
		if err != nil {
			return nil, err
		}
		tc.SetRef(int(row), st.ColumnsRef())
		return st, nil
	}
	return attachSubtable(t.alloc, sub, ref)
}

// ClearSubtable destroys the subtree at (col, row) and resets the cell
// to empty, without removing the row.
func (t *Table) ClearSubtable(col core.ColumnIndex, row core.RowIndex) error {
	if err := t.checkType(col, spec.TypeTable); err != nil {
		return err
	}
	if err := t.checkRow(row); err != nil {
		return err
	}
	c, err := t.column(col)
	if err != nil {
		return err
	}
	return c.(*column.TableColumn).ClearCell(int(row))
}
