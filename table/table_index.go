package table

import (
	"fmt"

	"coldb/column"
	"coldb/core"
	"coldb/spec"
)

// SetIndex builds a secondary value->rows index on an INT/BOOL/DATE
// column and installs its trailing m_columns slot, a no-op if the column
// is already indexed. Every m_columns write happens before the later
// cached columns' parent slots are shifted, the same crash-consistency
// ordering Optimize follows.
func (t *Table) SetIndex(ndx core.ColumnIndex) error {
	ct, err := t.spec.GetRealColumnType(ndx)
	if err != nil {
		return err
	}
	if ct != spec.TypeInt && ct != spec.TypeBool && ct != spec.TypeDate {
		return fmt.Errorf("table: column %d (%v) cannot be indexed", ndx, ct)
	}

	already, err := t.spec.HasIndex(ndx)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	c, err := t.column(ndx)
	if err != nil {
		return err
	}
	ic := c.(*column.IntColumn)
	if err := ic.BuildIndex(); err != nil {
		return err
	}

	if err := t.spec.SetIndexAttr(ndx); err != nil {
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
	columns.Insert(pos+1, int64(ic.IndexRef()))
	ixArr, err := t.alloc.Resolve(ic.IndexRef())
	if err != nil {
		return err
	}
	ixArr.SetParent(t.columnsRef, pos+1)

	for j := int(ndx) + 1; j < len(t.cols); j++ {
		if err := t.cols[j].UpdateParentNdx(1); err != nil {
			return err
		}
	}
	return nil
}

// HasIndex reports whether ndx's column already carries a secondary
// index.
func (t *Table) HasIndex(ndx core.ColumnIndex) (bool, error) {
	return t.spec.HasIndex(ndx)
}
