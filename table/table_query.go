package table

import (
	"coldb/column"
	"coldb/core"
	"coldb/spec"
)

// GetIntFamily returns the raw int64 backing the INT, BOOL, or DATE cell at
// (col, row): the shared representation query.IntNode compares against a
// constant regardless of which of the three the column actually is.
func (t *Table) GetIntFamily(col core.ColumnIndex, row core.RowIndex) (int64, error) {
	ct, err := t.spec.GetRealColumnType(col)
	if err != nil {
		return 0, err
	}
	if ct != spec.TypeInt && ct != spec.TypeBool && ct != spec.TypeDate {
		return 0, ErrColumnTypeMismatch
	}
	if err := t.checkRow(row); err != nil {
		return 0, err
	}
	c, err := t.column(col)
	if err != nil {
		return 0, err
	}
	return c.(*column.IntColumn).Get(int(row)), nil
}

// FindInt returns the smallest row index in [start, end) whose INT/BOOL/DATE
// cell in col equals v, taking the fast indexed path if col.SetIndex has
// been called. This is the accessor NODE<T,C,EQUAL> delegates to.
func (t *Table) FindInt(col core.ColumnIndex, v int64, start, end core.RowIndex) (core.RowIndex, error) {
	ct, err := t.spec.GetRealColumnType(col)
	if err != nil {
		return 0, err
	}
	if ct != spec.TypeInt && ct != spec.TypeBool && ct != spec.TypeDate {
		return 0, ErrColumnTypeMismatch
	}
	c, err := t.column(col)
	if err != nil {
		return 0, err
	}
	if r, ok := c.(*column.IntColumn).Find(v, start, end); ok {
		return r, nil
	}
	return 0, ErrNotFound
}

// FindString returns the smallest row index in [start, end) whose STRING
// (or STRING_ENUM) cell in col equals v.
func (t *Table) FindString(col core.ColumnIndex, v string, start, end core.RowIndex) (core.RowIndex, error) {
	ct, err := t.spec.GetRealColumnType(col)
	if err != nil {
		return 0, err
	}
	if ct != spec.TypeString && ct != spec.TypeStringEnum {
		return 0, ErrColumnTypeMismatch
	}
	c, err := t.column(col)
	if err != nil {
		return 0, err
	}
	var r core.RowIndex
	var ok bool
	if se, isEnum := c.(*column.StringEnumColumn); isEnum {
		r, ok = se.Find(v, start, end)
	} else {
		r, ok = c.(*column.StringColumn).Find(v, start, end)
	}
	if ok {
		return r, nil
	}
	return 0, ErrNotFound
}
