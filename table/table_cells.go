package table

import (
	"fmt"

	"coldb/column"
	"coldb/core"
	"coldb/spec"
)

func (t *Table) checkRow(ndx core.RowIndex) error {
	if int(ndx) >= t.size {
		return ErrRowOutOfRange
	}
	return nil
}

func (t *Table) checkType(ndx core.ColumnIndex, want spec.ColumnType) error {
	got, err := t.spec.GetRealColumnType(ndx)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: column %d is %v, not %v", ErrColumnTypeMismatch, ndx, got, want)
	}
	return nil
}

// GetInt returns the INT cell at (col, row).
func (t *Table) GetInt(col core.ColumnIndex, row core.RowIndex) (int64, error) {
	if err := t.checkType(col, spec.TypeInt); err != nil {
		return 0, err
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

// SetInt overwrites the INT cell at (col, row).
func (t *Table) SetInt(col core.ColumnIndex, row core.RowIndex, v int64) error {
	if err := t.checkType(col, spec.TypeInt); err != nil {
		return err
	}
	if err := t.checkRow(row); err != nil {
		return err
	}
	c, err := t.column(col)
	if err != nil {
		return err
	}
	c.(*column.IntColumn).Set(int(row), v)
	return nil
}

// GetBool returns the BOOL cell at (col, row).
func (t *Table) GetBool(col core.ColumnIndex, row core.RowIndex) (bool, error) {
	if err := t.checkType(col, spec.TypeBool); err != nil {
		return false, err
	}
	if err := t.checkRow(row); err != nil {
		return false, err
	}
	c, err := t.column(col)
	if err != nil {
		return false, err
	}
	return c.(*column.IntColumn).Get(int(row)) != 0, nil
}

// SetBool overwrites the BOOL cell at (col, row).
func (t *Table) SetBool(col core.ColumnIndex, row core.RowIndex, v bool) error {
	if err := t.checkType(col, spec.TypeBool); err != nil {
		return err
	}
	if err := t.checkRow(row); err != nil {
		return err
	}
	c, err := t.column(col)
	if err != nil {
		return err
	}
	i := int64(0)
	if v {
		i = 1
	}
	c.(*column.IntColumn).Set(int(row), i)
	return nil
}

// GetDate returns the DATE cell at (col, row) as Unix seconds.
func (t *Table) GetDate(col core.ColumnIndex, row core.RowIndex) (int64, error) {
	if err := t.checkType(col, spec.TypeDate); err != nil {
		return 0, err
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

// SetDate overwrites the DATE cell at (col, row).
func (t *Table) SetDate(col core.ColumnIndex, row core.RowIndex, v int64) error {
	if err := t.checkType(col, spec.TypeDate); err != nil {
		return err
	}
	if err := t.checkRow(row); err != nil {
		return err
	}
	c, err := t.column(col)
	if err != nil {
		return err
	}
	c.(*column.IntColumn).Set(int(row), v)
	return nil
}

// GetString returns the STRING (or STRING_ENUM) cell at (col, row).
func (t *Table) GetString(col core.ColumnIndex, row core.RowIndex) (string, error) {
	ct, err := t.spec.GetRealColumnType(col)
	if err != nil {
		return "", err
	}
	if ct != spec.TypeString && ct != spec.TypeStringEnum {
		return "", fmt.Errorf("%w: column %d is %v", ErrColumnTypeMismatch, col, ct)
	}
	if err := t.checkRow(row); err != nil {
		return "", err
	}
	c, err := t.column(col)
	if err != nil {
		return "", err
	}
	if se, ok := c.(*column.StringEnumColumn); ok {
		return se.Get(int(row)), nil
	}
	return c.(*column.StringColumn).Get(int(row)), nil
}

// SetString overwrites the STRING (or STRING_ENUM) cell at (col, row).
func (t *Table) SetString(col core.ColumnIndex, row core.RowIndex, v string) error {
	ct, err := t.spec.GetRealColumnType(col)
	if err != nil {
		return err
	}
	if ct != spec.TypeString && ct != spec.TypeStringEnum {
		return fmt.Errorf("%w: column %d is %v", ErrColumnTypeMismatch, col, ct)
	}
	if err := t.checkRow(row); err != nil {
		return err
	}
	c, err := t.column(col)
	if err != nil {
		return err
	}
	if se, ok := c.(*column.StringEnumColumn); ok {
		return se.Set(int(row), v)
	}
	c.(*column.StringColumn).Set(int(row), v)
	return nil
}

// GetBinary returns the BINARY cell at (col, row).
func (t *Table) GetBinary(col core.ColumnIndex, row core.RowIndex) ([]byte, error) {
	if err := t.checkType(col, spec.TypeBinary); err != nil {
		return nil, err
	}
	if err := t.checkRow(row); err != nil {
		return nil, err
	}
	c, err := t.column(col)
	if err != nil {
		return nil, err
	}
	return c.(*column.BinaryColumn).Get(int(row)), nil
}

// SetBinary overwrites the BINARY cell at (col, row).
func (t *Table) SetBinary(col core.ColumnIndex, row core.RowIndex, v []byte) error {
	if err := t.checkType(col, spec.TypeBinary); err != nil {
		return err
	}
	if err := t.checkRow(row); err != nil {
		return err
	}
	c, err := t.column(col)
	if err != nil {
		return err
	}
	c.(*column.BinaryColumn).Set(int(row), v)
	return nil
}

// GetMixed returns the MIXED cell at (col, row).
func (t *Table) GetMixed(col core.ColumnIndex, row core.RowIndex) (column.MixedValue, error) {
	if err := t.checkType(col, spec.TypeMixed); err != nil {
		return column.MixedValue{}, err
	}
	if err := t.checkRow(row); err != nil {
		return column.MixedValue{}, err
	}
	c, err := t.column(col)
	if err != nil {
		return column.MixedValue{}, err
	}
	return c.(*column.MixedColumn).Get(int(row)), nil
}

func (t *Table) mixedColumn(col core.ColumnIndex, row core.RowIndex) (*column.MixedColumn, error) {
	if err := t.checkType(col, spec.TypeMixed); err != nil {
		return nil, err
	}
	if err := t.checkRow(row); err != nil {
		return nil, err
	}
	c, err := t.column(col)
	if err != nil {
		return nil, err
	}
	return c.(*column.MixedColumn), nil
}

// SetMixedInt overwrites the MIXED cell at (col, row) with an int.
func (t *Table) SetMixedInt(col core.ColumnIndex, row core.RowIndex, v int64) error {
	mc, err := t.mixedColumn(col, row)
	if err != nil {
		return err
	}
	return mc.SetInt(int(row), v)
}

// SetMixedBool overwrites the MIXED cell at (col, row) with a bool.
func (t *Table) SetMixedBool(col core.ColumnIndex, row core.RowIndex, v bool) error {
	mc, err := t.mixedColumn(col, row)
	if err != nil {
		return err
	}
	return mc.SetBool(int(row), v)
}

// SetMixedString overwrites the MIXED cell at (col, row) with a string.
func (t *Table) SetMixedString(col core.ColumnIndex, row core.RowIndex, v string) error {
	mc, err := t.mixedColumn(col, row)
	if err != nil {
		return err
	}
	return mc.SetString(int(row), v)
}

// SetMixedBinary overwrites the MIXED cell at (col, row) with bytes.
func (t *Table) SetMixedBinary(col core.ColumnIndex, row core.RowIndex, v []byte) error {
	mc, err := t.mixedColumn(col, row)
	if err != nil {
		return err
	}
	return mc.SetBytes(int(row), v)
}

// SetMixedTable installs a fresh, empty, row-local-schema subtable into
// the MIXED cell at (col, row), and returns it for the caller to
// populate.
func (t *Table) SetMixedTable(col core.ColumnIndex, row core.RowIndex) (*Table, error) {
	mc, err := t.mixedColumn(col, row)
	if err != nil {
		return nil, err
	}
	sub, err := New(t.alloc)
	if err != nil {
		return nil, err
	}
	if err := mc.SetTable(int(row), sub.TopRef()); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetMixedTable returns the row-local-schema subtable stored in the
// MIXED cell at (col, row). The cell must already hold a table (see
// MixedValue.Kind).
func (t *Table) GetMixedTable(col core.ColumnIndex, row core.RowIndex) (*Table, error) {
	v, err := t.GetMixed(col, row)
	if err != nil {
		return nil, err
	}
	if v.Kind != column.MixedTable || !v.Table.IsValid() {
		return nil, fmt.Errorf("table: mixed cell (%d, %d) does not hold a table", col, row)
	}
	return Attach(t.alloc, v.Table)
}
