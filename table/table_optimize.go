package table

import (
	"coldb/column"
	"coldb/core"
	"coldb/spec"
)

// Optimize scans every STRING column and, wherever AutoEnumerate reports
// the dictionary-compressed representation would be strictly smaller,
// installs a StringEnumColumn in its place.
//
// Every ref write happens before the in-memory column cache is swapped:
// the Spec's column type and the m_columns slot are both updated on
// disk/in the arena first, so a crash mid-Optimize leaves Spec and
// m_columns mutually consistent even though this process's cache is
// stale until the next open.
func (t *Table) Optimize() error {
	n, err := t.spec.GetColumnCount()
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		ndx := core.ColumnIndex(i)
		ct, err := t.spec.GetRealColumnType(ndx)
		if err != nil {
			return err
		}
		if ct != spec.TypeString {
			continue
		}

		sc, ok := t.cols[i].(*column.StringColumn)
		if !ok {
			continue
		}
		keyRef, valueRef, enumerated, err := sc.AutoEnumerate()
		if err != nil {
			return err
		}
		if !enumerated {
			continue
		}

		if err := t.installStringEnum(ndx, i, sc, keyRef, valueRef); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) installStringEnum(ndx core.ColumnIndex, i int, old *column.StringColumn, keyRef, valueRef core.Ref) error {
	if err := t.spec.SetColumnType(ndx, spec.TypeStringEnum); err != nil {
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
	columns.Set(pos, int64(keyRef))
	columns.Insert(pos+1, int64(valueRef))

	keyArr, err := t.alloc.Resolve(keyRef)
	if err != nil {
		return err
	}
	keyArr.SetParent(t.columnsRef, pos)
	valueArr, err := t.alloc.Resolve(valueRef)
	if err != nil {
		return err
	}
	valueArr.SetParent(t.columnsRef, pos+1)

	for j := i + 1; j < len(t.cols); j++ {
		if err := t.cols[j].UpdateParentNdx(1); err != nil {
			return err
		}
	}

	if err := t.alloc.Free(old.Ref()); err != nil {
		return err
	}

	keys, err := column.AttachStringColumn(t.alloc, keyRef)
	if err != nil {
		return err
	}
	values, err := column.AttachIntColumn(t.alloc, valueRef)
	if err != nil {
		return err
	}
	t.cols[i] = column.NewStringEnumColumn(keys, values)
	return nil
}

// UpdateFromParent refreshes m_top (if present), and if the columns ref
// moved (or the table has no top), refreshes every cached column. The
// Spec view is not refreshed.
func (t *Table) UpdateFromParent() error {
	if t.top.IsValid() {
		topArr, err := t.alloc.Resolve(t.top)
		if err != nil {
			return err
		}
		newColumnsRef := core.Ref(topArr.Get(1))
		if newColumnsRef == t.columnsRef {
			return nil
		}
		t.columnsRef = newColumnsRef
	}

	for _, col := range t.cols {
		if err := col.UpdateFromParent(); err != nil {
			return err
		}
	}
	return nil
}
