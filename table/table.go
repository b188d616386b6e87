// Package table implements coldb's row/column table: binding a Spec to a
// tuple of Columns of equal length, with structural operations for rows
// (AddRow, DeleteRow, Clear, InsertDone) and nested subtables.
package table

import (
	"errors"
	"fmt"

	"coldb/column"
	"coldb/core"
	"coldb/internal/store"
	"coldb/spec"
)

var (
	// ErrColumnTypeMismatch is returned when a typed accessor is called
	// against a column of a different real type.
	ErrColumnTypeMismatch = errors.New("table: column type mismatch")
	// ErrRowOutOfRange is returned by row accessors given ndx >= Size().
	ErrRowOutOfRange = errors.New("table: row index out of range")
	// ErrNotFound is returned by the Find* accessors when no row in the
	// requested range matches.
	ErrNotFound = errors.New("table: not found")
)

// Table binds a Spec to an aligned tuple of Columns. A free-standing
// table owns a top ref ([spec_ref, columns_ref]); a subtable that shares
// its schema with sibling rows (a TABLE column's cell) has no top — its
// Spec is the parent's sub-Spec and only its columns ref is its own.
type Table struct {
	alloc store.Allocator
	spec  *spec.Spec

	top        core.Ref // NilRef for a schema-sharing subtable
	columnsRef core.Ref

	cols []column.Column
	size int
}

// New creates a free-standing table with a fresh, empty Spec.
func New(alloc store.Allocator) (*Table, error) {
	sp, err := spec.New(alloc)
	if err != nil {
		return nil, err
	}
	columnsRef, err := alloc.Alloc(store.KindRef)
	if err != nil {
		return nil, err
	}
	top, err := alloc.Alloc(store.KindRef)
	if err != nil {
		return nil, err
	}
	topArr, err := alloc.Resolve(top)
	if err != nil {
		return nil, err
	}
	topArr.Add(int64(sp.Ref()))
	topArr.Add(int64(columnsRef))

	return &Table{alloc: alloc, spec: sp, top: top, columnsRef: columnsRef}, nil
}

// Attach reconstructs a free-standing table from an existing top ref.
func Attach(alloc store.Allocator, top core.Ref) (*Table, error) {
	topArr, err := alloc.Resolve(top)
	if err != nil {
		return nil, err
	}
	if topArr.Kind() != store.KindRef || topArr.Len() != 2 {
		return nil, fmt.Errorf("table: malformed top at ref %d", top)
	}
	sp, err := spec.Attach(alloc, core.Ref(topArr.Get(0)))
	if err != nil {
		return nil, err
	}
	t := &Table{alloc: alloc, spec: sp, top: top, columnsRef: core.Ref(topArr.Get(1))}
	if err := t.CacheColumns(); err != nil {
		return nil, err
	}
	return t, nil
}

// attachSubtable reconstructs a schema-sharing subtable: sp is the
// parent's sub-Spec view, columnsRef is this row's own m_columns ref.
func attachSubtable(alloc store.Allocator, sp *spec.Spec, columnsRef core.Ref) (*Table, error) {
	t := &Table{alloc: alloc, spec: sp, columnsRef: columnsRef}
	if err := t.CacheColumns(); err != nil {
		return nil, err
	}
	return t, nil
}

// newEmptySubtable allocates a fresh, empty columns ref for a new
// subtable sharing sp, without yet creating any columns in it (Spec may
// still be empty too, in which case CreateColumns is a no-op).
func newEmptySubtable(alloc store.Allocator, sp *spec.Spec) (*Table, error) {
	columnsRef, err := alloc.Alloc(store.KindRef)
	if err != nil {
		return nil, err
	}
	t := &Table{alloc: alloc, spec: sp, columnsRef: columnsRef}
	if err := t.CreateColumns(); err != nil {
		return nil, err
	}
	return t, nil
}

// TopRef returns the table's top ref. Only meaningful for a free-standing
// table (t.top.IsValid()); a schema-sharing subtable has none.
func (t *Table) TopRef() core.Ref { return t.top }

// ColumnsRef returns this table's own m_columns ref, valid for every
// table regardless of whether it is free-standing.
func (t *Table) ColumnsRef() core.Ref { return t.columnsRef }

// Spec returns the table's schema view.
func (t *Table) Spec() *spec.Spec { return t.spec }

// Size returns the table's row count.
func (t *Table) Size() int { return t.size }

// AddColumn adds a new column to the schema and, if the table already
// has rows, backfills every existing row with that column's default
// value so every cached column stays equal length.
func (t *Table) AddColumn(ct spec.ColumnType, name string) (core.ColumnIndex, error) {
	ndx, err := t.spec.AddColumn(ct, name)
	if err != nil {
		return 0, err
	}

	col, err := t.buildColumn(ct)
	if err != nil {
		return 0, err
	}
	if err := t.linkNewColumn(ndx, col); err != nil {
		return 0, err
	}

	for i := 0; i < t.size; i++ {
		if err := col.AddDefault(); err != nil {
			return 0, err
		}
	}

	t.cols = append(t.cols, col)
	return ndx, nil
}

// linkNewColumn appends col's ref(s) to m_columns at the position
// Spec.GetColumnRefPos says the new column occupies, and records the
// parent back-link on each array col owns.
func (t *Table) linkNewColumn(ndx core.ColumnIndex, col column.Column) error {
	pos, err := t.spec.GetColumnRefPos(ndx)
	if err != nil {
		return err
	}
	columns, err := t.alloc.Resolve(t.columnsRef)
	if err != nil {
		return err
	}

	refs := t.columnRefs(col)
	for i, ref := range refs {
		columns.Insert(pos+i, int64(ref))
		arr, err := t.alloc.Resolve(ref)
		if err != nil {
			return err
		}
		arr.SetParent(t.columnsRef, pos+i)
	}
	return nil
}

// columnRefs returns the one or two m_columns slot values col occupies,
// in slot order.
func (t *Table) columnRefs(col column.Column) []core.Ref {
	if se, ok := col.(*column.StringEnumColumn); ok {
		return []core.Ref{se.Ref(), se.ValuesRef()}
	}
	if ic, ok := col.(*column.IntColumn); ok && ic.IndexRef().IsValid() {
		return []core.Ref{ic.Ref(), ic.IndexRef()}
	}
	return []core.Ref{col.Ref()}
}

// buildColumn allocates a fresh, empty Column of the given type. It does
// not create a sub-Spec for TypeTable columns or side arrays beyond what
// the concrete column owns; callers needing a sub-Spec call
// EnsureSubSpec afterward.
func (t *Table) buildColumn(ct spec.ColumnType) (column.Column, error) {
	switch ct {
	case spec.TypeInt, spec.TypeBool, spec.TypeDate:
		return column.NewIntColumn(t.alloc)
	case spec.TypeString:
		return column.NewStringColumn(t.alloc)
	case spec.TypeBinary:
		return column.NewBinaryColumn(t.alloc)
	case spec.TypeTable:
		return column.NewTableColumn(t.alloc)
	case spec.TypeMixed:
		return column.NewMixedColumn(t.alloc)
	case spec.TypeStringEnum:
		return nil, fmt.Errorf("table: cannot create a fresh StringEnum column; only Optimize installs one")
	default:
		return nil, fmt.Errorf("table: unknown column type %v", ct)
	}
}

// EnsureSubSpec creates and installs an empty sub-Spec for the ndx'th
// column, which must be TypeTable. A table-typed column is otherwise
// unusable since its subtables have nowhere to read a schema from.
func (t *Table) EnsureSubSpec(ndx core.ColumnIndex) (*spec.Spec, error) {
	ct, err := t.spec.GetRealColumnType(ndx)
	if err != nil {
		return nil, err
	}
	if ct != spec.TypeTable {
		return nil, ErrColumnTypeMismatch
	}
	sub, err := spec.New(t.alloc)
	if err != nil {
		return nil, err
	}
	if err := t.spec.SetSubSpecRef(ndx, sub.Ref()); err != nil {
		return nil, err
	}
	return sub, nil
}

// column returns the cached typed column for ndx, bounds-checked.
func (t *Table) column(ndx core.ColumnIndex) (column.Column, error) {
	if int(ndx) < 0 || int(ndx) >= len(t.cols) {
		return nil, fmt.Errorf("table: %w: column %d", ErrColumnTypeMismatch, ndx)
	}
	return t.cols[ndx], nil
}

// AddRow appends one row, giving every cached column its default value.
func (t *Table) AddRow() error {
	for _, col := range t.cols {
		if err := col.AddDefault(); err != nil {
			return err
		}
	}
	t.size++
	return nil
}

// DeleteRow removes row ndx from every cached column.
func (t *Table) DeleteRow(ndx core.RowIndex) error {
	if int(ndx) >= t.size {
		return ErrRowOutOfRange
	}
	for _, col := range t.cols {
		if err := col.Delete(int(ndx)); err != nil {
			return err
		}
	}
	t.size--
	return nil
}

// Clear empties every column and resets the row count to 0.
func (t *Table) Clear() error {
	for _, col := range t.cols {
		if err := col.Clear(); err != nil {
			return err
		}
	}
	t.size = 0
	return nil
}

// InsertDone increments the row count after a batch of per-column
// InsertAt calls at the same row index; the caller is responsible for
// having inserted into every column exactly once.
func (t *Table) InsertDone() {
	t.size++
}
