// Package column implements the typed column family: the views a Table
// layers over one or more internal/store Arrays to give a column's cells
// integer, boolean, date, string, binary, subtable, or mixed semantics.
package column

import (
	"errors"

	"coldb/core"
	"coldb/internal/store"
)

// ErrNotFound is returned by typed Find methods that found nothing,
// mirroring core.NotFound but as an error for callers that prefer it.
var ErrNotFound = errors.New("column: value not found")

// Column is the contract every typed column satisfies, letting a Table
// hold a heterogeneous tuple of columns behind one interface for the
// structural operations (AddRow/DeleteRow/Clear/Optimize bookkeeping).
// Typed value access (Get/Set/Find) lives on each concrete type, not
// here, the same way the source design dispatches typed accessors only
// after a caller has already checked GetRealColumnType.
type Column interface {
	// Ref returns the root ref of this column's backing array(s). For a
	// two-array column (StringEnum, or an IntColumn with a built index) this is the ref of
	// the primary array; the Table's m_columns slot immediately after it
	// holds the secondary one.
	Ref() core.Ref
	// Size returns the column's row count.
	Size() int
	// AddDefault appends one type-appropriate default value.
	AddDefault() error
	// Insert inserts a type-appropriate default value at ndx.
	Insert(ndx int) error
	// Delete removes the cell at ndx.
	Delete(ndx int) error
	// Clear empties the column.
	Clear() error
	// HasIndex reports whether a secondary index has been built.
	HasIndex() bool
	// UpdateFromParent refreshes this column's cached Array views after a
	// notification that the backing arena relocated nodes.
	UpdateFromParent() error
	// UpdateParentNdx adjusts this column's recorded slot within its
	// parent's refs array by diff, used by Table.Optimize when inserting
	// a StringEnum value slot shifts every later column's parent_ndx.
	UpdateParentNdx(diff int) error
}

// allocator is the subset of store.Allocator every concrete column needs.
type allocator = store.Allocator
