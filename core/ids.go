// Package core defines the identifier types shared by every coldb
// subsystem: refs into the array arena, row indices within a table, and
// column indices within a spec.
package core

// Ref is an opaque handle identifying an array node inside an allocator.
// Ref(0) denotes "absent/empty" — there is no array there.
type Ref uint64

// NilRef is the empty/absent ref.
const NilRef Ref = 0

// IsValid reports whether r refers to an actual array.
func (r Ref) IsValid() bool { return r != NilRef }

// RowIndex is a dense row position within a Table.
type RowIndex uint32

// ColumnIndex is a user-visible column position within a Spec (attribute
// entries are not counted).
type ColumnIndex uint32

// NotFound is returned by searches that found nothing. Implementers of the
// original design used size_t(-1) as a sentinel; coldb's Find-family
// operations instead return (RowIndex, bool) so NotFound is never a magic
// number that can collide with a real row.
const NotFound RowIndex = ^RowIndex(0)
