// Package spec implements the ordered list of (type-attr code, name,
// optional sub-spec) entries that define a table's schema: which columns
// exist, in what order, with which secondary-index attributes, and which
// columns are themselves subtables with their own nested Spec.
package spec

import (
	"errors"
	"fmt"

	"coldb/core"
	"coldb/internal/store"
)

// ColumnType identifies a column's storage family.
type ColumnType int

const (
	TypeInt ColumnType = iota + 1
	TypeBool
	TypeDate
	TypeString
	TypeBinary
	TypeTable
	TypeMixed
	// TypeStringEnum is the enum-compressed representation of a STRING
	// column, installed in place of TypeString by Optimize.
	TypeStringEnum

	// attrIndexed and attrUnique are not column types: they are raw Spec
	// entries immediately following the column entry they describe.
	attrIndexed
	attrUnique
)

func (t ColumnType) isAttr() bool { return t == attrIndexed || t == attrUnique }

func (t ColumnType) String() string {
	switch t {
	case TypeInt:
		return "Int"
	case TypeBool:
		return "Bool"
	case TypeDate:
		return "Date"
	case TypeString:
		return "String"
	case TypeBinary:
		return "Binary"
	case TypeTable:
		return "Table"
	case TypeMixed:
		return "Mixed"
	case TypeStringEnum:
		return "StringEnum"
	case attrIndexed:
		return "AttrIndexed"
	case attrUnique:
		return "AttrUnique"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// TypeAttr is one raw Spec entry as seen by GetTypeAttr: either a column
// type or an attribute modifying the column immediately before it.
type TypeAttr = ColumnType

const (
	// AttrIndexed marks the preceding column as backed by a secondary
	// index (see column.IntColumn.BuildIndex).
	AttrIndexed = attrIndexed
	// AttrUnique marks the preceding column as carrying a uniqueness
	// constraint. coldb does not enforce it at the Spec layer; it is
	// recorded for callers that want to check it themselves.
	AttrUnique = attrUnique
)

var (
	// ErrColumnNotFound is returned by lookups given an out-of-range or
	// unknown column.
	ErrColumnNotFound = errors.New("spec: column not found")
	// ErrEmptyColumnName is returned by AddColumn given an empty name.
	ErrEmptyColumnName = errors.New("spec: column name must not be empty")
)

// Spec is a persistent, ref-addressable schema: a tuple of raw entries
// (types []int64, names []string) plus a side array of sub-spec refs
// indexed by subtable ordinal (the GetSubSpecRef ordinal space).
type Spec struct {
	alloc store.Allocator

	ref         core.Ref // this Spec's own ref (the SpecRef Array acting as its parent anchor)
	typesRef    core.Ref
	namesRef    core.Ref
	subSpecsRef core.Ref
}

// New creates a free-standing, empty Spec.
func New(alloc store.Allocator) (*Spec, error) {
	typesRef, err := alloc.Alloc(store.KindInt)
	if err != nil {
		return nil, err
	}
	namesRef, err := alloc.Alloc(store.KindString)
	if err != nil {
		return nil, err
	}
	subSpecsRef, err := alloc.Alloc(store.KindRef)
	if err != nil {
		return nil, err
	}
	top, err := alloc.Alloc(store.KindRef)
	if err != nil {
		return nil, err
	}

	s := &Spec{alloc: alloc, ref: top, typesRef: typesRef, namesRef: namesRef, subSpecsRef: subSpecsRef}
	if err := s.linkTop(); err != nil {
		return nil, err
	}
	return s, nil
}

// Attach reconstructs a Spec view from an existing top ref (the
// three-slot refs array [types_ref, names_ref, sub_specs_ref]).
func Attach(alloc store.Allocator, top core.Ref) (*Spec, error) {
	arr, err := alloc.Resolve(top)
	if err != nil {
		return nil, err
	}
	if arr.Kind() != store.KindRef || arr.Len() != 3 {
		return nil, fmt.Errorf("spec: malformed spec top at ref %d", top)
	}
	return &Spec{
		alloc:       alloc,
		ref:         top,
		typesRef:    core.Ref(arr.Get(0)),
		namesRef:    core.Ref(arr.Get(1)),
		subSpecsRef: core.Ref(arr.Get(2)),
	}, nil
}

func (s *Spec) linkTop() error {
	top, err := s.alloc.Resolve(s.ref)
	if err != nil {
		return err
	}
	top.Add(int64(s.typesRef))
	top.Add(int64(s.namesRef))
	top.Add(int64(s.subSpecsRef))
	return nil
}

// Ref returns the Spec's own top-level ref, suitable for storing as a
// TABLE column's sub-spec ref or a Table's m_top[0].
func (s *Spec) Ref() core.Ref { return s.ref }

func (s *Spec) types() (store.Array, error)    { return s.alloc.Resolve(s.typesRef) }
func (s *Spec) names() (store.Array, error)    { return s.alloc.Resolve(s.namesRef) }
func (s *Spec) subSpecs() (store.Array, error) { return s.alloc.Resolve(s.subSpecsRef) }

// AddColumn appends a new user column of the given type and name,
// returning its user-visible column index. Adding a TypeTable column
// also reserves its slot in the sub-spec ordinal space; callers must
// follow up with SetSubSpecRef once the nested Spec has been created.
func (s *Spec) AddColumn(t ColumnType, name string) (core.ColumnIndex, error) {
	if name == "" {
		return 0, ErrEmptyColumnName
	}
	if t.isAttr() {
		return 0, fmt.Errorf("spec: %s is an attribute, not a column type", t)
	}

	ndx, err := s.GetColumnCount()
	if err != nil {
		return 0, err
	}

	types, err := s.types()
	if err != nil {
		return 0, err
	}
	names, err := s.names()
	if err != nil {
		return 0, err
	}
	types.Add(int64(t))
	names.AddString(name)

	if t == TypeTable {
		subSpecs, err := s.subSpecs()
		if err != nil {
			return 0, err
		}
		subSpecs.Add(int64(core.NilRef))
	}

	return core.ColumnIndex(ndx), nil
}

// AddIndexAttr appends an AttrIndexed entry immediately after the most
// recently added column, marking it as index-backed.
func (s *Spec) AddIndexAttr() error {
	types, err := s.types()
	if err != nil {
		return err
	}
	names, err := s.names()
	if err != nil {
		return err
	}
	types.Add(int64(AttrIndexed))
	names.AddString("")
	return nil
}

// GetColumnCount returns the number of user-visible columns (attribute
// entries are not counted).
func (s *Spec) GetColumnCount() (int, error) {
	types, err := s.types()
	if err != nil {
		return 0, err
	}
	n := types.Len()
	count := 0
	for i := 0; i < n; i++ {
		if !ColumnType(types.Get(i)).isAttr() {
			count++
		}
	}
	return count, nil
}

// GetTypeAttrCount returns the number of raw entries, including
// attribute entries.
func (s *Spec) GetTypeAttrCount() (int, error) {
	types, err := s.types()
	if err != nil {
		return 0, err
	}
	return types.Len(), nil
}

// GetTypeAttr returns the raw entry at i, which may be a column type or
// an attribute.
func (s *Spec) GetTypeAttr(i int) (TypeAttr, error) {
	types, err := s.types()
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= types.Len() {
		return 0, ErrColumnNotFound
	}
	return ColumnType(types.Get(i)), nil
}

// rawIndex maps a user-visible column index to its raw entry index.
func (s *Spec) rawIndex(ndx core.ColumnIndex) (int, error) {
	types, err := s.types()
	if err != nil {
		return 0, err
	}
	n := types.Len()
	ordinal := core.ColumnIndex(0)
	for i := 0; i < n; i++ {
		if ColumnType(types.Get(i)).isAttr() {
			continue
		}
		if ordinal == ndx {
			return i, nil
		}
		ordinal++
	}
	return 0, ErrColumnNotFound
}

// GetColumnName returns the name of the ndx'th user column.
func (s *Spec) GetColumnName(ndx core.ColumnIndex) (string, error) {
	raw, err := s.rawIndex(ndx)
	if err != nil {
		return "", err
	}
	names, err := s.names()
	if err != nil {
		return "", err
	}
	return names.GetString(raw), nil
}

// GetColumnIndex returns the column index of name, or ErrColumnNotFound.
func (s *Spec) GetColumnIndex(name string) (core.ColumnIndex, error) {
	n, err := s.GetColumnCount()
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		got, err := s.GetColumnName(core.ColumnIndex(i))
		if err != nil {
			return 0, err
		}
		if got == name {
			return core.ColumnIndex(i), nil
		}
	}
	return 0, ErrColumnNotFound
}

// GetRealColumnType returns the raw stored type of the ndx'th column
// (e.g. TypeStringEnum after Optimize, never folded to TypeString).
func (s *Spec) GetRealColumnType(ndx core.ColumnIndex) (ColumnType, error) {
	raw, err := s.rawIndex(ndx)
	if err != nil {
		return 0, err
	}
	types, err := s.types()
	if err != nil {
		return 0, err
	}
	return ColumnType(types.Get(raw)), nil
}

// GetColumnType returns the ndx'th column's user-facing type, folding
// TypeStringEnum back to TypeString.
func (s *Spec) GetColumnType(ndx core.ColumnIndex) (ColumnType, error) {
	t, err := s.GetRealColumnType(ndx)
	if err != nil {
		return 0, err
	}
	if t == TypeStringEnum {
		return TypeString, nil
	}
	return t, nil
}

// SetColumnType overwrites the ndx'th column's raw stored type, used by
// Table.Optimize to install TypeStringEnum in place of TypeString.
func (s *Spec) SetColumnType(ndx core.ColumnIndex, t ColumnType) error {
	raw, err := s.rawIndex(ndx)
	if err != nil {
		return err
	}
	types, err := s.types()
	if err != nil {
		return err
	}
	types.Set(raw, int64(t))
	return nil
}

// HasIndex reports whether the ndx'th column's raw entry is immediately
// followed by an AttrIndexed entry.
func (s *Spec) HasIndex(ndx core.ColumnIndex) (bool, error) {
	raw, err := s.rawIndex(ndx)
	if err != nil {
		return false, err
	}
	types, err := s.types()
	if err != nil {
		return false, err
	}
	return raw+1 < types.Len() && ColumnType(types.Get(raw+1)) == AttrIndexed, nil
}

// tableOrdinal converts a user column index known to be TypeTable into
// its 0-based position among TypeTable columns, for the GetSubSpecRef
// ordinal space.
func (s *Spec) tableOrdinal(ndx core.ColumnIndex) (int, error) {
	n, err := s.GetColumnCount()
	if err != nil {
		return 0, err
	}
	ordinal := 0
	for i := 0; i < n; i++ {
		t, err := s.GetRealColumnType(core.ColumnIndex(i))
		if err != nil {
			return 0, err
		}
		if t != TypeTable {
			continue
		}
		if core.ColumnIndex(i) == ndx {
			return ordinal, nil
		}
		ordinal++
	}
	return 0, fmt.Errorf("spec: column %d is not a Table column", ndx)
}

// GetSubSpecRef returns the sub-Spec ref for the subtableOrdinal'th
// TypeTable column (0-based among TypeTable columns only).
func (s *Spec) GetSubSpecRef(subtableOrdinal int) (core.Ref, error) {
	subSpecs, err := s.subSpecs()
	if err != nil {
		return core.NilRef, err
	}
	if subtableOrdinal < 0 || subtableOrdinal >= subSpecs.Len() {
		return core.NilRef, ErrColumnNotFound
	}
	return core.Ref(subSpecs.Get(subtableOrdinal)), nil
}

// SetSubSpecRef installs the sub-Spec ref for a TypeTable column, given
// its user-visible column index.
func (s *Spec) SetSubSpecRef(ndx core.ColumnIndex, ref core.Ref) error {
	ordinal, err := s.tableOrdinal(ndx)
	if err != nil {
		return err
	}
	subSpecs, err := s.subSpecs()
	if err != nil {
		return err
	}
	subSpecs.Set(ordinal, int64(ref))
	return nil
}

// SetIndexAttr inserts an AttrIndexed entry immediately after the ndx'th
// column's raw entry, if one is not already present. Unlike AddIndexAttr
// (which always appends after the most recently added column), this can
// mark an already-existing column, the counterpart to the source design's
// Table::SetIndex — which instead appended the index ref at the tail of
// m_columns regardless of the column's position, corrupting the layout
// GetColumnRefPos expects; inserting the attribute entry right after the
// column's own entry keeps the two in agreement.
func (s *Spec) SetIndexAttr(ndx core.ColumnIndex) error {
	has, err := s.HasIndex(ndx)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	raw, err := s.rawIndex(ndx)
	if err != nil {
		return err
	}
	types, err := s.types()
	if err != nil {
		return err
	}
	names, err := s.names()
	if err != nil {
		return err
	}
	types.Insert(raw+1, int64(AttrIndexed))
	names.InsertString(raw+1, "")
	return nil
}

// GetColumnRefPos returns the physical starting slot in a Table's
// m_columns refs array for the ndx'th user column: attribute entries are
// skipped, a TypeStringEnum column occupies 2 slots (keys, values), and
// an indexed column reserves one extra trailing slot for its index ref.
// This is the single source of truth for m_columns layout; Table never
// computes a column's slot any other way.
func (s *Spec) GetColumnRefPos(ndx core.ColumnIndex) (int, error) {
	types, err := s.types()
	if err != nil {
		return 0, err
	}
	n := types.Len()

	pos := 0
	ordinal := core.ColumnIndex(0)
	i := 0
	for i < n {
		t := ColumnType(types.Get(i))
		if t.isAttr() {
			i++
			continue
		}

		hasIndex := i+1 < n && ColumnType(types.Get(i+1)) == AttrIndexed
		if ordinal == ndx {
			return pos, nil
		}

		if t == TypeStringEnum {
			pos += 2
		} else {
			pos++
		}
		if hasIndex {
			pos++
		}
		ordinal++
		i++
	}
	return 0, ErrColumnNotFound
}
