package spec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coldb/core"
	"coldb/internal/store"
)

func TestSpecAddAndLookupColumns(t *testing.T) {
	alloc := store.NewMemAllocator()
	s, err := New(alloc)
	require.NoError(t, err)

	idAge, err := s.AddColumn(TypeInt, "age")
	require.NoError(t, err)
	require.Equal(t, core.ColumnIndex(0), idAge)

	_, err = s.AddColumn(TypeString, "name")
	require.NoError(t, err)

	n, err := s.GetColumnCount()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	name, err := s.GetColumnName(1)
	require.NoError(t, err)
	require.Equal(t, "name", name)

	got, err := s.GetColumnIndex("age")
	require.NoError(t, err)
	require.Equal(t, core.ColumnIndex(0), got)

	_, err = s.GetColumnIndex("missing")
	require.ErrorIs(t, err, ErrColumnNotFound)
}

func TestSpecIndexAttrAndRefPos(t *testing.T) {
	alloc := store.NewMemAllocator()
	s, err := New(alloc)
	require.NoError(t, err)

	_, err = s.AddColumn(TypeInt, "a")
	require.NoError(t, err)
	require.NoError(t, s.AddIndexAttr())
	_, err = s.AddColumn(TypeString, "b")
	require.NoError(t, err)

	hasIdx, err := s.HasIndex(0)
	require.NoError(t, err)
	require.True(t, hasIdx)

	pos0, err := s.GetColumnRefPos(0)
	require.NoError(t, err)
	require.Equal(t, 0, pos0)

	pos1, err := s.GetColumnRefPos(1)
	require.NoError(t, err)
	require.Equal(t, 2, pos1) // column a takes slot 0, its index takes slot 1
}

func TestSpecStringEnumRefPosTakesTwoSlots(t *testing.T) {
	alloc := store.NewMemAllocator()
	s, err := New(alloc)
	require.NoError(t, err)

	_, err = s.AddColumn(TypeStringEnum, "tag")
	require.NoError(t, err)
	_, err = s.AddColumn(TypeInt, "count")
	require.NoError(t, err)

	pos, err := s.GetColumnRefPos(1)
	require.NoError(t, err)
	require.Equal(t, 2, pos)
}

func TestSpecSubSpecRoundTrip(t *testing.T) {
	alloc := store.NewMemAllocator()
	parent, err := New(alloc)
	require.NoError(t, err)

	ndx, err := parent.AddColumn(TypeTable, "children")
	require.NoError(t, err)

	child, err := New(alloc)
	require.NoError(t, err)
	require.NoError(t, parent.SetSubSpecRef(ndx, child.Ref()))

	got, err := parent.GetSubSpecRef(0)
	require.NoError(t, err)
	require.Equal(t, child.Ref(), got)
}

func TestSpecAttach(t *testing.T) {
	alloc := store.NewMemAllocator()
	s, err := New(alloc)
	require.NoError(t, err)
	_, err = s.AddColumn(TypeBool, "active")
	require.NoError(t, err)

	reattached, err := Attach(alloc, s.Ref())
	require.NoError(t, err)
	n, err := reattached.GetColumnCount()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
