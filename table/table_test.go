package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coldb/core"
	"coldb/internal/store"
	"coldb/spec"
)

func TestTableWorkedExampleEqualityAndJSON(t *testing.T) {
	alloc := store.NewMemAllocator()
	tb, err := New(alloc)
	require.NoError(t, err)

	xCol, err := tb.AddColumn(spec.TypeInt, "x")
	require.NoError(t, err)
	nameCol, err := tb.AddColumn(spec.TypeString, "name")
	require.NoError(t, err)

	require.NoError(t, tb.AddRow())
	require.NoError(t, tb.AddRow())

	require.NoError(t, tb.SetInt(xCol, 0, 42))
	require.NoError(t, tb.SetString(nameCol, 0, "ada"))
	require.NoError(t, tb.SetInt(xCol, 1, 7))
	require.NoError(t, tb.SetString(nameCol, 1, "ada"))

	j, err := tb.ToJSON()
	require.NoError(t, err)
	require.JSONEq(t, `[{"x":42,"name":"ada"},{"x":7,"name":"ada"}]`, string(j))

	require.NoError(t, tb.Optimize())

	ct, err := tb.Spec().GetRealColumnType(nameCol)
	require.NoError(t, err)
	require.Equal(t, spec.TypeStringEnum, ct)

	j2, err := tb.ToJSON()
	require.NoError(t, err)
	require.JSONEq(t, string(j), string(j2))

	v, err := tb.GetString(nameCol, 0)
	require.NoError(t, err)
	require.Equal(t, "ada", v)

	pos, err := tb.Spec().GetColumnRefPos(nameCol)
	require.NoError(t, err)
	require.Equal(t, 1, pos) // x takes slot 0, name (now StringEnum) takes slots 1-2
}

func TestTableAddRowDeleteRowClear(t *testing.T) {
	alloc := store.NewMemAllocator()
	tb, err := New(alloc)
	require.NoError(t, err)
	col, err := tb.AddColumn(spec.TypeInt, "n")
	require.NoError(t, err)

	for i := int64(0); i < 5; i++ {
		require.NoError(t, tb.AddRow())
		require.NoError(t, tb.SetInt(col, core.RowIndex(i), i*10))
	}
	require.Equal(t, 5, tb.Size())

	require.NoError(t, tb.DeleteRow(1))
	require.Equal(t, 4, tb.Size())
	v, err := tb.GetInt(col, 1)
	require.NoError(t, err)
	require.Equal(t, int64(20), v)

	require.NoError(t, tb.Clear())
	require.Equal(t, 0, tb.Size())
}

func TestTableAddColumnBackfillsExistingRows(t *testing.T) {
	alloc := store.NewMemAllocator()
	tb, err := New(alloc)
	require.NoError(t, err)
	xCol, err := tb.AddColumn(spec.TypeInt, "x")
	require.NoError(t, err)
	require.NoError(t, tb.AddRow())
	require.NoError(t, tb.AddRow())
	require.NoError(t, tb.SetInt(xCol, 0, 1))
	require.NoError(t, tb.SetInt(xCol, 1, 2))

	yCol, err := tb.AddColumn(spec.TypeBool, "y")
	require.NoError(t, err)
	require.Equal(t, 2, tb.Size())
	v, err := tb.GetBool(yCol, 0)
	require.NoError(t, err)
	require.False(t, v)
}

func TestTableAttachRoundTrip(t *testing.T) {
	alloc := store.NewMemAllocator()
	tb, err := New(alloc)
	require.NoError(t, err)
	col, err := tb.AddColumn(spec.TypeString, "s")
	require.NoError(t, err)
	require.NoError(t, tb.AddRow())
	require.NoError(t, tb.SetString(col, 0, "hello"))

	reattached, err := Attach(alloc, tb.TopRef())
	require.NoError(t, err)
	require.Equal(t, 1, reattached.Size())
	v, err := reattached.GetString(col, 0)
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

func TestTableSetIndexAndFind(t *testing.T) {
	alloc := store.NewMemAllocator()
	tb, err := New(alloc)
	require.NoError(t, err)
	ageCol, err := tb.AddColumn(spec.TypeInt, "age")
	require.NoError(t, err)
	nameCol, err := tb.AddColumn(spec.TypeString, "name")
	require.NoError(t, err)

	ages := []int64{5, 10, 15, 10}
	for range ages {
		require.NoError(t, tb.AddRow())
	}
	for i, a := range ages {
		require.NoError(t, tb.SetInt(ageCol, core.RowIndex(i), a))
	}

	require.NoError(t, tb.SetIndex(ageCol))
	hasIdx, err := tb.HasIndex(ageCol)
	require.NoError(t, err)
	require.True(t, hasIdx)

	// name column, which sits after the newly indexed column, must still line up.
	require.NoError(t, tb.SetString(nameCol, 0, "a"))
	v, err := tb.GetString(nameCol, 0)
	require.NoError(t, err)
	require.Equal(t, "a", v)

	pos, err := tb.Spec().GetColumnRefPos(nameCol)
	require.NoError(t, err)
	require.Equal(t, 2, pos) // age (slot 0) + its index (slot 1) precede name

	reattached, err := Attach(alloc, tb.TopRef())
	require.NoError(t, err)
	again, err := reattached.HasIndex(ageCol)
	require.NoError(t, err)
	require.True(t, again)
	v2, err := reattached.GetString(nameCol, 0)
	require.NoError(t, err)
	require.Equal(t, "a", v2)
}

func TestTableSubtableCreateAndNest(t *testing.T) {
	alloc := store.NewMemAllocator()
	parent, err := New(alloc)
	require.NoError(t, err)
	childrenCol, err := parent.AddColumn(spec.TypeTable, "children")
	require.NoError(t, err)
	childSpec, err := parent.EnsureSubSpec(childrenCol)
	require.NoError(t, err)
	_, err = childSpec.AddColumn(spec.TypeInt, "age")
	require.NoError(t, err)

	require.NoError(t, parent.AddRow())

	size, err := parent.GetTableSize(childrenCol, 0)
	require.NoError(t, err)
	require.Equal(t, 0, size)

	sub, err := parent.GetSubtable(childrenCol, 0)
	require.NoError(t, err)
	require.NoError(t, sub.AddRow())
	ageCol, err := sub.Spec().GetColumnIndex("age")
	require.NoError(t, err)
	require.NoError(t, sub.SetInt(ageCol, 0, 3))

	size2, err := parent.GetTableSize(childrenCol, 0)
	require.NoError(t, err)
	require.Equal(t, 1, size2)

	sub2, err := parent.GetSubtable(childrenCol, 0)
	require.NoError(t, err)
	v, err := sub2.GetInt(ageCol, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), v)

	require.NoError(t, parent.ClearSubtable(childrenCol, 0))
	size3, err := parent.GetTableSize(childrenCol, 0)
	require.NoError(t, err)
	require.Equal(t, 0, size3)
}

func TestTableMixedRoundTripIncludingEmbeddedTable(t *testing.T) {
	alloc := store.NewMemAllocator()
	tb, err := New(alloc)
	require.NoError(t, err)
	col, err := tb.AddColumn(spec.TypeMixed, "m")
	require.NoError(t, err)
	require.NoError(t, tb.AddRow())
	require.NoError(t, tb.AddRow())

	require.NoError(t, tb.SetMixedInt(col, 0, 99))
	v, err := tb.GetMixed(col, 0)
	require.NoError(t, err)
	require.Equal(t, int64(99), v.Int)

	sub, err := tb.SetMixedTable(col, 1)
	require.NoError(t, err)
	subCol, err := sub.AddColumn(spec.TypeString, "label")
	require.NoError(t, err)
	require.NoError(t, sub.AddRow())
	require.NoError(t, sub.SetString(subCol, 0, "leaf"))

	got, err := tb.GetMixedTable(col, 1)
	require.NoError(t, err)
	gv, err := got.GetString(subCol, 0)
	require.NoError(t, err)
	require.Equal(t, "leaf", gv)

	// Overwriting the mixed cell frees the embedded table's subtree.
	require.NoError(t, tb.SetMixedBool(col, 1, true))
	v2, err := tb.GetMixed(col, 1)
	require.NoError(t, err)
	require.True(t, v2.Bool)
}
