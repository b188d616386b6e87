package query_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coldb/core"
	"coldb/internal/store"
	"coldb/query"
	"coldb/spec"
	"coldb/table"
)

func newTable(t *testing.T) *table.Table {
	t.Helper()
	alloc := store.NewMemAllocator()
	tb, err := table.New(alloc)
	require.NoError(t, err)
	return tb
}

func TestIntConjunctionShortCircuitsThroughChild(t *testing.T) {
	tb := newTable(t)
	col, err := tb.AddColumn(spec.TypeInt, "colA")
	require.NoError(t, err)

	values := []int64{5, 50, 150, 25}
	for range values {
		require.NoError(t, tb.AddRow())
	}
	for i, v := range values {
		require.NoError(t, tb.SetInt(col, core.RowIndex(i), v))
	}

	n := query.NewIntNode(col, query.IntGreater, 10)
	n.And(query.NewIntNode(col, query.IntLess, 100))

	r, ok := n.Find(tb, 0, 4)
	require.True(t, ok)
	require.Equal(t, core.RowIndex(1), r)

	r, ok = n.Find(tb, 2, 4)
	require.True(t, ok)
	require.Equal(t, core.RowIndex(3), r)

	_, ok = n.Find(tb, 4, 4)
	require.False(t, ok)

	require.Equal(t, []core.RowIndex{1, 3}, query.FindAll(n, tb))
}

func TestIntEqualNodeUsesIndexWhenBuilt(t *testing.T) {
	tb := newTable(t)
	col, err := tb.AddColumn(spec.TypeInt, "x")
	require.NoError(t, err)
	for range []int64{1, 2, 3, 2, 1} {
		require.NoError(t, tb.AddRow())
	}
	for i, v := range []int64{1, 2, 3, 2, 1} {
		require.NoError(t, tb.SetInt(col, core.RowIndex(i), v))
	}
	require.NoError(t, tb.SetIndex(col))

	n := query.NewIntEqualNode(col, 2)
	require.Equal(t, []core.RowIndex{1, 3}, query.FindAll(n, tb))
}

func TestOrNodeUnionsBothBranches(t *testing.T) {
	tb := newTable(t)
	col, err := tb.AddColumn(spec.TypeString, "name")
	require.NoError(t, err)

	names := []string{"ada", "bob", "eve", "ada"}
	for range names {
		require.NoError(t, tb.AddRow())
	}
	for i, v := range names {
		require.NoError(t, tb.SetString(col, core.RowIndex(i), v))
	}

	n := query.NewOrNode(
		query.NewStringEqualNode(col, "ada"),
		query.NewStringEqualNode(col, "eve"),
	)

	require.Equal(t, []core.RowIndex{0, 2, 3}, query.FindAll(n, tb))
}

func TestOrNodeWithTrailingConjunct(t *testing.T) {
	tb := newTable(t)
	name, err := tb.AddColumn(spec.TypeString, "name")
	require.NoError(t, err)
	age, err := tb.AddColumn(spec.TypeInt, "age")
	require.NoError(t, err)

	rows := []struct {
		name string
		age  int64
	}{
		{"ada", 10},
		{"bob", 20},
		{"eve", 30},
		{"ada", 40},
	}
	for range rows {
		require.NoError(t, tb.AddRow())
	}
	for i, r := range rows {
		require.NoError(t, tb.SetString(name, core.RowIndex(i), r.name))
		require.NoError(t, tb.SetInt(age, core.RowIndex(i), r.age))
	}

	// (name == "ada" OR name == "eve") AND age > 15
	or := query.NewOrNode(
		query.NewStringEqualNode(name, "ada"),
		query.NewStringEqualNode(name, "eve"),
	)
	or.And(query.NewIntNode(age, query.IntGreater, 15))

	require.Equal(t, []core.RowIndex{2, 3}, query.FindAll(or, tb))
}

func TestStringNodeFunctors(t *testing.T) {
	tb := newTable(t)
	col, err := tb.AddColumn(spec.TypeString, "name")
	require.NoError(t, err)
	names := []string{"alice", "bob", "alexa", "carol"}
	for range names {
		require.NoError(t, tb.AddRow())
	}
	for i, v := range names {
		require.NoError(t, tb.SetString(col, core.RowIndex(i), v))
	}

	beginsA := query.NewStringNode(col, query.StringBeginsWith, "al")
	require.Equal(t, []core.RowIndex{0, 2}, query.FindAll(beginsA, tb))

	contains := query.NewStringNode(col, query.StringContains, "o")
	require.Equal(t, []core.RowIndex{1, 3}, query.FindAll(contains, tb))
}
