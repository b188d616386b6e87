package column

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coldb/core"
	"coldb/internal/store"
)

func TestIntColumnLinearFindWithoutIndex(t *testing.T) {
	alloc := store.NewMemAllocator()
	c, err := NewIntColumn(alloc)
	require.NoError(t, err)

	for range []int64{5, 50, 150, 25} {
		require.NoError(t, c.AddDefault())
	}
	for i, v := range []int64{5, 50, 150, 25} {
		c.Set(i, v)
	}

	r, ok := c.Find(150, 0, 4)
	require.True(t, ok)
	require.Equal(t, core.RowIndex(2), r)

	_, ok = c.Find(999, 0, 4)
	require.False(t, ok)
}

func TestIntColumnBuildIndexFindAll(t *testing.T) {
	alloc := store.NewMemAllocator()
	c, err := NewIntColumn(alloc)
	require.NoError(t, err)
	for range []int64{1, 2, 1, 3, 1} {
		require.NoError(t, c.AddDefault())
	}
	for i, v := range []int64{1, 2, 1, 3, 1} {
		c.Set(i, v)
	}
	require.NoError(t, c.BuildIndex())
	require.True(t, c.HasIndex())
	require.True(t, c.IndexRef().IsValid())

	r, ok := c.Find(1, 0, 5)
	require.True(t, ok)
	require.Equal(t, core.RowIndex(0), r)

	all := c.FindAll(nil, 1)
	require.ElementsMatch(t, []core.RowIndex{0, 2, 4}, all)
}

func TestIntColumnIndexStaysConsistentAcrossSet(t *testing.T) {
	alloc := store.NewMemAllocator()
	c, err := NewIntColumn(alloc)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.AddDefault())
	}
	c.Set(0, 10)
	c.Set(1, 20)
	c.Set(2, 10)
	require.NoError(t, c.BuildIndex())

	c.Set(0, 99)
	_, ok := c.Find(10, 0, 3)
	require.True(t, ok)
	r, ok := c.ix.findFirst(99, 0)
	require.True(t, ok)
	require.Equal(t, core.RowIndex(0), r)
}

func TestAttachIndexedIntColumnRebuildsIndexFromData(t *testing.T) {
	alloc := store.NewMemAllocator()
	c, err := NewIntColumn(alloc)
	require.NoError(t, err)
	for range []int64{7, 8, 7} {
		require.NoError(t, c.AddDefault())
	}
	for i, v := range []int64{7, 8, 7} {
		c.Set(i, v)
	}
	require.NoError(t, c.BuildIndex())

	reattached, err := AttachIndexedIntColumn(alloc, c.Ref(), c.IndexRef())
	require.NoError(t, err)
	require.True(t, reattached.HasIndex())
	all := reattached.FindAll(nil, 7)
	require.ElementsMatch(t, []core.RowIndex{0, 2}, all)
}

func TestStringColumnAutoEnumerateOnlyWhenValuesRepeat(t *testing.T) {
	alloc := store.NewMemAllocator()
	c, err := NewStringColumn(alloc)
	require.NoError(t, err)
	c.AddDefault()
	c.AddDefault()
	c.Set(0, "ada")
	c.Set(1, "ada")

	_, _, ok, err := c.AutoEnumerate()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStringColumnAutoEnumerateSkipsAllDistinct(t *testing.T) {
	alloc := store.NewMemAllocator()
	c, err := NewStringColumn(alloc)
	require.NoError(t, err)
	c.AddDefault()
	c.AddDefault()
	c.Set(0, "ada")
	c.Set(1, "bob")

	_, _, ok, err := c.AutoEnumerate()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStringEnumColumnGetSetAndFindMissingKey(t *testing.T) {
	alloc := store.NewMemAllocator()
	c, err := NewStringColumn(alloc)
	require.NoError(t, err)
	for range []string{"ada", "bob", "eve", "ada"} {
		c.AddDefault()
	}
	for i, s := range []string{"ada", "bob", "eve", "ada"} {
		c.Set(i, s)
	}
	keyRef, valueRef, ok, err := c.AutoEnumerate()
	require.NoError(t, err)
	require.True(t, ok)

	keys, err := AttachStringColumn(alloc, keyRef)
	require.NoError(t, err)
	values, err := AttachIntColumn(alloc, valueRef)
	require.NoError(t, err)
	se := NewStringEnumColumn(keys, values)

	require.Equal(t, "ada", se.Get(0))
	require.Equal(t, "eve", se.Get(2))

	r, found := se.Find("ada", 0, 4)
	require.True(t, found)
	require.Equal(t, core.RowIndex(0), r)

	// The source design's bug: a missing key must not fall through to a
	// values lookup keyed by a sentinel id.
	_, found = se.Find("nope", 0, 4)
	require.False(t, found)

	require.NoError(t, se.Set(1, "zeta"))
	require.Equal(t, "zeta", se.Get(1))
}

func TestBinaryColumnRoundTripAndFind(t *testing.T) {
	alloc := store.NewMemAllocator()
	c, err := NewBinaryColumn(alloc)
	require.NoError(t, err)
	c.AddDefault()
	c.AddDefault()
	c.Set(0, []byte{1, 2, 3})
	c.Set(1, []byte{4, 5})

	require.Equal(t, []byte{1, 2, 3}, c.Get(0))
	r, ok := c.Find([]byte{4, 5}, 0, 2)
	require.True(t, ok)
	require.Equal(t, core.RowIndex(1), r)
}

func TestTableColumnFreeDestroysSubtree(t *testing.T) {
	alloc := store.NewMemAllocator()
	tc, err := NewTableColumn(alloc)
	require.NoError(t, err)
	require.NoError(t, tc.AddDefault())

	childRef, err := alloc.Alloc(store.KindRef)
	require.NoError(t, err)
	grandchildRef, err := alloc.Alloc(store.KindInt)
	require.NoError(t, err)
	childArr, err := alloc.Resolve(childRef)
	require.NoError(t, err)
	childArr.Add(int64(grandchildRef))

	tc.SetRef(0, childRef)
	require.NoError(t, tc.ClearCell(0))
	require.Equal(t, core.NilRef, tc.GetRef(0))

	_, err = alloc.Resolve(childRef)
	require.Error(t, err)
	_, err = alloc.Resolve(grandchildRef)
	require.Error(t, err)
}

func TestMixedColumnRoundTripAndContainerLayout(t *testing.T) {
	alloc := store.NewMemAllocator()
	mc, err := NewMixedColumn(alloc)
	require.NoError(t, err)
	require.NoError(t, mc.AddDefault())
	require.NoError(t, mc.AddDefault())

	require.NoError(t, mc.SetInt(0, 42))
	require.NoError(t, mc.SetString(1, "hi"))

	v0 := mc.Get(0)
	require.Equal(t, MixedInt, v0.Kind)
	require.Equal(t, int64(42), v0.Int)

	v1 := mc.Get(1)
	require.Equal(t, MixedString, v1.Kind)
	require.Equal(t, "hi", v1.Str)

	containerArr, err := alloc.Resolve(mc.Ref())
	require.NoError(t, err)
	require.Equal(t, 5, containerArr.Len())

	reattached, err := AttachMixedColumn(alloc, mc.Ref())
	require.NoError(t, err)
	rv := reattached.Get(0)
	require.Equal(t, int64(42), rv.Int)
}
