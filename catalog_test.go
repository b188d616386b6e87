package coldb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coldb/internal/store"
)

func TestCatalogRegisterListDrop(t *testing.T) {
	alloc := store.NewMemAllocator()

	cat, err := openCatalog(alloc)
	require.NoError(t, err)
	require.Empty(t, cat.list())

	require.NoError(t, cat.register("users", 42))
	require.NoError(t, cat.register("orders", 99))
	require.ElementsMatch(t, []string{"users", "orders"}, cat.list())

	top, ok := cat.topRef("orders")
	require.True(t, ok)
	require.EqualValues(t, 99, top)

	_, ok = cat.topRef("missing")
	require.False(t, ok)

	require.Error(t, cat.register("users", 7))

	require.NoError(t, cat.drop("users"))
	require.ElementsMatch(t, []string{"orders"}, cat.list())
	require.Error(t, cat.drop("users"))
}

func TestOpenCatalogAttachesExistingCatalog(t *testing.T) {
	alloc := store.NewMemAllocator()

	first, err := openCatalog(alloc)
	require.NoError(t, err)
	require.NoError(t, first.register("t1", 5))

	second, err := openCatalog(alloc)
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, second.list())
	top, ok := second.topRef("t1")
	require.True(t, ok)
	require.EqualValues(t, 5, top)
}
