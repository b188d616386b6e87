package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"coldb/internal/crypto"
	"coldb/internal/pagemap"
)

func openFileAllocator(t *testing.T, encrypted bool) *FileAllocator {
	t.Helper()
	backend, err := pagemap.OpenLocal(filepath.Join(t.TempDir(), "data.coldb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	var opts []FileAllocatorOption
	if encrypted {
		key, err := crypto.RandomKey()
		require.NoError(t, err)
		opts = append(opts, WithEncryption(key))
	}
	a, err := NewFileAllocator(backend, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestFileAllocatorIntArraySpansMultipleSlots(t *testing.T) {
	for _, encrypted := range []bool{false, true} {
		a := openFileAllocator(t, encrypted)

		ref, err := a.Alloc(KindInt)
		require.NoError(t, err)

		arr, err := a.Resolve(ref)
		require.NoError(t, err)

		const n = maxIntsPerSlot*2 + 17
		for i := 0; i < n; i++ {
			arr.Add(int64(i))
		}
		require.Equal(t, n, arr.Len())
		for i := 0; i < n; i++ {
			require.Equal(t, int64(i), arr.Get(i))
		}

		arr.Delete(0)
		require.Equal(t, n-1, arr.Len())
		require.Equal(t, int64(1), arr.Get(0))
	}
}

func TestFileAllocatorStringArrayRoundTrip(t *testing.T) {
	a := openFileAllocator(t, true)

	ref, err := a.Alloc(KindString)
	require.NoError(t, err)
	arr, err := a.Resolve(ref)
	require.NoError(t, err)

	arr.AddString("hello")
	arr.AddString("world")
	arr.InsertString(1, "there")

	require.Equal(t, 3, arr.Len())
	require.Equal(t, "hello", arr.GetString(0))
	require.Equal(t, "there", arr.GetString(1))
	require.Equal(t, "world", arr.GetString(2))
}

func TestFileAllocatorParentLink(t *testing.T) {
	a := openFileAllocator(t, false)

	parentRef, err := a.Alloc(KindRef)
	require.NoError(t, err)
	childRef, err := a.Alloc(KindInt)
	require.NoError(t, err)

	child, err := a.Resolve(childRef)
	require.NoError(t, err)
	child.SetParent(parentRef, 0)

	gotParent, gotSlot := child.Parent()
	require.Equal(t, parentRef, gotParent)
	require.Equal(t, 0, gotSlot)
}

func TestFileAllocatorPayloadCompressionRoundTrip(t *testing.T) {
	backend, err := pagemap.OpenLocal(filepath.Join(t.TempDir(), "data.coldb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	a, err := NewFileAllocator(backend, WithPayloadCompression())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	strRef, err := a.Alloc(KindString)
	require.NoError(t, err)
	strArr, err := a.Resolve(strRef)
	require.NoError(t, err)
	strArr.AddString("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	strArr.AddString("")
	require.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", strArr.GetString(0))
	require.Equal(t, "", strArr.GetString(1))

	binRef, err := a.Alloc(KindBinary)
	require.NoError(t, err)
	binArr, err := a.Resolve(binRef)
	require.NoError(t, err)
	binArr.AddBytes([]byte{1, 2, 3, 4, 5})
	require.Equal(t, []byte{1, 2, 3, 4, 5}, binArr.GetBytes(0))

	// KindInt/KindRef payloads must never be run through zstd.
	intRef, err := a.Alloc(KindInt)
	require.NoError(t, err)
	intArr, err := a.Resolve(intRef)
	require.NoError(t, err)
	intArr.Add(42)
	require.Equal(t, int64(42), intArr.Get(0))
}

func TestFileAllocatorGrowBatchReservesFreeSlots(t *testing.T) {
	backend, err := pagemap.OpenLocal(filepath.Join(t.TempDir(), "data.coldb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	a, err := NewFileAllocator(backend, WithGrowBatch(4))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Alloc(KindInt)
	require.NoError(t, err)
	require.Len(t, a.free, 3)

	_, err = a.Alloc(KindInt)
	require.NoError(t, err)
	require.Len(t, a.free, 2)
}

func TestFileAllocatorFreeRecursesThroughRefChildren(t *testing.T) {
	a := openFileAllocator(t, false)

	parentRef, err := a.Alloc(KindRef)
	require.NoError(t, err)
	childRef, err := a.Alloc(KindInt)
	require.NoError(t, err)

	parent, err := a.Resolve(parentRef)
	require.NoError(t, err)
	parent.Add(int64(childRef))

	require.NoError(t, a.Free(parentRef))
	require.Len(t, a.free, 2)
}
