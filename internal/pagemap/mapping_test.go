package pagemap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"coldb/internal/crypto"
)

func openBackend(t *testing.T) Backend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.coldb")
	b, err := OpenLocal(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestMappingWriteReadRoundTrip(t *testing.T) {
	key, err := crypto.RandomKey()
	require.NoError(t, err)

	m, err := Open(openBackend(t), key, 0, 4)
	require.NoError(t, err)
	defer m.Close()

	payload := make([]byte, crypto.BlockSize)
	for i := range payload {
		payload[i] = byte(i)
	}

	require.NoError(t, m.ReadBarrier(0, crypto.BlockSize))
	copy(m.Bytes()[:crypto.BlockSize], payload)
	m.WriteBarrier(0, crypto.BlockSize)
	require.NoError(t, m.Flush())

	require.NoError(t, m.ReadBarrier(0, crypto.BlockSize))
	require.Equal(t, payload, m.Bytes()[:crypto.BlockSize])
}

func TestMappingNeverWrittenPageReadsZero(t *testing.T) {
	key, err := crypto.RandomKey()
	require.NoError(t, err)

	m, err := Open(openBackend(t), key, 0, 2)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.ReadBarrier(0, crypto.BlockSize))
	for _, b := range m.Bytes()[:crypto.BlockSize] {
		require.Zero(t, b)
	}
}

func TestSiblingMappingsSeeWritesAfterBarrier(t *testing.T) {
	key, err := crypto.RandomKey()
	require.NoError(t, err)

	backend := openBackend(t)
	a, err := Open(backend, key, 0, 1)
	require.NoError(t, err)
	defer a.Close()

	// Open a second handle on the same physical file.
	backend2, err := OpenLocal(backend.(*LocalBackend).f.Name())
	require.NoError(t, err)
	b, err := Open(backend2, key, 0, 1)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.ReadBarrier(0, crypto.BlockSize))
	payload := make([]byte, crypto.BlockSize)
	payload[0] = 0x42
	copy(a.Bytes()[:crypto.BlockSize], payload)
	a.WriteBarrier(0, crypto.BlockSize)

	require.NoError(t, b.ReadBarrier(0, crypto.BlockSize))
	require.Equal(t, byte(0x42), b.Bytes()[0])
}
