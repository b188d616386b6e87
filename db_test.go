package coldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"coldb/core"
	"coldb/internal/crypto"
	"coldb/spec"
)

func TestOpenMemoryCreateTableAndRoundTrip(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	tb, err := db.CreateTable("users")
	require.NoError(t, err)
	require.Equal(t, "users", tb.Name())

	col, err := tb.AddColumn(spec.TypeString, "name")
	require.NoError(t, err)
	require.NoError(t, tb.AddRow())
	require.NoError(t, tb.SetString(col, 0, "ada"))

	require.Equal(t, []string{"users"}, db.TableNames())

	again, err := db.Table("users")
	require.NoError(t, err)
	v, err := again.GetString(col, 0)
	require.NoError(t, err)
	require.Equal(t, "ada", v)

	_, err = db.Table("missing")
	require.Error(t, err)

	require.NoError(t, db.DropTable("users"))
	require.Empty(t, db.TableNames())
}

func TestCreateTableRejectsDuplicateName(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	defer db.Close()

	_, err = db.CreateTable("t")
	require.NoError(t, err)
	_, err = db.CreateTable("t")
	require.Error(t, err)
}

func TestTableWrapperRecordsMetrics(t *testing.T) {
	mc := &BasicMetricsCollector{}
	db, err := OpenMemory(WithMetricsCollector(mc))
	require.NoError(t, err)
	defer db.Close()

	tb, err := db.CreateTable("t")
	require.NoError(t, err)
	col, err := tb.AddColumn(spec.TypeInt, "x")
	require.NoError(t, err)

	require.NoError(t, tb.AddRow())
	require.NoError(t, tb.AddRow())
	require.NoError(t, tb.SetInt(col, 0, 1))
	require.NoError(t, tb.SetInt(col, 1, 2))

	require.NoError(t, tb.SetIndex(col))
	ok, err := tb.HasIndex(col)
	require.NoError(t, err)
	require.True(t, ok)

	stats := mc.GetStats()
	require.EqualValues(t, 2, stats.AddRowCount)
}

func TestTableWrapperOptimizeCountsConvertedColumns(t *testing.T) {
	mc := &BasicMetricsCollector{}
	db, err := OpenMemory(WithMetricsCollector(mc))
	require.NoError(t, err)
	defer db.Close()

	tb, err := db.CreateTable("t")
	require.NoError(t, err)
	col, err := tb.AddColumn(spec.TypeString, "name")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, tb.AddRow())
		require.NoError(t, tb.SetString(col, core.RowIndex(i), "same-value"))
	}

	require.NoError(t, tb.Optimize())

	ct, err := tb.Spec().GetRealColumnType(col)
	require.NoError(t, err)
	require.Equal(t, spec.TypeStringEnum, ct)

	stats := mc.GetStats()
	require.EqualValues(t, 1, stats.OptimizeCount)
	require.EqualValues(t, 1, stats.OptimizeConverts)
}

func TestOpenCreatesAndReopensLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.coldb")

	db, err := Open(path)
	require.NoError(t, err)
	tb, err := db.CreateTable("t")
	require.NoError(t, err)
	col, err := tb.AddColumn(spec.TypeInt, "x")
	require.NoError(t, err)
	require.NoError(t, tb.AddRow())
	require.NoError(t, tb.SetInt(col, 0, 7))
	require.NoError(t, db.Sync())
	require.NoError(t, db.Close())

	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()

	tb2, err := db2.Table("t")
	require.NoError(t, err)
	v, err := tb2.GetInt(col, 0)
	require.NoError(t, err)
	require.EqualValues(t, 7, v)
}

func TestOpenRefusesConcurrentSecondHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.coldb")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = Open(path)
	require.Error(t, err)
}

func TestOpenEncryptedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.coldb")
	key, err := crypto.RandomKey()
	require.NoError(t, err)

	db, err := Open(path, WithEncryptionKey(key))
	require.NoError(t, err)
	tb, err := db.CreateTable("t")
	require.NoError(t, err)
	col, err := tb.AddColumn(spec.TypeString, "s")
	require.NoError(t, err)
	require.NoError(t, tb.AddRow())
	require.NoError(t, tb.SetString(col, 0, "hunter2"))
	require.NoError(t, db.Close())

	db2, err := Open(path, WithEncryptionKey(key))
	require.NoError(t, err)
	defer db2.Close()

	tb2, err := db2.Table("t")
	require.NoError(t, err)
	v, err := tb2.GetString(col, 0)
	require.NoError(t, err)
	require.Equal(t, "hunter2", v)
}
