package coldb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"

	"coldb/core"
	"coldb/internal/filebackend"
	"coldb/internal/pagemap"
	"coldb/internal/store"
	"coldb/spec"
	"coldb/table"
)

// DB is a coldb database: a catalog of named tables sharing one
// Allocator, one backend file (or none, for OpenMemory), and one
// single-writer lock. Mutations on any table handle it hands out must be
// externally serialized by the caller with respect to other mutations on
// the same DB — coldb's own lock only protects the catalog itself,
// mirroring spec.md §5's "single-writer-multiple-reader at the Table
// handle level; all Table mutations must be externally serialized".
type DB struct {
	mu      sync.Mutex
	alloc   store.Allocator
	cat     *catalog
	opts    options
	backend pagemap.Backend // nil for OpenMemory
}

// Open opens (or creates) a local file-backed database at path, taking
// an exclusive OS-level lock on it for the lifetime of the returned DB
// so a second process opening the same path fails fast instead of
// corrupting the file with concurrent writers.
func Open(path string, opts ...Option) (*DB, error) {
	o := applyOptions(opts)

	backend, err := pagemap.OpenLocal(path)
	if err != nil {
		o.logger.LogOpen(context.Background(), path, o.encrypted, err)
		return nil, translateError(err)
	}
	if err := backend.Lock(); err != nil {
		_ = backend.Close()
		o.logger.LogOpen(context.Background(), path, o.encrypted, err)
		return nil, translateError(err)
	}

	db, err := newFileDB(backend, o)
	o.logger.LogOpen(context.Background(), path, o.encrypted, err)
	return db, err
}

// OpenMemory opens a purely in-memory database with no backing file.
func OpenMemory(opts ...Option) (*DB, error) {
	o := applyOptions(opts)

	alloc := o.allocator
	if alloc == nil {
		alloc = store.NewMemAllocator()
	}

	cat, err := openCatalog(alloc)
	if err != nil {
		o.logger.LogOpen(context.Background(), ":memory:", false, err)
		return nil, translateError(err)
	}

	db := &DB{alloc: alloc, cat: cat, opts: o}
	o.logger.LogOpen(context.Background(), ":memory:", false, nil)
	return db, nil
}

// OpenRemoteS3 opens a database whose encrypted file lives as a single S3
// object, mirrored into a local cache file under WithCacheDir (or
// os.TempDir() if unset).
func OpenRemoteS3(ctx context.Context, client *s3.Client, bucket, key string, opts ...Option) (*DB, error) {
	o := applyOptions(opts)
	backend, err := filebackend.NewS3Backend(ctx, client, bucket, key, cacheDirOrDefault(o.cacheDir))
	if err != nil {
		o.logger.LogOpen(ctx, "s3://"+bucket+"/"+key, o.encrypted, err)
		return nil, translateError(err)
	}
	db, err := newFileDB(backend, o)
	o.logger.LogOpen(ctx, "s3://"+bucket+"/"+key, o.encrypted, err)
	return db, err
}

// OpenRemoteMinIO opens a database whose encrypted file lives as a single
// object in a MinIO (or other S3-compatible) bucket, mirrored into a
// local cache file under WithCacheDir.
func OpenRemoteMinIO(ctx context.Context, client *minio.Client, bucket, key string, opts ...Option) (*DB, error) {
	o := applyOptions(opts)
	backend, err := filebackend.NewMinIOBackend(ctx, client, bucket, key, cacheDirOrDefault(o.cacheDir))
	if err != nil {
		o.logger.LogOpen(ctx, "minio://"+bucket+"/"+key, o.encrypted, err)
		return nil, translateError(err)
	}
	db, err := newFileDB(backend, o)
	o.logger.LogOpen(ctx, "minio://"+bucket+"/"+key, o.encrypted, err)
	return db, err
}

func cacheDirOrDefault(dir string) string {
	if dir != "" {
		return dir
	}
	return os.TempDir()
}

func newFileDB(backend pagemap.Backend, o options) (*DB, error) {
	var allocOpts []store.FileAllocatorOption
	if o.encrypted {
		allocOpts = append(allocOpts, store.WithEncryption(o.key))
	}
	if o.pageCompression {
		allocOpts = append(allocOpts, store.WithPayloadCompression())
	}
	allocOpts = append(allocOpts, store.WithGrowBatch(o.pageCacheBatch))

	alloc, err := store.NewFileAllocator(backend, allocOpts...)
	if err != nil {
		_ = backend.Close()
		return nil, translateError(err)
	}

	cat, err := openCatalog(alloc)
	if err != nil {
		_ = alloc.Close()
		return nil, translateError(err)
	}

	return &DB{alloc: alloc, cat: cat, opts: o, backend: backend}, nil
}

// CreateTable creates a new, empty table with no columns.
func (db *DB) CreateTable(name string) (*Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tb, err := table.New(db.alloc)
	if err != nil {
		db.opts.logger.LogCreateTable(context.Background(), name, err)
		return nil, translateError(err)
	}
	if err := db.cat.register(name, tb.TopRef()); err != nil {
		db.opts.logger.LogCreateTable(context.Background(), name, err)
		return nil, translateError(err)
	}
	db.opts.logger.LogCreateTable(context.Background(), name, nil)
	return &Table{Table: tb, db: db, name: name}, nil
}

// Table opens an existing table by name.
func (db *DB) Table(name string) (*Table, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	top, ok := db.cat.topRef(name)
	if !ok {
		return nil, translateError(fmt.Errorf("%w: table %q not found", ErrProgrammerError, name))
	}
	tb, err := table.Attach(db.alloc, top)
	if err != nil {
		return nil, translateError(err)
	}
	return &Table{Table: tb, db: db, name: name}, nil
}

// DropTable removes a table and frees its entire subtree.
func (db *DB) DropTable(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return translateError(db.cat.drop(name))
}

// TableNames lists every table currently registered in the catalog.
func (db *DB) TableNames() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.cat.list()
}

// Sync flushes the backend to stable storage. A no-op for OpenMemory.
func (db *DB) Sync() error {
	start := time.Now()
	var err error
	if db.backend != nil {
		err = db.backend.Sync()
	}
	db.opts.metricsCollector.RecordSync(time.Since(start), err)
	db.opts.logger.LogSync(context.Background(), err)
	return translateError(err)
}

// Table wraps table.Table with the DB's logging and metrics hooks. Every
// operation table.Table itself exposes remains available through
// embedding; coldb only intercepts the ones worth observing.
type Table struct {
	*table.Table
	db   *DB
	name string
}

// Name returns the table's catalog name.
func (t *Table) Name() string { return t.name }

// AddRow appends a new row of default-valued cells, recording an AddRow
// metric.
func (t *Table) AddRow() error {
	start := time.Now()
	err := t.Table.AddRow()
	t.db.opts.metricsCollector.RecordAddRow(time.Since(start), err)
	return translateError(err)
}

// Optimize runs the table's STRING->STRING_ENUM compression pass,
// recording how many columns were converted.
func (t *Table) Optimize() error {
	start := time.Now()
	before := stringEnumCount(t.Table)
	err := t.Table.Optimize()
	converted := stringEnumCount(t.Table) - before
	t.db.opts.metricsCollector.RecordOptimize(converted, time.Since(start), err)
	t.db.opts.logger.WithTable(t.name).LogOptimize(context.Background(), t.name, converted, err)
	return translateError(err)
}

// SetIndex builds a secondary index on ndx, logging the outcome.
func (t *Table) SetIndex(ndx core.ColumnIndex) error {
	err := t.Table.SetIndex(ndx)
	t.db.opts.logger.WithTable(t.name).LogSetIndex(context.Background(), t.name, int(ndx), err)
	return translateError(err)
}

func stringEnumCount(tb *table.Table) int {
	sp := tb.Spec()
	count, err := sp.GetColumnCount()
	if err != nil {
		return 0
	}
	n := 0
	for i := core.ColumnIndex(0); int(i) < count; i++ {
		ct, err := sp.GetRealColumnType(i)
		if err == nil && ct == spec.TypeStringEnum {
			n++
		}
	}
	return n
}
