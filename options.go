package coldb

import (
	"log/slog"

	"coldb/internal/crypto"
	"coldb/internal/store"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	allocator        store.Allocator // overrides the default allocator entirely
	key              [crypto.KeySize]byte
	encrypted        bool
	pageCacheBatch   int
	pageCompression  bool
	cacheDir         string
}

// Option configures Open/OpenMemory/OpenRemoteS3/OpenRemoteMinIO behavior.
//
// Breaking changes are expected while coldb is pre-release.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := coldb.NewJSONLogger(slog.LevelInfo)
//	db, _ := coldb.Open("./events.coldb", coldb.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithAllocator overrides the default store.Allocator entirely, bypassing
// the file/memory/remote selection Open/OpenMemory/OpenRemoteS3/
// OpenRemoteMinIO would otherwise make. Mainly useful for tests that want a bare
// store.NewMemAllocator() without a database handle wrapped around it, or
// for swapping in a custom Allocator implementation.
func WithAllocator(alloc store.Allocator) Option {
	return func(o *options) {
		o.allocator = alloc
	}
}

// WithEncryptionKey enables page-level AES-256-CBC/HMAC-SHA-224
// encryption under the given 64-byte key: bytes [0,32) are the AES key,
// bytes [32,64) are the HMAC key. The key is never persisted — losing it
// makes the file unrecoverable. See WithPassphrase to derive key from a
// human-memorable secret instead.
func WithEncryptionKey(key [crypto.KeySize]byte) Option {
	return func(o *options) {
		o.key = key
		o.encrypted = true
	}
}

// WithPassphrase derives a 64-byte encryption key from passphrase and
// salt via PBKDF2-HMAC-SHA256 (crypto.DeriveKey) and enables encryption
// with it. salt must be unique per database file and should itself be
// persisted alongside the file (outside coldb's purview) so the same key
// can be re-derived on reopen — coldb never stores it.
func WithPassphrase(passphrase string, salt []byte) Option {
	return func(o *options) {
		o.key = crypto.DeriveKey(passphrase, salt)
		o.encrypted = true
	}
}

// WithPageCache sets the number of crypto.BlockSize pages the file
// allocator grows by at a time, instead of one page per allocation. A
// larger batch trades memory and disk headroom for fewer Truncate/remap
// syscalls under write-heavy workloads. The default is 1 (grow exactly
// on demand).
func WithPageCache(pages int) Option {
	return func(o *options) {
		if pages > 0 {
			o.pageCacheBatch = pages
		}
	}
}

// WithPageCompression enables zstd compression of STRING and BINARY
// column payload bytes before they are written into a page. Compression
// applies to the column value itself, not to the page's fixed 4096-byte
// ciphertext framing (4.6 assumes a fixed block size); it is transparent
// to every Get/Set/Find caller. Off by default.
func WithPageCompression() Option {
	return func(o *options) {
		o.pageCompression = true
	}
}

// WithCacheDir sets the local directory OpenRemoteS3/OpenRemoteMinIO mirror the remote
// object into. Defaults to os.TempDir() if unset.
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		pageCacheBatch:   1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
