// Package coldb provides a high-performance embedded columnar table
// database for Go.
//
// coldb is an embeddable, schema-typed, columnar store designed to sit
// directly inside a process: tables of typed columns (ints, bools,
// dates, strings, binary blobs, nested tables, and a dynamically-typed
// mixed column), backed by an external ref-addressed array allocator,
// with optional transparent page-level authenticated encryption.
//
// # Quick Start
//
// In-memory:
//
//	db, _ := coldb.OpenMemory()
//	tb, _ := db.CreateTable("events")
//
// Local file, unencrypted:
//
//	db, _ := coldb.Open("./events.coldb")
//
// Local file, encrypted with a derived passphrase key:
//
//	db, _ := coldb.Open("./events.coldb", coldb.WithPassphrase("correct horse battery staple", salt))
//
// Remote, through S3 (OpenRemoteS3) or a MinIO-compatible endpoint
// (OpenRemoteMinIO), mirrored into a local cache directory:
//
//	db, _ := coldb.OpenRemoteS3(ctx, s3Client, "my-bucket", "events.coldb",
//		coldb.WithCacheDir("/fast/nvme"))
//
// # Tables and Columns
//
//	tb, _ := db.CreateTable("events")
//	col, _ := tb.AddColumn(spec.TypeString, "name")
//	tb.AddRow()
//	tb.SetString(col, 0, "checkout")
//
// # Schema Evolution
//
// AddColumn backfills every existing row with that type's default
// value. Optimize walks STRING columns and, where enumerable, rewrites
// them in place as dictionary-compressed STRING_ENUM columns without
// changing any observable Get/JSON result.
//
// # Secondary Indexes
//
//	tb.SetIndex(col)       // col must be Int, Bool, or Date
//	ok, _ := tb.HasIndex(col)
//
// # Encryption
//
// When a 64-byte key is supplied (directly via WithEncryptionKey, or
// derived from a passphrase via WithPassphrase), every page is
// AES-256-CBC encrypted and HMAC-SHA-224 authenticated before it
// touches the backend; the key is never persisted, so losing it makes
// the file unrecoverable.
package coldb
