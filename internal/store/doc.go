// Package store provides the Array/Allocator layer that every coldb
// column is built on.
//
// coldb treats Array and Allocator as external collaborators: the rest of
// the engine (spec, column, table, query) only ever talks to the
// interfaces in array.go. This package supplies two concrete
// implementations:
//
//   - MemAllocator: a plain in-memory arena, refs are dense integers handed
//     out by a bump counter with a free list for reuse. Used by
//     coldb.OpenMemory.
//   - FileAllocator: refs are 1-based indices of fixed-size slots in a
//     logical, seekable byte stream (internal/pagemap.EncryptedFileMapping when encryption is on,
//     a plain *os.File otherwise). Used by coldb.Open.
//
// Both satisfy the same Allocator interface, so everything above this
// package is agnostic to whether a Table is in-memory or file-backed, and
// whether the file is encrypted.
package store
