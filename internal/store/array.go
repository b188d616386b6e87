package store

import "coldb/core"

// Kind identifies the payload flavor of an Array node.
type Kind uint8

const (
	// KindInt is a payload of signed 64-bit integers (INT/BOOL/DATE columns,
	// key-index columns of STRING_ENUM, row-count/type columns of MIXED).
	KindInt Kind = iota
	// KindRef is a payload of Refs (HASREFS in the source design): m_columns,
	// TABLE column subtable roots, MIXED embedded-table roots.
	KindRef
	// KindString is a leaf of adaptive-width strings.
	KindString
	// KindBinary is a leaf of length-prefixed byte blobs.
	KindBinary
)

// Array is a contiguous, parent-linked sequence of machine-width integers,
// refs, strings, or binary blobs. Every mutator that can relocate elements
// (Insert, Delete) is responsible for keeping the parent back-link of any
// array it owns through a Ref payload consistent — coldb's column layer
// does this by calling SetParent on the child immediately after linking it.
type Array interface {
	// Ref returns this array's own identity within its Allocator.
	Ref() core.Ref
	// Kind reports the payload flavor.
	Kind() Kind
	// Len returns the element count.
	Len() int

	// Get returns the signed integer (or Ref, reinterpreted) at i.
	Get(i int) int64
	// Set overwrites the element at i.
	Set(i int, v int64)
	// Insert inserts v at i, shifting subsequent elements up.
	Insert(i int, v int64)
	// Delete removes the element at i, shifting subsequent elements down.
	Delete(i int)
	// Add appends v.
	Add(v int64)
	// Clear empties the array in place.
	Clear()
	// Truncate drops every element from i onward.
	Truncate(i int)

	// GetString returns the string at i. Valid only for KindString arrays.
	GetString(i int) string
	// SetString overwrites the string at i.
	SetString(i int, v string)
	// InsertString inserts a string at i.
	InsertString(i int, v string)
	// AddString appends a string.
	AddString(v string)

	// GetBytes returns the blob at i. Valid only for KindBinary arrays.
	GetBytes(i int) []byte
	// SetBytes overwrites the blob at i.
	SetBytes(i int, v []byte)
	// InsertBytes inserts a blob at i.
	InsertBytes(i int, v []byte)
	// AddBytes appends a blob.
	AddBytes(v []byte)

	// Parent returns the array this array is a slot of, and the slot index.
	// Returns (core.NilRef, -1) for a free-standing array (e.g. a Table's
	// top array, which has no parent).
	Parent() (core.Ref, int)
	// SetParent records the array's current parent and slot index. Callers
	// must invoke this whenever the array is (re)linked into a parent slot,
	// including after any mutation of the parent that could have relocated
	// this array's slot.
	SetParent(parent core.Ref, slot int)
}

// Allocator allocates and frees Array nodes and maps refs back to live
// views. Every Table, Column, and Spec in coldb is ultimately backed by
// one Allocator; a Table never talks to the underlying memory or file
// directly.
type Allocator interface {
	// Alloc creates a new, empty array of the given kind and returns its ref.
	Alloc(kind Kind) (core.Ref, error)
	// Resolve returns a live view of the array identified by ref. Resolving
	// core.NilRef is a programmer error.
	Resolve(ref core.Ref) (Array, error)
	// Free releases ref and, transitively, every ref reachable from it
	// through KindRef payload slots — it is the allocator's job to walk the
	// subtree, mirroring the source design's "exactly one owner of every
	// byte" invariant (coldb never frees a node that's still linked from a
	// live parent).
	Free(ref core.Ref) error
	// Close releases any resources (file handles, mappings) held by the
	// allocator. Safe to call multiple times.
	Close() error
}
