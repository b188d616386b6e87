package coldb

import (
	"fmt"

	"coldb/core"
	"coldb/internal/store"
)

// catalogRef is the ref every catalog's container array is allocated at.
// A brand new allocator's very first Alloc call always returns ref 1 (both
// store.MemAllocator and store.FileAllocator number refs sequentially from
// 1), so openCatalog can tell a fresh file from an existing one just by
// trying to Resolve it — there is no separate superblock to parse.
const catalogRef = core.Ref(1)

// catalog is the DB-level registry mapping table names to their top refs,
// the same "local refs inside the same file" role spec.md's Spec/Table
// pair plays for a single table's columns, one level up.
type catalog struct {
	alloc  store.Allocator
	ref    core.Ref
	names  store.Array // KindString
	tables store.Array // KindRef, one top ref per table
}

func openCatalog(alloc store.Allocator) (*catalog, error) {
	if _, err := alloc.Resolve(catalogRef); err == nil {
		return attachCatalog(alloc)
	}
	return newCatalog(alloc)
}

func newCatalog(alloc store.Allocator) (*catalog, error) {
	ref, err := alloc.Alloc(store.KindRef)
	if err != nil {
		return nil, err
	}
	if ref != catalogRef {
		return nil, fmt.Errorf("coldb: catalog allocated at ref %d, expected %d (allocator not fresh)", ref, catalogRef)
	}
	container, err := alloc.Resolve(ref)
	if err != nil {
		return nil, err
	}

	namesRef, err := alloc.Alloc(store.KindString)
	if err != nil {
		return nil, err
	}
	names, err := alloc.Resolve(namesRef)
	if err != nil {
		return nil, err
	}

	tablesRef, err := alloc.Alloc(store.KindRef)
	if err != nil {
		return nil, err
	}
	tables, err := alloc.Resolve(tablesRef)
	if err != nil {
		return nil, err
	}

	container.Add(int64(namesRef))
	container.Add(int64(tablesRef))
	names.SetParent(ref, 0)
	tables.SetParent(ref, 1)

	return &catalog{alloc: alloc, ref: ref, names: names, tables: tables}, nil
}

func attachCatalog(alloc store.Allocator) (*catalog, error) {
	container, err := alloc.Resolve(catalogRef)
	if err != nil {
		return nil, err
	}
	if container.Len() != 2 {
		return nil, fmt.Errorf("%w: catalog container has %d slots, want 2", ErrInvalidFile, container.Len())
	}
	names, err := alloc.Resolve(core.Ref(container.Get(0)))
	if err != nil {
		return nil, err
	}
	tables, err := alloc.Resolve(core.Ref(container.Get(1)))
	if err != nil {
		return nil, err
	}
	return &catalog{alloc: alloc, ref: catalogRef, names: names, tables: tables}, nil
}

func (c *catalog) indexOf(name string) int {
	for i := 0; i < c.names.Len(); i++ {
		if c.names.GetString(i) == name {
			return i
		}
	}
	return -1
}

func (c *catalog) list() []string {
	out := make([]string, c.names.Len())
	for i := range out {
		out[i] = c.names.GetString(i)
	}
	return out
}

func (c *catalog) topRef(name string) (core.Ref, bool) {
	i := c.indexOf(name)
	if i < 0 {
		return core.NilRef, false
	}
	return core.Ref(c.tables.Get(i)), true
}

func (c *catalog) register(name string, top core.Ref) error {
	if c.indexOf(name) >= 0 {
		return fmt.Errorf("%w: table %q already exists", ErrProgrammerError, name)
	}
	c.names.AddString(name)
	c.tables.Add(int64(top))
	return nil
}

func (c *catalog) drop(name string) error {
	i := c.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: table %q not found", ErrProgrammerError, name)
	}
	ref := core.Ref(c.tables.Get(i))
	if err := c.alloc.Free(ref); err != nil {
		return err
	}
	c.names.Delete(i)
	c.tables.Delete(i)
	return nil
}
