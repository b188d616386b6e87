package column

import (
	"coldb/core"
)

// StringEnumColumn is the dictionary-compressed representation of a
// STRING column: a keys column of unique strings plus a values column of
// key indices, installed by Table.Optimize in place of a StringColumn
// once AutoEnumerate reports it would be smaller.
type StringEnumColumn struct {
	keys   *StringColumn
	values *IntColumn
}

// NewStringEnumColumn wraps an already-built (keys, values) pair, as
// produced by StringColumn.AutoEnumerate.
func NewStringEnumColumn(keys *StringColumn, values *IntColumn) *StringEnumColumn {
	return &StringEnumColumn{keys: keys, values: values}
}

// AttachStringEnumColumn reconstructs a StringEnumColumn view over
// existing keys/values refs.
func AttachStringEnumColumn(alloc allocator, keysRef, valuesRef core.Ref) (*StringEnumColumn, error) {
	keys, err := AttachStringColumn(alloc, keysRef)
	if err != nil {
		return nil, err
	}
	values, err := AttachIntColumn(alloc, valuesRef)
	if err != nil {
		return nil, err
	}
	return &StringEnumColumn{keys: keys, values: values}, nil
}

// Ref returns the keys column's ref; the values column's ref is the
// Table's m_columns slot immediately after it, per Spec.GetColumnRefPos.
func (c *StringEnumColumn) Ref() core.Ref  { return c.keys.Ref() }
func (c *StringEnumColumn) ValuesRef() core.Ref { return c.values.Ref() }
func (c *StringEnumColumn) Size() int      { return c.values.Size() }

func (c *StringEnumColumn) AddDefault() error {
	id, err := c.keyIDFor("")
	if err != nil {
		return err
	}
	c.values.InsertAt(c.values.Size(), id)
	return nil
}

func (c *StringEnumColumn) Insert(ndx int) error {
	id, err := c.keyIDFor("")
	if err != nil {
		return err
	}
	c.values.InsertAt(ndx, id)
	return nil
}

func (c *StringEnumColumn) Delete(ndx int) error { return c.values.Delete(ndx) }
func (c *StringEnumColumn) Clear() error         { return c.values.Clear() }
func (c *StringEnumColumn) HasIndex() bool       { return c.values.HasIndex() }

func (c *StringEnumColumn) UpdateFromParent() error {
	if err := c.keys.UpdateFromParent(); err != nil {
		return err
	}
	return c.values.UpdateFromParent()
}

func (c *StringEnumColumn) UpdateParentNdx(diff int) error {
	if err := c.keys.UpdateParentNdx(diff); err != nil {
		return err
	}
	return c.values.UpdateParentNdx(diff)
}

// keyIDFor returns the dictionary id for s, adding it to the keys column
// if it isn't already present.
func (c *StringEnumColumn) keyIDFor(s string) (int64, error) {
	for i := 0; i < c.keys.Size(); i++ {
		if c.keys.Get(i) == s {
			return int64(i), nil
		}
	}
	id := int64(c.keys.Size())
	c.keys.InsertAt(int(id), s)
	return id, nil
}

// Get returns the ndx'th row's string value, resolved through the
// dictionary.
func (c *StringEnumColumn) Get(ndx int) string {
	return c.keys.Get(int(c.values.Get(ndx)))
}

// Set overwrites the ndx'th row's string value, adding v to the
// dictionary if it is new.
func (c *StringEnumColumn) Set(ndx int, v string) error {
	id, err := c.keyIDFor(v)
	if err != nil {
		return err
	}
	c.values.Set(ndx, id)
	return nil
}

// InsertAt inserts v at ndx, adding it to the dictionary if it is new.
func (c *StringEnumColumn) InsertAt(ndx int, v string) error {
	id, err := c.keyIDFor(v)
	if err != nil {
		return err
	}
	c.values.InsertAt(ndx, id)
	return nil
}

// Find resolves v by locating it in the keys dictionary, then searching
// the values column for that key's id. If v is not in the dictionary at
// all, it returns (0, false) immediately rather than falling through to
// a values lookup with a sentinel id — the bug the source design's
// ColumnStringEnum.Find exhibited.
func (c *StringEnumColumn) Find(v string, start, end core.RowIndex) (core.RowIndex, bool) {
	id := int64(-1)
	for i := 0; i < c.keys.Size(); i++ {
		if c.keys.Get(i) == v {
			id = int64(i)
			break
		}
	}
	if id < 0 {
		return 0, false
	}
	return c.values.Find(id, start, end)
}
