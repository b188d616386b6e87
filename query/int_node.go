package query

import (
	"coldb/core"
	"coldb/table"
)

// IntFunc is a comparison functor over a column's int64 cell and a
// constant, in that order: f(cell, constant).
type IntFunc func(cell, constant int64) bool

// Comparison functors for NewIntNode. IntGreater, IntLess,
// IntGreaterOrEqual, IntLessOrEqual and IntNotEqual scan the column row
// by row; equality has its own constructor (NewIntEqualNode) so it can
// take the indexed fast path instead.
var (
	IntGreater        IntFunc = func(cell, constant int64) bool { return cell > constant }
	IntLess           IntFunc = func(cell, constant int64) bool { return cell < constant }
	IntGreaterOrEqual IntFunc = func(cell, constant int64) bool { return cell >= constant }
	IntLessOrEqual    IntFunc = func(cell, constant int64) bool { return cell <= constant }
	IntNotEqual       IntFunc = func(cell, constant int64) bool { return cell != constant }
)

// IntNode compares an INT, BOOL or DATE column against a constant. It
// backs NODE<T,C,F> and, via NewIntEqualNode, the NODE<T,C,EQUAL>
// specialization.
type IntNode struct {
	chain
	col   core.ColumnIndex
	value int64
	cmp   IntFunc // nil for the EQUAL fast path
}

// NewIntNode builds a row-by-row comparison node.
func NewIntNode(col core.ColumnIndex, cmp IntFunc, value int64) *IntNode {
	return &IntNode{col: col, value: value, cmp: cmp}
}

// NewIntEqualNode builds an equality node that delegates to the column's
// own Find, taking the indexed fast path when the column carries a
// secondary index.
func NewIntEqualNode(col core.ColumnIndex, value int64) *IntNode {
	return &IntNode{col: col, value: value}
}

func (n *IntNode) Find(t *table.Table, start, end core.RowIndex) (core.RowIndex, bool) {
	return find(n, t, start, end)
}

func (n *IntNode) And(next Node) Node { return n.and(n, next) }

func (n *IntNode) probe(t *table.Table, s, end core.RowIndex) (core.RowIndex, bool) {
	if n.cmp == nil {
		return resolve(t.FindInt(n.col, n.value, s, end))
	}
	for i := s; i < end; i++ {
		v, err := t.GetIntFamily(n.col, i)
		if err != nil {
			return 0, false
		}
		if n.cmp(v, n.value) {
			return i, true
		}
	}
	return 0, false
}
