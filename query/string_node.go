package query

import (
	"strings"

	"coldb/core"
	"coldb/table"
)

// StringFunc is a comparison functor over a column's string cell and a
// constant, in that order: f(cell, constant).
type StringFunc func(cell, constant string) bool

// Comparison functors for NewStringNode. StringContains,
// StringBeginsWith, StringEndsWith and StringNotEqual scan the column
// row by row; equality has its own constructor (NewStringEqualNode) so
// STRING_ENUM columns can resolve it through the dictionary instead of
// comparing every cell.
var (
	StringContains   StringFunc = strings.Contains
	StringBeginsWith StringFunc = strings.HasPrefix
	StringEndsWith   StringFunc = strings.HasSuffix
	StringNotEqual   StringFunc = func(cell, constant string) bool { return cell != constant }
)

// StringNode compares a STRING or STRING_ENUM column against a constant.
type StringNode struct {
	chain
	col   core.ColumnIndex
	value string
	cmp   StringFunc // nil for the EQUAL fast path
}

// NewStringNode builds a row-by-row string comparison node.
func NewStringNode(col core.ColumnIndex, cmp StringFunc, value string) *StringNode {
	return &StringNode{col: col, value: value, cmp: cmp}
}

// NewStringEqualNode builds an equality node that delegates to the
// column's own Find.
func NewStringEqualNode(col core.ColumnIndex, value string) *StringNode {
	return &StringNode{col: col, value: value}
}

func (n *StringNode) Find(t *table.Table, start, end core.RowIndex) (core.RowIndex, bool) {
	return find(n, t, start, end)
}

func (n *StringNode) And(next Node) Node { return n.and(n, next) }

func (n *StringNode) probe(t *table.Table, s, end core.RowIndex) (core.RowIndex, bool) {
	if n.cmp == nil {
		return resolve(t.FindString(n.col, n.value, s, end))
	}
	for i := s; i < end; i++ {
		v, err := t.GetString(n.col, i)
		if err != nil {
			return 0, false
		}
		if n.cmp(v, n.value) {
			return i, true
		}
	}
	return 0, false
}
