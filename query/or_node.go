package query

import (
	"coldb/core"
	"coldb/table"
)

// OrNode matches a row that either of its two branches match: it holds
// both subqueries whole (not just their leaf comparators), evaluates
// each independently over the remaining range and reports the smaller
// of the two hits. This fixes the source design's OR evaluator, which
// re-probed one branch twice instead of consulting both.
type OrNode struct {
	chain
	left, right Node
}

// NewOrNode builds a disjunction of left and right. Each may itself be a
// chain with its own trailing conjuncts.
func NewOrNode(left, right Node) *OrNode {
	return &OrNode{left: left, right: right}
}

func (n *OrNode) Find(t *table.Table, start, end core.RowIndex) (core.RowIndex, bool) {
	return find(n, t, start, end)
}

func (n *OrNode) And(next Node) Node { return n.and(n, next) }

func (n *OrNode) probe(t *table.Table, s, end core.RowIndex) (core.RowIndex, bool) {
	a, okA := n.left.Find(t, s, end)
	b, okB := n.right.Find(t, s, end)
	switch {
	case okA && okB:
		if a < b {
			return a, true
		}
		return b, true
	case okA:
		return a, true
	case okB:
		return b, true
	default:
		return 0, false
	}
}
