// Package query implements coldb's predicate tree: a chain of nodes,
// each comparing one column against a constant, conjoined by holding a
// reference to "the next condition" rather than by an explicit AND
// operator, plus an OrNode for disjunction. Evaluation is a pure
// function over (tree, table, start, end); nodes hold no per-query
// mutable state beyond the chain pointer set up while building the
// tree.
package query

import (
	"coldb/core"
	"coldb/table"
)

// Node is one predicate in a chain. And appends next as the last link in
// this node's conjunct chain and returns the receiver, so callers can
// write query.NewIntNode(...).And(query.NewStringNode(...)).
type Node interface {
	Find(t *table.Table, start, end core.RowIndex) (core.RowIndex, bool)
	And(next Node) Node
}

// probeNode is the subset of Node the shared Find algorithm drives: probe
// finds the smallest row in [s, end) this node alone matches (which may
// require jumping ahead of s, e.g. an indexed equality lookup), and
// getChild exposes the next conjunct in the chain, if any.
type probeNode interface {
	probe(t *table.Table, s, end core.RowIndex) (core.RowIndex, bool)
	getChild() Node
}

// find implements the Find(start, end, table) contract from the query
// engine design: advance s from start; at each hit, if there is no
// child, the hit stands; otherwise ask the child to find starting at the
// hit. If the child agrees on the same row, the hit is valid; if the
// child's first match is further ahead, restart the whole search there
// instead of re-probing this node row by row.
func find(n probeNode, t *table.Table, start, end core.RowIndex) (core.RowIndex, bool) {
	s := start
	for {
		if s >= end {
			return 0, false
		}
		r, ok := n.probe(t, s, end)
		if !ok {
			return 0, false
		}
		child := n.getChild()
		if child == nil {
			return r, true
		}
		a, ok := child.Find(t, r, end)
		if !ok {
			return 0, false
		}
		if a == r {
			return r, true
		}
		s = a
	}
}

// chain is embedded by every leaf node to hold the next conjunct.
type chain struct {
	child Node
}

func (c *chain) getChild() Node { return c.child }

// And appends next at the end of this node's chain: if this node has no
// child yet, next becomes it; otherwise the append is delegated down the
// chain so conjuncts stay ordered as they were added.
func (c *chain) and(self Node, next Node) Node {
	if c.child == nil {
		c.child = next
	} else {
		c.child = c.child.And(next)
	}
	return self
}

// resolve adapts a table Find* accessor's (row, error) return into the
// (row, ok) shape probe expects. table.ErrNotFound means no match in
// range; any other error (bad column type, wrong real type) means the
// query itself is malformed, which is likewise "no match" rather than a
// panic — a predicate built against a dropped or retyped column simply
// never fires.
func resolve(r core.RowIndex, err error) (core.RowIndex, bool) {
	return r, err == nil
}

// FindAll returns every row index in [0, t.Size()) that n matches, in
// ascending order, by repeating Find with start = previous match + 1.
func FindAll(n Node, t *table.Table) []core.RowIndex {
	end := core.RowIndex(t.Size())
	var out []core.RowIndex
	for start := core.RowIndex(0); start < end; {
		r, ok := n.Find(t, start, end)
		if !ok {
			break
		}
		out = append(out, r)
		start = r + 1
	}
	return out
}
