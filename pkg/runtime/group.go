package runtime

import (
	"github.com/sandrolain/gordl/pkg/types"
)

// GroupEntry is one instance of an aggregation scope: the dataset root or
// one group value. Scope carries the identity of the defining node and is
// matched against compile-time scope descriptors by ID.
type GroupEntry struct {
	Scope types.Scope
	// Key holds the group expression values of this instance; nil for
	// dataset roots.
	Key []any
	// Rows are the member rows, in collection order.
	Rows []*Row
	// Parent is the enclosing entry, nil for a dataset root.
	Parent *GroupEntry
}

// NewGroupEntry creates an empty child entry of parent.
func NewGroupEntry(scope types.Scope, key []any, parent *GroupEntry) *GroupEntry {
	return &GroupEntry{Scope: scope, Key: key, Parent: parent}
}

// Add appends r to the entry and makes the entry the row's active group.
func (g *GroupEntry) Add(r *Row) {
	r.Group = g
	r.index = len(g.Rows)
	g.Rows = append(g.Rows, r)
}

// Len returns the number of member rows.
func (g *GroupEntry) Len() int {
	return len(g.Rows)
}

// Find returns the nearest entry, starting at g and walking up, whose scope
// is s.
func (g *GroupEntry) Find(s types.Scope) (*GroupEntry, bool) {
	for e := g; e != nil; e = e.Parent {
		if e.Scope.Same(s) {
			return e, true
		}
	}
	return nil, false
}

// Root returns the outermost entry.
func (g *GroupEntry) Root() *GroupEntry {
	e := g
	for e.Parent != nil {
		e = e.Parent
	}
	return e
}

// Depth returns the number of ancestors of g.
func (g *GroupEntry) Depth() int {
	n := 0
	for e := g.Parent; e != nil; e = e.Parent {
		n++
	}
	return n
}
