// Package runtime holds the per-execution data compiled expressions are
// evaluated against: rows, row collections, group entries and the execution
// context with parameter values, global slots and aggregate state.
//
// Nothing in this package is referenced from a compiled document. Every value
// here belongs to one execution, so any number of executions may evaluate the
// same document concurrently.
package runtime

import (
	"github.com/sandrolain/gordl/pkg/types"
)

// Row is one materialized input row.
type Row struct {
	// RowNumber is the 1-based ordinal of the row in its collection.
	RowNumber int
	// Level is the nesting depth inside a recursive group, 0 otherwise.
	Level int
	// Group is the innermost group entry active for this row.
	Group *GroupEntry
	// Rows is the owning collection.
	Rows *RowCollection
	// Data holds the column values, indexed by the positions bound into field
	// references at compile time.
	Data []any

	// index is the position of the row in Group.Rows.
	index int
}

// NewRow creates a row of rows with the given ordinal and column values.
// The row is not appended to rows; use RowCollection.Append for that.
func NewRow(rows *RowCollection, number int, data []any) *Row {
	return &Row{RowNumber: number, Rows: rows, Data: data}
}

// NewRowFrom creates a row sharing src's Data slice. Writes to the data of
// either row are visible through the other. Level is set to level and the
// row has no group until it is added to one.
func NewRowFrom(src *Row, level int) *Row {
	return &Row{
		RowNumber: src.RowNumber,
		Level:     level,
		Rows:      src.Rows,
		Data:      src.Data,
	}
}

// Value returns the column at index, or nil when the row has fewer columns.
func (r *Row) Value(index int) any {
	if index < 0 || index >= len(r.Data) {
		return nil
	}
	return r.Data[index]
}

// Index returns the position of the row in its group entry.
func (r *Row) Index() int {
	return r.index
}

// RowCollection is the ordered set of rows of one dataset instance.
type RowCollection struct {
	scope  types.Scope
	fields []string
	root   *GroupEntry
}

// NewRowCollection creates an empty collection for the dataset scope ds.
// fields names the columns in positional order.
func NewRowCollection(ds types.Scope, fields []string) *RowCollection {
	c := &RowCollection{scope: ds, fields: fields}
	c.root = &GroupEntry{Scope: ds}
	return c
}

// Scope returns the dataset scope of the collection.
func (c *RowCollection) Scope() types.Scope {
	return c.scope
}

// Fields returns the column names in positional order.
func (c *RowCollection) Fields() []string {
	return c.fields
}

// Append adds a row holding data and returns it.
func (c *RowCollection) Append(data ...any) *Row {
	r := NewRow(c, len(c.root.Rows)+1, data)
	c.root.Add(r)
	return r
}

// Len returns the number of rows.
func (c *RowCollection) Len() int {
	return len(c.root.Rows)
}

// At returns the i-th row.
func (c *RowCollection) At(i int) *Row {
	return c.root.Rows[i]
}

// Rows returns the rows in iteration order.
func (c *RowCollection) Rows() []*Row {
	return c.root.Rows
}

// Root returns the group entry spanning the whole dataset.
func (c *RowCollection) Root() *GroupEntry {
	return c.root
}
