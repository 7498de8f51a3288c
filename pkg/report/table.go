package report

import (
	"slices"

	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/types"
)

// regionBase holds the properties shared by data regions.
type regionBase struct {
	itemBase
	DataSetName string
}

// boundDataSet returns the dataset the region iterates.
func (r *regionBase) boundDataSet() (*DataSet, bool) {
	return r.comp.dataSet(r.DataSetName)
}

// DataSet returns the dataset the region iterates, once resolvable.
func (r *regionBase) DataSet() (*DataSet, bool) {
	return r.boundDataSet()
}

func (r *regionBase) aggScope() (types.Scope, bool) {
	ds, ok := r.boundDataSet()
	if !ok {
		return types.Scope{}, false
	}
	return ds.Scope(), true
}

func (r *regionBase) validate() {
	if _, ok := r.boundDataSet(); ok {
		return
	}
	if r.DataSetName == "" {
		r.comp.report(diag.Recoverable, types.ErrUnknownDataSet, r, r.pos,
			"%s has no DataSetName and the report defines %d datasets", r.element, len(r.comp.dataSetList))
		return
	}
	r.comp.report(diag.Recoverable, types.ErrUnknownDataSet, r, r.pos,
		"dataset %q is not defined", r.DataSetName)
}

// Table is a data region laid out in rows and columns, with optional
// nested groups.
type Table struct {
	regionBase
	Columns []*TableColumn
	Header  *TableSection
	Groups  []*TableGroup
	Details *Details
	Footer  *TableSection
	Filters []*Filter
	NoRows  *Expression
}

func newTable(c *Compilation, el *element, parent Node) *Table {
	t := &Table{}
	h := c.item(&t.itemBase, t, parent, el)
	h["DataSetName"] = func(ch *element) { t.DataSetName = ch.value() }
	h["TableColumns"] = func(ch *element) {
		t.Columns = list(c, t, ch, "TableColumn", func(e *element) *TableColumn { return newTableColumn(c, e, t) })
	}
	h["Header"] = func(ch *element) { t.Header = newTableSection(c, ch, t) }
	h["TableGroups"] = func(ch *element) {
		t.Groups = list(c, t, ch, "TableGroup", func(e *element) *TableGroup { return newTableGroup(c, e, t) })
	}
	h["Details"] = func(ch *element) { t.Details = newDetails(c, ch, t) }
	h["Footer"] = func(ch *element) { t.Footer = newTableSection(c, ch, t) }
	h["Filters"] = func(ch *element) {
		t.Filters = list(c, t, ch, "Filter", func(e *element) *Filter { return newFilter(c, e, t) })
	}
	h["NoRows"] = func(ch *element) { t.NoRows = c.expr(t, ch, types.TypeString) }
	c.build(t, el, h, "Name")
	return t
}

func (t *Table) children() []Node {
	out := appendNodes(t.itemChildren(), t.Columns)
	out = appendNode(out, t.Header)
	out = appendNodes(out, t.Groups)
	out = appendNode(out, t.Details)
	out = appendNode(out, t.Footer)
	return appendNodes(out, t.Filters)
}

func (t *Table) expressions() []*Expression { return exprs(t.NoRows) }

// innermostGroup returns the scope of the last table group, which encloses
// the detail rows.
func (t *Table) innermostGroup() (types.Scope, bool) {
	for i := len(t.Groups) - 1; i >= 0; i-- {
		if g := t.Groups[i].Grouping; g != nil {
			return g.Scope(), true
		}
	}
	return types.Scope{}, false
}

// enclosingScope is the scope enclosing the grouping with node ID id: the
// previous table group, else the dataset. The details grouping nests inside
// the last table group. An id that names none of them yields the dataset,
// the scope of the table itself.
func (t *Table) enclosingScope(id int) (types.Scope, bool) {
	levels := make([]*Grouping, 0, len(t.Groups)+1)
	for _, g := range t.Groups {
		levels = append(levels, g.Grouping)
	}
	if t.Details != nil {
		levels = append(levels, t.Details.Grouping)
	}
	end := 0
	for i, g := range levels {
		if g != nil && g.ID() == id {
			end = i
			break
		}
	}
	for i := end - 1; i >= 0; i-- {
		if levels[i] != nil {
			return levels[i].Scope(), true
		}
	}
	return t.regionBase.aggScope()
}

// TableColumn is a column of a table.
type TableColumn struct {
	node
	Width string
}

func newTableColumn(c *Compilation, el *element, parent Node) *TableColumn {
	col := &TableColumn{}
	c.init(&col.node, parent, el)
	c.build(col, el, handlers{
		"Width": func(ch *element) { col.Width = ch.value() },
	})
	return col
}

// TableSection is the header or footer of a table or table group.
type TableSection struct {
	node
	Rows            []*TableRow
	RepeatOnNewPage bool
}

func newTableSection(c *Compilation, el *element, parent Node) *TableSection {
	s := &TableSection{}
	c.init(&s.node, parent, el)
	seen := false
	c.build(s, el, handlers{
		"TableRows": func(ch *element) {
			seen = true
			s.Rows = c.tableRows(s, ch)
		},
		"RepeatOnNewPage": func(ch *element) { s.RepeatOnNewPage = c.boolValue(s, ch, false) },
	})
	c.required(s, "TableRows", seen, len(s.Rows))
	return s
}

func (s *TableSection) children() []Node { return appendNodes(nil, s.Rows) }

func (c *Compilation) tableRows(parent Node, el *element) []*TableRow {
	return list(c, parent, el, "TableRow", func(e *element) *TableRow { return newTableRow(c, e, parent) })
}

// TableRow is a row of cells.
type TableRow struct {
	node
	Cells  []*TableCell
	Height string
}

func newTableRow(c *Compilation, el *element, parent Node) *TableRow {
	r := &TableRow{}
	c.init(&r.node, parent, el)
	seen := false
	c.build(r, el, handlers{
		"TableCells": func(ch *element) {
			seen = true
			r.Cells = list(c, r, ch, "TableCell", func(e *element) *TableCell { return newTableCell(c, e, r) })
		},
		"Height": func(ch *element) { r.Height = ch.value() },
	})
	c.required(r, "TableCells", seen, len(r.Cells))
	return r
}

func (r *TableRow) children() []Node { return appendNodes(nil, r.Cells) }

// TableCell holds the report items of one cell.
type TableCell struct {
	node
	ReportItems []ReportItem
}

func newTableCell(c *Compilation, el *element, parent Node) *TableCell {
	cell := &TableCell{}
	c.init(&cell.node, parent, el)
	seen := false
	c.build(cell, el, handlers{
		"ReportItems": func(ch *element) {
			seen = true
			cell.ReportItems = c.reportItems(cell, ch)
		},
	})
	c.required(cell, "ReportItems", seen, len(cell.ReportItems))
	return cell
}

func (cell *TableCell) children() []Node { return appendItems(nil, cell.ReportItems) }

// TableGroup is a grouping level of a table with its own header and
// footer.
type TableGroup struct {
	node
	Grouping *Grouping
	Sorting  []*SortBy
	Header   *TableSection
	Footer   *TableSection
}

func newTableGroup(c *Compilation, el *element, parent Node) *TableGroup {
	g := &TableGroup{}
	c.init(&g.node, parent, el)
	c.build(g, el, handlers{
		"Grouping": func(ch *element) { g.Grouping = newGrouping(c, ch, g) },
		"Sorting":  func(ch *element) { g.Sorting = c.sorting(g, ch) },
		"Header":   func(ch *element) { g.Header = newTableSection(c, ch, g) },
		"Footer":   func(ch *element) { g.Footer = newTableSection(c, ch, g) },
	})
	if g.Grouping == nil {
		c.missing(g, "a Grouping")
	}
	return g
}

func (g *TableGroup) aggScope() (types.Scope, bool) {
	if g.Grouping == nil {
		return types.Scope{}, false
	}
	return g.Grouping.Scope(), true
}

func (g *TableGroup) children() []Node {
	out := appendNode(nil, g.Grouping)
	out = appendNodes(out, g.Sorting)
	out = appendNode(out, g.Header)
	return appendNode(out, g.Footer)
}

// Details holds the rows repeated once per row of the innermost group.
type Details struct {
	node
	Rows     []*TableRow
	Grouping *Grouping
	Sorting  []*SortBy
}

func newDetails(c *Compilation, el *element, parent Node) *Details {
	d := &Details{}
	c.init(&d.node, parent, el)
	seen := false
	c.build(d, el, handlers{
		"TableRows": func(ch *element) {
			seen = true
			d.Rows = c.tableRows(d, ch)
		},
		"Grouping": func(ch *element) { d.Grouping = newGrouping(c, ch, d) },
		"Sorting":  func(ch *element) { d.Sorting = c.sorting(d, ch) },
	})
	c.required(d, "TableRows", seen, len(d.Rows))
	return d
}

func (d *Details) aggScope() (types.Scope, bool) {
	if d.Grouping != nil {
		return d.Grouping.Scope(), true
	}
	if t, ok := d.parent.(*Table); ok {
		return t.innermostGroup()
	}
	return types.Scope{}, false
}

func (d *Details) children() []Node {
	out := appendNodes(nil, d.Rows)
	out = appendNode(out, d.Grouping)
	return appendNodes(out, d.Sorting)
}

// List is a data region repeating its report items per row or per group.
type List struct {
	regionBase
	Grouping    *Grouping
	Sorting     []*SortBy
	Filters     []*Filter
	ReportItems []ReportItem
}

func newList(c *Compilation, el *element, parent Node) *List {
	l := &List{}
	h := c.item(&l.itemBase, l, parent, el)
	h["DataSetName"] = func(ch *element) { l.DataSetName = ch.value() }
	h["Grouping"] = func(ch *element) { l.Grouping = newGrouping(c, ch, l) }
	h["Sorting"] = func(ch *element) { l.Sorting = c.sorting(l, ch) }
	h["Filters"] = func(ch *element) {
		l.Filters = list(c, l, ch, "Filter", func(e *element) *Filter { return newFilter(c, e, l) })
	}
	h["ReportItems"] = func(ch *element) { l.ReportItems = c.reportItems(l, ch) }
	c.build(l, el, h, "Name")
	return l
}

func (l *List) aggScope() (types.Scope, bool) {
	if l.Grouping != nil {
		return l.Grouping.Scope(), true
	}
	return l.regionBase.aggScope()
}

func (l *List) children() []Node {
	out := appendNode(l.itemChildren(), l.Grouping)
	out = appendNodes(out, l.Sorting)
	out = appendNodes(out, l.Filters)
	return appendItems(out, l.ReportItems)
}

// Grouping partitions the rows of its data region by the values of its
// group expressions.
type Grouping struct {
	node
	Name           string
	Expressions    []*Expression
	PageBreakAtEnd bool
	ParentGroup    *Expression
	Filters        []*Filter
}

func newGrouping(c *Compilation, el *element, parent Node) *Grouping {
	g := &Grouping{}
	c.init(&g.node, parent, el)
	g.Name = c.name(g, el, true)
	seen := false
	c.build(g, el, handlers{
		"GroupExpressions": func(ch *element) {
			seen = true
			g.Expressions = list(c, g, ch, "GroupExpression", func(e *element) *Expression {
				return c.expr(g, e, types.TypeVariant)
			})
		},
		"PageBreakAtEnd": func(ch *element) { g.PageBreakAtEnd = c.boolValue(g, ch, false) },
		"Parent":         func(ch *element) { g.ParentGroup = c.expr(g, ch, types.TypeVariant) },
		"Filters": func(ch *element) {
			g.Filters = list(c, g, ch, "Filter", func(e *element) *Filter { return newFilter(c, e, g) })
		},
	}, "Name")
	c.required(g, "GroupExpressions", seen, len(g.Expressions))
	return g
}

// Scope returns the aggregation scope of the grouping. Its dataset is the
// one of the enclosing data region.
func (g *Grouping) Scope() types.Scope {
	s := types.Scope{Kind: types.ScopeGroup, Name: g.Name, ID: g.ID()}
	if ds, ok := newEnv(g.comp, g).region(); ok {
		s.DataSet = ds.ID()
	}
	return s
}

func (g *Grouping) children() []Node { return appendNodes(nil, g.Filters) }

func (g *Grouping) expressions() []*Expression {
	return append(slices.Clone(g.Expressions), exprs(g.ParentGroup)...)
}

func (c *Compilation) sorting(parent Node, el *element) []*SortBy {
	return list(c, parent, el, "SortBy", func(e *element) *SortBy { return newSortBy(c, e, parent) })
}

// SortBy is one sort key.
type SortBy struct {
	node
	Expression *Expression
	Direction  SortDirection
}

func newSortBy(c *Compilation, el *element, parent Node) *SortBy {
	s := &SortBy{}
	c.init(&s.node, parent, el)
	c.build(s, el, handlers{
		"SortExpression": func(ch *element) { s.Expression = c.expr(s, ch, types.TypeVariant) },
		"Direction":      func(ch *element) { s.Direction = sortDirections.parse(c, s, ch) },
	})
	if s.Expression == nil {
		c.missing(s, "a SortExpression")
	}
	return s
}

func (s *SortBy) expressions() []*Expression { return exprs(s.Expression) }

// Filter keeps the rows for which Expression compares to Values under
// Operator.
type Filter struct {
	node
	Expression *Expression
	Operator   FilterOperator
	Values     []*Expression
}

func newFilter(c *Compilation, el *element, parent Node) *Filter {
	f := &Filter{}
	c.init(&f.node, parent, el)
	seen := false
	c.build(f, el, handlers{
		"FilterExpression": func(ch *element) { f.Expression = c.expr(f, ch, types.TypeVariant) },
		"Operator":         func(ch *element) { f.Operator = filterOperators.parse(c, f, ch) },
		"FilterValues": func(ch *element) {
			seen = true
			f.Values = list(c, f, ch, "FilterValue", func(e *element) *Expression {
				return c.expr(f, e, types.TypeVariant)
			})
		},
	})
	if f.Expression == nil {
		c.missing(f, "a FilterExpression")
	}
	c.required(f, "FilterValues", seen, len(f.Values))
	return f
}

func (f *Filter) expressions() []*Expression {
	return append(exprs(f.Expression), f.Values...)
}
