package report

import (
	"slices"

	"github.com/sandrolain/gordl/pkg/types"
)

// Chart is a data region plotting data points per category and series.
type Chart struct {
	regionBase
	Type              ChartType
	Subtype           ChartSubtype
	CategoryGroupings []*DynamicGroup
	SeriesGroupings   []*DynamicGroup
	Series            []*ChartSeries
	CategoryAxis      *Axis
	ValueAxis         *Axis
	Legend            *Legend
	Title             *Title
}

func newChart(c *Compilation, el *element, parent Node) *Chart {
	ch := &Chart{}
	h := c.item(&ch.itemBase, ch, parent, el)
	seen := false
	h["Type"] = func(e *element) { ch.Type = chartTypes.parse(c, ch, e) }
	h["Subtype"] = func(e *element) { ch.Subtype = chartSubtypes.parse(c, ch, e) }
	h["DataSetName"] = func(e *element) { ch.DataSetName = e.value() }
	h["CategoryGroupings"] = func(e *element) {
		ch.CategoryGroupings = list(c, ch, e, "CategoryGrouping", func(g *element) *DynamicGroup {
			return newDynamicGroup(c, g, ch, "DynamicCategories")
		})
	}
	h["SeriesGroupings"] = func(e *element) {
		ch.SeriesGroupings = list(c, ch, e, "SeriesGrouping", func(g *element) *DynamicGroup {
			return newDynamicGroup(c, g, ch, "DynamicSeries")
		})
	}
	h["ChartData"] = func(e *element) {
		seen = true
		ch.Series = list(c, ch, e, "ChartSeries", func(s *element) *ChartSeries { return newChartSeries(c, s, ch) })
	}
	h["CategoryAxis"] = func(e *element) { ch.CategoryAxis = c.axis(ch, e) }
	h["ValueAxis"] = func(e *element) { ch.ValueAxis = c.axis(ch, e) }
	h["Legend"] = func(e *element) { ch.Legend = newLegend(c, e, ch) }
	h["Title"] = func(e *element) { ch.Title = newTitle(c, e, ch) }
	c.build(ch, el, h, "Name")
	c.required(ch, "ChartData", seen, len(ch.Series))
	return ch
}

// aggScope is the scope of the data values: the innermost series grouping,
// else the innermost category grouping, else the dataset.
func (ch *Chart) aggScope() (types.Scope, bool) {
	return ch.enclosingScope(-1)
}

// enclosingScope is the scope enclosing the grouping with node ID id.
// Series groupings nest inside category groupings; an id that names none of
// them yields the innermost scope of the chart.
func (ch *Chart) enclosingScope(id int) (types.Scope, bool) {
	levels := slices.Concat(ch.CategoryGroupings, ch.SeriesGroupings)
	end := len(levels)
	for i, g := range levels {
		if g.Grouping != nil && g.Grouping.ID() == id {
			end = i
			break
		}
	}
	for i := end - 1; i >= 0; i-- {
		if s, ok := levels[i].aggScope(); ok {
			return s, true
		}
	}
	return ch.regionBase.aggScope()
}

func (ch *Chart) children() []Node {
	out := appendNodes(ch.itemChildren(), ch.CategoryGroupings)
	out = appendNodes(out, ch.SeriesGroupings)
	out = appendNodes(out, ch.Series)
	out = appendNode(out, ch.CategoryAxis)
	out = appendNode(out, ch.ValueAxis)
	out = appendNode(out, ch.Legend)
	return appendNode(out, ch.Title)
}

// DynamicGroup is a category or series grouping of a chart.
type DynamicGroup struct {
	node
	Grouping *Grouping
	Label    *Expression
}

func newDynamicGroup(c *Compilation, el *element, parent Node, dynamic string) *DynamicGroup {
	g := &DynamicGroup{}
	c.init(&g.node, parent, el)
	c.build(g, el, handlers{
		dynamic: func(d *element) {
			c.build(g, d, handlers{
				"Grouping": func(e *element) { g.Grouping = newGrouping(c, e, g) },
				"Label":    func(e *element) { g.Label = c.expr(g, e, types.TypeString) },
			})
		},
	})
	if g.Grouping == nil {
		c.missing(g, "a Grouping")
	}
	return g
}

func (g *DynamicGroup) aggScope() (types.Scope, bool) {
	if g.Grouping == nil {
		return types.Scope{}, false
	}
	return g.Grouping.Scope(), true
}

func (g *DynamicGroup) children() []Node            { return appendNode(nil, g.Grouping) }
func (g *DynamicGroup) expressions() []*Expression { return exprs(g.Label) }

// ChartSeries is one plotted series.
type ChartSeries struct {
	node
	Points   []*DataPoint
	PlotType PlotType
}

func newChartSeries(c *Compilation, el *element, parent Node) *ChartSeries {
	s := &ChartSeries{}
	c.init(&s.node, parent, el)
	seen := false
	c.build(s, el, handlers{
		"DataPoints": func(e *element) {
			seen = true
			s.Points = list(c, s, e, "DataPoint", func(p *element) *DataPoint { return newDataPoint(c, p, s) })
		},
		"PlotType": func(e *element) { s.PlotType = plotTypes.parse(c, s, e) },
	})
	c.required(s, "DataPoints", seen, len(s.Points))
	return s
}

func (s *ChartSeries) children() []Node { return appendNodes(nil, s.Points) }

// DataPoint holds the values of one point.
type DataPoint struct {
	node
	Values []*DataValue
	Marker *Marker
}

func newDataPoint(c *Compilation, el *element, parent Node) *DataPoint {
	p := &DataPoint{}
	c.init(&p.node, parent, el)
	seen := false
	c.build(p, el, handlers{
		"DataValues": func(e *element) {
			seen = true
			p.Values = list(c, p, e, "DataValue", func(v *element) *DataValue { return newDataValue(c, v, p) })
		},
		"Marker": func(e *element) { p.Marker = newMarker(c, e, p) },
	})
	c.required(p, "DataValues", seen, len(p.Values))
	return p
}

func (p *DataPoint) children() []Node {
	return appendNode(appendNodes(nil, p.Values), p.Marker)
}

// DataValue is one coordinate of a data point.
type DataValue struct {
	node
	Value *Expression
}

func newDataValue(c *Compilation, el *element, parent Node) *DataValue {
	v := &DataValue{}
	c.init(&v.node, parent, el)
	c.build(v, el, handlers{
		"Value": func(e *element) { v.Value = c.expr(v, e, types.TypeVariant) },
	})
	if v.Value == nil {
		c.missing(v, "a Value")
	}
	return v
}

func (v *DataValue) expressions() []*Expression { return exprs(v.Value) }

// Marker is the symbol drawn at a data point.
type Marker struct {
	node
	Type MarkerType
	Size string
}

func newMarker(c *Compilation, el *element, parent Node) *Marker {
	m := &Marker{}
	c.init(&m.node, parent, el)
	c.build(m, el, handlers{
		"Type": func(e *element) { m.Type = markerTypes.parse(c, m, e) },
		"Size": func(e *element) { m.Size = e.value() },
	})
	return m
}

// Axis is the category or value axis of a chart. Its Axis child element
// is unwrapped into the node.
type Axis struct {
	node
	Visible        bool
	Title          *Title
	MajorTickMarks TickMarks
	MinorTickMarks TickMarks
	Min            *Expression
	Max            *Expression
	Style          *Style
}

func (c *Compilation) axis(parent Node, el *element) *Axis {
	a := &Axis{Visible: true}
	c.init(&a.node, parent, el)
	fill := handlers{
		"Visible":        func(e *element) { a.Visible = c.boolValue(a, e, true) },
		"Title":          func(e *element) { a.Title = newTitle(c, e, a) },
		"MajorTickMarks": func(e *element) { a.MajorTickMarks = tickMarks.parse(c, a, e) },
		"MinorTickMarks": func(e *element) { a.MinorTickMarks = tickMarks.parse(c, a, e) },
		"Min":            func(e *element) { a.Min = c.expr(a, e, types.TypeVariant) },
		"Max":            func(e *element) { a.Max = c.expr(a, e, types.TypeVariant) },
		"Style":          func(e *element) { a.Style = newStyle(c, e, a) },
	}
	c.build(a, el, handlers{
		"Axis": func(e *element) { c.build(a, e, fill) },
	})
	return a
}

func (a *Axis) children() []Node {
	return appendNode(appendNode(nil, a.Title), a.Style)
}

func (a *Axis) expressions() []*Expression { return exprs(a.Min, a.Max) }

// Title is a caption of a chart or axis.
type Title struct {
	node
	Caption *Expression
	Style   *Style
}

func newTitle(c *Compilation, el *element, parent Node) *Title {
	t := &Title{}
	c.init(&t.node, parent, el)
	c.build(t, el, handlers{
		"Caption": func(e *element) { t.Caption = c.expr(t, e, types.TypeString) },
		"Style":   func(e *element) { t.Style = newStyle(c, e, t) },
	})
	return t
}

func (t *Title) children() []Node            { return appendNode(nil, t.Style) }
func (t *Title) expressions() []*Expression { return exprs(t.Caption) }

// Legend describes the chart legend.
type Legend struct {
	node
	Visible  bool
	Position LegendPosition
	Style    *Style
}

func newLegend(c *Compilation, el *element, parent Node) *Legend {
	l := &Legend{}
	c.init(&l.node, parent, el)
	c.build(l, el, handlers{
		"Visible":  func(e *element) { l.Visible = c.boolValue(l, e, false) },
		"Position": func(e *element) { l.Position = legendPositions.parse(c, l, e) },
		"Style":    func(e *element) { l.Style = newStyle(c, e, l) },
	})
	return l
}

func (l *Legend) children() []Node { return appendNode(nil, l.Style) }
