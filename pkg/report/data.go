package report

import (
	"slices"

	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/types"
)

// DataSource names a connection datasets query through.
type DataSource struct {
	node
	Name       string
	Connection *ConnectionProperties
}

func newDataSource(c *Compilation, el *element, parent Node) *DataSource {
	ds := &DataSource{}
	c.init(&ds.node, parent, el)
	ds.Name = c.name(ds, el, true)
	c.build(ds, el, handlers{
		"ConnectionProperties": func(ch *element) { ds.Connection = newConnectionProperties(c, ch, ds) },
	}, "Name")
	if ds.Connection == nil {
		c.missing(ds, "ConnectionProperties")
	}
	if ds.Name != "" {
		c.registerDataSource(ds)
	}
	return ds
}

func (ds *DataSource) children() []Node {
	return appendNode(nil, ds.Connection)
}

// ConnectionProperties describes how to reach a data source.
type ConnectionProperties struct {
	node
	DataProvider  string
	ConnectString *Expression
}

func newConnectionProperties(c *Compilation, el *element, parent Node) *ConnectionProperties {
	cp := &ConnectionProperties{}
	c.init(&cp.node, parent, el)
	c.build(cp, el, handlers{
		"DataProvider":  func(ch *element) { cp.DataProvider = ch.value() },
		"ConnectString": func(ch *element) { cp.ConnectString = c.expr(cp, ch, types.TypeString) },
	})
	if cp.DataProvider == "" {
		c.missing(cp, "a DataProvider")
	}
	return cp
}

func (cp *ConnectionProperties) expressions() []*Expression {
	return exprs(cp.ConnectString)
}

// DataSet is a named query result with a fixed list of fields. Rows of the
// dataset carry their values in field order.
type DataSet struct {
	node
	Name    string
	Query   *Query
	Fields  []*Field
	Filters []*Filter

	fieldIndex map[string]int
}

func newDataSet(c *Compilation, el *element, parent Node) *DataSet {
	ds := &DataSet{fieldIndex: make(map[string]int)}
	c.init(&ds.node, parent, el)
	ds.Name = c.name(ds, el, true)
	c.build(ds, el, handlers{
		"Query": func(ch *element) { ds.Query = newQuery(c, ch, ds) },
		"Fields": func(ch *element) {
			ds.Fields = append(ds.Fields, list(c, ds, ch, "Field", func(f *element) *Field { return newField(c, f, ds) })...)
		},
		"Filters": func(ch *element) {
			ds.Filters = append(ds.Filters, list(c, ds, ch, "Filter", func(f *element) *Filter { return newFilter(c, f, ds) })...)
		},
	}, "Name")
	ds.Fields = slices.Clip(ds.Fields)
	ds.Filters = slices.Clip(ds.Filters)
	if ds.Query == nil {
		c.missing(ds, "a Query")
	}
	for i, f := range ds.Fields {
		if f.Name == "" {
			continue
		}
		if prev, dup := ds.fieldIndex[key(f.Name)]; dup {
			c.duplicate(f, "Field", f.Name, ds.Fields[prev])
			continue
		}
		ds.fieldIndex[key(f.Name)] = i
	}
	if ds.Name != "" {
		c.registerDataSet(ds)
	}
	return ds
}

// FieldIndex returns the position of field name in the rows of ds.
func (ds *DataSet) FieldIndex(name string) (int, bool) {
	i, ok := ds.fieldIndex[key(name)]
	return i, ok
}

// FieldNames returns the field names in row order.
func (ds *DataSet) FieldNames() []string {
	out := make([]string, len(ds.Fields))
	for i, f := range ds.Fields {
		out[i] = f.Name
	}
	return out
}

// Scope returns the aggregation scope of the whole dataset.
func (ds *DataSet) Scope() types.Scope {
	return types.Scope{Kind: types.ScopeDataSet, Name: ds.Name, ID: ds.ID(), DataSet: ds.ID()}
}

func (ds *DataSet) boundDataSet() (*DataSet, bool) { return ds, true }

func (ds *DataSet) aggScope() (types.Scope, bool) { return ds.Scope(), true }

func (ds *DataSet) children() []Node {
	out := appendNode(nil, ds.Query)
	out = appendNodes(out, ds.Fields)
	return appendNodes(out, ds.Filters)
}

// Query is the command a dataset runs against its data source.
type Query struct {
	node
	DataSourceName string
	CommandText    *Expression
	CommandType    CommandType
}

func newQuery(c *Compilation, el *element, parent Node) *Query {
	q := &Query{}
	c.init(&q.node, parent, el)
	c.build(q, el, handlers{
		"DataSourceName": func(ch *element) { q.DataSourceName = ch.value() },
		"CommandText":    func(ch *element) { q.CommandText = c.expr(q, ch, types.TypeString) },
		"CommandType":    func(ch *element) { q.CommandType = commandTypes.parse(c, q, ch) },
	})
	if q.DataSourceName == "" {
		c.missing(q, "a DataSourceName")
	}
	if q.CommandText == nil {
		c.missing(q, "a CommandText")
	}
	return q
}

func (q *Query) expressions() []*Expression {
	return exprs(q.CommandText)
}

func (q *Query) validate() {
	if q.DataSourceName == "" {
		return
	}
	if _, ok := q.comp.dataSources[key(q.DataSourceName)]; !ok {
		q.comp.report(diag.Recoverable, types.ErrUnknownSource, q, q.pos,
			"data source %q is not defined", q.DataSourceName)
	}
}

// Field is a column of a dataset: read from the query result (DataField)
// or calculated per row (Value).
type Field struct {
	node
	Name      string
	DataField string
	Value     *Expression
	TypeName  string
}

func newField(c *Compilation, el *element, parent Node) *Field {
	f := &Field{}
	c.init(&f.node, parent, el)
	f.Name = c.name(f, el, true)
	c.build(f, el, handlers{
		"DataField": func(ch *element) { f.DataField = ch.value() },
		"Value":     func(ch *element) { f.Value = c.expr(f, ch, types.TypeVariant) },
		"TypeName":  func(ch *element) { f.TypeName = ch.value() },
	}, "Name")
	if f.DataField == "" && f.Value == nil {
		c.missing(f, "a DataField or a Value")
	}
	return f
}

// Calculated reports whether the field is computed from an expression.
func (f *Field) Calculated() bool {
	return f.Value != nil
}

func (f *Field) expressions() []*Expression {
	return exprs(f.Value)
}

// ReportParameter is a value supplied by the caller of a report run.
type ReportParameter struct {
	node
	Name       string
	DataType   DataType
	Prompt     string
	Nullable   bool
	AllowBlank bool
	Defaults   []*Expression

	slot int
}

func newReportParameter(c *Compilation, el *element, parent Node) *ReportParameter {
	p := &ReportParameter{}
	c.init(&p.node, parent, el)
	p.Name = c.name(p, el, true)
	typed := false
	c.build(p, el, handlers{
		"DataType": func(ch *element) {
			p.DataType = dataTypes.parse(c, p, ch)
			typed = true
		},
		"Prompt":     func(ch *element) { p.Prompt = ch.value() },
		"Nullable":   func(ch *element) { p.Nullable = c.boolValue(p, ch, false) },
		"AllowBlank": func(ch *element) { p.AllowBlank = c.boolValue(p, ch, false) },
		"DefaultValue": func(ch *element) {
			c.build(p, ch, handlers{
				"Values": func(vs *element) {
					p.Defaults = append(p.Defaults, list(c, p, vs, "Value", func(v *element) *Expression {
						return c.expr(p, v, types.TypeVariant)
					})...)
				},
			})
		},
	}, "Name")
	p.Defaults = slices.Clip(p.Defaults)
	if !typed {
		c.missing(p, "a DataType")
	}
	for _, e := range p.Defaults {
		e.Type = p.DataType.ValueType()
	}
	if p.Name != "" {
		c.registerParameter(p)
	}
	return p
}

// Slot returns the index of the parameter value in an execution.
func (p *ReportParameter) Slot() int {
	return p.slot
}

func (p *ReportParameter) expressions() []*Expression {
	return p.Defaults
}

// EmbeddedImage is image data stored in the definition.
type EmbeddedImage struct {
	node
	Name     string
	MIMEType string
	Data     []byte
}

func newEmbeddedImage(c *Compilation, el *element, parent Node) *EmbeddedImage {
	img := &EmbeddedImage{}
	c.init(&img.node, parent, el)
	img.Name = c.name(img, el, true)
	seen := false
	c.build(img, el, handlers{
		"MIMEType": func(ch *element) { img.MIMEType = ch.value() },
		"ImageData": func(ch *element) {
			seen = true
			img.Data = c.base64Value(img, ch)
		},
	}, "Name")
	if img.MIMEType == "" {
		c.missing(img, "a MIMEType")
	}
	if !seen {
		c.missing(img, "ImageData")
	}
	if img.Name != "" {
		c.registerImage(img)
	}
	return img
}

// CodeModule is a WebAssembly binary whose exported numeric functions are
// callable from expressions as Code.name(...).
type CodeModule struct {
	node
	Name string
	Wasm []byte
}

func newCodeModule(c *Compilation, el *element, parent Node) *CodeModule {
	m := &CodeModule{}
	c.init(&m.node, parent, el)
	m.Name = c.name(m, el, true)
	seen := false
	c.build(m, el, handlers{
		"Wasm": func(ch *element) {
			seen = true
			m.Wasm = c.base64Value(m, ch)
		},
	}, "Name")
	if !seen {
		c.missing(m, "a Wasm binary")
	}
	if m.Wasm != nil {
		c.registerCode(m)
	}
	return m
}
