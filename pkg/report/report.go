// Package report builds report definitions from their XML source.
//
// A definition is read in two phases. The structural build walks the
// document once, creating one node per recognised element, assigning node
// IDs in construction order and registering named entities (datasets,
// groupings, parameters, report items, images, code modules) with the
// Compilation. Only after the whole tree exists does the final pass visit
// every node once to check cross references and compile expressions, so a
// reference may point anywhere in the document.
//
// Problems never abort the build. Each one is recorded as a diagnostic
// with a severity and the affected subtree is degraded:
//
//	1  unknown element or enumeration literal, default substituted
//	4  invalid value, unresolved reference or failed expression
//	8  required element missing
//	12 document could not be read (returned as *SourceError)
//
// # Example
//
//	rep, err := report.Parse(ctx, f, report.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer rep.Close(ctx)
//	for _, d := range rep.Diagnostics() {
//	    fmt.Println(d)
//	}
package report

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/types"
)

// Report is the root of a built report definition. After Parse returns it
// is immutable and safe to share between goroutines.
type Report struct {
	node
	Name           string
	Description    string
	Author         string
	Width          string
	Language       *Expression
	DataSources    []*DataSource
	DataSets       []*DataSet
	Parameters     []*ReportParameter
	EmbeddedImages []*EmbeddedImage
	CodeModules    []*CodeModule
	PageHeader     *PageSection
	Body           *Body
	PageFooter     *PageSection
}

// Parse reads a report definition from r, builds it and resolves it.
//
// The returned error is non-nil only when the source is not a readable
// document (*SourceError) or ctx is done. Every other problem is recorded
// in the diagnostics of the report.
func Parse(ctx context.Context, r io.Reader, opts ...Option) (*Report, error) {
	start := time.Now()
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	if root.name != "Report" {
		return nil, &SourceError{
			Pos: root.pos,
			Err: types.NewError(types.ErrUnexpectedRoot, fmt.Sprintf("root element is %s, want Report", root.name), -1),
		}
	}

	c := newCompilation(ctx, opts...)
	rep := newReport(c, root)
	if err := ctx.Err(); err != nil {
		_ = c.code.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	c.registerTree(rep)
	c.phase = phaseResolve
	finalPass(rep)
	c.freeze()

	c.logger.Info("report compiled",
		"nodes", c.nextID,
		"expressions", len(rep.Expressions()),
		"diagnostics", c.sink.Len(),
		"max_severity", int(c.sink.Max()),
		"duration", time.Since(start),
	)
	return rep, nil
}

func newReport(c *Compilation, el *element) *Report {
	rep := &Report{}
	c.init(&rep.node, nil, el)
	rep.Name = c.name(rep, el, false)
	c.build(rep, el, handlers{
		"Description": func(ch *element) { rep.Description = ch.value() },
		"Author":      func(ch *element) { rep.Author = ch.value() },
		"Width":       func(ch *element) { rep.Width = ch.value() },
		"Language":    func(ch *element) { rep.Language = c.expr(rep, ch, types.TypeString) },
		"DataSources": func(ch *element) {
			rep.DataSources = append(rep.DataSources, list(c, rep, ch, "DataSource", func(e *element) *DataSource {
				return newDataSource(c, e, rep)
			})...)
		},
		"DataSets": func(ch *element) {
			rep.DataSets = append(rep.DataSets, list(c, rep, ch, "DataSet", func(e *element) *DataSet {
				return newDataSet(c, e, rep)
			})...)
		},
		"ReportParameters": func(ch *element) {
			rep.Parameters = append(rep.Parameters, list(c, rep, ch, "ReportParameter", func(e *element) *ReportParameter {
				return newReportParameter(c, e, rep)
			})...)
		},
		"EmbeddedImages": func(ch *element) {
			rep.EmbeddedImages = append(rep.EmbeddedImages, list(c, rep, ch, "EmbeddedImage", func(e *element) *EmbeddedImage {
				return newEmbeddedImage(c, e, rep)
			})...)
		},
		"CodeModules": func(ch *element) {
			rep.CodeModules = append(rep.CodeModules, list(c, rep, ch, "CodeModule", func(e *element) *CodeModule {
				return newCodeModule(c, e, rep)
			})...)
		},
		"PageHeader": func(ch *element) { rep.PageHeader = newPageSection(c, ch, rep) },
		"Body":       func(ch *element) { rep.Body = newBody(c, ch, rep) },
		"PageFooter": func(ch *element) { rep.PageFooter = newPageSection(c, ch, rep) },
	}, "Name")
	rep.DataSources = slices.Clip(rep.DataSources)
	rep.DataSets = slices.Clip(rep.DataSets)
	rep.Parameters = slices.Clip(rep.Parameters)
	rep.EmbeddedImages = slices.Clip(rep.EmbeddedImages)
	rep.CodeModules = slices.Clip(rep.CodeModules)
	if rep.Body == nil {
		c.missing(rep, "a Body")
	}
	return rep
}

func (rep *Report) children() []Node {
	out := appendNodes(nil, rep.DataSources)
	out = appendNodes(out, rep.DataSets)
	out = appendNodes(out, rep.Parameters)
	out = appendNodes(out, rep.EmbeddedImages)
	out = appendNodes(out, rep.CodeModules)
	out = appendNode(out, rep.PageHeader)
	out = appendNode(out, rep.Body)
	return appendNode(out, rep.PageFooter)
}

func (rep *Report) expressions() []*Expression { return exprs(rep.Language) }

// Compilation returns the compilation the report was built by.
func (rep *Report) Compilation() *Compilation {
	return rep.comp
}

// Diagnostics returns the diagnostics recorded while building the report.
func (rep *Report) Diagnostics() diag.Diagnostics {
	return rep.comp.sink.All()
}

// MaxSeverity returns the highest severity recorded, or 0.
func (rep *Report) MaxSeverity() diag.Severity {
	return rep.comp.sink.Max()
}

// DataSet returns the dataset registered under name.
func (rep *Report) DataSet(name string) (*DataSet, bool) {
	ds, ok := rep.comp.dataSets[key(name)]
	return ds, ok
}

// Parameter returns the parameter registered under name.
func (rep *Report) Parameter(name string) (*ReportParameter, bool) {
	p, ok := rep.comp.params[key(name)]
	return p, ok
}

// ParameterSlots returns the registered parameters in slot order. Unlike
// Parameters it leaves out duplicate definitions.
func (rep *Report) ParameterSlots() []*ReportParameter {
	return slices.Clone(rep.comp.paramList)
}

// Item returns the report item registered under name.
func (rep *Report) Item(name string) (ReportItem, bool) {
	it, ok := rep.comp.items[key(name)]
	return it, ok
}

// Grouping returns the grouping registered under name.
func (rep *Report) Grouping(name string) (*Grouping, bool) {
	g, ok := rep.comp.groups[key(name)]
	return g, ok
}

// Expressions returns every expression of the document tree in document
// order.
func (rep *Report) Expressions() []*Expression {
	var out []*Expression
	Walk(rep, func(n Node) bool {
		out = append(out, n.expressions()...)
		return true
	})
	return out
}

// Node returns the node with the given ID.
func (rep *Report) Node(id int) (Node, bool) {
	var found Node
	Walk(rep, func(n Node) bool {
		if n.ID() == id {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Close releases the compiled code modules.
func (rep *Report) Close(ctx context.Context) error {
	return rep.comp.code.Close(ctx)
}
