package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sandrolain/gordl/pkg/cache"
	"github.com/sandrolain/gordl/pkg/codemod"
	"github.com/sandrolain/gordl/pkg/compiler"
	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/functions"
	"github.com/sandrolain/gordl/pkg/types"
)

type phase uint8

const (
	phaseBuild phase = iota
	phaseResolve
	phaseFrozen
)

// Options configures the compilation of a report definition.
type Options struct {
	// Cache shares parsed expressions between compilations.
	Cache *cache.Cache
	// Functions holds host-registered functions.
	Functions *functions.Registry
	// ExpressionSeverity is the severity of expression compile errors.
	ExpressionSeverity diag.Severity
	// MaxDepth limits expression nesting.
	MaxDepth int
	// Logger for structured logging.
	Logger *slog.Logger
}

// Option configures compilation.
type Option func(*Options)

// WithCache attaches a shared parse cache.
func WithCache(c *cache.Cache) Option {
	return func(opts *Options) {
		opts.Cache = c
	}
}

// WithFunctions makes the functions of r callable from expressions.
func WithFunctions(r *functions.Registry) Option {
	return func(opts *Options) {
		opts.Functions = r
	}
}

// WithExpressionSeverity sets the severity recorded for expressions that
// fail to compile. The default is diag.Recoverable.
func WithExpressionSeverity(s diag.Severity) Option {
	return func(opts *Options) {
		opts.ExpressionSeverity = s
	}
}

// WithMaxDepth sets the maximum expression nesting depth.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = depth
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Compilation is the shared context of one build: the node ID counter, the
// diagnostics sink and the name registries filled from the built tree and
// read while resolving. It is written by a single goroutine and frozen before
// the report is handed out.
type Compilation struct {
	ctx    context.Context
	id     uuid.UUID
	opts   Options
	logger *slog.Logger
	sink   *diag.Sink
	code   *codemod.Set
	comp   *compiler.Compiler
	phase  phase
	nextID int

	dataSources map[string]*DataSource
	dataSets    map[string]*DataSet
	dataSetIDs  map[int]*DataSet
	dataSetList []*DataSet
	groups      map[string]*Grouping
	params      map[string]*ReportParameter
	paramList   []*ReportParameter
	items       map[string]ReportItem
	images      map[string]*EmbeddedImage
}

func newCompilation(ctx context.Context, opts ...Option) *Compilation {
	options := Options{ExpressionSeverity: diag.Recoverable, MaxDepth: 100}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	id := uuid.New()
	logger := options.Logger.With("compilation", id.String())
	code := codemod.NewSet()

	return &Compilation{
		ctx:    ctx,
		id:     id,
		opts:   options,
		logger: logger,
		sink:   diag.NewSink(logger),
		code:   code,
		comp: compiler.New(
			compiler.WithCache(options.Cache),
			compiler.WithFunctions(options.Functions),
			compiler.WithCode(code),
			compiler.WithMaxDepth(options.MaxDepth),
			compiler.WithLogger(logger),
		),
		dataSources: make(map[string]*DataSource),
		dataSets:    make(map[string]*DataSet),
		dataSetIDs:  make(map[int]*DataSet),
		groups:      make(map[string]*Grouping),
		params:      make(map[string]*ReportParameter),
		items:       make(map[string]ReportItem),
		images:      make(map[string]*EmbeddedImage),
	}
}

// ID returns the compilation identifier used in log records.
func (c *Compilation) ID() uuid.UUID {
	return c.id
}

// Diagnostics returns the recorded diagnostics in recording order.
func (c *Compilation) Diagnostics() diag.Diagnostics {
	return c.sink.All()
}

// MaxSeverity returns the highest recorded severity.
func (c *Compilation) MaxSeverity() diag.Severity {
	return c.sink.Max()
}

// Code returns the code modules of the report.
func (c *Compilation) Code() *codemod.Set {
	return c.code
}

// Nodes returns the number of nodes built.
func (c *Compilation) Nodes() int {
	return c.nextID
}

// init assigns the next node ID to n. IDs are strictly increasing in
// construction order and never reused.
func (c *Compilation) init(n *node, parent Node, el *element) {
	if c.phase != phaseBuild {
		panic(fmt.Sprintf("report: node %s built after the structural build", el.name))
	}
	c.nextID++
	*n = node{
		id:      c.nextID,
		comp:    c,
		parent:  parent,
		element: el.name,
		pos:     el.pos,
	}
}

func (c *Compilation) freeze() {
	c.phase = phaseFrozen
	c.sink.Freeze()
}

func key(name string) string {
	return strings.ToLower(name)
}

func (c *Compilation) registerDataSource(ds *DataSource) {
	if prev, dup := c.dataSources[key(ds.Name)]; dup {
		c.duplicate(ds, "DataSource", ds.Name, prev)
		return
	}
	c.dataSources[key(ds.Name)] = ds
}

func (c *Compilation) registerDataSet(ds *DataSet) {
	if prev, dup := c.dataSets[key(ds.Name)]; dup {
		c.duplicate(ds, "DataSet", ds.Name, prev)
		return
	}
	c.dataSets[key(ds.Name)] = ds
	c.dataSetIDs[ds.ID()] = ds
	c.dataSetList = append(c.dataSetList, ds)
}

// registerTree registers the named groupings and report items of the
// finished tree. Nodes replaced by a later sibling element during the build
// are no longer reachable and stay unregistered.
func (c *Compilation) registerTree(root Node) {
	Walk(root, func(n Node) bool {
		switch n := n.(type) {
		case *Grouping:
			if n.Name != "" {
				c.registerGroup(n)
			}
		case ReportItem:
			c.registerItem(n)
		}
		return true
	})
}

func (c *Compilation) registerGroup(g *Grouping) {
	if prev, dup := c.groups[key(g.Name)]; dup {
		c.duplicate(g, "Grouping", g.Name, prev)
		return
	}
	c.groups[key(g.Name)] = g
}

func (c *Compilation) registerParameter(p *ReportParameter) {
	if prev, dup := c.params[key(p.Name)]; dup {
		c.duplicate(p, "ReportParameter", p.Name, prev)
		return
	}
	p.slot = len(c.paramList)
	c.params[key(p.Name)] = p
	c.paramList = append(c.paramList, p)
}

func (c *Compilation) registerItem(it ReportItem) {
	name := it.ItemName()
	if name == "" {
		return
	}
	if prev, dup := c.items[key(name)]; dup {
		c.duplicate(it, "report item", name, prev)
		return
	}
	c.items[key(name)] = it
}

func (c *Compilation) registerImage(img *EmbeddedImage) {
	if prev, dup := c.images[key(img.Name)]; dup {
		c.duplicate(img, "EmbeddedImage", img.Name, prev)
		return
	}
	c.images[key(img.Name)] = img
}

// registerCode compiles the WebAssembly binary of m into the code set.
func (c *Compilation) registerCode(m *CodeModule) {
	warnings, err := c.code.Add(c.ctx, m.Name, m.Wasm)
	if err != nil {
		c.report(diag.Recoverable, types.ErrInvalidModule, m, m.Pos(), "%v", errorMessage(err))
		return
	}
	for _, w := range warnings {
		code := types.ErrUnsupportedSig
		if te, ok := w.(*types.Error); ok {
			code = te.Code
		}
		c.report(diag.Ignorable, code, m, m.Pos(), "%v", errorMessage(w))
	}
}

// dataSet resolves the dataset a data region names. An empty name selects
// the only dataset of the report.
func (c *Compilation) dataSet(name string) (*DataSet, bool) {
	if name == "" {
		if len(c.dataSetList) == 1 {
			return c.dataSetList[0], true
		}
		return nil, false
	}
	ds, ok := c.dataSets[key(name)]
	return ds, ok
}

func errorMessage(err error) string {
	if te, ok := err.(*types.Error); ok {
		return te.Message
	}
	return err.Error()
}
