// Package compiler turns expression source text into bound programs.
//
// Compilation parses the formula, resolves every symbolic reference against
// an Env describing where the expression sits in the report (fields to
// column indexes, parameters to slots, aggregates to scope descriptors,
// globals to fixed slots) and checks that row-scoped references only occur
// where a row exists. Failures never abort: the result is a failed Program
// whose value is the neutral value of the declared type.
//
// # Example
//
//	c := compiler.New(compiler.WithCache(cache.New(512)))
//	prog := c.Compile("=Sum(Fields!Amount.Value)", types.TypeFloat, env)
//	if prog.Failed() {
//	    for _, err := range prog.Errors() { log.Println(err) }
//	}
package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sandrolain/gordl/pkg/cache"
	"github.com/sandrolain/gordl/pkg/codemod"
	"github.com/sandrolain/gordl/pkg/functions"
	"github.com/sandrolain/gordl/pkg/parser"
	"github.com/sandrolain/gordl/pkg/types"
)

// Env describes the names visible at the node hosting an expression.
type Env interface {
	// DataSet returns the scope of the dataset bound to the nearest
	// enclosing data region.
	DataSet() (types.Scope, bool)
	// Field resolves a column of the dataset with node ID dataSet to its
	// positional index.
	Field(dataSet int, name string) (int, bool)
	// Parameter resolves a report parameter to its slot.
	Parameter(name string) (int, bool)
	// ReportItem resolves a named report item to its node ID.
	ReportItem(name string) (int, bool)
	// Scope returns the default aggregation scope: the nearest enclosing
	// group, else the dataset root, else the report.
	Scope() types.Scope
	// NamedScope resolves a group or dataset name given as an explicit
	// aggregate scope.
	NamedScope(name string) (types.Scope, bool)
	// RowContext reports whether a current row exists where the expression
	// is evaluated. It is false inside page headers and footers.
	RowContext() bool
}

// Compiler compiles expressions. A Compiler is immutable and safe for
// concurrent use.
type Compiler struct {
	opts   Options
	logger *slog.Logger
}

// Options configures a Compiler.
type Options struct {
	// Cache shares parsed ASTs between expressions and compilations.
	Cache *cache.Cache
	// Functions holds host-registered functions.
	Functions *functions.Registry
	// Code holds the code modules callable as Code.name(...).
	Code *codemod.Set
	// MaxDepth limits expression nesting.
	MaxDepth int
	// Logger for structured logging.
	Logger *slog.Logger
}

// Option configures compiler behavior.
type Option func(*Options)

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	options := Options{MaxDepth: 100}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Compiler{opts: options, logger: options.Logger}
}

// WithCache attaches a parse cache.
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

// WithCode makes the exports of s callable as Code.name(...).
func WithCode(s *codemod.Set) Option {
	return func(opts *Options) {
		opts.Code = s
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

// Compile compiles source, declared to produce typ, in env.
//
// A source not starting with '=' is a constant of type typ. Error positions
// are byte offsets into source.
func (c *Compiler) Compile(source string, typ types.ValueType, env Env) *Program {
	prog := &Program{source: source, typ: typ}

	trimmed := strings.TrimLeft(source, " \t\r\n")
	if !strings.HasPrefix(trimmed, "=") {
		prog.constant = true
		v, ok := typ.ParseConstant(source)
		if !ok {
			prog.errs = append(prog.errs, types.NewError(types.ErrInvalidValue,
				fmt.Sprintf("%q is not a valid %s constant", source, typ), 0))
			return prog
		}
		prog.value = v
		return prog
	}

	offset := len(source) - len(trimmed) + 1
	formula := trimmed[1:]

	expr, err := c.parse(formula)
	if err != nil {
		prog.errs = append(prog.errs, shift(err, offset))
		return prog
	}

	b := &binder{c: c, env: env, prog: prog, offset: offset, dataSet: -1}
	root := b.bind(expr.AST())
	if len(prog.errs) > 0 {
		c.logger.Debug("expression failed to compile", "source", source, "errors", len(prog.errs))
		return prog
	}
	prog.root = root
	return prog
}

// Parse parses formula (the text after '=') without binding it.
func (c *Compiler) Parse(formula string) (*types.Expression, error) {
	return c.parse(formula)
}

func (c *Compiler) parse(formula string) (*types.Expression, error) {
	parse := func(s string) (*types.Expression, error) {
		return parser.Compile(s, parser.WithMaxDepth(c.opts.MaxDepth))
	}
	if c.opts.Cache != nil {
		return c.opts.Cache.GetOrParse(formula, parse)
	}
	return parse(formula)
}

// shift converts a parse error to a *types.Error positioned in the full
// source.
func shift(err error, offset int) *types.Error {
	var te *types.Error
	if !errors.As(err, &te) {
		return types.NewError(types.ErrSyntaxError, err.Error(), offset).WithCause(err)
	}
	out := *te
	out.Position += offset
	return &out
}
