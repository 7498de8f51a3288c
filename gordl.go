// Package gordl compiles report definitions and prepares them for
// rendering.
//
// A report definition is an XML document describing datasets, parameters,
// groupings and the layout of report items whose values are expressions.
// Compiling a definition builds its document tree, resolves every cross
// reference and binds every expression to fields, parameters, aggregates
// and globals. Problems are collected as diagnostics with a numeric
// severity instead of aborting the compilation.
//
// # Quick Start
//
//	rep, err := gordl.CompileFile(ctx, "sales.rdl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rep.Close(ctx)
//
//	exec, err := gordl.NewExecution(ctx, rep, map[string]any{"Year": 2024})
//	rows := runtime.NewRowCollection(ds.Scope(), ds.FieldNames())
//	rows.Append(10.0, "E")
//	v, err := evaluator.New().Eval(ctx, expr.Program(), rows.At(0), exec)
//
// # Rejecting documents
//
// By default any readable document compiles. WithFailSeverity turns
// diagnostics at or above a severity into a *diag.RejectedError:
//
//	rep, err := gordl.Compile(ctx, r, gordl.WithFailSeverity(diag.Degraded))
//
// # More Information
//
//   - Document tree: github.com/sandrolain/gordl/pkg/report
//   - Expressions: github.com/sandrolain/gordl/pkg/compiler
//   - Evaluation: github.com/sandrolain/gordl/pkg/evaluator
//   - Diagnostics: github.com/sandrolain/gordl/pkg/diag
package gordl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sandrolain/gordl/pkg/cache"
	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/evaluator"
	"github.com/sandrolain/gordl/pkg/functions"
	"github.com/sandrolain/gordl/pkg/report"
	"github.com/sandrolain/gordl/pkg/runtime"
	"github.com/sandrolain/gordl/pkg/types"
)

// Version returns the current version of gordl.
func Version() string {
	return "v0.1.0-dev"
}

// SourceError reports a definition that is not a readable XML document.
type SourceError = report.SourceError

// Options configures Compile.
type Options struct {
	// FailSeverity rejects documents whose maximum diagnostic severity
	// reaches it. Zero accepts every readable document.
	FailSeverity diag.Severity

	report []report.Option
}

// Option configures compilation.
type Option func(*Options)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.report = append(opts.report, report.WithLogger(logger))
	}
}

// WithCache shares parsed expressions between compilations.
func WithCache(c *cache.Cache) Option {
	return func(opts *Options) {
		opts.report = append(opts.report, report.WithCache(c))
	}
}

// WithFunctions makes host functions callable from expressions.
func WithFunctions(r *functions.Registry) Option {
	return func(opts *Options) {
		opts.report = append(opts.report, report.WithFunctions(r))
	}
}

// WithExpressionSeverity sets the severity of expression compile errors.
func WithExpressionSeverity(s diag.Severity) Option {
	return func(opts *Options) {
		opts.report = append(opts.report, report.WithExpressionSeverity(s))
	}
}

// WithMaxDepth sets the maximum expression nesting depth.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		opts.report = append(opts.report, report.WithMaxDepth(depth))
	}
}

// WithFailSeverity rejects documents whose maximum diagnostic severity is
// at least s.
func WithFailSeverity(s diag.Severity) Option {
	return func(opts *Options) {
		opts.FailSeverity = s
	}
}

// Compile reads, builds and resolves the report definition in r.
//
// The error is a *SourceError when r is not a readable document and a
// *diag.RejectedError when WithFailSeverity is set and reached; in the
// latter case the report is returned as well so that callers can inspect
// it.
func Compile(ctx context.Context, r io.Reader, opts ...Option) (*report.Report, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	rep, err := report.Parse(ctx, r, options.report...)
	if err != nil {
		return nil, err
	}
	if options.FailSeverity > 0 && rep.MaxSeverity() >= options.FailSeverity {
		return rep, &diag.RejectedError{Threshold: options.FailSeverity, Diagnostics: rep.Diagnostics()}
	}
	return rep, nil
}

// CompileFile compiles the report definition stored at path.
func CompileFile(ctx context.Context, path string, opts ...Option) (*report.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report definition: %w", err)
	}
	defer f.Close()
	return Compile(ctx, f, opts...)
}

// MustCompile is like Compile but panics if the document cannot be read
// or is rejected.
func MustCompile(ctx context.Context, r io.Reader, opts ...Option) *report.Report {
	rep, err := Compile(ctx, r, opts...)
	if err != nil {
		panic(fmt.Sprintf("gordl: Compile: %v", err))
	}
	return rep
}

// NewExecution prepares the execution state of one rendering run of rep.
//
// values holds parameter values by name (case insensitive). A parameter
// without a value takes its first default value or Nothing. The report
// name global is set from the Name attribute of the report when present.
// The code modules of rep are instantiated for the run; the caller closes
// the execution when done.
func NewExecution(ctx context.Context, rep *report.Report, values map[string]any, opts ...runtime.ExecutionOption) (*runtime.Execution, error) {
	given := make(map[string]any, len(values))
	for name, v := range values {
		if _, ok := rep.Parameter(name); !ok {
			return nil, fmt.Errorf("parameter %q is not defined by the report", name)
		}
		given[strings.ToLower(name)] = v
	}

	ev := evaluator.New()
	bootstrap := runtime.NewExecution()
	slots := rep.ParameterSlots()
	params := make([]any, 0, len(slots))
	for _, p := range slots {
		if v, ok := given[strings.ToLower(p.Name)]; ok {
			params = append(params, v)
			continue
		}
		var v any
		if len(p.Defaults) > 0 {
			var err error
			if v, err = ev.Eval(ctx, p.Defaults[0].Program(), nil, bootstrap); err != nil {
				return nil, fmt.Errorf("default value of parameter %q: %w", p.Name, err)
			}
		}
		params = append(params, v)
	}

	base := []runtime.ExecutionOption{
		runtime.WithParameters(params...),
		runtime.WithCode(rep.Compilation().Code()),
	}
	if rep.Name != "" {
		base = append(base, runtime.WithGlobal(types.GlobalReportName, rep.Name))
	}
	return runtime.NewExecution(append(base, opts...)...), nil
}
