// Package evaluator evaluates compiled report expressions against runtime
// rows.
//
// The evaluator receives a *compiler.Program, whose references are already
// bound to column indexes, parameter slots, global slots and aggregate scope
// descriptors, and walks it for one row of one execution. It never resolves
// a name. It supports:
//   - VB-style arithmetic, comparison, concatenation and logic operators
//   - the built-in scalar function set, custom and code module functions
//   - aggregates over group entries, memoized per execution
//   - partitioning rows into group entries
//
// # Example
//
//	ev := evaluator.New()
//	exec := runtime.NewExecution(runtime.WithParameters(2024))
//	v, err := ev.Eval(ctx, prog, row, exec)
//
// # Errors
//
// Failed programs and runtime faults (type mismatch, division by zero)
// evaluate to the neutral value of the declared type. With WithStrictErrors
// they are returned as *types.Error instead.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandrolain/gordl/pkg/compiler"
	"github.com/sandrolain/gordl/pkg/runtime"
	"github.com/sandrolain/gordl/pkg/types"
)

// Evaluator evaluates compiled programs. An Evaluator is stateless and safe
// for concurrent use; per-run state lives in runtime.Execution.
type Evaluator struct {
	opts   EvalOptions
	logger *slog.Logger
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// StrictErrors makes Eval return errors instead of substituting the
	// neutral value.
	StrictErrors bool
	// Now returns the current time for Now() and Today(). Defaults to
	// time.Now.
	Now func() time.Time
	// Logger for structured logging.
	Logger *slog.Logger
}

// EvalOption configures evaluator behavior.
type EvalOption func(*EvalOptions)

// New creates a new Evaluator.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Evaluator{opts: options, logger: options.Logger}
}

// WithStrictErrors enables or disables strict error reporting.
func WithStrictErrors(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.StrictErrors = enabled
	}
}

// WithClock sets the time source of Now() and Today().
func WithClock(now func() time.Time) EvalOption {
	return func(opts *EvalOptions) {
		opts.Now = now
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// frame is the evaluation state of one Eval call.
type frame struct {
	row  *runtime.Row
	exec *runtime.Execution
}

// Eval evaluates prog for row and returns the value converted to the
// program's declared type. row may be nil for programs that are not row
// scoped, such as page header expressions.
func (e *Evaluator) Eval(ctx context.Context, prog *compiler.Program, row *runtime.Row, exec *runtime.Execution) (any, error) {
	if prog == nil {
		return nil, fmt.Errorf("invalid program")
	}
	if prog.Failed() {
		if e.opts.StrictErrors {
			return prog.Type().Neutral(), types.NewError(types.ErrErrorProgram,
				fmt.Sprintf("expression %q failed to compile", prog.Source()), -1).WithCause(prog.Errors()[0])
		}
		return prog.Type().Neutral(), nil
	}
	if prog.IsConstant() {
		return prog.Constant(), nil
	}
	if exec == nil {
		exec = runtime.NewExecution(runtime.WithLogger(e.logger))
	}

	v, err := e.eval(ctx, prog.Root(), frame{row: row, exec: exec})
	if err == nil {
		v, err = coerce(v, prog.Type())
	}
	if err != nil {
		if e.opts.StrictErrors {
			return prog.Type().Neutral(), err
		}
		exec.Logger().Debug("expression evaluated to neutral value", "source", prog.Source(), "error", err)
		return prog.Type().Neutral(), nil
	}
	return v, nil
}

// EvalMany evaluates each program for row. Results are in program order.
func (e *Evaluator) EvalMany(ctx context.Context, progs []*compiler.Program, row *runtime.Row, exec *runtime.Execution) ([]any, error) {
	out := make([]any, len(progs))
	for i, p := range progs {
		v, err := e.Eval(ctx, p, row, exec)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Evaluator) eval(ctx context.Context, n compiler.Node, f frame) (any, error) {
	switch n := n.(type) {
	case *compiler.Literal:
		return n.Value, nil

	case *compiler.FieldRef:
		if f.row == nil {
			return nil, types.NewError(types.ErrScopeNotActive, fmt.Sprintf("Fields!%s evaluated without a current row", n.Name), n.Pos())
		}
		return f.row.Value(n.Index), nil

	case *compiler.ParamRef:
		return f.exec.Parameter(n.Slot), nil

	case *compiler.GlobalRef:
		return f.exec.Global(n.Global), nil

	case *compiler.ItemRef:
		return f.exec.Item(n.ID), nil

	case *compiler.Unary:
		x, err := e.eval(ctx, n.X, f)
		if err != nil {
			return nil, err
		}
		return unary(n, x)

	case *compiler.Binary:
		return e.evalBinary(ctx, n, f)

	case *compiler.Call:
		return e.evalBuiltin(ctx, n, f)

	case *compiler.CustomCall:
		args, err := e.evalArgs(ctx, n.Args, f)
		if err != nil {
			return nil, err
		}
		v, err := n.Def.Fn(ctx, args...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Def.Name, err)
		}
		return v, nil

	case *compiler.CodeCall:
		return e.evalCode(ctx, n, f)

	case *compiler.Aggregate:
		return e.evalAggregate(ctx, n, f)

	default:
		return nil, fmt.Errorf("unsupported node %T", n)
	}
}

func (e *Evaluator) evalArgs(ctx context.Context, nodes []compiler.Node, f frame) ([]any, error) {
	args := make([]any, len(nodes))
	for i, a := range nodes {
		v, err := e.eval(ctx, a, f)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (e *Evaluator) evalCode(ctx context.Context, n *compiler.CodeCall, f frame) (any, error) {
	args := make([]float64, len(n.Args))
	for i, a := range n.Args {
		v, err := e.eval(ctx, a, f)
		if err != nil {
			return nil, err
		}
		x, ok := toFloat(v)
		if !ok {
			return nil, mismatch(a.Pos(), "Code.%s argument %d: %s is not numeric", n.Fn.Name, i+1, describe(v))
		}
		args[i] = x
	}
	r, err := f.exec.CallCode(ctx, n.Fn, args)
	if err != nil {
		var te *types.Error
		if errors.As(err, &te) && te.Position < 0 {
			te.Position = n.Pos()
		}
		return nil, err
	}
	return r, nil
}

func mismatch(pos int, format string, args ...any) error {
	return types.NewError(types.ErrTypeMismatch, fmt.Sprintf(format, args...), pos)
}
