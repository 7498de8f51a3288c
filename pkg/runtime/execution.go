package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandrolain/gordl/pkg/codemod"
	"github.com/sandrolain/gordl/pkg/types"
)

// Execution is the mutable state of one rendering run: parameter values,
// global slots, rendered report item values, dataset collections and the
// aggregate memo. An Execution may be shared by the workers of one run; all
// methods are safe for concurrent use.
type Execution struct {
	id     uuid.UUID
	logger *slog.Logger

	mu       sync.RWMutex
	params   []any
	globals  [types.NumGlobals]any
	items    map[int]any
	dataSets map[int]*RowCollection

	memoMu sync.Mutex
	memo   map[memoKey]any

	codeMu sync.Mutex
	code   *codemod.Instances
}

type memoKey struct {
	node  any
	entry *GroupEntry
}

// ExecutionOption configures an Execution.
type ExecutionOption func(*Execution)

// WithParameters sets the parameter values by slot.
func WithParameters(values ...any) ExecutionOption {
	return func(e *Execution) {
		e.params = append([]any(nil), values...)
	}
}

// WithGlobal sets a global slot.
func WithGlobal(g types.Global, v any) ExecutionOption {
	return func(e *Execution) {
		if g < types.NumGlobals {
			e.globals[g] = v
		}
	}
}

// WithCode attaches the code modules callable from expressions.
func WithCode(s *codemod.Set) ExecutionOption {
	return func(e *Execution) {
		if s != nil {
			e.code = s.Instantiate()
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ExecutionOption {
	return func(e *Execution) {
		e.logger = logger
	}
}

// NewExecution creates an execution. ExecutionTime defaults to the current
// time.
func NewExecution(opts ...ExecutionOption) *Execution {
	e := &Execution{
		id:       uuid.New(),
		items:    make(map[int]any),
		dataSets: make(map[int]*RowCollection),
		memo:     make(map[memoKey]any),
	}
	e.globals[types.GlobalExecutionTime] = time.Now()
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("execution", e.id.String())
	return e
}

// ID returns the unique identifier of the execution.
func (e *Execution) ID() uuid.UUID { return e.id }

// Logger returns the execution logger.
func (e *Execution) Logger() *slog.Logger { return e.logger }

// Parameter returns the value of parameter slot, nil when unset.
func (e *Execution) Parameter(slot int) any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if slot < 0 || slot >= len(e.params) {
		return nil
	}
	return e.params[slot]
}

// SetParameter sets the value of parameter slot.
func (e *Execution) SetParameter(slot int, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if slot >= len(e.params) {
		e.params = append(e.params, make([]any, slot+1-len(e.params))...)
	}
	e.params[slot] = v
}

// Global returns the value of a global slot.
func (e *Execution) Global(g types.Global) any {
	if g >= types.NumGlobals {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.globals[g]
}

// SetGlobal sets a global slot. The renderer updates PageNumber and
// TotalPages as pages are produced.
func (e *Execution) SetGlobal(g types.Global, v any) {
	if g >= types.NumGlobals {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.globals[g] = v
}

// Item returns the rendered value of the report item with node ID id.
func (e *Execution) Item(id int) any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.items[id]
}

// SetItem records the rendered value of a report item.
func (e *Execution) SetItem(id int, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items[id] = v
}

// AddDataSet registers the rows of a dataset so that aggregates scoped to it
// can be evaluated from rows of other datasets.
func (e *Execution) AddDataSet(rows *RowCollection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dataSets[rows.Scope().ID] = rows
}

// DataSet returns the rows registered for the dataset with node ID id.
func (e *Execution) DataSet(id int) (*RowCollection, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rows, ok := e.dataSets[id]
	return rows, ok
}

// Memo returns the value memoized for node over entry.
func (e *Execution) Memo(node any, entry *GroupEntry) (any, bool) {
	e.memoMu.Lock()
	defer e.memoMu.Unlock()
	v, ok := e.memo[memoKey{node, entry}]
	return v, ok
}

// SetMemo memoizes the value of node over entry.
func (e *Execution) SetMemo(node any, entry *GroupEntry, v any) {
	e.memoMu.Lock()
	defer e.memoMu.Unlock()
	e.memo[memoKey{node, entry}] = v
}

// ResetMemo drops every memoized aggregate, for instance after the rows of
// a dataset were replaced.
func (e *Execution) ResetMemo() {
	e.memoMu.Lock()
	defer e.memoMu.Unlock()
	clear(e.memo)
}

// CallCode invokes a code module export.
func (e *Execution) CallCode(ctx context.Context, f *codemod.Func, args []float64) (float64, error) {
	e.codeMu.Lock()
	defer e.codeMu.Unlock()
	if e.code == nil {
		return 0, types.NewError(types.ErrCodeCall, "no code modules attached to the execution", -1)
	}
	return e.code.Call(ctx, f, args)
}

// Close releases the code module instances of the execution.
func (e *Execution) Close(ctx context.Context) error {
	e.codeMu.Lock()
	defer e.codeMu.Unlock()
	if e.code == nil {
		return nil
	}
	err := e.code.Close(ctx)
	e.code = nil
	return err
}
