// Package codemod hosts the code modules of a report: WebAssembly binaries
// embedded in the definition whose exported numeric functions are callable
// from expressions as Code.name(args).
//
// A Set is built while the document is compiled and is immutable afterwards.
// Module instances, which own linear memory, are created per execution by
// Instances so that concurrent executions never share mutable state.
package codemod

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/sandrolain/gordl/pkg/types"
)

// Func is an exported function usable from expressions.
type Func struct {
	Module  int
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Arity returns the number of parameters.
func (f *Func) Arity() int {
	return len(f.Params)
}

type module struct {
	name     string
	compiled wazero.CompiledModule
}

// Set is the collection of compiled code modules of one report.
type Set struct {
	mu      sync.Mutex
	rt      wazero.Runtime
	modules []module
	funcs   map[string]*Func
}

// NewSet creates an empty set. The wazero runtime is created on first Add.
func NewSet() *Set {
	return &Set{funcs: make(map[string]*Func)}
}

// Add compiles bin and registers its usable exports. The returned warnings
// describe exports that were skipped; err is non-nil when the module itself
// is unusable.
func (s *Set) Add(ctx context.Context, name string, bin []byte) (warnings []error, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rt == nil {
		s.rt = wazero.NewRuntime(ctx)
	}
	cm, err := s.rt.CompileModule(ctx, bin)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidModule, fmt.Sprintf("code module %q: %v", name, err), -1).WithCause(err)
	}
	if imports := cm.ImportedFunctions(); len(imports) > 0 {
		_ = cm.Close(ctx)
		return nil, types.NewError(types.ErrInvalidModule, fmt.Sprintf("code module %q imports %d host functions; imports are not supported", name, len(imports)), -1)
	}

	idx := len(s.modules)
	s.modules = append(s.modules, module{name: name, compiled: cm})

	exports := cm.ExportedFunctions()
	names := make([]string, 0, len(exports))
	for n := range exports {
		names = append(names, n)
	}
	slices.Sort(names)

	for _, n := range names {
		def := exports[n]
		if !supported(def.ParamTypes()) || len(def.ResultTypes()) != 1 || !supported(def.ResultTypes()) {
			warnings = append(warnings, types.NewError(types.ErrUnsupportedSig,
				fmt.Sprintf("code module %q: export %q skipped: only numeric parameters and a single numeric result are supported", name, n), -1))
			continue
		}
		key := strings.ToLower(n)
		if prev, dup := s.funcs[key]; dup {
			warnings = append(warnings, types.NewError(types.ErrDuplicateExport,
				fmt.Sprintf("code module %q: export %q already provided by module %q", name, n, s.modules[prev.Module].name), -1))
			continue
		}
		s.funcs[key] = &Func{
			Module:  idx,
			Name:    n,
			Params:  slices.Clone(def.ParamTypes()),
			Results: slices.Clone(def.ResultTypes()),
		}
	}
	return warnings, nil
}

// Lookup returns the function exported under name (case insensitive).
func (s *Set) Lookup(name string) (*Func, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.funcs[strings.ToLower(name)]
	return f, ok
}

// Len returns the number of modules in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.modules)
}

// Close releases the runtime and every compiled module.
func (s *Set) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rt == nil {
		return nil
	}
	err := s.rt.Close(ctx)
	s.rt = nil
	s.modules = nil
	return err
}

// Instances holds the module instances of one execution.
// Instances is not safe for concurrent use.
type Instances struct {
	set  *Set
	mods []api.Module
}

// Instantiate creates an empty instance holder. Modules are instantiated
// lazily on first call.
func (s *Set) Instantiate() *Instances {
	return &Instances{set: s}
}

// Call invokes f with args converted to its parameter types and returns the
// result as float64.
func (in *Instances) Call(ctx context.Context, f *Func, args []float64) (float64, error) {
	if len(args) != len(f.Params) {
		return 0, types.NewError(types.ErrCodeCall, fmt.Sprintf("Code.%s expects %d arguments, got %d", f.Name, len(f.Params), len(args)), -1)
	}
	mod, err := in.module(ctx, f.Module)
	if err != nil {
		return 0, err
	}
	fn := mod.ExportedFunction(f.Name)
	if fn == nil {
		return 0, types.NewError(types.ErrCodeCall, fmt.Sprintf("Code.%s is not exported", f.Name), -1)
	}
	params := make([]uint64, len(args))
	for i, a := range args {
		params[i] = encode(f.Params[i], a)
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return 0, types.NewError(types.ErrCodeCall, fmt.Sprintf("Code.%s: %v", f.Name, err), -1).WithCause(err)
	}
	return decode(f.Results[0], res[0]), nil
}

// Close closes every instantiated module.
func (in *Instances) Close(ctx context.Context) error {
	var first error
	for _, m := range in.mods {
		if m == nil {
			continue
		}
		if err := m.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	in.mods = nil
	return first
}

func (in *Instances) module(ctx context.Context, idx int) (api.Module, error) {
	if len(in.mods) <= idx {
		in.mods = append(in.mods, make([]api.Module, idx+1-len(in.mods))...)
	}
	if m := in.mods[idx]; m != nil {
		return m, nil
	}
	in.set.mu.Lock()
	rt, compiled := in.set.rt, in.set.modules[idx].compiled
	in.set.mu.Unlock()
	if rt == nil {
		return nil, types.NewError(types.ErrCodeCall, "code modules are closed", -1)
	}
	// Anonymous so that every execution gets its own instance.
	m, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, types.NewError(types.ErrCodeCall, fmt.Sprintf("instantiate code module: %v", err), -1).WithCause(err)
	}
	in.mods[idx] = m
	return m, nil
}

func supported(vts []api.ValueType) bool {
	for _, vt := range vts {
		switch vt {
		case api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64:
		default:
			return false
		}
	}
	return true
}

func encode(vt api.ValueType, v float64) uint64 {
	switch vt {
	case api.ValueTypeI32:
		return api.EncodeI32(int32(v))
	case api.ValueTypeI64:
		return api.EncodeI64(int64(v))
	case api.ValueTypeF32:
		return api.EncodeF32(float32(v))
	default:
		return api.EncodeF64(v)
	}
}

func decode(vt api.ValueType, v uint64) float64 {
	switch vt {
	case api.ValueTypeI32:
		return float64(api.DecodeI32(v))
	case api.ValueTypeI64:
		return float64(int64(v))
	case api.ValueTypeF32:
		return float64(api.DecodeF32(v))
	default:
		return api.DecodeF64(v)
	}
}
