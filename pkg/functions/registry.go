// Package functions provides types for registering custom scalar functions.
//
// Hosts can make their own functions callable from report expressions.
// Custom functions are resolved by the compiler (which checks the argument
// count) and invoked by the evaluator. Built-in functions always take
// precedence over a custom function with the same name.
//
// # Example
//
//	reg, _ := functions.NewRegistry()
//	err := reg.Register(functions.CustomFunctionDef{
//	    Name: "Greet", MinArgs: 1, MaxArgs: 1,
//	    Fn: func(ctx context.Context, args ...any) (any, error) {
//	        return "Hello, " + fmt.Sprint(args[0]), nil
//	    },
//	})
package functions

import (
	"context"
	"fmt"
	"strings"
)

// CustomFunc is the signature for user-defined custom functions.
// args contains the evaluated function arguments in order.
type CustomFunc func(ctx context.Context, args ...any) (any, error)

// CustomFunctionDef describes a user-defined function.
type CustomFunctionDef struct {
	// Name is the function name as written in expressions. Lookup is case
	// insensitive.
	Name string
	// MinArgs is the minimum number of arguments.
	MinArgs int
	// MaxArgs is the maximum number of arguments; -1 means unlimited.
	MaxArgs int
	// Fn is the implementation. It must be safe for concurrent use.
	Fn CustomFunc
}

// Accepts reports whether n arguments satisfy the arity of d.
func (d *CustomFunctionDef) Accepts(n int) bool {
	return n >= d.MinArgs && (d.MaxArgs < 0 || n <= d.MaxArgs)
}

// Registry is an immutable-after-setup set of custom functions.
type Registry struct {
	defs map[string]*CustomFunctionDef
}

// NewRegistry creates a registry holding defs.
func NewRegistry(defs ...CustomFunctionDef) (*Registry, error) {
	r := &Registry{defs: make(map[string]*CustomFunctionDef, len(defs))}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds d. Registering must complete before the registry is used by
// a compilation.
func (r *Registry) Register(d CustomFunctionDef) error {
	if d.Name == "" || d.Fn == nil {
		return fmt.Errorf("functions: definition needs a name and an implementation")
	}
	key := strings.ToLower(d.Name)
	if _, dup := r.defs[key]; dup {
		return fmt.Errorf("functions: %q already registered", d.Name)
	}
	r.defs[key] = &d
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*CustomFunctionDef, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.defs[strings.ToLower(name)]
	return d, ok
}
