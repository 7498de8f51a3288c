// Package parser implements the report expression parser.
//
// The parser uses a hand-written recursive descent approach. It accepts the
// formula part of a value (the text after the leading '=') and produces an
// unbound AST: names are kept as written and resolved later by the compiler.
//
// # Architecture
//
// The parser consists of two components:
//   - Lexer: Tokenizes the input expression into a stream of tokens
//   - Parser: Builds an Abstract Syntax Tree (AST) from tokens
//
// # Example
//
//	expr, err := parser.Parse("Sum(Fields!Amount.Value) * 2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
package parser

import (
	"github.com/sandrolain/gordl/pkg/types"
)

// Parse parses an expression and returns the parsed Expression.
//
// If parsing fails, it returns a *types.Error with position information.
func Parse(query string) (*types.Expression, error) {
	p := NewParser(query)
	return p.Parse()
}

// Compile is an alias for Parse accepting options.
func Compile(query string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(query, opts...)
	return p.Parse()
}

// CompileOption configures parsing behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits recursion depth to prevent stack overflow.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
