// Package types defines the shared vocabulary of gordl.
//
// This package contains type definitions for:
//   - Expression: a parsed (unbound) expression and its AST
//   - ASTNode: Abstract Syntax Tree nodes
//   - ValueType: declared result types and their neutral values
//   - Scope: aggregation scope descriptors
//   - Error types: structured errors with codes
package types

// Expression is a parsed expression: source text plus AST, before any name
// has been resolved. Parsed expressions carry no per-report state and are
// safe to share between compilations.
type Expression struct {
	ast    *ASTNode
	source string
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *ASTNode, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// AST returns the Abstract Syntax Tree of the expression.
func (e *Expression) AST() *ASTNode {
	return e.ast
}

// Source returns the original source code of the expression.
func (e *Expression) Source() string {
	return e.source
}

// String returns a string representation of the expression.
func (e *Expression) String() string {
	return e.source
}
