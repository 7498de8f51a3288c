package report

import (
	"github.com/sandrolain/gordl/pkg/compiler"
	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/types"
)

// Expression is an expression-valued property of a node. The program is
// available once the final pass compiled it.
type Expression struct {
	// Source is the text as written in the document.
	Source string
	// Type is the declared result type.
	Type types.ValueType

	owner Node
	pos   diag.Pos
	prog  *compiler.Program
}

// Owner returns the node holding the expression.
func (e *Expression) Owner() Node {
	return e.owner
}

// Pos returns the position of the element holding the source.
func (e *Expression) Pos() diag.Pos {
	return e.pos
}

// Compiled reports whether the expression has been compiled.
func (e *Expression) Compiled() bool {
	return e.prog != nil
}

// Program returns the compiled program, or nil before the final pass.
func (e *Expression) Program() *compiler.Program {
	return e.prog
}

// IsConstant reports whether the source is not a formula.
func (e *Expression) IsConstant() bool {
	return e.prog != nil && e.prog.IsConstant()
}

// compile binds the expression in the environment of its owner. Errors are
// recorded against the owner; the program then evaluates to the neutral
// value of the declared type. Compiling twice is a no-op.
func (e *Expression) compile(c *Compilation) {
	if e.prog != nil {
		return
	}
	e.prog = c.comp.Compile(e.Source, e.Type, newEnv(c, e.owner))
	for _, err := range e.prog.Errors() {
		c.sink.Add(diag.Diagnostic{
			Severity: c.opts.ExpressionSeverity,
			Code:     err.Code,
			Message:  err.Message,
			NodeID:   e.owner.ID(),
			Element:  e.owner.Element(),
			Pos:      e.pos,
			Offset:   err.Position,
		})
	}
}

// Programs returns the programs of exprs in order.
func Programs(exprs []*Expression) []*compiler.Program {
	out := make([]*compiler.Program, len(exprs))
	for i, e := range exprs {
		out[i] = e.prog
	}
	return out
}
