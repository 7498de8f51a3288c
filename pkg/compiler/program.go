package compiler

import (
	"github.com/sandrolain/gordl/pkg/codemod"
	"github.com/sandrolain/gordl/pkg/functions"
	"github.com/sandrolain/gordl/pkg/types"
)

// Node is a node of a bound expression tree. Every reference in a bound
// tree carries its resolved target; evaluating it needs no name lookup.
type Node interface {
	// Pos returns the byte offset of the node in the expression source.
	Pos() int
}

type at int

func (a at) Pos() int { return int(a) }

// Literal is a constant value.
type Literal struct {
	at
	Value any
}

// FieldRef reads the column at Index of the current row.
type FieldRef struct {
	at
	Name    string
	Index   int
	DataSet int
}

// ParamRef reads report parameter Slot.
type ParamRef struct {
	at
	Name string
	Slot int
}

// GlobalRef reads a global slot.
type GlobalRef struct {
	at
	Global types.Global
}

// ItemRef reads the rendered value of the report item with node ID ID.
type ItemRef struct {
	at
	Name string
	ID   int
}

// Unary applies Op ("-" or "Not") to X.
type Unary struct {
	at
	Op string
	X  Node
}

// Binary applies Op to X and Y.
type Binary struct {
	at
	Op   string
	X, Y Node
}

// Call invokes a built-in scalar function.
type Call struct {
	at
	Fn   *Builtin
	Args []Node
}

// CustomCall invokes a host-registered function.
type CustomCall struct {
	at
	Def  *functions.CustomFunctionDef
	Args []Node
}

// CodeCall invokes an export of a code module.
type CodeCall struct {
	at
	Fn   *codemod.Func
	Args []Node
}

// Aggregate computes Func over the rows of Scope. Arg is nil for CountRows
// and RowNumber. Running is the accumulator of a RunningValue.
//
// Aggregate nodes are immutable; evaluators key their per-execution memo on
// the node's identity.
type Aggregate struct {
	at
	Func    AggFunc
	Arg     Node
	Running AggFunc
	Scope   types.Scope
}

// BindingKind classifies an entry of a program's binding table.
type BindingKind uint8

const (
	BindField BindingKind = iota
	BindParameter
	BindGlobal
	BindAggregate
	BindReportItem
	BindCode
	BindCustom
)

func (k BindingKind) String() string {
	switch k {
	case BindField:
		return "field"
	case BindParameter:
		return "parameter"
	case BindGlobal:
		return "global"
	case BindAggregate:
		return "aggregate"
	case BindReportItem:
		return "reportitem"
	case BindCode:
		return "code"
	default:
		return "custom"
	}
}

// Binding records how one symbolic reference was resolved.
type Binding struct {
	Kind BindingKind
	// Name is the symbol as written.
	Name string
	// Index is the column index, parameter slot, global slot or report item
	// node ID, depending on Kind.
	Index int
	// Scope is set for aggregate bindings.
	Scope types.Scope
	// Pos is the byte offset of the reference in the source.
	Pos int
}

// Program is a compiled expression.
//
// A Program is immutable and safe for concurrent evaluation. A failed
// program evaluates to the neutral value of its declared type.
type Program struct {
	source   string
	typ      types.ValueType
	root     Node
	constant bool
	value    any
	errs     []*types.Error
	bindings []Binding
	rowScope bool
}

// Source returns the expression text as written in the document.
func (p *Program) Source() string { return p.source }

// Type returns the declared result type.
func (p *Program) Type() types.ValueType { return p.typ }

// Root returns the bound tree, or nil for constants and failed programs.
func (p *Program) Root() Node { return p.root }

// Failed reports whether compilation produced errors.
func (p *Program) Failed() bool { return len(p.errs) > 0 }

// Errors returns the compile errors.
func (p *Program) Errors() []*types.Error { return p.errs }

// Bindings returns the resolved binding table in source order.
func (p *Program) Bindings() []Binding { return p.bindings }

// IsConstant reports whether the value was not a formula.
func (p *Program) IsConstant() bool { return p.constant }

// Constant returns the value of a constant program, or the neutral value of
// a failed one.
func (p *Program) Constant() any {
	if p.Failed() {
		return p.typ.Neutral()
	}
	return p.value
}

// RowScoped reports whether evaluating the program needs a current row.
func (p *Program) RowScoped() bool { return p.rowScope }
